package model

// Status is the outcome reported by every JSON response.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Envelope is the top-level JSON object returned by the API.
// Error responses carry Message; the users listing carries Data.
type Envelope struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success builds a success envelope around data.
func Success(data any) Envelope {
	return Envelope{Status: StatusSuccess, Data: data}
}

// Error builds an error envelope with a human-readable message.
func Error(message string) Envelope {
	return Envelope{Status: StatusError, Message: message}
}

// UsersEnvelope is the decoded form of a users listing response.
type UsersEnvelope struct {
	Status  Status  `json:"status"`
	Message *string `json:"message,omitempty"`
	Data    []*User `json:"data,omitempty"`
}
