// Package model defines the data shapes served by the API.
package model

// UsersTable is the relation read by the users listing.
const UsersTable = "users"

// User is one record of the users relation. Its columns are defined by the
// store's schema, not by this code.
type User = Row
