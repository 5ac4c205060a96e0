package domain

import (
	"errors"
	"regexp"
	"strings"
)

// AccountID is the opaque, comparable identity of an account. The memory
// engine issues sequence numbers, the Mongo engine ObjectID hex strings;
// nothing outside the storage layer may assume either format.
type AccountID string

var ErrAccountNotFound = errors.New("account not found")
var ErrAccountExists = errors.New("account already exists")
var ErrInvalidUsername = errors.New("username contains invalid characters")
var ErrBanned = errors.New("account is banned")

// Account models a registered user. Accounts are created on first login and
// never hard-deleted; banning is a soft flag checked at the auth boundary.
type Account struct {
	ID                 AccountID `json:"id" bson:"_id,omitempty"`
	Username           string    `json:"username" bson:"username"`
	NormalizedUsername string    `json:"normalized_username" bson:"normalized_username"`
	DiscordID          string    `json:"discord_id,omitempty" bson:"discord_id,omitempty"`
	Avatar             string    `json:"avatar" bson:"avatar"`
	Admin              bool      `json:"admin,omitempty" bson:"admin,omitempty"`
	Banned             bool      `json:"banned,omitempty" bson:"banned,omitempty"`
}

// usernameRegex restricts usernames for the client font and to avoid
// clashing with upstream display names.
var usernameRegex = regexp.MustCompile(`^[a-z0-9_-]+$`)

// NormalizeUsername lowercases a username for uniqueness checks.
func NormalizeUsername(name string) string {
	return strings.ToLower(name)
}

// ValidUsername reports whether name is acceptable as a username.
func ValidUsername(name string) bool {
	return usernameRegex.MatchString(NormalizeUsername(name))
}
