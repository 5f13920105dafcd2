package model

import "strings"

// Auth providers reported by the account endpoints.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// User is the account record returned on sign-in and by /me.
type User struct {
	ID           AccountID              `json:"id" yaml:"id"`
	Email        string                 `json:"email" yaml:"email"`
	Name         string                 `json:"name,omitempty" yaml:"name,omitempty"`
	Gender       string                 `json:"gender,omitempty" yaml:"gender,omitempty"`
	DOB          string                 `json:"dob,omitempty" yaml:"dob,omitempty"`
	AuthProvider string                 `json:"auth_provider,omitempty" yaml:"auth_provider,omitempty"`
	Preferences  map[string]interface{} `json:"preferences,omitempty" yaml:"preferences,omitempty"`
}

// ProfileInfo is the extra data the server needs to create an account on
// first Google sign-in.
type ProfileInfo struct {
	Name   string `json:"name"`
	DOB    string `json:"dob"`
	Gender string `json:"gender"`
}

// AccountID is a user id. Backends have used both integer and string ids.
type AccountID string

func (id *AccountID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*id = AccountID(s)
	return nil
}
