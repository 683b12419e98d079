package models

import "fmt"

// User is the signed-in account as reported by the identity provider
type User struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoURL"`
	EmailVerified bool   `json:"emailVerified"`
	Provider      string `json:"provider"` // password, google.com
}

// ProfileExtra holds the profile fields the identity provider has no room for
type ProfileExtra struct {
	Position string `json:"position" validate:"max=100"`
	Phone    string `json:"phone" validate:"max=40"`
	Company  string `json:"company" validate:"max=100"`
	Bio      string `json:"bio" validate:"max=1000"`
}

// ProfileExtraKey is the key-value key of a user's extra profile fields
func ProfileExtraKey(uid string) string {
	return fmt.Sprintf("profile_extra_%s", uid)
}
