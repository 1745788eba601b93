package models

import (
	"errors"
	"regexp"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
	Image  string `json:"image,omitempty"`
	Status bool   `json:"status,omitempty"`
}

func (u User) Validate() error {
	if u.ID == "" {
		return errors.New("user without id")
	}
	return nil
}

// Customer is the admin view of a user; the backend keys it by _id.
type Customer struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Status bool   `json:"status"`
}

type CustomerList []Customer

type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Image string `json:"image,omitempty"`
}

func (p ProfileUpdate) Validate() error {
	f := FieldErrors{}
	f.Require("name", p.Name, "Name is required")
	if !emailPattern.MatchString(p.Email) {
		f["email"] = "Enter a valid email address"
	}
	if p.Phone != "" && !phonePattern.MatchString(p.Phone) {
		f["phone"] = "Phone number must be 10 digits"
	}
	return f.Err()
}
