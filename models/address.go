package models

import (
	"regexp"
	"strings"
)

var (
	mobilePattern  = regexp.MustCompile(`^\d{10}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
)

type Address struct {
	ID        string `json:"_id,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Name      string `json:"name"`
	Mobile    string `json:"mobile,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Pincode   string `json:"pincode"`
	HouseNo   string `json:"houseNo"`
	Street    string `json:"street"`
	Landmark  string `json:"landmark,omitempty"`
	Town      string `json:"town"`
	City      string `json:"city"`
	State     string `json:"state"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// Contact returns whichever phone field the backend filled in.
func (a Address) Contact() string {
	if a.Phone != "" {
		return a.Phone
	}
	return a.Mobile
}

func (a Address) Validate() error {
	f := FieldErrors{}
	f.Require("name", a.Name, "Name is required.")
	switch contact := strings.TrimSpace(a.Contact()); {
	case contact == "":
		f["mobile"] = "Mobile number is required."
	case !mobilePattern.MatchString(contact):
		f["mobile"] = "Enter a valid 10-digit mobile number."
	}
	switch pin := strings.TrimSpace(a.Pincode); {
	case pin == "":
		f["pincode"] = "Pincode is required."
	case !pincodePattern.MatchString(pin):
		f["pincode"] = "Enter a valid 6-digit pincode."
	}
	f.Require("houseNo", a.HouseNo, "House number is required.")
	f.Require("city", a.City, "City is required.")
	f.Require("state", a.State, "State is required.")
	f.Require("town", a.Town, "Town is required.")
	f.Require("street", a.Street, "Street is required.")
	return f.Err()
}

// Lines renders the address the way the invoice prints it.
func (a Address) Lines() []string {
	var lines []string
	first := strings.Join(nonEmpty(a.HouseNo, a.Street, a.Landmark), ", ")
	if first != "" {
		lines = append(lines, first)
	}
	second := strings.Join(nonEmpty(a.Town, a.City, a.State), ", ")
	if a.Pincode != "" {
		second += " - " + a.Pincode
	}
	if second != "" {
		lines = append(lines, second)
	}
	return lines
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

type AddressList []Address
