package models

import "errors"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	f := FieldErrors{}
	f.Require("email", r.Email, "Email is required")
	f.Require("password", r.Password, "Password is required")
	return f.Err()
}

// LoginResponse is what userlogin returns.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

func (r LoginResponse) Validate() error {
	if r.AccessToken == "" {
		return errors.New("login response without accessToken")
	}
	return r.User.Validate()
}

type AdminLoginResponse struct {
	AdminToken   string `json:"adminToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

func (r AdminLoginResponse) Validate() error {
	if r.AdminToken == "" {
		return errors.New("admin login response without adminToken")
	}
	return nil
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	AccessToken string `json:"accessToken"`
	AdminToken  string `json:"adminToken"`
}

type RegisterRequest struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	OTP             string `json:"otp,omitempty"`
}

func (r RegisterRequest) Validate() error {
	f := FieldErrors{}
	f.Require("name", r.Name, "Name is required")
	if !phonePattern.MatchString(r.Phone) {
		f["phone"] = "Phone number must be 10 digits"
	}
	if !emailPattern.MatchString(r.Email) {
		f["email"] = "Enter a valid email address"
	}
	if len(r.Password) < 6 {
		f["password"] = "Password must be at least 6 characters"
	}
	if r.ConfirmPassword != r.Password {
		f["confirmPassword"] = "Passwords do not match"
	}
	return f.Err()
}

type OTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp,omitempty"`
}

type OTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ForgotPasswordRequest struct {
	Email           string `json:"email"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r ForgotPasswordRequest) Validate() error {
	f := FieldErrors{}
	if !emailPattern.MatchString(r.Email) {
		f["email"] = "Enter a valid email address"
	}
	if len(r.NewPassword) < 6 {
		f["newPassword"] = "Password must be at least 6 characters"
	}
	if r.ConfirmPassword != r.NewPassword {
		f["confirmPassword"] = "Passwords do not match"
	}
	return f.Err()
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r ChangePasswordRequest) Validate() error {
	f := FieldErrors{}
	f.Require("currentPassword", r.CurrentPassword, "Current password is required")
	if len(r.NewPassword) < 6 {
		f["newPassword"] = "Password must be at least 6 characters"
	}
	if r.ConfirmPassword != r.NewPassword {
		f["confirmPassword"] = "Passwords do not match"
	}
	return f.Err()
}

// MessageResponse covers the many backend endpoints that only return a message.
type MessageResponse struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message"`
}
