package domain

import "time"

// User is stored in the users table keyed by email.
// OTP and OTPExpires are set and cleared together.
type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Username     string     `json:"username" dynamodbav:"username"`
	Email        string     `json:"email" dynamodbav:"email"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Verified     bool       `json:"verified" dynamodbav:"verified"`
	OTP          *string    `json:"-" dynamodbav:"otp,omitempty"`
	OTPExpires   *time.Time `json:"-" dynamodbav:"otp_expires,omitempty"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// OTPValid reports whether code matches the pending challenge and it has not expired at now.
func (u *User) OTPValid(code string, now time.Time) bool {
	if u.OTP == nil || u.OTPExpires == nil {
		return false
	}
	return *u.OTP == code && now.Before(*u.OTPExpires)
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required"`
	OTP   string `json:"otp" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}
