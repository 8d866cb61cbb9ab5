package models

import "time"

// User is a registered directory user. SessionID rotates on every login;
// tokens carrying a stale session are rejected (single-session semantics).
type User struct {
	ID           int       `json:"id" db:"id"`
	Login        string    `json:"login" db:"login"`
	Pass         string    `json:"-" db:"pass"`
	Mail         string    `json:"mail" db:"mail"`
	Avatar       []byte    `json:"avatar,omitempty" db:"avatar"`
	DateOfCreate time.Time `json:"date_of_create" db:"date_of_create"`
	SessionID    *string   `json:"session_id,omitempty" db:"session_id"`
	Role         string    `json:"role" db:"role"`
}

func (User) TableName() string {
	return "users"
}

// Role grants elevated permissions; a user without a row is a plain "user".
type Role struct {
	ID     int    `json:"id" db:"id"`
	UserID int    `json:"user_id" db:"user_id"`
	Name   string `json:"name" db:"name"`
}

func (Role) TableName() string {
	return "roles"
}

type RegisterRequest struct {
	Login         string `json:"login" validate:"required"`
	Password      string `json:"password" validate:"required,min=6"`
	Email         string `json:"email" validate:"required,email"`
	CaptchaID     string `json:"captcha_id" validate:"required"`
	CaptchaAnswer string `json:"captcha_answer" validate:"required"`
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// SendCodeRequest asks for a password-recovery code to be mailed.
type SendCodeRequest struct {
	Mail string `json:"mail" validate:"required,email"`
}

// RecoveryPasswordRequest resets the password once the mailed code matches.
type RecoveryPasswordRequest struct {
	Mail     string `json:"mail" validate:"required,email"`
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// SetRoleRequest assigns a role; the name "user" removes the role row.
type SetRoleRequest struct {
	UserID int    `json:"user_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
}
