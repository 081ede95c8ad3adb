package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/coastwrpt/wrpt/core"
)

// User is either a staff member or bound to exactly one school, never both.
type User struct {
	ID                     string      `json:"id" db:"id"`
	Username               string      `json:"username" db:"username"`
	IsActive               bool        `json:"is_active" db:"is_active"`
	IsStaff                bool        `json:"is_staff" db:"is_staff"`
	SchoolID               null.String `json:"school_id" db:"school_id"`
	HideChangePasswordLink bool        `json:"hide_change_password_link" db:"hide_change_password_link"`
	PasswordHash           []byte      `json:"-" db:"password_hash"`
	CreatedAt              time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt              time.Time   `json:"updated_at" db:"updated_at"` // UTC
	LastLogin              null.Time   `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// CanSubmit reports whether the user may submit counts for the school `schoolID`.
func (u User) CanSubmit(schoolID string) bool {
	if !u.IsActive {
		return false
	}
	return u.IsStaff || (u.SchoolID.Valid && u.SchoolID.String == schoolID)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username               string      `json:"username" validate:"required,min=3,max=30,alphanum_"`
	IsStaff                bool        `json:"is_staff"`
	SchoolID               null.String `json:"school_id"`
	HideChangePasswordLink bool        `json:"hide_change_password_link"`
	Password               string      `json:"password" validate:"required"`
	PasswordConfirm        string      `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	if nu.SchoolID.Valid {
		nu.SchoolID.String = core.CleanString(nu.SchoolID.String)
		nu.SchoolID.Valid = nu.SchoolID.String != ""
	}
	return validate.Struct(nu)
}

// ChangePassword is a user's request to replace their own password.
type ChangePassword struct {
	OldPassword     string `json:"old_password" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (cp ChangePassword) Validate(validate *validator.Validate) error { return validate.Struct(cp) }
