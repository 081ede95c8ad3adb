package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/coastwrpt/wrpt/core"
)

var (
	// errors
	ErrUsernameExists = errors.New("a user with this username already exists")
	ErrWrongPassword  = errors.New("your old password was entered incorrectly")
)

type (
	// Repository persists users.
	// CreateUser returns core.ErrConflict on a taken username; getters & UpdateUser core.ErrNotFound.
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		ID:                     uuid.New().String(),
		Username:               nu.Username,
		IsActive:               true,
		IsStaff:                nu.IsStaff,
		SchoolID:               nu.SchoolID,
		HideChangePasswordLink: nu.HideChangePasswordLink,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if errors.Cause(err) == core.ErrConflict {
		return User{}, core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
	}
	return usr, err
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = null.TimeFrom(time.Now().UTC())
	return svc.repo.UpdateUser(ctx, usr)
}

// ChangePassword replaces the password of `usr` after checking their current one.
func (svc *Service) ChangePassword(ctx context.Context, usr User, cp ChangePassword) (User, error) {
	if err := cp.Validate(svc.validate); err != nil {
		return User{}, err
	}
	if err := usr.CheckPassword(cp.OldPassword); err != nil {
		return User{}, core.NewValidationError(ErrWrongPassword, core.FieldError{Field: "old_password", Error: ErrWrongPassword.Error()})
	}
	return svc.setPassword(ctx, usr, cp.Password)
}

// ResetPassword sets a new password without any policy check. Used by the admin CLI.
func (svc *Service) ResetPassword(ctx context.Context, uname, pwd string) (User, error) {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return User{}, err
	}
	return svc.setPassword(ctx, usr, pwd)
}

func (svc *Service) setPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}
