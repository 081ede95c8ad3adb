package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/coastwrpt/wrpt/core/user"
)

type userRepository struct {
	exec Executor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec Executor) *userRepository {
	return &userRepository{exec: exec}
}

const userColumns = `id, username, is_active, is_staff, school_id, hide_change_password_link, password_hash,
created_at, updated_at, last_login`

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `
INSERT INTO users (` + userColumns + `)
VALUES (:id, :username, :is_active, :is_staff, :school_id, :hide_change_password_link, :password_hash,
        :created_at, :updated_at, :last_login)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, usr); err != nil {
		return user.User{}, dbError(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var usr user.User
	err := repo.exec.GetContext(ctx, &usr, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return usr, dbError(err, "selecting user")
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	var usr user.User
	err := repo.exec.GetContext(ctx, &usr, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return usr, dbError(err, "selecting user")
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `
UPDATE users
SET username = :username, is_active = :is_active, is_staff = :is_staff, school_id = :school_id,
    hide_change_password_link = :hide_change_password_link, password_hash = :password_hash,
    updated_at = :updated_at, last_login = :last_login
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, usr)
	if err != nil {
		return user.User{}, dbError(err, "updating user")
	}
	if err = mustAffect(res, "updating user"); err != nil {
		return user.User{}, err
	}
	return usr, nil
}
