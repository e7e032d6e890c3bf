package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/user"
)

const userColumns = `id, school_id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login`

type userRow struct {
	ID           string      `db:"id"`
	SchoolID     null.String `db:"school_id"`
	Name         string      `db:"name"`
	Username     null.String `db:"username"`
	Email        null.String `db:"email"`
	IsActive     bool        `db:"is_active"`
	Roles        string      `db:"roles"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func newUserRow(usr user.User) (userRow, error) {
	roles := usr.Roles
	if roles == nil {
		roles = []string{}
	}
	rolesJSON, err := toJSON(roles)
	if err != nil {
		return userRow{}, errors.Wrap(err, "encoding roles")
	}
	hash := usr.PasswordHash
	if hash == nil {
		hash = []byte{}
	}
	row := userRow{
		ID:           usr.ID,
		SchoolID:     null.NewString(usr.SchoolID, usr.SchoolID != ""),
		Name:         usr.Name,
		Username:     null.NewString(usr.Username, usr.Username != ""),
		Email:        null.NewString(usr.Email, usr.Email != ""),
		IsActive:     usr.IsActive,
		Roles:        rolesJSON,
		PasswordHash: hash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
	}
	if usr.LastLogin != nil {
		row.LastLogin = null.TimeFrom(usr.LastLogin.UTC())
	}
	return row, nil
}

func (row userRow) user() (user.User, error) {
	usr := user.User{
		ID:           row.ID,
		SchoolID:     row.SchoolID.String,
		Name:         row.Name,
		Username:     row.Username.String,
		Email:        row.Email.String,
		IsActive:     row.IsActive,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		t := row.LastLogin.Time.UTC()
		usr.LastLogin = &t
	}
	if err := fromJSON(row.Roles, &usr.Roles); err != nil {
		return user.User{}, errors.Wrap(err, "decoding roles")
	}
	return usr, nil
}

type userRepository struct {
	exec sqlx.ExtContext
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

// NewUserRepository returns a user.Repository running its queries on `exec` (a *sqlx.DB or *sqlx.Tx).
func NewUserRepository(exec sqlx.ExtContext) user.Repository {
	return &userRepository{exec: exec}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	conds := []string{"(username = ? OR email = ?)"}
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q, inArgs, err := sqlx.In("id NOT IN (?)", ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		conds = append(conds, q)
		args = append(args, inArgs...)
	}

	var rows []userRow
	q := "SELECT " + userColumns + " FROM users" + where(conds)
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, repo.exec.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, row := range rows {
		if username != "" && row.Username.String == username {
			return user.ErrUsernameExists
		}
		if email != "" && row.Email.String == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	row, err := newUserRow(usr)
	if err != nil {
		return user.User{}, err
	}
	q := "INSERT INTO users (" + userColumns + ") VALUES " +
		"(:id, :school_id, :name, :username, :email, :is_active, :roles, :password_hash, :created_at, :updated_at, :last_login)"
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) getOne(ctx context.Context, cond string, args ...interface{}) (user.User, error) {
	var row userRow
	q := "SELECT " + userColumns + " FROM users WHERE " + cond
	if err := sqlx.GetContext(ctx, repo.exec, &row, repo.exec.Rebind(q), args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return row.user()
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getOne(ctx, "id = ?", id)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	if username == "" {
		return user.User{}, user.ErrNotFound
	}
	return repo.getOne(ctx, "username = ? OR email = ? LIMIT 1", username, username)
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, orderings []core.DBOrdering) ([]user.User, error) {
	var conds []string
	var args []interface{}

	if filter.SchoolID != "" {
		conds = append(conds, "school_id = ?")
		args = append(args, filter.SchoolID)
	}
	// users with Name, Username or Email matching the search keyword
	if filter.Search != "" {
		val := "%" + strings.ToLower(filter.Search) + "%"
		conds = append(conds, "(LOWER(name) LIKE ? OR LOWER(username) LIKE ? OR LOWER(email) LIKE ?)")
		args = append(args, val, val, val)
	}
	// users with any role that starts with any of the provided roles
	if len(filter.Roles) > 0 {
		roleConds := make([]string, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			roleConds = append(roleConds, "roles LIKE ?")
			args = append(args, `%"`+role+`%`)
		}
		conds = append(conds, "("+strings.Join(roleConds, " OR ")+")")
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = ?")
		args = append(args, *filter.IsActive)
	}

	orderBy := core.OrderBy(orderings, "name ASC", "name", "username", "email", "created_at", "last_login")
	q := fmt.Sprintf("SELECT %s FROM users%s ORDER BY %s", userColumns, where(conds), orderBy)

	var rows []userRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		usr, err := row.user()
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row, err := newUserRow(usr)
	if err != nil {
		return user.User{}, err
	}
	q := `UPDATE users SET school_id = :school_id, name = :name, username = :username, email = :email,
		is_active = :is_active, roles = :roles, password_hash = :password_hash, updated_at = :updated_at,
		last_login = :last_login WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
