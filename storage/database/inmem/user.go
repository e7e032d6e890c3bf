package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}

	for _, usr := range repo.query() {
		if excluded[usr.ID] {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsernameOrEmail(_ context.Context, username string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if username == "" {
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.query() {
		if (usr.Username == username) || (usr.Email == username) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter, orderings []core.DBOrdering) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	search := strings.ToLower(filter.Search)
	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if filter.SchoolID != "" && usr.SchoolID != filter.SchoolID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(usr.Name), search) &&
			!strings.Contains(strings.ToLower(usr.Username), search) &&
			!strings.Contains(strings.ToLower(usr.Email), search) {
			continue
		}
		if len(filter.Roles) > 0 && !hasAnyRolePrefix(usr, filter.Roles) {
			continue
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			continue
		}
		users = append(users, usr)
	}

	sort.SliceStable(users, func(i, j int) bool { return userLess(users[i], users[j], orderings) })
	return users, nil
}

func hasAnyRolePrefix(usr user.User, prefixes []string) bool {
	for _, p := range prefixes {
		if usr.RoleStartsWith(p) {
			return true
		}
	}
	return false
}

// userLess compares by `orderings` then by name.
func userLess(a, b user.User, orderings []core.DBOrdering) bool {
	for _, ord := range orderings {
		var cmp int
		switch ord.Field {
		case "name":
			cmp = strings.Compare(a.Name, b.Name)
		case "username":
			cmp = strings.Compare(a.Username, b.Username)
		case "email":
			cmp = strings.Compare(a.Email, b.Email)
		case "created_at":
			cmp = compareTimes(a.CreatedAt, b.CreatedAt)
		default:
			continue
		}
		if cmp != 0 {
			return (cmp < 0) == ord.Ascending
		}
	}
	return a.Name < b.Name
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}
