package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/user"
	"github.com/schoolerp/erp/tests"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewUserRepository(db)
	school := testutil.CreateSchool(t, NewReportcardRepository(db), "ZPHS Hanamkonda")

	created := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	admin := testutil.CreateUser(t, repo, school.ID, "Asha Rao", "asharao", "asha@school.in", "Admin@123",
		[]string{user.RoleAdminOwner}, true, created)
	teacher := testutil.CreateUser(t, repo, school.ID, "Ravi Kumar", "ravik", "ravi@school.in", "Teacher@123",
		[]string{user.RoleTeacher}, true, created.Add(time.Hour))
	testutil.CreateUser(t, repo, "", "Old Staff", "oldstaff", "old@school.in", "", nil, false, created.Add(2*time.Hour))

	t.Run("GetUserByID", func(t *testing.T) {
		got, err := repo.GetUserByID(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, admin.ID, got.ID)
		assert.Equal(t, school.ID, got.SchoolID)
		assert.Equal(t, []string{user.RoleAdminOwner}, got.Roles)
		assert.True(t, got.IsActive)
		assert.True(t, got.CreatedAt.Equal(created))
		assert.Nil(t, got.LastLogin)
		assert.NoError(t, got.CheckPassword("Admin@123"))

		_, err = repo.GetUserByID(ctx, "missing")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("GetUserByUsernameOrEmail", func(t *testing.T) {
		got, err := repo.GetUserByUsernameOrEmail(ctx, "ravik")
		require.NoError(t, err)
		assert.Equal(t, teacher.ID, got.ID)

		got, err = repo.GetUserByUsernameOrEmail(ctx, "ravi@school.in")
		require.NoError(t, err)
		assert.Equal(t, teacher.ID, got.ID)

		_, err = repo.GetUserByUsernameOrEmail(ctx, "")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("CheckUsernameUniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrUsernameExists, repo.CheckUsernameUniqueness(ctx, "ravik", "new@school.in"))
		assert.Equal(t, user.ErrEmailExists, repo.CheckUsernameUniqueness(ctx, "newuser", "ravi@school.in"))
		assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "ravik", "ravi@school.in", teacher))
		assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "newuser", "new@school.in"))
	})

	t.Run("QueryUsers", func(t *testing.T) {
		active := true
		tests := []struct {
			name      string
			filter    user.QueryFilter
			orderings []core.DBOrdering
			want      []string
		}{
			{name: "all by name", want: []string{"asharao", "oldstaff", "ravik"}},
			{name: "school", filter: user.QueryFilter{SchoolID: school.ID}, want: []string{"asharao", "ravik"}},
			{name: "search", filter: user.QueryFilter{Search: "KUMAR"}, want: []string{"ravik"}},
			{name: "role prefix", filter: user.QueryFilter{Roles: []string{user.RoleAdmin}}, want: []string{"asharao"}},
			{name: "active", filter: user.QueryFilter{IsActive: &active}, want: []string{"asharao", "ravik"}},
			{
				name:      "newest first",
				orderings: []core.DBOrdering{{Field: "created_at"}},
				want:      []string{"oldstaff", "ravik", "asharao"},
			},
			{
				name:      "unknown ordering ignored",
				orderings: []core.DBOrdering{{Field: "password_hash; DROP TABLE users"}},
				want:      []string{"asharao", "oldstaff", "ravik"},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				users, err := repo.QueryUsers(ctx, tt.filter, tt.orderings)
				require.NoError(t, err)
				got := make([]string, 0, len(users))
				for _, u := range users {
					got = append(got, u.Username)
				}
				assert.Equal(t, tt.want, got)
			})
		}
	})

	t.Run("UpdateUser", func(t *testing.T) {
		login := time.Date(2024, time.July, 1, 9, 30, 0, 0, time.UTC)
		usr := teacher
		usr.Name = "Ravi K."
		usr.LastLogin = &login
		_, err := repo.UpdateUser(ctx, usr)
		require.NoError(t, err)

		got, err := repo.GetUserByID(ctx, teacher.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ravi K.", got.Name)
		require.NotNil(t, got.LastLogin)
		assert.True(t, got.LastLogin.Equal(login))

		_, err = repo.UpdateUser(ctx, user.User{ID: "missing"})
		assert.Equal(t, user.ErrNotFound, err)
	})
}
