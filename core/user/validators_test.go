package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolerp/erp/core"
)

func newTestValidator() *validator.Validate {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)
	return validate
}

func TestPasswordPolicy(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		attrs   []string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 1234!", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcd12345", wantTag: pwdComplexityTag},
		{name: "no upper", pwd: "abcd123!@", wantTag: pwdComplexityTag},
		{name: "similar to username", pwd: "Ravikumar1!", attrs: []string{"Ravi Kumar", "ravikumar1"}, wantTag: pwdAttrSimTag},
		{name: "common", pwd: "Welcome@123", wantTag: pwdNoCommonTag},
		{name: "ok", pwd: "Tg7#pLq92!zX", attrs: []string{"Ravi Kumar", "ravi", "ravi@school.in"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTag, passwordPolicyViolation(tt.pwd, tt.attrs...))
		})
	}
}

func TestNewUser_validation(t *testing.T) {
	validate := newTestValidator()

	t.Run("username or email", func(t *testing.T) {
		nu := NewUser{Name: "Ravi", Password: "Tg7#pLq92!zX", PasswordConfirm: "Tg7#pLq92!zX"}
		err := validate.Struct(nu)
		require.Error(t, err)
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		assert.Equal(t, map[string]string{"username": usernameOrEmailTag, "email": usernameOrEmailTag}, fields)
	})

	t.Run("roles", func(t *testing.T) {
		nu := NewUser{
			Name: "Ravi", Username: "ravik", Password: "Tg7#pLq92!zX", PasswordConfirm: "Tg7#pLq92!zX",
			Roles: []string{RoleTeacher, "king:"},
		}
		err := validate.Struct(nu)
		require.Error(t, err)
		assert.Equal(t, allRolesTag, err.(validator.ValidationErrors)[0].Tag())
	})

	t.Run("valid", func(t *testing.T) {
		nu := NewUser{
			Name: "Ravi", Username: "ravik", Email: "ravi@school.in",
			Password: "Tg7#pLq92!zX", PasswordConfirm: "Tg7#pLq92!zX",
			Roles: []string{RoleTeacher, RoleParent},
		}
		assert.NoError(t, validate.Struct(nu))
	})
}

func TestMaxRolePriority(t *testing.T) {
	assert.Equal(t, 0, MaxRolePriority(nil))
	assert.Equal(t, 11, MaxRolePriority([]string{RoleStudent, RoleTeacher}))
	assert.Equal(t, 30, MaxRolePriority([]string{RoleAdmin, RoleAdminOwner}))
}
