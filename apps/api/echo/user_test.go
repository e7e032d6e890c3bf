package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/schoolerp/erp/apps/api/echo"
	"github.com/schoolerp/erp/core/user"
	"github.com/schoolerp/erp/tests"
)

const pwd = "Kx9#mvLq2"

type userFixture struct {
	testApp
	admin, teacher, naughty, outsider user.User
}

func newUserFixture(t *testing.T) userFixture {
	app := setup(t)
	return userFixture{
		testApp:  app,
		admin:    testutil.CreateUser(t, app.usrRepo, "school-1", "Admin", "admin", "admin@test.in", pwd, []string{user.RoleAdmin}, true),
		teacher:  testutil.CreateUser(t, app.usrRepo, "school-1", "Teacher", "teacher", "teacher@test.in", pwd, []string{user.RoleTeacher}, true),
		naughty:  testutil.CreateUser(t, app.usrRepo, "school-1", "N Dog", "ndog", "ndog@test.in", pwd, []string{user.RoleTeacher}, false),
		outsider: testutil.CreateUser(t, app.usrRepo, "school-2", "Outsider", "outsider", "outsider@test.in", pwd, []string{user.RoleAdmin}, true),
	}
}

func Test_userApi_login(t *testing.T) {
	f := newUserFixture(t)

	tests := []httpTest{
		{
			name: "empty body", method: http.MethodPost, path: "/v1/users/login", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username": "this field is required", "password": "this field is required"}`),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte(`{"username": "nobody", "password": "` + pwd + `"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte(`{"username": "admin", "password": "nope"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte(`{"username": "ndog@test.in", "password": "` + pwd + `"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		tt.run(t, f.testApp)
	}

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/login", []byte(`{"username": " ADMIN ", "password": "`+pwd+`"}`))
		f.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp LoginResponse
		unmarshall(t, rec, &resp)
		claims := new(Claims)
		_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(f.conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, f.admin.ID, claims.Subject)
		assert.Equal(t, "school-1", claims.SchoolID)
		assert.True(t, claims.IsAdmin)
		assert.False(t, claims.IsTeacher)

		usr, err := f.usrRepo.GetUserByID(req.Context(), f.admin.ID)
		require.NoError(t, err)
		assert.NotNil(t, usr.LastLogin)
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	f := newUserFixture(t)
	naughtyToken := f.getToken(t, f.naughty)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/v1/users/token-refresh",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/v1/users/token-refresh", token: naughtyToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		tt.run(t, f.testApp)
	}

	t.Run("success", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", f.getToken(t, f.teacher))
		f.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp LoginResponse
		unmarshall(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
	})
}

func Test_userApi_create(t *testing.T) {
	f := newUserFixture(t)
	adminToken := f.getToken(t, f.admin)
	path := "/v1/users/register"

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", method: http.MethodPost, path: path, token: f.getToken(t, f.teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "weak password", method: http.MethodPost, path: path, token: adminToken,
			body:     []byte(`{"name": "New Teacher", "username": "newteacher", "password": "password", "password_confirm": "password"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "username taken", method: http.MethodPost, path: path, token: adminToken,
			body:     []byte(`{"name": "New Teacher", "username": "teacher", "password": "` + pwd + `", "password_confirm": "` + pwd + `"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"username": "a user with this username already exists"}`),
		},
		{
			name: "role above own", method: http.MethodPost, path: path, token: adminToken,
			body: []byte(`{"name": "New Owner", "username": "newowner", "password": "` + pwd + `", "password_confirm": "` + pwd +
				`", "roles": ["admin:owner"]}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"roles": "not enough rights to set these roles"}`),
		},
	}
	for _, tt := range tests {
		tt.run(t, f.testApp)
	}

	t.Run("success", func(t *testing.T) {
		body := []byte(`{"name": "New Teacher", "username": "newteacher", "email": "NewTeacher@Test.in", "password": "` + pwd +
			`", "password_confirm": "` + pwd + `", "roles": ["teacher:"]}`)
		req, rec := newAuthRequest(http.MethodPost, path, adminToken, body)
		f.serve(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var usr user.User
		unmarshall(t, rec, &usr)
		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, "school-1", usr.SchoolID)
		assert.Equal(t, "newteacher@test.in", usr.Email)
		assert.True(t, usr.IsActive)
		assert.Equal(t, []string{user.RoleTeacher}, usr.Roles)
	})
}

func Test_userApi_query(t *testing.T) {
	f := newUserFixture(t)
	adminToken := f.getToken(t, f.admin)

	tests := []httpTest{
		{name: "auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin required", path: "/v1/users", token: f.getToken(t, f.teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "own school only", path: "/v1/users", token: adminToken, wantData: marchallList(t, f.admin, f.naughty, f.teacher)},
		{name: "search", path: "/v1/users?search=TEACH", token: adminToken, wantData: marchallList(t, f.teacher)},
		{name: "search (unknown)", path: "/v1/users?search=lol", token: adminToken, wantData: marchallList(t)},
		{name: "role=admin:", path: "/v1/users?role=admin:", token: adminToken, wantData: marchallList(t, f.admin)},
		{name: "order by -name", path: "/v1/users?ordering=-name", token: adminToken, wantData: marchallList(t, f.teacher, f.naughty, f.admin)},
		{name: "outsider", path: "/v1/users", token: f.getToken(t, f.outsider), wantData: marchallList(t, f.outsider)},
	}
	for _, tt := range tests {
		tt.run(t, f.testApp)
	}
}

func Test_userApi_retrieve(t *testing.T) {
	f := newUserFixture(t)

	tests := []httpTest{
		{name: "auth required", path: "/v1/users/" + f.teacher.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "self", path: "/v1/users/" + f.teacher.ID, token: f.getToken(t, f.teacher), wantData: marchallObj(t, f.teacher)},
		{
			name: "not admin", path: "/v1/users/" + f.admin.ID, token: f.getToken(t, f.teacher),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "admin", path: "/v1/users/" + f.teacher.ID, token: f.getToken(t, f.admin), wantData: marchallObj(t, f.teacher)},
		{
			name: "admin of another school", path: "/v1/users/" + f.teacher.ID, token: f.getToken(t, f.outsider),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "unknown", path: "/v1/users/unknown", token: f.getToken(t, f.admin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "roles", path: "/v1/users/roles", token: f.getToken(t, f.admin), wantData: marchallObj(t, user.Roles)},
	}
	for _, tt := range tests {
		tt.run(t, f.testApp)
	}
}

func Test_userApi_resetPassword(t *testing.T) {
	f := newUserFixture(t)
	success := SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	}

	tests := []struct {
		name     string
		email    string
		wantCode int
		wantData []byte
		wantSent int
	}{
		{name: "invalid email", email: "lol", wantCode: http.StatusBadRequest, wantData: []byte(`{"email": "email must be a valid email address"}`)},
		{name: "unknown email", email: "unknown@test.in", wantCode: http.StatusOK, wantData: marchallObj(t, success)},
		{name: "inactive user", email: "ndog@test.in", wantCode: http.StatusOK, wantData: marchallObj(t, success)},
		{name: "success", email: "Teacher@Test.in", wantCode: http.StatusOK, wantData: marchallObj(t, success), wantSent: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.mailSvc.Reset()
			req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", []byte(`{"email": "`+tt.email+`"}`))
			f.serve(req, rec)
			checkCodeAndData(t, httpTest{wantCode: tt.wantCode, wantData: tt.wantData}, rec)

			sent := f.mailSvc.SentMessages()
			if assert.Len(t, sent, tt.wantSent) && tt.wantSent > 0 {
				assert.Equal(t, "teacher@test.in", sent[0].To[0].Address)
			}
		})
	}

	t.Run("confirm with a bad token", func(t *testing.T) {
		body := []byte(`{"uid": "bad", "token": "bad", "password": "` + pwd + `", "password_confirm": "` + pwd + `"}`)
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset-confirm", body)
		f.serve(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
