package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/schoolerp/erp/apps/api/echo"
	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/reportcard"
	"github.com/schoolerp/erp/core/user"
	emailsvc "github.com/schoolerp/erp/services/email"
	inmemdb "github.com/schoolerp/erp/storage/database/inmem"
	"github.com/schoolerp/erp/tests"
)

var (
	svcNow = time.Date(2024, time.July, 30, 9, 0, 0, 0, time.UTC)

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type testApp struct {
	server  *Server
	conf    *core.Config
	usrRepo user.Repository
	rcRepo  reportcard.Repository
	mailSvc *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) testApp {
	conf := testutil.Config(t)
	conf.Server.DisableReqLogs = true
	logger := testutil.Logger(conf)

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	rcRepo := inmemdb.NewReportcardRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	rcSvc := reportcard.NewServiceMock(rcRepo, mailSvc, logger, conf, svcNow)

	// set up server
	server := NewServer(ServerDeps{
		Conf:      conf,
		Logger:    logger,
		UserSvc:   usrSvc,
		ReportSvc: rcSvc,
	})
	t.Cleanup(func() { _ = server.Close() })

	return testApp{
		server:  server,
		conf:    conf,
		usrRepo: usrRepo,
		rcRepo:  rcRepo,
		mailSvc: mailSvc,
	}
}

func (app testApp) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	app.server.ServeHTTP(rec, req)
}

func (app testApp) getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(app.conf, GetUserClaims(app.conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (tt httpTest) run(t *testing.T, app testApp) {
	t.Run(tt.name, func(t *testing.T) {
		method := tt.method
		if method == "" {
			method = http.MethodGet
		}
		wantCode := tt.wantCode
		if wantCode == 0 {
			wantCode = http.StatusOK
		}
		req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
		app.serve(req, rec)
		tt.wantCode = wantCode
		checkCodeAndData(t, tt, rec)
	})
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarshall() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
