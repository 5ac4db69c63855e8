package authapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"playground/internal/authapi"
	"playground/internal/mockserver"
	"playground/internal/request"
	"playground/internal/testutil"
	pkgerrors "playground/pkg/errors"

	"github.com/gin-gonic/gin"
)

type tokenHolder struct {
	mu    sync.Mutex
	value string
}

func (h *tokenHolder) Get() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value
}

func (h *tokenHolder) Set(v string) {
	h.mu.Lock()
	h.value = v
	h.mu.Unlock()
}

func newMockBackend(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, err := mockserver.NewAuthService(mockserver.AuthConfig{JWTSecret: "test-secret"}, nil)
	testutil.MustNoError(t, err)
	srv := httptest.NewServer(mockserver.NewRouter(svc, mockserver.RouterConfig{}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthFlowAgainstMockBackend(t *testing.T) {
	srv := newMockBackend(t)
	jar, err := request.NewCookieJar()
	testutil.MustNoError(t, err)

	token := &tokenHolder{}
	cfg := request.Config{BaseURL: srv.URL}
	client := authapi.New(srv.URL+"/api/login",
		request.NewBareClient(cfg, jar),
		request.NewBaseClient(cfg, jar),
		request.NewRequestClient(cfg, jar, token.Get),
	)
	ctx := context.Background()

	_, err = client.GetAccessCodes(ctx)
	testutil.AssertErrorCode(t, err, pkgerrors.Unauthorized)

	login, err := client.Login(ctx, authapi.LoginParams{Username: "vben", Password: "123456"})
	testutil.MustNoError(t, err)
	testutil.AssertTrue(t, login.AccessToken != "", "access token should be non-empty")
	token.Set(login.AccessToken)

	codes, err := client.GetAccessCodes(ctx)
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, codes, []string{"AC_100100", "AC_100110", "AC_100120", "AC_100010"})

	refreshed, err := client.RefreshToken(ctx)
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, refreshed.Status, http.StatusOK)
	testutil.AssertTrue(t, refreshed.Data != "", "refresh should return a token")
	token.Set(refreshed.Data)

	codes, err = client.GetAccessCodes(ctx)
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, len(codes), 4)

	resp, err := client.Logout(ctx)
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK)

	afterLogout, err := client.RefreshToken(ctx)
	testutil.AssertErrorCode(t, err, pkgerrors.Forbidden)
	testutil.AssertEqual(t, afterLogout.Status, http.StatusForbidden)
	testutil.AssertEqual(t, afterLogout.Data, "Forbidden")
}

func TestLogoutWithoutSession(t *testing.T) {
	srv := newMockBackend(t)
	cfg := request.Config{BaseURL: srv.URL}
	client := authapi.New(srv.URL+"/api/login",
		request.NewBareClient(cfg, nil),
		request.NewBaseClient(cfg, nil),
		request.NewRequestClient(cfg, nil, nil),
	)

	resp, err := client.Logout(context.Background())
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK)
}

func TestLoginWithWrongPasswordAgainstMockBackend(t *testing.T) {
	srv := newMockBackend(t)
	cfg := request.Config{BaseURL: srv.URL}
	client := authapi.New(srv.URL+"/api/login",
		request.NewBareClient(cfg, nil),
		request.NewBaseClient(cfg, nil),
		request.NewRequestClient(cfg, nil, nil),
	)

	_, err := client.Login(context.Background(), authapi.LoginParams{Username: "vben", Password: "nope"})
	testutil.AssertErrorCode(t, err, pkgerrors.Forbidden)

	_, err = client.Login(context.Background(), authapi.LoginParams{})
	testutil.AssertErrorCode(t, err, pkgerrors.InvalidParams)
}
