package mockserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"playground/internal/testutil"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

func newTestRouter(t *testing.T, cfg RouterConfig) (*gin.Engine, *AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	return NewRouter(svc, cfg), svc
}

func perform(router http.Handler, method, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == defaultCookieName {
			return c
		}
	}
	return nil
}

func TestLoginEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	rec := perform(router, http.MethodPost, "/api/login", `{"username":"vben","password":"123456"}`, nil)
	testutil.AssertEqual(t, rec.Code, http.StatusOK)

	var body loginResponse
	testutil.MustUnmarshalJSON(t, rec.Body.Bytes(), &body)
	testutil.AssertTrue(t, body.AccessToken != "", "access token expected")

	cookie := refreshCookie(rec)
	if cookie == nil {
		t.Fatal("expected refresh cookie")
	}
	testutil.AssertTrue(t, cookie.HttpOnly, "refresh cookie should be HttpOnly")
	testutil.AssertTrue(t, cookie.Value != "", "refresh cookie should carry a token")
}

func TestLoginEndpointErrors(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	cases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "missing fields", body: `{"username":"vben"}`, wantStatus: http.StatusBadRequest},
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{"username":`, wantStatus: http.StatusBadRequest},
		{name: "wrong password", body: `{"username":"vben","password":"x"}`, wantStatus: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := perform(router, http.MethodPost, "/api/login", tc.body, nil)
			testutil.AssertEqual(t, rec.Code, tc.wantStatus)
			var env envelope
			testutil.MustUnmarshalJSON(t, rec.Body.Bytes(), &env)
			testutil.AssertTrue(t, env.Code != 0, "error envelope should carry a non-zero code")
			testutil.AssertTrue(t, env.Message != "", "error envelope should carry a message")
		})
	}
}

func TestRefreshEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	login := perform(router, http.MethodPost, "/api/login", `{"username":"jack","password":"123456"}`, nil)
	cookie := refreshCookie(login)
	if cookie == nil {
		t.Fatal("expected refresh cookie")
	}

	rec := perform(router, http.MethodPost, "/auth/refresh", "", func(r *http.Request) { r.AddCookie(cookie) })
	testutil.AssertEqual(t, rec.Code, http.StatusOK)
	testutil.AssertTrue(t, rec.Body.Len() > 0, "refresh should return the new access token")
	testutil.AssertTrue(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"), "token is plain text")

	reused := perform(router, http.MethodPost, "/auth/refresh", "", func(r *http.Request) { r.AddCookie(cookie) })
	testutil.AssertEqual(t, reused.Code, http.StatusForbidden)
	testutil.AssertEqual(t, reused.Body.String(), "Forbidden")

	missing := perform(router, http.MethodPost, "/auth/refresh", "", nil)
	testutil.AssertEqual(t, missing.Code, http.StatusForbidden)
}

func TestLogoutEndpointAlwaysSucceeds(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	rec := perform(router, http.MethodPost, "/auth/logout", "", nil)
	testutil.AssertEqual(t, rec.Code, http.StatusOK)
	var env envelope
	testutil.MustUnmarshalJSON(t, rec.Body.Bytes(), &env)
	testutil.AssertEqual(t, env.Code, 0)
	testutil.AssertEqual(t, env.Data, "")

	cleared := refreshCookie(rec)
	if cleared == nil {
		t.Fatal("expected cookie to be cleared")
	}
	testutil.AssertTrue(t, cleared.MaxAge < 0, "cleared cookie should expire immediately")
}

func TestCodesEndpoint(t *testing.T) {
	router, svc := newTestRouter(t, RouterConfig{})
	session, err := svc.Login(context.Background(), "vben", "123456")
	testutil.MustNoError(t, err)

	rec := perform(router, http.MethodGet, "/auth/codes", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+session.AccessToken)
	})
	testutil.AssertEqual(t, rec.Code, http.StatusOK)
	var env struct {
		Code int      `json:"code"`
		Data []string `json:"data"`
	}
	testutil.MustUnmarshalJSON(t, rec.Body.Bytes(), &env)
	testutil.AssertEqual(t, env.Code, 0)
	testutil.AssertEqual(t, env.Data, []string{"AC_100100", "AC_100110", "AC_100120", "AC_100010"})

	unauth := perform(router, http.MethodGet, "/auth/codes", "", nil)
	testutil.AssertEqual(t, unauth.Code, http.StatusUnauthorized)

	wrongScheme := perform(router, http.MethodGet, "/auth/codes", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Basic "+session.AccessToken)
	})
	testutil.AssertEqual(t, wrongScheme.Code, http.StatusUnauthorized)
}

func TestTraceHeader(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	rec := perform(router, http.MethodGet, "/healthz", "", nil)
	testutil.AssertTrue(t, rec.Header().Get(traceIDHeader) != "", "trace id should be generated")

	echoed := perform(router, http.MethodGet, "/healthz", "", func(r *http.Request) {
		r.Header.Set(traceIDHeader, "trace-1")
		r.Header.Set(requestIDHeader, "req-1")
	})
	testutil.AssertEqual(t, echoed.Header().Get(traceIDHeader), "trace-1")
	testutil.AssertEqual(t, echoed.Header().Get(requestIDHeader), "req-1")
}

func TestCORSWithCredentials(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{CORS: CORSConfig{
		Enabled:          true,
		AllowedOrigins:   []string{"http://localhost:5555"},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}})

	preflight := perform(router, http.MethodOptions, "/auth/refresh", "", func(r *http.Request) {
		r.Header.Set("Origin", "http://localhost:5555")
	})
	testutil.AssertEqual(t, preflight.Code, http.StatusNoContent)
	testutil.AssertEqual(t, preflight.Header().Get("Access-Control-Allow-Origin"), "http://localhost:5555")
	testutil.AssertEqual(t, preflight.Header().Get("Access-Control-Allow-Credentials"), "true")
	testutil.AssertEqual(t, preflight.Header().Get("Access-Control-Max-Age"), "600")

	denied := perform(router, http.MethodOptions, "/auth/refresh", "", func(r *http.Request) {
		r.Header.Set("Origin", "http://evil.example")
	})
	testutil.AssertEqual(t, denied.Code, http.StatusForbidden)
}

func TestUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	rec := perform(router, http.MethodGet, "/auth/unknown", "", nil)
	testutil.AssertEqual(t, rec.Code, http.StatusNotFound)
	var env envelope
	testutil.MustUnmarshalJSON(t, rec.Body.Bytes(), &env)
	testutil.AssertEqual(t, env.Code, 10003)
}
