package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"danicandles/internal/authz"
	"danicandles/internal/domain/model"
	"danicandles/internal/metrics"
	"danicandles/internal/middleware"
	"danicandles/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret     = "test-secret"
	cookieName = "sb-access-token"
	userID     = "0b6f7d2e-1111-4a2b-8c3d-9e8f7a6b5c4d"
)

func signToken(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   userID,
		"email": "buyer@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

// principalを返すだけのハンドラ
func echoPrincipal(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.String(http.StatusOK, "anonymous")
	}
	return c.String(http.StatusOK, p.UserID+"|"+p.Email)
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth_Required(t *testing.T) {
	auth := middleware.NewJWTAuth(secret, cookieName)
	e := echo.New()
	e.GET("/me", echoPrincipal, auth.Required())

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		wantCode int
		wantBody string
	}{
		{
			name: "bearer ok",
			setup: func(r *http.Request) {
				r.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, secret, validClaims()))
			},
			wantCode: http.StatusOK,
			wantBody: userID + "|buyer@example.com",
		},
		{
			name: "cookie ok",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: cookieName, Value: signToken(t, secret, validClaims())})
			},
			wantCode: http.StatusOK,
			wantBody: userID + "|buyer@example.com",
		},
		{
			name:     "missing",
			setup:    func(r *http.Request) {},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "wrong scheme",
			setup: func(r *http.Request) {
				r.Header.Set(echo.HeaderAuthorization, "Basic abc")
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "bad signature",
			setup: func(r *http.Request) {
				r.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, "other", validClaims()))
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "expired",
			setup: func(r *http.Request) {
				c := validClaims()
				c["exp"] = time.Now().Add(-time.Minute).Unix()
				r.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, secret, c))
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "no exp",
			setup: func(r *http.Request) {
				c := validClaims()
				delete(c, "exp")
				r.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, secret, c))
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "sub not uuid",
			setup: func(r *http.Request) {
				c := validClaims()
				c["sub"] = "42"
				r.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, secret, c))
			},
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			rec := serve(e, req)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestJWTAuth_Optional(t *testing.T) {
	auth := middleware.NewJWTAuth(secret, cookieName)
	e := echo.New()
	e.GET("/orders", echoPrincipal, auth.Optional())

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer garbage")
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, secret, validClaims()))
	rec = serve(e, req)
	assert.Equal(t, userID+"|buyer@example.com", rec.Body.String())
}

type resolverStub struct {
	prof model.Profile
	err  error
}

func (r resolverStub) Resolve(ctx context.Context, p usecase.Principal) (model.Profile, error) {
	if r.err != nil {
		return model.Profile{}, r.err
	}
	prof := r.prof
	prof.UserID = p.UserID
	return prof, nil
}

func adminEcho(resolver middleware.ProfileResolver) *echo.Echo {
	auth := middleware.NewJWTAuth(secret, cookieName)
	e := echo.New()
	e.PUT("/api/admin/orders", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, auth.Required(), middleware.LoadProfile(resolver), middleware.RequirePermission(authz.OrdersUpdateStatus))
	return e
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name     string
		resolver middleware.ProfileResolver
		token    bool
		wantCode int
	}{
		{"no session", resolverStub{prof: model.Profile{Role: model.RoleAdmin}}, false, http.StatusUnauthorized},
		{"customer", resolverStub{prof: model.Profile{Role: model.RoleCustomer}}, true, http.StatusForbidden},
		{"staff", resolverStub{prof: model.Profile{Role: model.RoleStaff}}, true, http.StatusNoContent},
		{"admin", resolverStub{prof: model.Profile{Role: model.RoleAdmin}}, true, http.StatusNoContent},
		{"resolver error", resolverStub{err: errors.New("db down")}, true, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := adminEcho(tt.resolver)
			req := httptest.NewRequest(http.MethodPut, "/api/admin/orders", nil)
			if tt.token {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, secret, validClaims()))
			}
			rec := serve(e, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestRequirePermission_WithoutProfile(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, middleware.RequirePermission(authz.AuditRead))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutRateLimiter(t *testing.T) {
	e := echo.New()
	e.POST("/api/checkout", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, middleware.CheckoutRateLimiter(1, 2))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
		req.RemoteAddr = ip + ":5555"
		return serve(e, req).Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))

	// 別のIPは別のバケット
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestMetrics(t *testing.T) {
	m := metrics.New()
	e := echo.New()
	e.Use(middleware.Metrics(m))
	e.GET("/api/products/:slug", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadGateway, "upstream")
	})

	serve(e, httptest.NewRequest(http.MethodGet, "/api/products/amber", nil))
	serve(e, httptest.NewRequest(http.MethodGet, "/api/products/cedar", nil))
	serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/products/:slug", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/boom", "502")))
}
