package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"danicandles/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CtxPrincipalKey = "principal" // usecase.Principal
	CtxProfileKey   = "profile"   // model.Profile
)

var errNoToken = errors.New("no token")

// 認証プロバイダ発行のJWT（HS256）を検証する。
type JWTAuth struct {
	secret     []byte
	cookieName string
}

func NewJWTAuth(secret, cookieName string) *JWTAuth {
	return &JWTAuth{secret: []byte(secret), cookieName: cookieName}
}

// Required はトークンが無い/不正なら401
func (a *JWTAuth) Required() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := a.authenticate(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			c.Set(CtxPrincipalKey, p)
			return next(c)
		}
	}
}

// Optional は認証できればprincipalを入れる。できなくても通す。
func (a *JWTAuth) Optional() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := a.authenticate(c)
			if err == nil {
				c.Set(CtxPrincipalKey, p)
			} else if !errors.Is(err, errNoToken) {
				slog.DebugContext(c.Request().Context(), "ignoring invalid token on optional route", slog.String("error", err.Error()))
			}
			return next(c)
		}
	}
}

func (a *JWTAuth) authenticate(c echo.Context) (usecase.Principal, error) {
	rawToken := a.extractToken(c)
	if rawToken == "" {
		return usecase.Principal{}, errNoToken
	}

	//JWTをパースして検証する
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return usecase.Principal{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return usecase.Principal{}, errors.New("invalid claims")
	}
	// jwt/v4はexp無しでも通すので必須にする
	if !claims.VerifyExpiresAt(time.Now().Unix(), true) {
		return usecase.Principal{}, errors.New("missing or expired exp")
	}

	//subはユーザーのuuid
	sub, _ := claims["sub"].(string)
	if _, err := uuid.Parse(sub); err != nil {
		return usecase.Principal{}, errors.New("invalid sub")
	}
	email, _ := claims["email"].(string)

	return usecase.Principal{UserID: sub, Email: strings.TrimSpace(email)}, nil
}

// Authorization: Bearer を優先し、無ければcookie
func (a *JWTAuth) extractToken(c echo.Context) string {
	if authz := c.Request().Header.Get(echo.HeaderAuthorization); authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	if a.cookieName == "" {
		return ""
	}
	ck, err := c.Cookie(a.cookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(ck.Value)
}

// PrincipalFrom はAuthJWTが入れたprincipalを取り出す
func PrincipalFrom(c echo.Context) (usecase.Principal, bool) {
	p, ok := c.Get(CtxPrincipalKey).(usecase.Principal)
	if !ok || p.UserID == "" {
		return usecase.Principal{}, false
	}
	return p, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
