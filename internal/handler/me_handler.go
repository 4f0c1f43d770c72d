package handler

import (
	"net/http"

	"danicandles/internal/authz"
	"danicandles/internal/domain/model"
	"danicandles/internal/middleware"

	"github.com/labstack/echo/v4"
)

// ログイン中のユーザーのロールと権限（管理画面の出し分け用）
type MeHandler struct{}

func NewMeHandler() *MeHandler { return &MeHandler{} }

type MeResponse struct {
	UserID      string             `json:"userId"`
	Email       string             `json:"email"`
	Role        model.Role         `json:"role"`
	Permissions []authz.Permission `json:"permissions"`
}

func (h *MeHandler) RegisterRoutes(e *echo.Echo, auth *middleware.JWTAuth, profiles middleware.ProfileResolver) {
	e.GET("/api/me", h.get, auth.Required(), middleware.LoadProfile(profiles))
}

func (h *MeHandler) get(c echo.Context) error {
	prof, ok := middleware.ProfileFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	return c.JSON(http.StatusOK, MeResponse{
		UserID:      prof.UserID,
		Email:       prof.Email,
		Role:        prof.Role,
		Permissions: authz.PermissionsOf(prof.Role),
	})
}
