package handler

import (
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"github.com/hojimahmudov/orderbot/internal/dto"
	"github.com/hojimahmudov/orderbot/internal/service"
)

var phonePattern = regexp.MustCompile(`^\+998\d{9}$`)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: "malformed request body"})
	}
	if req.ChatID <= 0 || !phonePattern.MatchString(req.PhoneNumber) {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: "chat_id and a +998XXXXXXXXX phone number are required"})
	}

	if err := h.authService.Register(c.Request().Context(), req.ChatID, req.PhoneNumber, req.FirstName); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"detail": "verification code sent"})
}

func (h *AuthHandler) Verify(c echo.Context) error {
	var req dto.VerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: "malformed request body"})
	}

	pair, user, err := h.authService.Verify(c.Request().Context(), req.PhoneNumber, req.Code)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user": dto.UserResponse{
			ID:          user.ID,
			PhoneNumber: user.PhoneNumber,
			FirstName:   user.FirstName,
			Locale:      user.Locale,
		},
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req dto.RefreshRequest
	if err := c.Bind(&req); err != nil || req.Refresh == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: "refresh token required"})
	}

	pair, err := h.authService.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}
