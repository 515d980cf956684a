package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hojimahmudov/orderbot/internal/dto"
	"github.com/hojimahmudov/orderbot/internal/middleware"
	"github.com/hojimahmudov/orderbot/internal/model"
	"github.com/hojimahmudov/orderbot/internal/repository"
)

type ProfileHandler struct {
	userRepo repository.UserRepository
}

func NewProfileHandler(userRepo repository.UserRepository) *ProfileHandler {
	return &ProfileHandler{userRepo: userRepo}
}

func (h *ProfileHandler) Get(c echo.Context) error {
	user := middleware.CurrentUser(c)
	return c.JSON(http.StatusOK, dto.UserResponse{
		ID:          user.ID,
		PhoneNumber: user.PhoneNumber,
		FirstName:   user.FirstName,
		Locale:      user.Locale,
	})
}

func (h *ProfileHandler) Patch(c echo.Context) error {
	user := middleware.CurrentUser(c)
	var req dto.ProfilePatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: "malformed request body"})
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.Locale != nil {
		user.Locale = model.NormalizeLocale(*req.Locale)
	}
	if err := h.userRepo.Save(c.Request().Context(), user); err != nil {
		return errorJSON(c, err)
	}
	return h.Get(c)
}
