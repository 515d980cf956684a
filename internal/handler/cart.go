package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hojimahmudov/orderbot/internal/dto"
	"github.com/hojimahmudov/orderbot/internal/middleware"
	"github.com/hojimahmudov/orderbot/internal/service"
)

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) Get(c echo.Context) error {
	user := middleware.CurrentUser(c)
	cart, err := h.cartService.Get(c.Request().Context(), user.ID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, cartResponse(cart, user.Locale))
}

func (h *CartHandler) AddItem(c echo.Context) error {
	user := middleware.CurrentUser(c)
	var req dto.CartAddRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: "malformed request body"})
	}

	cart, err := h.cartService.AddItem(c.Request().Context(), user.ID, req.ProductID, req.Quantity)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, cartResponse(cart, user.Locale))
}

func (h *CartHandler) SetItemQuantity(c echo.Context) error {
	user := middleware.CurrentUser(c)
	itemID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: err.Error()})
	}
	var req dto.CartQuantityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: "malformed request body"})
	}

	cart, err := h.cartService.SetItemQuantity(c.Request().Context(), user.ID, itemID, req.Quantity)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, cartResponse(cart, user.Locale))
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	user := middleware.CurrentUser(c)
	itemID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: err.Error()})
	}

	if _, err := h.cartService.RemoveItem(c.Request().Context(), user.ID, itemID); err != nil {
		return errorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
