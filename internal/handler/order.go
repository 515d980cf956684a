package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hojimahmudov/orderbot/internal/dto"
	"github.com/hojimahmudov/orderbot/internal/middleware"
	"github.com/hojimahmudov/orderbot/internal/service"
)

type OrderHandler struct {
	checkoutService service.CheckoutService
	orderService    service.OrderService
}

func NewOrderHandler(checkoutService service.CheckoutService, orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		orderService:    orderService,
	}
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	user := middleware.CurrentUser(c)
	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: "malformed request body"})
	}

	order, err := h.checkoutService.Checkout(c.Request().Context(), user.ID, service.CheckoutInput{
		DeliveryType:   req.DeliveryType,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		PaymentType:    req.PaymentType,
		PickupBranchID: req.PickupBranchID,
		Notes:          req.Notes,
	})
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, orderResponse(order, true))
}

func (h *OrderHandler) History(c echo.Context) error {
	user := middleware.CurrentUser(c)
	page, offset, limit := pageParams(c)

	orders, total, err := h.orderService.History(c.Request().Context(), user.ID, offset, limit)
	if err != nil {
		return errorJSON(c, err)
	}

	results := make([]dto.OrderResponse, 0, len(orders))
	for _, order := range orders {
		results = append(results, orderResponse(order, false))
	}
	return c.JSON(http.StatusOK, paginate(c, page, total, results))
}

func (h *OrderHandler) Get(c echo.Context) error {
	user := middleware.CurrentUser(c)
	orderID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: err.Error()})
	}

	order, err := h.orderService.Get(c.Request().Context(), user.ID, orderID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, orderResponse(order, true))
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	user := middleware.CurrentUser(c)
	orderID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: err.Error()})
	}

	order, err := h.orderService.Cancel(c.Request().Context(), user.ID, orderID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, orderResponse(order, false))
}

// SetStatus is the staff transition endpoint.
func (h *OrderHandler) SetStatus(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: err.Error()})
	}
	var req dto.StatusPatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: "malformed request body"})
	}

	order, err := h.orderService.SetStatus(c.Request().Context(), orderID, req.Status)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, orderResponse(order, false))
}
