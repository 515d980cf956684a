package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/hojimahmudov/orderbot/internal/dto"
	"github.com/hojimahmudov/orderbot/internal/model"
	"github.com/hojimahmudov/orderbot/internal/service"
)

const defaultPageSize = 10

// errorJSON maps service errors onto the wire taxonomy.
func errorJSON(c echo.Context, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: verr.Detail})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "NotFound", Detail: "resource not found"})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "Conflict", Detail: err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized", Detail: "invalid or expired credentials"})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "ServerError", Detail: "internal error"})
	}
}

// requestLocale picks the response locale from Accept-Language.
func requestLocale(c echo.Context) string {
	header := c.Request().Header.Get("Accept-Language")
	lang, _, _ := strings.Cut(header, ",")
	lang, _, _ = strings.Cut(strings.TrimSpace(lang), "-")
	return model.NormalizeLocale(lang)
}

// pageParams parses ?page= (1-based) into an offset/limit pair.
func pageParams(c echo.Context) (page, offset, limit int) {
	page = 1
	if raw := c.QueryParam("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}
	return page, (page - 1) * defaultPageSize, defaultPageSize
}

// paginate wraps results in the list envelope with page-relative links.
func paginate(c echo.Context, page int, total int64, results interface{}) dto.Page {
	pageLink := func(n int) *string {
		q := c.Request().URL.Query()
		q.Set("page", strconv.Itoa(n))
		link := c.Request().URL.Path + "?" + q.Encode()
		return &link
	}

	envelope := dto.Page{Count: total, Results: results}
	if page > 1 {
		envelope.Previous = pageLink(page - 1)
	}
	if int64(page*defaultPageSize) < total {
		envelope.Next = pageLink(page + 1)
	}
	return envelope
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func cartResponse(cart *model.Cart, locale string) dto.CartResponse {
	resp := dto.CartResponse{
		ID:    cart.ID,
		Items: make([]dto.CartItemResponse, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		lineTotal := item.Product.Price * int64(item.Quantity)
		resp.TotalPrice += lineTotal
		resp.Items = append(resp.Items, dto.CartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Product.Name(locale),
			Quantity:  item.Quantity,
			UnitPrice: item.Product.Price,
			LineTotal: lineTotal,
		})
	}
	return resp
}

func orderResponse(order *model.Order, withItems bool) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:           order.ID,
		Status:       order.Status,
		TotalPrice:   order.TotalPrice,
		DeliveryType: order.DeliveryType,
		PaymentType:  order.PaymentType,
		Address:      order.Address,
		ReadyAt:      order.ReadyAt,
		DeliveredAt:  order.DeliveredAt,
		CreatedAt:    order.CreatedAt,
	}
	if withItems {
		for _, item := range order.Items {
			resp.Items = append(resp.Items, dto.OrderItemResponse{
				ProductID:    item.ProductID,
				Quantity:     item.Quantity,
				PricePerUnit: item.PricePerUnit,
				LineTotal:    item.LineTotal,
			})
		}
	}
	return resp
}
