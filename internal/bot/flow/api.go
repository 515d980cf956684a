package flow

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hojimahmudov/orderbot/internal/model"
)

// Wire shapes of the backend replies the flow consumes.

type apiCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type apiProduct struct {
	ID          int64  `json:"id"`
	CategoryID  int64  `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

type apiBranch struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	IsOpen  bool   `json:"is_open"`
}

type apiCartItem struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}

type apiCart struct {
	ID         int64         `json:"id"`
	Items      []apiCartItem `json:"items"`
	TotalPrice int64         `json:"total_price"`
}

type apiOrder struct {
	ID           int64      `json:"id"`
	Status       string     `json:"status"`
	TotalPrice   int64      `json:"total_price"`
	DeliveryType string     `json:"delivery_type"`
	PaymentType  string     `json:"payment_type"`
	ReadyAt      *time.Time `json:"estimated_ready_at"`
	DeliveredAt  *time.Time `json:"estimated_delivery_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

type apiUser struct {
	ID          int64  `json:"id"`
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	Locale      string `json:"language_code"`
}

type categoryPage struct {
	Count   int64         `json:"count"`
	Results []apiCategory `json:"results"`
}

type productPage struct {
	Count    int64        `json:"count"`
	Next     *string      `json:"next"`
	Previous *string      `json:"previous"`
	Results  []apiProduct `json:"results"`
}

type branchPage struct {
	Count   int64       `json:"count"`
	Results []apiBranch `json:"results"`
}

type orderPage struct {
	Count    int64      `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
	Results  []apiOrder `json:"results"`
}

type verifyReply struct {
	Access  string  `json:"access"`
	Refresh string  `json:"refresh"`
	User    apiUser `json:"user"`
}

func (e *Engine) getCategories(ctx context.Context, identity int64) (*categoryPage, error) {
	resp, err := e.api.Do(ctx, http.MethodGet, "categories/", identity, nil, nil)
	if err != nil {
		return nil, err
	}
	var page categoryPage
	if err := resp.Decode(&page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (e *Engine) getProducts(ctx context.Context, identity, categoryID int64, page int) (*productPage, error) {
	query := url.Values{}
	query.Set("category_id", strconv.FormatInt(categoryID, 10))
	if page > 1 {
		query.Set("page", strconv.Itoa(page))
	}
	resp, err := e.api.Do(ctx, http.MethodGet, "products/", identity, nil, query)
	if err != nil {
		return nil, err
	}
	var result productPage
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (e *Engine) getBranches(ctx context.Context, identity int64) (*branchPage, error) {
	resp, err := e.api.Do(ctx, http.MethodGet, "branches/", identity, nil, nil)
	if err != nil {
		return nil, err
	}
	var page branchPage
	if err := resp.Decode(&page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (e *Engine) getCart(ctx context.Context, identity int64) (*apiCart, error) {
	resp, err := e.api.Do(ctx, http.MethodGet, "cart/", identity, nil, nil)
	if err != nil {
		return nil, err
	}
	var cart apiCart
	if err := resp.Decode(&cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (e *Engine) addCartItem(ctx context.Context, identity, productID int64, quantity int) (*apiCart, error) {
	body := map[string]interface{}{"product_id": productID, "quantity": quantity}
	resp, err := e.api.Do(ctx, http.MethodPost, "cart/items/", identity, body, nil)
	if err != nil {
		return nil, err
	}
	var cart apiCart
	if err := resp.Decode(&cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (e *Engine) setCartItemQuantity(ctx context.Context, identity, itemID int64, quantity int) (*apiCart, error) {
	body := map[string]interface{}{"quantity": quantity}
	resp, err := e.api.Do(ctx, http.MethodPatch, "cart/items/"+strconv.FormatInt(itemID, 10)+"/", identity, body, nil)
	if err != nil {
		return nil, err
	}
	var cart apiCart
	if err := resp.Decode(&cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (e *Engine) deleteCartItem(ctx context.Context, identity, itemID int64) error {
	_, err := e.api.Do(ctx, http.MethodDelete, "cart/items/"+strconv.FormatInt(itemID, 10)+"/", identity, nil, nil)
	return err
}

func (e *Engine) register(ctx context.Context, identity int64, phone, firstName string) error {
	body := map[string]interface{}{
		"chat_id":      identity,
		"phone_number": phone,
		"first_name":   firstName,
	}
	_, err := e.api.Do(ctx, http.MethodPost, "auth/register/", identity, body, nil)
	return err
}

func (e *Engine) verify(ctx context.Context, identity int64, phone, code string) (*verifyReply, error) {
	body := map[string]interface{}{"phone_number": phone, "code": code}
	resp, err := e.api.Do(ctx, http.MethodPost, "auth/verify/", identity, body, nil)
	if err != nil {
		return nil, err
	}
	var reply verifyReply
	if err := resp.Decode(&reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (e *Engine) checkout(ctx context.Context, identity int64, draft checkoutScratch, paymentType string) (*apiOrder, error) {
	body := map[string]interface{}{
		"delivery_type": draft.DeliveryType,
		"payment_type":  paymentType,
	}
	if draft.DeliveryType == model.DeliveryTypeDelivery {
		body["latitude"] = draft.Latitude
		body["longitude"] = draft.Longitude
	} else {
		body["pickup_branch_id"] = draft.BranchID
	}
	resp, err := e.api.Do(ctx, http.MethodPost, "orders/checkout/", identity, body, nil)
	if err != nil {
		return nil, err
	}
	var order apiOrder
	if err := resp.Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (e *Engine) getOrders(ctx context.Context, identity int64, page int) (*orderPage, error) {
	var query url.Values
	if page > 1 {
		query = url.Values{"page": []string{strconv.Itoa(page)}}
	}
	resp, err := e.api.Do(ctx, http.MethodGet, "orders/history/", identity, nil, query)
	if err != nil {
		return nil, err
	}
	var result orderPage
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (e *Engine) getOrder(ctx context.Context, identity, orderID int64) (*apiOrder, error) {
	resp, err := e.api.Do(ctx, http.MethodGet, "orders/"+strconv.FormatInt(orderID, 10)+"/", identity, nil, nil)
	if err != nil {
		return nil, err
	}
	var order apiOrder
	if err := resp.Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (e *Engine) cancelOrder(ctx context.Context, identity, orderID int64) (*apiOrder, error) {
	resp, err := e.api.Do(ctx, http.MethodPost, "orders/"+strconv.FormatInt(orderID, 10)+"/cancel/", identity, nil, nil)
	if err != nil {
		return nil, err
	}
	var order apiOrder
	if err := resp.Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (e *Engine) getProfile(ctx context.Context, identity int64) (*apiUser, error) {
	resp, err := e.api.Do(ctx, http.MethodGet, "users/profile/", identity, nil, nil)
	if err != nil {
		return nil, err
	}
	var user apiUser
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// pushLocale propagates a locale change to the backend profile.
// Fire-and-forget; the caller logs failures and moves on.
func (e *Engine) pushLocale(ctx context.Context, identity int64, locale string) error {
	body := map[string]string{"language_code": locale}
	_, err := e.api.Do(ctx, http.MethodPatch, "users/profile/", identity, body, nil)
	return err
}
