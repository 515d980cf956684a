package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hojimahmudov/orderbot/internal/bot/chat"
)

func (e *Engine) handleMainMenu(c *conv, ev chat.Event) {
	switch ev.Kind {
	case chat.EventCommand, chat.EventText:
		e.handleMenuText(c, ev.Text)
	case chat.EventCallback:
		e.handleMenuCallback(c, ev.Data)
	default:
		c.send(loc(c.locale(), "Menyudan tanlang.", "Выберите пункт меню."),
			mainMenuKeyboard(c.locale()))
	}
}

func (e *Engine) handleMenuText(c *conv, text string) {
	switch text {
	case menuCatalogUZ, menuCatalogRU:
		e.showCategories(c)
	case menuCartUZ, menuCartRU:
		e.showCart(c)
	case menuOrdersUZ, menuOrdersRU:
		e.showOrders(c, 1)
	case menuBranchesUZ, menuBranchesRU:
		e.showBranches(c)
	case menuProfileUZ, menuProfileRU:
		e.showProfile(c)
	case menuLocaleUZ, menuLocaleRU:
		c.sess.State = string(StateSelectingLocale)
		c.send("Tilni tanlang / Выберите язык", localeKeyboard())
	default:
		c.send(loc(c.locale(), "Menyudan tanlang.", "Выберите пункт меню."),
			mainMenuKeyboard(c.locale()))
	}
}

func (e *Engine) handleMenuCallback(c *conv, data string) {
	switch {
	case strings.HasPrefix(data, cbCategoryPrefix):
		if id, ok := parseID(data, cbCategoryPrefix); ok {
			e.showProducts(c, id, 1)
		}
	case strings.HasPrefix(data, cbProdPagePrefix):
		if categoryID, page, ok := parsePagedID(data, cbProdPagePrefix); ok {
			e.showProducts(c, categoryID, page)
		}
	case strings.HasPrefix(data, cbProductAddPrefix):
		if id, ok := parseID(data, cbProductAddPrefix); ok {
			e.addProduct(c, id)
		}
	case strings.HasPrefix(data, cbCartIncPrefix):
		if id, ok := parseID(data, cbCartIncPrefix); ok {
			e.adjustCartItem(c, id, +1)
		}
	case strings.HasPrefix(data, cbCartDecPrefix):
		if id, ok := parseID(data, cbCartDecPrefix); ok {
			e.adjustCartItem(c, id, -1)
		}
	case strings.HasPrefix(data, cbCartDelPrefix):
		if id, ok := parseID(data, cbCartDelPrefix); ok {
			e.removeCartItem(c, id)
		}
	case data == cbCartCheckout:
		e.startCheckout(c)
	case strings.HasPrefix(data, cbHistPagePrefix):
		if page, err := strconv.Atoi(strings.TrimPrefix(data, cbHistPagePrefix)); err == nil {
			e.showOrders(c, page)
		}
	case strings.HasPrefix(data, cbOrderCancelPre):
		if id, ok := parseID(data, cbOrderCancelPre); ok {
			e.cancelUserOrder(c, id)
		}
	case strings.HasPrefix(data, cbOrderPrefix):
		if id, ok := parseID(data, cbOrderPrefix); ok {
			e.showOrderDetail(c, id)
		}
	}
}

func (e *Engine) showCategories(c *conv) {
	page, err := e.getCategories(c.ctx, c.identity())
	if err != nil {
		c.apiError(err)
		return
	}
	if len(page.Results) == 0 {
		c.send(loc(c.locale(), "Menyu hozircha bo'sh.", "Меню пока пустое."), nil)
		return
	}
	c.send(loc(c.locale(), "Bo'limni tanlang:", "Выберите раздел:"), categoryKeyboard(page.Results))
}

func (e *Engine) showProducts(c *conv, categoryID int64, pageNum int) {
	page, err := e.getProducts(c.ctx, c.identity(), categoryID, pageNum)
	if err != nil {
		c.apiError(err)
		return
	}
	if len(page.Results) == 0 {
		c.send(loc(c.locale(), "Bu bo'limda mahsulot yo'q.", "В этом разделе нет товаров."), nil)
		return
	}

	var b strings.Builder
	for _, p := range page.Results {
		fmt.Fprintf(&b, "%s - %s\n", p.Name, formatPrice(c.locale(), p.Price))
	}
	c.send(b.String(), productsKeyboard(c.locale(), categoryID, page, pageNum))
}

func (e *Engine) addProduct(c *conv, productID int64) {
	cart, err := e.addCartItem(c.ctx, c.identity(), productID, 1)
	if err != nil {
		c.apiError(err)
		return
	}
	c.send(loc(c.locale(),
		fmt.Sprintf("Savatga qo'shildi. Jami: %s", formatPrice(c.locale(), cart.TotalPrice)),
		fmt.Sprintf("Добавлено в корзину. Итого: %s", formatPrice(c.locale(), cart.TotalPrice))), nil)
}

func (e *Engine) showCart(c *conv) {
	cart, err := e.getCart(c.ctx, c.identity())
	if err != nil {
		c.apiError(err)
		return
	}
	if len(cart.Items) == 0 {
		c.send(loc(c.locale(), "Savatingiz bo'sh.", "Ваша корзина пуста."), nil)
		return
	}
	c.send(renderCart(c.locale(), cart), cartKeyboard(c.locale(), cart))
}

// adjustCartItem shifts an item's quantity by delta. Dropping to zero
// removes the line.
func (e *Engine) adjustCartItem(c *conv, itemID int64, delta int) {
	cart, err := e.getCart(c.ctx, c.identity())
	if err != nil {
		c.apiError(err)
		return
	}
	var current int
	found := false
	for _, item := range cart.Items {
		if item.ID == itemID {
			current = item.Quantity
			found = true
			break
		}
	}
	if !found {
		c.send(loc(c.locale(), "Bu mahsulot savatda yo'q.", "Этого товара нет в корзине."), nil)
		return
	}

	next := current + delta
	if next <= 0 {
		e.removeCartItem(c, itemID)
		return
	}
	updated, err := e.setCartItemQuantity(c.ctx, c.identity(), itemID, next)
	if err != nil {
		c.apiError(err)
		return
	}
	c.send(renderCart(c.locale(), updated), cartKeyboard(c.locale(), updated))
}

func (e *Engine) removeCartItem(c *conv, itemID int64) {
	if err := e.deleteCartItem(c.ctx, c.identity(), itemID); err != nil {
		c.apiError(err)
		return
	}
	e.showCart(c)
}

func (e *Engine) showOrders(c *conv, pageNum int) {
	page, err := e.getOrders(c.ctx, c.identity(), pageNum)
	if err != nil {
		c.apiError(err)
		return
	}
	if len(page.Results) == 0 {
		c.send(loc(c.locale(), "Buyurtmalaringiz yo'q.", "У вас нет заказов."), nil)
		return
	}

	var b strings.Builder
	b.WriteString(loc(c.locale(), "Buyurtmalaringiz:\n", "Ваши заказы:\n"))
	for _, o := range page.Results {
		fmt.Fprintf(&b, "#%d - %s - %s\n", o.ID, statusLabel(c.locale(), o.Status),
			formatPrice(c.locale(), o.TotalPrice))
	}
	c.send(b.String(), ordersKeyboard(page, pageNum))
}

func (e *Engine) showOrderDetail(c *conv, orderID int64) {
	order, err := e.getOrder(c.ctx, c.identity(), orderID)
	if err != nil {
		c.apiError(err)
		return
	}
	c.send(renderOrder(c.locale(), order), orderDetailKeyboard(c.locale(), order))
}

func (e *Engine) cancelUserOrder(c *conv, orderID int64) {
	order, err := e.cancelOrder(c.ctx, c.identity(), orderID)
	if err != nil {
		c.apiError(err)
		return
	}
	c.send(loc(c.locale(),
		fmt.Sprintf("Buyurtma #%d bekor qilindi.", order.ID),
		fmt.Sprintf("Заказ #%d отменён.", order.ID)), nil)
}

func (e *Engine) showBranches(c *conv) {
	page, err := e.getBranches(c.ctx, c.identity())
	if err != nil {
		c.apiError(err)
		return
	}
	if len(page.Results) == 0 {
		c.send(loc(c.locale(), "Filiallar topilmadi.", "Филиалы не найдены."), nil)
		return
	}

	var b strings.Builder
	for _, branch := range page.Results {
		mark := "🔴"
		if branch.IsOpen {
			mark = "🟢"
		}
		fmt.Fprintf(&b, "%s %s\n%s\n\n", mark, branch.Name, branch.Address)
	}
	c.send(b.String(), nil)
}

func (e *Engine) showProfile(c *conv) {
	user, err := e.getProfile(c.ctx, c.identity())
	if err != nil {
		c.apiError(err)
		return
	}
	c.send(loc(c.locale(),
		fmt.Sprintf("👤 %s\n📱 %s", user.FirstName, user.PhoneNumber),
		fmt.Sprintf("👤 %s\n📱 %s", user.FirstName, user.PhoneNumber)), nil)
}

func renderCart(locale string, cart *apiCart) string {
	var b strings.Builder
	b.WriteString(loc(locale, "🛒 Savatingiz:\n", "🛒 Ваша корзина:\n"))
	for _, item := range cart.Items {
		fmt.Fprintf(&b, "%s x%d = %s\n", item.Name, item.Quantity,
			formatPrice(locale, item.LineTotal))
	}
	fmt.Fprintf(&b, "\n%s %s", loc(locale, "Jami:", "Итого:"),
		formatPrice(locale, cart.TotalPrice))
	return b.String()
}

func renderOrder(locale string, order *apiOrder) string {
	var b strings.Builder
	fmt.Fprintf(&b, loc(locale, "Buyurtma #%d\n", "Заказ #%d\n"), order.ID)
	fmt.Fprintf(&b, "%s %s\n", loc(locale, "Holat:", "Статус:"), statusLabel(locale, order.Status))
	fmt.Fprintf(&b, "%s %s\n", loc(locale, "Jami:", "Итого:"), formatPrice(locale, order.TotalPrice))
	if order.ReadyAt != nil {
		fmt.Fprintf(&b, "%s %s\n", loc(locale, "Tayyor bo'lish vaqti:", "Будет готов к:"),
			order.ReadyAt.Format("15:04"))
	}
	if order.DeliveredAt != nil {
		fmt.Fprintf(&b, "%s %s\n", loc(locale, "Yetkazilish vaqti:", "Доставка к:"),
			order.DeliveredAt.Format("15:04"))
	}
	return b.String()
}

func statusLabel(locale, status string) string {
	switch status {
	case "new":
		return loc(locale, "Yangi", "Новый")
	case "preparing":
		return loc(locale, "Tayyorlanmoqda", "Готовится")
	case "on_the_way":
		return loc(locale, "Yo'lda", "В пути")
	case "delivered":
		return loc(locale, "Yetkazildi", "Доставлен")
	case "cancelled":
		return loc(locale, "Bekor qilindi", "Отменён")
	}
	return status
}

// formatPrice renders whole-sum amounts with thousand grouping.
func formatPrice(locale string, amount int64) string {
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}
	return b.String() + loc(locale, " so'm", " сум")
}

func parseID(data, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	return id, err == nil
}

// parsePagedID splits "<prefix><id>_<page>" payloads.
func parsePagedID(data, prefix string) (int64, int, bool) {
	rest := strings.TrimPrefix(data, prefix)
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	page, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return id, page, true
}
