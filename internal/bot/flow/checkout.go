package flow

import (
	"fmt"
	"strings"

	"github.com/hojimahmudov/orderbot/internal/bot/chat"
	"github.com/hojimahmudov/orderbot/internal/bot/gateway"
	"github.com/hojimahmudov/orderbot/internal/model"
)

// startCheckout opens the checkout branch from the cart view. An empty
// cart never enters the flow.
func (e *Engine) startCheckout(c *conv) {
	cart, err := e.getCart(c.ctx, c.identity())
	if err != nil {
		c.apiError(err)
		return
	}
	if len(cart.Items) == 0 {
		c.send(loc(c.locale(), "Savatingiz bo'sh.", "Ваша корзина пуста."), nil)
		return
	}

	if err := setScratch(c.sess, scratchKindCheckout, checkoutScratch{}); err != nil {
		e.log.Error("store checkout scratch", "identity", c.identity(), "error", err)
		return
	}
	c.sess.State = string(StateAskingDeliveryType)
	c.send(loc(c.locale(),
		"Buyurtmani qanday olasiz?",
		"Как вы получите заказ?"),
		deliveryTypeKeyboard(c.locale()))
}

func (e *Engine) handleAskingDeliveryType(c *conv, ev chat.Event) {
	if ev.Kind != chat.EventCallback {
		c.send(loc(c.locale(), "Usulni tanlang.", "Выберите способ."),
			deliveryTypeKeyboard(c.locale()))
		return
	}
	switch ev.Data {
	case cbCheckoutCancel:
		e.abortCheckout(c)
	case cbSetDelivery:
		e.updateCheckoutScratch(c, func(s *checkoutScratch) {
			s.DeliveryType = model.DeliveryTypeDelivery
		})
		c.sess.State = string(StateAskingLocation)
		c.send(loc(c.locale(),
			"Yetkazib berish manzilini yuboring.",
			"Отправьте адрес доставки."),
			locationRequestKeyboard(c.locale()))
	case cbSetPickup:
		e.askBranch(c)
	default:
		c.send(loc(c.locale(), "Usulni tanlang.", "Выберите способ."),
			deliveryTypeKeyboard(c.locale()))
	}
}

// askBranch lists only branches currently open. With none open the user
// can only cancel; a closed branch is never offered.
func (e *Engine) askBranch(c *conv) {
	page, err := e.getBranches(c.ctx, c.identity())
	if err != nil {
		c.apiError(err)
		return
	}
	var open []apiBranch
	for _, b := range page.Results {
		if b.IsOpen {
			open = append(open, b)
		}
	}
	if len(open) == 0 {
		c.send(loc(c.locale(),
			"Hozir ochiq filial yo'q.",
			"Сейчас нет открытых филиалов."),
			&chat.Keyboard{Inline: [][]chat.InlineButton{{cancelButton(c.locale())}}})
		return
	}

	e.updateCheckoutScratch(c, func(s *checkoutScratch) {
		s.DeliveryType = model.DeliveryTypePickup
	})
	c.sess.State = string(StateAskingBranch)
	c.send(loc(c.locale(), "Filialni tanlang:", "Выберите филиал:"),
		branchChoiceKeyboard(c.locale(), open))
}

func (e *Engine) handleAskingBranch(c *conv, ev chat.Event) {
	if ev.Kind != chat.EventCallback {
		c.send(loc(c.locale(), "Filialni tanlang.", "Выберите филиал."), nil)
		return
	}
	if ev.Data == cbCheckoutCancel {
		e.abortCheckout(c)
		return
	}
	if !strings.HasPrefix(ev.Data, cbBranchPrefix) {
		c.send(loc(c.locale(), "Filialni tanlang.", "Выберите филиал."), nil)
		return
	}
	branchID, ok := parseID(ev.Data, cbBranchPrefix)
	if !ok {
		return
	}

	e.updateCheckoutScratch(c, func(s *checkoutScratch) {
		s.BranchID = &branchID
	})
	c.sess.State = string(StateAskingPayment)
	c.send(loc(c.locale(), "To'lov turini tanlang:", "Выберите способ оплаты:"),
		paymentKeyboard(c.locale()))
}

func (e *Engine) handleAskingLocation(c *conv, ev chat.Event) {
	if ev.Kind == chat.EventCallback && ev.Data == cbCheckoutCancel {
		e.abortCheckout(c)
		return
	}
	if ev.Kind != chat.EventLocation {
		c.send(loc(c.locale(),
			"Joylashuvni tugma orqali yuboring.",
			"Отправьте локацию кнопкой."),
			locationRequestKeyboard(c.locale()))
		return
	}

	lat, lon := ev.Latitude, ev.Longitude
	e.updateCheckoutScratch(c, func(s *checkoutScratch) {
		s.Latitude = &lat
		s.Longitude = &lon
	})
	c.sess.State = string(StateAskingPayment)
	c.send(loc(c.locale(), "To'lov turini tanlang:", "Выберите способ оплаты:"),
		paymentKeyboard(c.locale()))
}

func (e *Engine) handleAskingPayment(c *conv, ev chat.Event) {
	if ev.Kind != chat.EventCallback {
		c.send(loc(c.locale(), "To'lov turini tanlang.", "Выберите способ оплаты."),
			paymentKeyboard(c.locale()))
		return
	}

	var payment string
	switch ev.Data {
	case cbCheckoutCancel:
		e.abortCheckout(c)
		return
	case cbPaymentCash:
		payment = model.PaymentTypeCash
	case cbPaymentCard:
		payment = model.PaymentTypeCard
	default:
		c.send(loc(c.locale(), "To'lov turini tanlang.", "Выберите способ оплаты."),
			paymentKeyboard(c.locale()))
		return
	}

	var draft checkoutScratch
	if !scratchAs(c.sess, scratchKindCheckout, &draft) {
		e.abortCheckout(c)
		return
	}

	order, err := e.checkout(c.ctx, c.identity(), draft, payment)
	if err != nil {
		gerr, ok := err.(*gateway.Error)
		if ok && gerr.Kind == gateway.ValidationError {
			// The draft stays; the user may retry after fixing the cause
			// (for example when the chosen branch closed meanwhile).
			c.send(gerr.Detail, paymentKeyboard(c.locale()))
			return
		}
		if ok && gerr.Transient() {
			c.send(loc(c.locale(),
				"Server javob bermayapti. Qaytadan urinib ko'ring.",
				"Сервер не отвечает. Попробуйте ещё раз."),
				paymentKeyboard(c.locale()))
			return
		}
		c.apiError(err)
		return
	}

	clearScratch(c.sess)
	c.sess.State = string(StateMainMenu)
	confirmation := loc(c.locale(),
		fmt.Sprintf("✅ Buyurtma #%d qabul qilindi!\nJami: %s",
			order.ID, formatPrice(c.locale(), order.TotalPrice)),
		fmt.Sprintf("✅ Заказ #%d принят!\nИтого: %s",
			order.ID, formatPrice(c.locale(), order.TotalPrice)))
	if order.ReadyAt != nil {
		confirmation += loc(c.locale(),
			fmt.Sprintf("\nTayyor bo'lish vaqti: %s", order.ReadyAt.Format("15:04")),
			fmt.Sprintf("\nБудет готов к: %s", order.ReadyAt.Format("15:04")))
	}
	c.send(confirmation, mainMenuKeyboard(c.locale()))
}

// abortCheckout drops the draft and returns to the main menu.
func (e *Engine) abortCheckout(c *conv) {
	clearScratch(c.sess)
	c.sess.State = string(StateMainMenu)
	c.send(loc(c.locale(),
		"Buyurtma bekor qilindi.",
		"Оформление отменено."),
		mainMenuKeyboard(c.locale()))
}

// updateCheckoutScratch applies fn to the stored checkout draft,
// creating an empty one when the envelope is absent or of another kind.
func (e *Engine) updateCheckoutScratch(c *conv, fn func(*checkoutScratch)) {
	var draft checkoutScratch
	scratchAs(c.sess, scratchKindCheckout, &draft)
	fn(&draft)
	if err := setScratch(c.sess, scratchKindCheckout, draft); err != nil {
		e.log.Error("store checkout scratch", "identity", c.identity(), "error", err)
	}
}
