package flow

import (
	"strconv"

	"github.com/hojimahmudov/orderbot/internal/bot/chat"
)

func localeKeyboard() *chat.Keyboard {
	return &chat.Keyboard{Inline: [][]chat.InlineButton{{
		{Text: "🇺🇿 O'zbekcha", Data: cbLocaleUZ},
		{Text: "🇷🇺 Русский", Data: cbLocaleRU},
	}}}
}

func authChoiceKeyboard(locale string) *chat.Keyboard {
	return &chat.Keyboard{Inline: [][]chat.InlineButton{{
		{Text: loc(locale, "📝 Ro'yxatdan o'tish", "📝 Регистрация"), Data: cbStartRegister},
	}}}
}

func phoneInputKeyboard(locale string) *chat.Keyboard {
	return &chat.Keyboard{Inline: [][]chat.InlineButton{{
		{Text: loc(locale, "📱 Raqamni ulashish", "📱 Поделиться номером"), Data: cbPhoneShare},
		{Text: loc(locale, "⌨️ Qo'lda kiritish", "⌨️ Ввести вручную"), Data: cbPhoneManual},
	}}}
}

func contactRequestKeyboard(locale string) *chat.Keyboard {
	return &chat.Keyboard{Reply: [][]chat.ReplyButton{{
		{Text: loc(locale, "📱 Raqamni yuborish", "📱 Отправить номер"), RequestContact: true},
	}}}
}

func locationRequestKeyboard(locale string) *chat.Keyboard {
	return &chat.Keyboard{Reply: [][]chat.ReplyButton{{
		{Text: loc(locale, "📍 Joylashuvni yuborish", "📍 Отправить локацию"), RequestLocation: true},
	}}}
}

func mainMenuKeyboard(locale string) *chat.Keyboard {
	return &chat.Keyboard{Reply: [][]chat.ReplyButton{
		{
			{Text: loc(locale, menuCatalogUZ, menuCatalogRU)},
			{Text: loc(locale, menuCartUZ, menuCartRU)},
		},
		{
			{Text: loc(locale, menuOrdersUZ, menuOrdersRU)},
			{Text: loc(locale, menuBranchesUZ, menuBranchesRU)},
		},
		{
			{Text: loc(locale, menuProfileUZ, menuProfileRU)},
			{Text: loc(locale, menuLocaleUZ, menuLocaleRU)},
		},
	}}
}

func deliveryTypeKeyboard(locale string) *chat.Keyboard {
	return &chat.Keyboard{Inline: [][]chat.InlineButton{
		{
			{Text: loc(locale, "🚚 Yetkazib berish", "🚚 Доставка"), Data: cbSetDelivery},
			{Text: loc(locale, "🏃 Olib ketish", "🏃 Самовывоз"), Data: cbSetPickup},
		},
		{cancelButton(locale)},
	}}
}

func paymentKeyboard(locale string) *chat.Keyboard {
	return &chat.Keyboard{Inline: [][]chat.InlineButton{
		{
			{Text: loc(locale, "💵 Naqd", "💵 Наличные"), Data: cbPaymentCash},
			{Text: loc(locale, "💳 Karta", "💳 Карта"), Data: cbPaymentCard},
		},
		{cancelButton(locale)},
	}}
}

func cancelButton(locale string) chat.InlineButton {
	return chat.InlineButton{
		Text: loc(locale, "❌ Bekor qilish", "❌ Отмена"),
		Data: cbCheckoutCancel,
	}
}

func branchChoiceKeyboard(locale string, branches []apiBranch) *chat.Keyboard {
	var rows [][]chat.InlineButton
	for _, b := range branches {
		rows = append(rows, []chat.InlineButton{{
			Text: b.Name,
			Data: cbBranchPrefix + strconv.FormatInt(b.ID, 10),
		}})
	}
	rows = append(rows, []chat.InlineButton{cancelButton(locale)})
	return &chat.Keyboard{Inline: rows}
}

func categoryKeyboard(categories []apiCategory) *chat.Keyboard {
	var rows [][]chat.InlineButton
	for _, cat := range categories {
		rows = append(rows, []chat.InlineButton{{
			Text: cat.Name,
			Data: cbCategoryPrefix + strconv.FormatInt(cat.ID, 10),
		}})
	}
	return &chat.Keyboard{Inline: rows}
}

func productsKeyboard(locale string, categoryID int64, page *productPage, current int) *chat.Keyboard {
	var rows [][]chat.InlineButton
	for _, p := range page.Results {
		rows = append(rows, []chat.InlineButton{{
			Text: "➕ " + p.Name,
			Data: cbProductAddPrefix + strconv.FormatInt(p.ID, 10),
		}})
	}
	var nav []chat.InlineButton
	if page.Previous != nil {
		nav = append(nav, chat.InlineButton{
			Text: "⬅️",
			Data: cbProdPagePrefix + strconv.FormatInt(categoryID, 10) + "_" + strconv.Itoa(current-1),
		})
	}
	if page.Next != nil {
		nav = append(nav, chat.InlineButton{
			Text: "➡️",
			Data: cbProdPagePrefix + strconv.FormatInt(categoryID, 10) + "_" + strconv.Itoa(current+1),
		})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return &chat.Keyboard{Inline: rows}
}

func cartKeyboard(locale string, cart *apiCart) *chat.Keyboard {
	var rows [][]chat.InlineButton
	for _, item := range cart.Items {
		id := strconv.FormatInt(item.ID, 10)
		rows = append(rows, []chat.InlineButton{
			{Text: "➖", Data: cbCartDecPrefix + id},
			{Text: strconv.Itoa(item.Quantity), Data: "noop"},
			{Text: "➕", Data: cbCartIncPrefix + id},
			{Text: "🗑", Data: cbCartDelPrefix + id},
		})
	}
	rows = append(rows, []chat.InlineButton{{
		Text: loc(locale, "✅ Rasmiylashtirish", "✅ Оформить заказ"),
		Data: cbCartCheckout,
	}})
	return &chat.Keyboard{Inline: rows}
}

func ordersKeyboard(page *orderPage, current int) *chat.Keyboard {
	var rows [][]chat.InlineButton
	for _, o := range page.Results {
		rows = append(rows, []chat.InlineButton{{
			Text: "🧾 #" + strconv.FormatInt(o.ID, 10),
			Data: cbOrderPrefix + strconv.FormatInt(o.ID, 10),
		}})
	}
	var nav []chat.InlineButton
	if page.Previous != nil {
		nav = append(nav, chat.InlineButton{Text: "⬅️", Data: cbHistPagePrefix + strconv.Itoa(current-1)})
	}
	if page.Next != nil {
		nav = append(nav, chat.InlineButton{Text: "➡️", Data: cbHistPagePrefix + strconv.Itoa(current+1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return &chat.Keyboard{Inline: rows}
}

func orderDetailKeyboard(locale string, order *apiOrder) *chat.Keyboard {
	if order.Status != "new" {
		return nil
	}
	return &chat.Keyboard{Inline: [][]chat.InlineButton{{
		{
			Text: loc(locale, "❌ Buyurtmani bekor qilish", "❌ Отменить заказ"),
			Data: cbOrderCancelPre + strconv.FormatInt(order.ID, 10),
		},
	}}}
}
