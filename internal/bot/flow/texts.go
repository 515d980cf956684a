package flow

import "github.com/hojimahmudov/orderbot/internal/model"

// loc picks the translation for the session locale.
func loc(locale, uz, ru string) string {
	if model.NormalizeLocale(locale) == model.LocaleRU {
		return ru
	}
	return uz
}

// Persistent main-menu commands. Matched in either language so a locale
// change does not orphan the previously shown keyboard.
const (
	menuCatalogUZ  = "🍔 Menyu"
	menuCatalogRU  = "🍔 Меню"
	menuCartUZ     = "🛒 Savat"
	menuCartRU     = "🛒 Корзина"
	menuOrdersUZ   = "📋 Buyurtmalarim"
	menuOrdersRU   = "📋 Мои заказы"
	menuBranchesUZ = "🏢 Filiallar"
	menuBranchesRU = "🏢 Филиалы"
	menuProfileUZ  = "👤 Profil"
	menuProfileRU  = "👤 Профиль"
	menuLocaleUZ   = "🌐 Til"
	menuLocaleRU   = "🌐 Язык"
)

// Inline callback payloads.
const (
	cbLocaleUZ         = "lang_uz"
	cbLocaleRU         = "lang_ru"
	cbStartRegister    = "auth_register"
	cbPhoneShare       = "phone_share"
	cbPhoneManual      = "phone_manual"
	cbCartCheckout     = "cart_checkout"
	cbSetDelivery      = "checkout_set_delivery"
	cbSetPickup        = "checkout_set_pickup"
	cbBranchPrefix     = "checkout_branch_"
	cbPaymentCash      = "checkout_payment_cash"
	cbPaymentCard      = "checkout_payment_card"
	cbCheckoutCancel   = "checkout_cancel"
	cbCategoryPrefix   = "cat_"
	cbProductAddPrefix = "prod_add_"
	cbCartIncPrefix    = "cart_inc_"
	cbCartDecPrefix    = "cart_dec_"
	cbCartDelPrefix    = "cart_del_"
	cbOrderPrefix      = "order_"
	cbOrderCancelPre   = "ordercancel_"
	cbHistPagePrefix   = "hist_page_"
	cbProdPagePrefix   = "prodpage_"
)

// Commands understood in any state.
const (
	cmdStart  = "/start"
	cmdCancel = "/cancel"
)
