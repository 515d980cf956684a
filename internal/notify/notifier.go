// Package notify pushes order status updates to users through the
// outbound chat channel. Delivery failures are logged and swallowed;
// they never affect the write that triggered them.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hojimahmudov/orderbot/internal/model"
)

// Sender is the outbound notification channel. The chat transport
// implements it; tests substitute a recorder.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Notifier struct {
	sender Sender
	log    *slog.Logger
}

func NewNotifier(sender Sender, log *slog.Logger) *Notifier {
	return &Notifier{sender: sender, log: log}
}

var statusNames = map[string]map[string]string{
	model.LocaleUZ: {
		model.StatusNew:       "Yangi",
		model.StatusPreparing: "Tayyorlanmoqda",
		model.StatusOnTheWay:  "Yo'lda",
		model.StatusDelivered: "Yetkazildi",
		model.StatusCancelled: "Bekor qilindi",
	},
	model.LocaleRU: {
		model.StatusNew:       "Новый",
		model.StatusPreparing: "Готовится",
		model.StatusOnTheWay:  "В пути",
		model.StatusDelivered: "Доставлен",
		model.StatusCancelled: "Отменён",
	},
}

// StatusName returns the human-readable status for the locale.
func StatusName(locale, status string) string {
	names := statusNames[model.NormalizeLocale(locale)]
	if name, ok := names[status]; ok {
		return name
	}
	return status
}

// OrderStatusChanged composes and pushes a locale-specific status message.
// Always returns; errors are logged only.
func (n *Notifier) OrderStatusChanged(ctx context.Context, chatID int64, locale string, orderID int64, status string) {
	var text string
	if model.NormalizeLocale(locale) == model.LocaleRU {
		text = fmt.Sprintf("Статус вашего заказа #%d: %s", orderID, StatusName(locale, status))
	} else {
		text = fmt.Sprintf("Buyurtmangiz #%d holati: %s", orderID, StatusName(locale, status))
	}

	if err := n.sender.SendMessage(ctx, chatID, text); err != nil {
		n.log.Warn("order status notification failed",
			"order_id", orderID, "chat_id", chatID, "error", err)
	}
}
