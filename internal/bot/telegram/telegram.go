// Package telegram adapts the Telegram Bot API to the chat primitives
// the conversation engine works with.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hojimahmudov/orderbot/internal/bot/chat"
)

const pollTimeoutSeconds = 30

// Client is both the outbound transport and the inbound long-poll loop.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *slog.Logger
}

func NewClient(httpClient *http.Client, token string, log *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    "https://api.telegram.org/bot" + token + "/",
		log:        log,
	}
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type replyButton struct {
	Text            string `json:"text"`
	RequestContact  bool   `json:"request_contact,omitempty"`
	RequestLocation bool   `json:"request_location,omitempty"`
}

func replyMarkup(kb *chat.Keyboard) interface{} {
	if kb == nil {
		return nil
	}
	switch {
	case len(kb.Inline) > 0:
		rows := make([][]inlineButton, 0, len(kb.Inline))
		for _, row := range kb.Inline {
			buttons := make([]inlineButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, inlineButton{Text: b.Text, CallbackData: b.Data})
			}
			rows = append(rows, buttons)
		}
		return map[string]interface{}{"inline_keyboard": rows}
	case len(kb.Reply) > 0:
		rows := make([][]replyButton, 0, len(kb.Reply))
		for _, row := range kb.Reply {
			buttons := make([]replyButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, replyButton{
					Text:            b.Text,
					RequestContact:  b.RequestContact,
					RequestLocation: b.RequestLocation,
				})
			}
			rows = append(rows, buttons)
		}
		return map[string]interface{}{"keyboard": rows, "resize_keyboard": true}
	case kb.RemoveReply:
		return map[string]interface{}{"remove_keyboard": true}
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, identity int64, text string, keyboard *chat.Keyboard) error {
	payload := map[string]interface{}{
		"chat_id": identity,
		"text":    text,
	}
	if markup := replyMarkup(keyboard); markup != nil {
		payload["reply_markup"] = markup
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

func (c *Client) EditMessage(ctx context.Context, identity int64, messageID int, text string, keyboard *chat.Keyboard) error {
	payload := map[string]interface{}{
		"chat_id":    identity,
		"message_id": messageID,
		"text":       text,
	}
	if markup := replyMarkup(keyboard); markup != nil {
		payload["reply_markup"] = markup
	}
	return c.call(ctx, "editMessageText", payload, nil)
}

func (c *Client) DeleteMessage(ctx context.Context, identity int64, messageID int) error {
	return c.call(ctx, "deleteMessage", map[string]interface{}{
		"chat_id":    identity,
		"message_id": messageID,
	}, nil)
}

func (c *Client) call(ctx context.Context, method string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var reply struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !reply.OK {
		return fmt.Errorf("%s rejected: %s", method, reply.Description)
	}
	if out != nil {
		return json.Unmarshal(reply.Result, out)
	}
	return nil
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			FirstName string `json:"first_name"`
		} `json:"from"`
		Text    string `json:"text"`
		Contact *struct {
			PhoneNumber string `json:"phone_number"`
		} `json:"contact"`
		Location *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
	} `json:"message"`
	CallbackQuery *struct {
		ID   string `json:"id"`
		From struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
		} `json:"from"`
		Data string `json:"data"`
	} `json:"callback_query"`
}

// Poll long-polls getUpdates until ctx is cancelled, translating each
// update into a chat event for dispatch.
func (c *Client) Poll(ctx context.Context, dispatch func(chat.Event)) {
	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}
		updates, err := c.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error("poll updates", "error", err)
			time.Sleep(3 * time.Second)
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			if ev, ok := c.translate(ctx, u); ok {
				dispatch(ev)
			}
		}
	}
}

func (c *Client) getUpdates(ctx context.Context, offset int64) ([]update, error) {
	var updates []update
	err := c.call(ctx, "getUpdates", map[string]interface{}{
		"offset":  offset,
		"timeout": pollTimeoutSeconds,
	}, &updates)
	return updates, err
}

func (c *Client) translate(ctx context.Context, u update) (chat.Event, bool) {
	if u.CallbackQuery != nil {
		// Acknowledge so the client stops the loading spinner.
		if err := c.call(ctx, "answerCallbackQuery",
			map[string]interface{}{"callback_query_id": u.CallbackQuery.ID}, nil); err != nil {
			c.log.Warn("answer callback", "error", err)
		}
		return chat.Event{
			Identity:  u.CallbackQuery.From.ID,
			Kind:      chat.EventCallback,
			FirstName: u.CallbackQuery.From.FirstName,
			Data:      u.CallbackQuery.Data,
		}, true
	}

	if u.Message == nil {
		return chat.Event{}, false
	}
	ev := chat.Event{
		Identity:  u.Message.Chat.ID,
		FirstName: u.Message.From.FirstName,
	}
	switch {
	case u.Message.Contact != nil:
		ev.Kind = chat.EventContact
		ev.Phone = u.Message.Contact.PhoneNumber
	case u.Message.Location != nil:
		ev.Kind = chat.EventLocation
		ev.Latitude = u.Message.Location.Latitude
		ev.Longitude = u.Message.Location.Longitude
	case strings.HasPrefix(u.Message.Text, "/"):
		ev.Kind = chat.EventCommand
		ev.Text = u.Message.Text
	case u.Message.Text != "":
		ev.Kind = chat.EventText
		ev.Text = u.Message.Text
	default:
		return chat.Event{}, false
	}
	return ev, true
}
