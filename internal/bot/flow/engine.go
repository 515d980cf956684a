// Package flow is the conversation engine: it consumes chat events,
// advances the per-identity state machine and talks to the backend
// through the gateway client.
package flow

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hojimahmudov/orderbot/internal/bot/chat"
	"github.com/hojimahmudov/orderbot/internal/bot/gateway"
	"github.com/hojimahmudov/orderbot/internal/bot/session"
)

const workerQueueSize = 16

// Engine routes chat events to state handlers. Events for the same
// identity are processed strictly in order by a dedicated worker;
// different identities run concurrently.
type Engine struct {
	sessions  *session.Store
	api       *gateway.Client
	transport chat.Transport
	log       *slog.Logger
	timeout   time.Duration

	mu      sync.Mutex
	workers map[int64]*worker
	epochs  sync.Map // identity -> *atomic.Int64
	wg      sync.WaitGroup
	closed  bool
}

type worker struct {
	events chan chat.Event
}

func NewEngine(sessions *session.Store, api *gateway.Client, transport chat.Transport, timeout time.Duration, log *slog.Logger) *Engine {
	return &Engine{
		sessions:  sessions,
		api:       api,
		transport: transport,
		log:       log,
		timeout:   timeout,
		workers:   make(map[int64]*worker),
	}
}

// Dispatch hands an event to the identity's worker. A cancel command
// additionally bumps the identity's epoch right away, so a handler still
// running for an earlier event cannot persist over the cancellation.
func (e *Engine) Dispatch(ev chat.Event) {
	if ev.Kind == chat.EventCommand && ev.Text == cmdCancel {
		e.epochFor(ev.Identity).Add(1)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	w, ok := e.workers[ev.Identity]
	if !ok {
		w = &worker{events: make(chan chat.Event, workerQueueSize)}
		e.workers[ev.Identity] = w
		e.wg.Add(1)
		go e.run(ev.Identity, w)
	}
	e.mu.Unlock()

	select {
	case w.events <- ev:
	default:
		e.log.Warn("event queue full, dropping", "identity", ev.Identity)
	}
}

// Close drains all workers. New events are ignored after Close.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for _, w := range e.workers {
		close(w.events)
	}
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Engine) run(identity int64, w *worker) {
	defer e.wg.Done()
	for ev := range w.events {
		e.handle(ev)
	}
	e.mu.Lock()
	delete(e.workers, identity)
	e.mu.Unlock()
}

func (e *Engine) epochFor(identity int64) *atomic.Int64 {
	v, _ := e.epochs.LoadOrStore(identity, &atomic.Int64{})
	return v.(*atomic.Int64)
}

func (e *Engine) handle(ev chat.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	epoch := e.epochFor(ev.Identity).Load()

	sess, err := e.sessions.Get(ctx, ev.Identity)
	if err != nil {
		e.log.Error("load session", "identity", ev.Identity, "error", err)
		return
	}

	c := &conv{engine: e, ctx: ctx, sess: sess, epoch: epoch}

	if ev.Kind == chat.EventCommand {
		switch ev.Text {
		case cmdStart:
			e.handleStart(c)
			c.persist()
			return
		case cmdCancel:
			e.handleCancel(c)
			c.persist()
			return
		}
	}

	handler, ok := stateHandlers[knownState(sess.State)]
	if !ok {
		handler = (*Engine).handleEnded
	}
	handler(e, c, ev)
	c.persist()
}

// stateHandlers maps each conversation state to its event handler.
// Unknown or ended sessions fall through to handleEnded, which only
// reacts to a fresh start.
var stateHandlers = map[State]func(*Engine, *conv, chat.Event){
	StateSelectingLocale:          (*Engine).handleSelectingLocale,
	StateAwaitingAuthChoice:       (*Engine).handleAwaitingAuthChoice,
	StateChoosingPhoneInput:       (*Engine).handleChoosingPhoneInput,
	StateAwaitingPhoneShare:       (*Engine).handleAwaitingPhone,
	StateAwaitingManualPhone:      (*Engine).handleAwaitingPhone,
	StateAwaitingVerificationCode: (*Engine).handleAwaitingVerificationCode,
	StateMainMenu:                 (*Engine).handleMainMenu,
	StateAskingDeliveryType:       (*Engine).handleAskingDeliveryType,
	StateAskingBranch:             (*Engine).handleAskingBranch,
	StateAskingLocation:           (*Engine).handleAskingLocation,
	StateAskingPayment:            (*Engine).handleAskingPayment,
	StateEnded:                    (*Engine).handleEnded,
}

// conv carries one event's working session copy. State, locale and
// scratch changes are persisted at the end of the handler unless the
// epoch moved (a cancel raced in), in which case they are discarded.
// Credentials are merged separately: the gateway may rotate or clear
// them mid-handler on its own freshly loaded copy, so the handler copy's
// token fields are only written back when the handler itself set them.
type conv struct {
	engine     *Engine
	ctx        context.Context
	sess       *session.Session
	epoch      int64
	credsDirty bool
}

func (c *conv) identity() int64 { return c.sess.Identity }
func (c *conv) locale() string  { return c.sess.Locale }

func (c *conv) setCredentials(access, refresh string) {
	c.sess.SetCredentials(access, refresh)
	c.credsDirty = true
}

func (c *conv) clearCredentials() {
	c.sess.ClearCredentials()
	c.credsDirty = true
}

func (c *conv) send(text string, keyboard *chat.Keyboard) {
	if err := c.engine.transport.SendMessage(c.ctx, c.sess.Identity, text, keyboard); err != nil {
		c.engine.log.Error("send message", "identity", c.sess.Identity, "error", err)
	}
}

// persist writes the handler's session changes back. The row is
// re-read first so credential updates done by the gateway during the
// handler survive; only explicitly dirtied credentials overwrite them.
func (c *conv) persist() {
	e := c.engine
	if e.epochFor(c.sess.Identity).Load() != c.epoch {
		e.log.Info("discarding stale session write", "identity", c.sess.Identity)
		return
	}

	fresh, err := e.sessions.Get(c.ctx, c.sess.Identity)
	if err != nil {
		e.log.Error("reload session", "identity", c.sess.Identity, "error", err)
		return
	}
	fresh.State = c.sess.State
	fresh.Scratch = c.sess.Scratch
	fresh.Locale = c.sess.Locale
	if c.credsDirty {
		fresh.AccessToken = c.sess.AccessToken
		fresh.RefreshToken = c.sess.RefreshToken
	}
	if err := e.sessions.Save(c.ctx, fresh); err != nil {
		e.log.Error("save session", "identity", c.sess.Identity, "error", err)
	}
}

// apiError reports a gateway failure to the user in their locale.
// Unauthorized additionally restarts the conversation, since the
// gateway has already dropped the credentials.
func (c *conv) apiError(err error) {
	gerr, ok := err.(*gateway.Error)
	if !ok {
		c.engine.log.Error("backend call", "identity", c.sess.Identity, "error", err)
		c.send(loc(c.locale(),
			"Xatolik yuz berdi. Keyinroq urinib ko'ring.",
			"Произошла ошибка. Попробуйте позже."), nil)
		return
	}
	switch gerr.Kind {
	case gateway.Unauthorized:
		c.clearCredentials()
		clearScratch(c.sess)
		c.sess.State = string(StateAwaitingAuthChoice)
		c.send(loc(c.locale(),
			"Sessiya muddati tugadi. Qaytadan ro'yxatdan o'ting.",
			"Сессия истекла. Пройдите регистрацию заново."), authChoiceKeyboard(c.locale()))
	case gateway.ValidationError:
		detail := gerr.Detail
		if detail == "" {
			detail = loc(c.locale(), "So'rov qabul qilinmadi.", "Запрос отклонён.")
		}
		c.send(detail, nil)
	case gateway.NotFound:
		c.send(loc(c.locale(), "Topilmadi.", "Не найдено."), nil)
	default:
		c.send(loc(c.locale(),
			"Server javob bermayapti. Birozdan so'ng urinib ko'ring.",
			"Сервер не отвечает. Попробуйте чуть позже."), nil)
	}
}

// handleStart restarts the conversation. An authenticated user lands
// straight in the main menu; everyone else picks a language first.
func (e *Engine) handleStart(c *conv) {
	clearScratch(c.sess)
	if c.sess.Authenticated() {
		c.sess.State = string(StateMainMenu)
		c.send(loc(c.locale(), "Asosiy menyu", "Главное меню"), mainMenuKeyboard(c.locale()))
		return
	}
	c.sess.State = string(StateSelectingLocale)
	c.send("Tilni tanlang / Выберите язык", localeKeyboard())
}

// handleCancel ends the conversation from any state. Credentials are
// kept; only the position and scratch data are dropped.
func (e *Engine) handleCancel(c *conv) {
	clearScratch(c.sess)
	c.sess.State = string(StateEnded)
	c.send(loc(c.locale(),
		"Bekor qilindi. Davom etish uchun /start yuboring.",
		"Отменено. Отправьте /start, чтобы продолжить."),
		&chat.Keyboard{RemoveReply: true})
}

func (e *Engine) handleEnded(c *conv, ev chat.Event) {
	c.send(loc(c.locale(),
		"Suhbat tugagan. Boshlash uchun /start yuboring.",
		"Диалог завершён. Отправьте /start, чтобы начать."), nil)
}
