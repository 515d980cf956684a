package flow

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hojimahmudov/orderbot/internal/bot/chat"
	"github.com/hojimahmudov/orderbot/internal/bot/gateway"
	"github.com/hojimahmudov/orderbot/internal/bot/session"
)

type sentMessage struct {
	identity int64
	text     string
	keyboard *chat.Keyboard
}

type fakeTransport struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeTransport) SendMessage(ctx context.Context, identity int64, text string, keyboard *chat.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{identity: identity, text: text, keyboard: keyboard})
	return nil
}

func (f *fakeTransport) EditMessage(ctx context.Context, identity int64, messageID int, text string, keyboard *chat.Keyboard) error {
	return nil
}

func (f *fakeTransport) DeleteMessage(ctx context.Context, identity int64, messageID int) error {
	return nil
}

func (f *fakeTransport) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func newFlowFixture(t *testing.T, backend http.Handler) (*Engine, *session.Store, *fakeTransport) {
	t.Helper()
	store, err := session.Open(filepath.Join(t.TempDir(), "sessions.sqlite"))
	require.NoError(t, err)

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	api := gateway.NewClient(srv.Client(), srv.URL, store, slog.Default())
	transport := &fakeTransport{}
	engine := NewEngine(store, api, transport, 5*time.Second, slog.Default())
	t.Cleanup(engine.Close)
	return engine, store, transport
}

func sessionState(t *testing.T, store *session.Store, identity int64) *session.Session {
	t.Helper()
	sess, err := store.Get(context.Background(), identity)
	require.NoError(t, err)
	return sess
}

func command(identity int64, text string) chat.Event {
	return chat.Event{Identity: identity, Kind: chat.EventCommand, Text: text, FirstName: "Aziz"}
}

func text(identity int64, body string) chat.Event {
	return chat.Event{Identity: identity, Kind: chat.EventText, Text: body, FirstName: "Aziz"}
}

func callback(identity int64, data string) chat.Event {
	return chat.Event{Identity: identity, Kind: chat.EventCallback, Data: data, FirstName: "Aziz"}
}

// registrationBackend serves just enough of the auth surface and counts
// how often each endpoint is hit.
func registrationBackend(registerCalls, verifyCalls *atomic.Int32) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/register/", func(w http.ResponseWriter, r *http.Request) {
		registerCalls.Add(1)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("{}"))
	})
	mux.HandleFunc("/auth/verify/", func(w http.ResponseWriter, r *http.Request) {
		verifyCalls.Add(1)
		var body struct {
			Code string `json:"code"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Code != "12345" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"detail": "verification code is wrong or expired"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access":  "access-token",
			"refresh": "refresh-token",
			"user":    map[string]interface{}{"id": 1, "phone_number": "+998901234567", "first_name": "Aziz", "language_code": "uz"},
		})
	})
	return mux
}

func TestRegistrationFlow(t *testing.T) {
	var registerCalls, verifyCalls atomic.Int32
	engine, store, transport := newFlowFixture(t, registrationBackend(&registerCalls, &verifyCalls))
	const id int64 = 10

	engine.handle(command(id, cmdStart))
	assert.Equal(t, string(StateSelectingLocale), sessionState(t, store, id).State)

	engine.handle(callback(id, cbLocaleUZ))
	sess := sessionState(t, store, id)
	assert.Equal(t, string(StateAwaitingAuthChoice), sess.State)
	assert.Equal(t, "uz", sess.Locale)

	engine.handle(callback(id, cbStartRegister))
	assert.Equal(t, string(StateChoosingPhoneInput), sessionState(t, store, id).State)

	engine.handle(callback(id, cbPhoneManual))
	assert.Equal(t, string(StateAwaitingManualPhone), sessionState(t, store, id).State)

	engine.handle(text(id, "+998901234567"))
	sess = sessionState(t, store, id)
	assert.Equal(t, string(StateAwaitingVerificationCode), sess.State)
	assert.Equal(t, int32(1), registerCalls.Load())

	var scratch registrationScratch
	require.True(t, scratchAs(sess, scratchKindRegistration, &scratch))
	assert.Equal(t, "+998901234567", scratch.Phone)

	engine.handle(text(id, "12345"))
	sess = sessionState(t, store, id)
	assert.Equal(t, string(StateMainMenu), sess.State)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, "access-token", sess.AccessToken)
	assert.Empty(t, sess.Scratch)
	assert.Equal(t, int32(1), verifyCalls.Load())
	assert.NotNil(t, transport.last().keyboard)
}

func TestInvalidPhoneRepromptsWithoutBackendCall(t *testing.T) {
	var registerCalls, verifyCalls atomic.Int32
	engine, store, _ := newFlowFixture(t, registrationBackend(&registerCalls, &verifyCalls))
	const id int64 = 11

	sess := sessionState(t, store, id)
	sess.Locale = "uz"
	sess.State = string(StateAwaitingManualPhone)
	require.NoError(t, store.Save(context.Background(), sess))

	for _, bad := range []string{"901234567", "+99890123456", "+7981234567890", "hello"} {
		engine.handle(text(id, bad))
		assert.Equal(t, string(StateAwaitingManualPhone), sessionState(t, store, id).State, bad)
	}
	assert.Zero(t, registerCalls.Load())

	// A shared contact without the plus sign is still accepted.
	engine.handle(chat.Event{Identity: id, Kind: chat.EventContact, Phone: "998 90 123-45-67", FirstName: "Aziz"})
	assert.Equal(t, string(StateAwaitingVerificationCode), sessionState(t, store, id).State)
	assert.Equal(t, int32(1), registerCalls.Load())
}

func TestMalformedCodeNeverReachesBackend(t *testing.T) {
	var registerCalls, verifyCalls atomic.Int32
	engine, store, _ := newFlowFixture(t, registrationBackend(&registerCalls, &verifyCalls))
	const id int64 = 12

	sess := sessionState(t, store, id)
	sess.Locale = "uz"
	sess.State = string(StateAwaitingVerificationCode)
	require.NoError(t, setScratch(sess, scratchKindRegistration, registrationScratch{Phone: "+998901234567"}))
	require.NoError(t, store.Save(context.Background(), sess))

	for _, bad := range []string{"123", "1234567", "12a45", "code"} {
		engine.handle(text(id, bad))
		assert.Equal(t, string(StateAwaitingVerificationCode), sessionState(t, store, id).State, bad)
	}
	assert.Zero(t, verifyCalls.Load())

	// A well-formed but wrong code does reach the backend and re-prompts.
	engine.handle(text(id, "99999"))
	assert.Equal(t, int32(1), verifyCalls.Load())
	assert.Equal(t, string(StateAwaitingVerificationCode), sessionState(t, store, id).State)
}

func TestCancelEndsConversationKeepingCredentials(t *testing.T) {
	engine, store, _ := newFlowFixture(t, http.NewServeMux())
	const id int64 = 13

	sess := sessionState(t, store, id)
	sess.Locale = "ru"
	sess.State = string(StateAskingPayment)
	sess.SetCredentials("access", "refresh")
	require.NoError(t, setScratch(sess, scratchKindCheckout, checkoutScratch{DeliveryType: "pickup"}))
	require.NoError(t, store.Save(context.Background(), sess))

	engine.handle(command(id, cmdCancel))

	sess = sessionState(t, store, id)
	assert.Equal(t, string(StateEnded), sess.State)
	assert.Empty(t, sess.Scratch)
	assert.True(t, sess.Authenticated())
}

func TestStartAuthenticatedLandsInMainMenu(t *testing.T) {
	engine, store, transport := newFlowFixture(t, http.NewServeMux())
	const id int64 = 14

	sess := sessionState(t, store, id)
	sess.Locale = "uz"
	sess.SetCredentials("access", "refresh")
	require.NoError(t, store.Save(context.Background(), sess))

	engine.handle(command(id, cmdStart))
	assert.Equal(t, string(StateMainMenu), sessionState(t, store, id).State)
	assert.NotNil(t, transport.last().keyboard)
}

func TestStalePersistDiscardedAfterCancel(t *testing.T) {
	engine, store, _ := newFlowFixture(t, http.NewServeMux())
	const id int64 = 15

	sess := sessionState(t, store, id)
	sess.State = string(StateMainMenu)
	require.NoError(t, store.Save(context.Background(), sess))

	// A handler snapshots the epoch, then a cancel arrives mid-flight.
	c := &conv{
		engine: engine,
		ctx:    context.Background(),
		sess:   sessionState(t, store, id),
		epoch:  engine.epochFor(id).Load(),
	}
	c.sess.State = string(StateAskingPayment)
	engine.epochFor(id).Add(1)
	c.persist()

	assert.Equal(t, string(StateMainMenu), sessionState(t, store, id).State)
}

func TestExpiredSessionRestartsAuth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/categories/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	engine, store, transport := newFlowFixture(t, mux)
	const id int64 = 16

	sess := sessionState(t, store, id)
	sess.Locale = "uz"
	sess.State = string(StateMainMenu)
	sess.SetCredentials("stale-access", "dead-refresh")
	require.NoError(t, store.Save(context.Background(), sess))

	engine.handle(text(id, menuCatalogUZ))

	sess = sessionState(t, store, id)
	assert.Equal(t, string(StateAwaitingAuthChoice), sess.State)
	assert.False(t, sess.Authenticated())
	assert.NotNil(t, transport.last().keyboard)
}

func TestDispatchProcessesEventsInOrder(t *testing.T) {
	var registerCalls, verifyCalls atomic.Int32
	engine, store, _ := newFlowFixture(t, registrationBackend(&registerCalls, &verifyCalls))
	const id int64 = 17

	engine.Dispatch(command(id, cmdStart))
	engine.Dispatch(callback(id, cbLocaleRU))
	engine.Dispatch(callback(id, cbStartRegister))

	require.Eventually(t, func() bool {
		return sessionState(t, store, id).State == string(StateChoosingPhoneInput)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "ru", sessionState(t, store, id).Locale)
}
