package flow

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hojimahmudov/orderbot/internal/bot/chat"
	"github.com/hojimahmudov/orderbot/internal/bot/session"
)

type checkoutBackend struct {
	mux           *http.ServeMux
	checkoutCalls atomic.Int32
	lastPayload   atomic.Value // map[string]interface{}
	rejectReason  atomic.Value // string, empty means accept
}

func newCheckoutBackend() *checkoutBackend {
	b := &checkoutBackend{mux: http.NewServeMux()}
	b.rejectReason.Store("")

	b.mux.HandleFunc("/cart/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 1,
			"items": []map[string]interface{}{
				{"id": 5, "product_id": 2, "name": "Burger", "quantity": 2, "unit_price": 10000, "line_total": 20000},
			},
			"total_price": 20000,
		})
	})
	b.mux.HandleFunc("/branches/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 2,
			"results": []map[string]interface{}{
				{"id": 1, "name": "Markaziy", "address": "Amir Temur 1", "is_open": true},
				{"id": 2, "name": "Chilonzor", "address": "Bunyodkor 7", "is_open": false},
			},
		})
	})
	b.mux.HandleFunc("/orders/checkout/", func(w http.ResponseWriter, r *http.Request) {
		b.checkoutCalls.Add(1)
		var payload map[string]interface{}
		json.NewDecoder(r.Body).Decode(&payload)
		b.lastPayload.Store(payload)
		if reason := b.rejectReason.Load().(string); reason != "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"detail": reason})
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 77, "status": "new", "total_price": 20000,
			"delivery_type": payload["delivery_type"], "payment_type": payload["payment_type"],
		})
	})
	return b
}

func (b *checkoutBackend) payload() map[string]interface{} {
	v, _ := b.lastPayload.Load().(map[string]interface{})
	return v
}

func authedSession(t *testing.T, store *session.Store, identity int64, state State) {
	t.Helper()
	sess := sessionState(t, store, identity)
	sess.Locale = "uz"
	sess.State = string(state)
	sess.SetCredentials("access", "refresh")
	require.NoError(t, store.Save(context.Background(), sess))
}

func TestCheckoutPickupFlow(t *testing.T) {
	backend := newCheckoutBackend()
	engine, store, transport := newFlowFixture(t, backend.mux)
	const id int64 = 20
	authedSession(t, store, id, StateMainMenu)

	engine.handle(callback(id, cbCartCheckout))
	assert.Equal(t, string(StateAskingDeliveryType), sessionState(t, store, id).State)

	engine.handle(callback(id, cbSetPickup))
	sess := sessionState(t, store, id)
	assert.Equal(t, string(StateAskingBranch), sess.State)

	// Only the open branch is offered.
	kb := transport.last().keyboard
	require.NotNil(t, kb)
	var branchButtons int
	for _, row := range kb.Inline {
		for _, btn := range row {
			if btn.Data != cbCheckoutCancel {
				branchButtons++
				assert.Equal(t, cbBranchPrefix+"1", btn.Data)
			}
		}
	}
	assert.Equal(t, 1, branchButtons)

	engine.handle(callback(id, cbBranchPrefix+"1"))
	sess = sessionState(t, store, id)
	assert.Equal(t, string(StateAskingPayment), sess.State)

	engine.handle(callback(id, cbPaymentCash))
	sess = sessionState(t, store, id)
	assert.Equal(t, string(StateMainMenu), sess.State)
	assert.Empty(t, sess.Scratch)
	assert.Equal(t, int32(1), backend.checkoutCalls.Load())

	payload := backend.payload()
	assert.Equal(t, "pickup", payload["delivery_type"])
	assert.Equal(t, "cash", payload["payment_type"])
	assert.Equal(t, float64(1), payload["pickup_branch_id"])
	_, hasCoords := payload["latitude"]
	assert.False(t, hasCoords)
}

func TestCheckoutDeliveryFlowSendsCoordinates(t *testing.T) {
	backend := newCheckoutBackend()
	engine, store, _ := newFlowFixture(t, backend.mux)
	const id int64 = 21
	authedSession(t, store, id, StateMainMenu)

	engine.handle(callback(id, cbCartCheckout))
	engine.handle(callback(id, cbSetDelivery))
	assert.Equal(t, string(StateAskingLocation), sessionState(t, store, id).State)

	engine.handle(chat.Event{Identity: id, Kind: chat.EventLocation, Latitude: 41.31, Longitude: 69.28})
	assert.Equal(t, string(StateAskingPayment), sessionState(t, store, id).State)

	engine.handle(callback(id, cbPaymentCard))
	sess := sessionState(t, store, id)
	assert.Equal(t, string(StateMainMenu), sess.State)

	payload := backend.payload()
	assert.Equal(t, "delivery", payload["delivery_type"])
	assert.Equal(t, "card", payload["payment_type"])
	assert.Equal(t, 41.31, payload["latitude"])
	assert.Equal(t, 69.28, payload["longitude"])
	_, hasBranch := payload["pickup_branch_id"]
	assert.False(t, hasBranch)
}

func TestCheckoutRejectionKeepsDraft(t *testing.T) {
	backend := newCheckoutBackend()
	backend.rejectReason.Store("branch 1 is closed")
	engine, store, transport := newFlowFixture(t, backend.mux)
	const id int64 = 22
	authedSession(t, store, id, StateMainMenu)

	engine.handle(callback(id, cbCartCheckout))
	engine.handle(callback(id, cbSetPickup))
	engine.handle(callback(id, cbBranchPrefix+"1"))
	engine.handle(callback(id, cbPaymentCash))

	// The rejection is shown and the draft survives for a retry.
	sess := sessionState(t, store, id)
	assert.Equal(t, string(StateAskingPayment), sess.State)
	var draft checkoutScratch
	require.True(t, scratchAs(sess, scratchKindCheckout, &draft))
	assert.Equal(t, "pickup", draft.DeliveryType)
	assert.Equal(t, "branch 1 is closed", transport.last().text)

	// Accepting on the retry completes normally.
	backend.rejectReason.Store("")
	engine.handle(callback(id, cbPaymentCash))
	sess = sessionState(t, store, id)
	assert.Equal(t, string(StateMainMenu), sess.State)
	assert.Empty(t, sess.Scratch)
	assert.Equal(t, int32(2), backend.checkoutCalls.Load())
}

func TestCheckoutCancelReturnsToMenu(t *testing.T) {
	backend := newCheckoutBackend()
	engine, store, _ := newFlowFixture(t, backend.mux)
	const id int64 = 23
	authedSession(t, store, id, StateMainMenu)

	engine.handle(callback(id, cbCartCheckout))
	engine.handle(callback(id, cbSetDelivery))
	engine.handle(callback(id, cbCheckoutCancel))

	sess := sessionState(t, store, id)
	assert.Equal(t, string(StateMainMenu), sess.State)
	assert.Empty(t, sess.Scratch)
	assert.Zero(t, backend.checkoutCalls.Load())
}
