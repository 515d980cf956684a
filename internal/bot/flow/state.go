package flow

import (
	"encoding/json"
	"fmt"

	"github.com/hojimahmudov/orderbot/internal/bot/session"
)

// State is the conversation position persisted per identity. The set is
// closed; unknown tags loaded from an old session resolve to StateEnded.
type State string

const (
	StateSelectingLocale          State = "selecting_locale"
	StateAwaitingAuthChoice       State = "awaiting_auth_choice"
	StateChoosingPhoneInput       State = "choosing_phone_input"
	StateAwaitingPhoneShare       State = "awaiting_phone_share"
	StateAwaitingManualPhone      State = "awaiting_manual_phone"
	StateAwaitingVerificationCode State = "awaiting_verification_code"
	StateMainMenu                 State = "main_menu"
	StateAskingDeliveryType       State = "asking_delivery_type"
	StateAskingBranch             State = "asking_branch"
	StateAskingLocation           State = "asking_location"
	StateAskingPayment            State = "asking_payment"
	StateEnded                    State = "ended"
)

func knownState(tag string) State {
	switch State(tag) {
	case StateSelectingLocale, StateAwaitingAuthChoice, StateChoosingPhoneInput,
		StateAwaitingPhoneShare, StateAwaitingManualPhone, StateAwaitingVerificationCode,
		StateMainMenu, StateAskingDeliveryType, StateAskingBranch,
		StateAskingLocation, StateAskingPayment, StateEnded:
		return State(tag)
	}
	return StateEnded
}

// Scratch kinds. One variant per conversation branch; switching branches
// replaces the whole envelope so no stale keys leak across states.
const (
	scratchKindRegistration = "registration"
	scratchKindCheckout     = "checkout"
)

// registrationScratch lives from a successful registration call until the
// verification code is accepted.
type registrationScratch struct {
	Phone string `json:"phone"`
}

// checkoutScratch accumulates the checkout draft between
// AskingDeliveryType and the final checkout call.
type checkoutScratch struct {
	DeliveryType string   `json:"delivery_type"`
	BranchID     *int64   `json:"branch_id,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

type scratchEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func setScratch(sess *session.Session, kind string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode scratch: %w", err)
	}
	envelope, err := json.Marshal(scratchEnvelope{Kind: kind, Data: raw})
	if err != nil {
		return fmt.Errorf("encode scratch envelope: %w", err)
	}
	sess.Scratch = envelope
	return nil
}

func clearScratch(sess *session.Session) {
	sess.Scratch = nil
}

func scratchAs(sess *session.Session, kind string, out interface{}) bool {
	if len(sess.Scratch) == 0 {
		return false
	}
	var envelope scratchEnvelope
	if err := json.Unmarshal(sess.Scratch, &envelope); err != nil {
		return false
	}
	if envelope.Kind != kind {
		return false
	}
	return json.Unmarshal(envelope.Data, out) == nil
}
