package enums

import "fmt"

// ConversationState is the single explicit stage marker on a user record. It
// replaces the historical pile of boolean stage flags, so exactly one stage
// can be active at a time.
type ConversationState string

const (
	StateNew                   ConversationState = "new"
	StateAwaitingName          ConversationState = "awaiting_name"
	StateAwaitingPincode       ConversationState = "awaiting_pincode"
	StateAwaitingReferralCode  ConversationState = "awaiting_referral_code"
	StateBrowsingCatalog       ConversationState = "browsing_catalog"
	StateAwaitingAddress       ConversationState = "awaiting_address"
	StateAwaitingAddressChoice ConversationState = "awaiting_address_choice"
	StateAwaitingOrderConfirm  ConversationState = "awaiting_order_confirm"
	StateAwaitingPayment       ConversationState = "awaiting_payment"
	StatePaymentInProgress     ConversationState = "payment_in_progress"
	StateIdle                  ConversationState = "idle"
)

var validConversationStates = []ConversationState{
	StateNew,
	StateAwaitingName,
	StateAwaitingPincode,
	StateAwaitingReferralCode,
	StateBrowsingCatalog,
	StateAwaitingAddress,
	StateAwaitingAddressChoice,
	StateAwaitingOrderConfirm,
	StateAwaitingPayment,
	StatePaymentInProgress,
	StateIdle,
}

// String implements fmt.Stringer.
func (s ConversationState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ConversationState.
func (s ConversationState) IsValid() bool {
	for _, candidate := range validConversationStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseConversationState converts raw input into a ConversationState.
func ParseConversationState(value string) (ConversationState, error) {
	for _, candidate := range validConversationStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid conversation state %q", value)
}
