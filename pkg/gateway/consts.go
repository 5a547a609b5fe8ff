package gateway

// Interactive list row identifiers. These come back verbatim in list_reply
// webhook events, so they are part of the conversation contract.
const (
	ReplyConfirm     = "1"
	ReplyMainMenu    = "2"
	ReplyCOD         = "3"
	ReplyKeepAddress = "4"
	ReplyPayNow      = "5"
	ReplyNewAddress  = "6"
)

// Audit tags attached to outbound sends.
const (
	TagGreeting      = "greeting"
	TagMenu          = "menu"
	TagOrderSummary  = "order_summary"
	TagAddressChoice = "address_choice"
	TagPayment       = "payment"
	TagConfirmation  = "confirmation"
	TagPaymentLink   = "payment_link"
	TagNudge         = "nudge"
	TagReferral      = "referral"
	TagFallback      = "fallback"
)
