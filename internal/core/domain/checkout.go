package domain

import "time"

// CheckoutState is the PayPal-specific checkout progress of one storefront session.
// It is created by init-transaction and removed on cancel, missing order id, or TTL expiry.
type CheckoutState struct {
	SessionID     string    `json:"session_id"`
	PayPalOrderID string    `json:"paypal_order_id"`
	ButtonUsed    bool      `json:"button_used"` // payment method selection is skipped
	SubmitForm    bool      `json:"submit_form"` // confirm page submits automatically
	CreatedAt     time.Time `json:"created_at"`
}

// HasOrder reports whether the gateway returned an order id for this checkout.
func (s *CheckoutState) HasOrder() bool {
	return s != nil && s.PayPalOrderID != ""
}
