package model

// PaymentIntent is an ephemeral value object returned by the payment
// gateway. Only its ID is persisted, on the Subscription.
type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	AmountCents  int64             `json:"amount_cents"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// PaymentResult is the outcome of a renewal charge. A transport error is
// reported separately (as a Go error); Success=false means the provider
// processed the request and declined it.
type PaymentResult struct {
	Success         bool
	PaymentIntentID string
	ErrorMessage    string
}
