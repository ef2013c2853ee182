package domain

type PaymentMethod struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Brand     string `json:"brand,omitempty"`
	Last4     string `json:"last4,omitempty"`
	ExpMonth  int    `json:"expMonth,omitempty"`
	ExpYear   int    `json:"expYear,omitempty"`
	IsDefault bool   `json:"isDefault"`
}

// PaymentMethodInput — токенизированные данные карты от платёжного провайдера.
type PaymentMethodInput struct {
	Type       string `json:"type"`
	Token      string `json:"token"`
	SetDefault bool   `json:"setDefault"`
}

type PaymentIntentStatus string

const (
	PaymentRequiresConfirmation PaymentIntentStatus = "requires_confirmation"
	PaymentProcessing           PaymentIntentStatus = "processing"
	PaymentSucceeded            PaymentIntentStatus = "succeeded"
	PaymentFailed               PaymentIntentStatus = "failed"
)

type PaymentIntent struct {
	ID           string              `json:"id"`
	Amount       Money               `json:"amount"`
	Currency     string              `json:"currency"`
	Status       PaymentIntentStatus `json:"status"`
	ClientSecret string              `json:"clientSecret,omitempty"`
}
