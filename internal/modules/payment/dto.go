package payment

type InitPaymentRequest struct {
	ReservationID int64 `json:"reservation_id" binding:"required"`
}

type PaymentIntent struct {
	Reference  string  `json:"reference"`
	Amount     float64 `json:"amount"`
	Signature  string  `json:"signature"`
	PaymentURL string  `json:"payment_url"`
}

// GatewayCallback is the result notification the gateway posts back once
// the customer has paid (or failed to).
type GatewayCallback struct {
	Reference string  `json:"reference" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	Signature string  `json:"signature" binding:"required"`
}

type FailPaymentRequest struct {
	Reference string `json:"reference" binding:"required"`
	Reason    string `json:"reason"`
}
