package payment

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"studiorent/internal/domain"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrAmountMismatch   = errors.New("amount mismatch")
)

// Service talks to the payment gateway on behalf of reservations: it issues
// signed payment intents and settles gateway callbacks against the
// reservation's payment state machine.
type Service struct {
	reservations ReservationRepository
	notifs       NotificationSender
	loggerf      func(format string, args ...interface{})

	secret  string
	baseURL string
}

func NewService(reservations ReservationRepository, notifs NotificationSender, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		reservations: reservations,
		notifs:       notifs,
		loggerf:      loggerf,
		secret:       envOrDefault("PAYMENT_SECRET", "dev-payment-secret"),
		baseURL:      envOrDefault("PAYMENT_BASE_URL", "https://pay.example.com/checkout"),
	}
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// InitPayment issues a payment intent for a pending reservation. The intent
// carries the signature the gateway must echo back in its callback.
func (s *Service) InitPayment(ctx context.Context, req InitPaymentRequest) (*PaymentIntent, error) {
	res, err := s.reservations.GetByID(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}
	if !res.Status.Active() {
		return nil, fmt.Errorf("%w: reservation is %s", domain.ErrInvalidTransition, res.Status)
	}
	if res.PaymentStatus != domain.PaymentPending {
		return nil, fmt.Errorf("%w: payment is %s", domain.ErrInvalidTransition, res.PaymentStatus)
	}

	signature := s.sign(res.Reference, res.Total)

	u := url.Values{}
	u.Set("reference", res.Reference)
	u.Set("amount", formatAmount(res.Total))
	u.Set("signature", signature)
	paymentURL := s.baseURL + "?" + u.Encode()

	s.loggerf("level=info msg=payment intent issued reservation_id=%d reference=%s amount=%s",
		res.ID, res.Reference, formatAmount(res.Total))

	return &PaymentIntent{
		Reference:  res.Reference,
		Amount:     res.Total,
		Signature:  signature,
		PaymentURL: paymentURL,
	}, nil
}

// HandleCallback settles a gateway result notification. Signature and amount
// are verified before the reservation is marked paid; a repeated callback for
// an already paid reservation is acknowledged without effect.
func (s *Service) HandleCallback(ctx context.Context, cb GatewayCallback) (*domain.Reservation, error) {
	valid := strings.EqualFold(cb.Signature, s.sign(cb.Reference, cb.Amount))
	s.loggerf("level=info msg=gateway callback signature validation reference=%s signature_valid=%t", cb.Reference, valid)
	if !valid {
		return nil, ErrInvalidSignature
	}

	res, err := s.reservations.GetByReference(ctx, cb.Reference)
	if err != nil {
		return nil, err
	}
	if !amountEqual(cb.Amount, res.Total) {
		s.loggerf("level=error msg=amount mismatch on callback reference=%s callback_amount=%s expected=%s",
			cb.Reference, formatAmount(cb.Amount), formatAmount(res.Total))
		return nil, ErrAmountMismatch
	}

	alreadyPaid := res.PaymentStatus == domain.PaymentPaid

	res, err = s.reservations.MarkPaid(ctx, res.ID, cb.Amount, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if alreadyPaid {
		s.loggerf("level=info msg=idempotent callback already paid reference=%s", cb.Reference)
		return res, nil
	}

	if s.notifs != nil {
		_ = s.notifs.NotifyPaymentCompleted(ctx, res)
	}
	return res, nil
}

// FailPayment records a gateway-side failure for a pending payment.
func (s *Service) FailPayment(ctx context.Context, req FailPaymentRequest) (*domain.Reservation, error) {
	res, err := s.reservations.GetByReference(ctx, req.Reference)
	if err != nil {
		return nil, err
	}
	res, err = s.reservations.MarkPaymentFailed(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	s.loggerf("level=info msg=payment failed reference=%s reason=%q", req.Reference, req.Reason)
	return res, nil
}

// ApproveRefund moves a requested refund to approved.
func (s *Service) ApproveRefund(ctx context.Context, reservationID int64) (*domain.Reservation, error) {
	return s.reservations.TransitionPayment(ctx, reservationID, domain.PaymentRefundApproved)
}

// CompleteRefund marks an approved refund as paid out.
func (s *Service) CompleteRefund(ctx context.Context, reservationID int64) (*domain.Reservation, error) {
	return s.reservations.TransitionPayment(ctx, reservationID, domain.PaymentRefunded)
}

func (s *Service) sign(reference string, amount float64) string {
	sum := md5.Sum([]byte(reference + ":" + formatAmount(amount) + ":" + s.secret))
	return hex.EncodeToString(sum[:])
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func amountEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}
