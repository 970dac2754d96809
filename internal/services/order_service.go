// Package services – OrderService
//
// This file implements the OrderService, which owns the order lifecycle:
// initiation (stock check, pending order, payment authorization) and
// verification (the single state-machine transition shared by buyer polling
// and webhook delivery). Verification is idempotent: a terminal order is
// returned as-is, and the pending→paid transition claims checkers atomically
// so no checker can ever be sold twice.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/youngpres/checker-backend/internal/domain"
	"github.com/youngpres/checker-backend/internal/gateway/paystack"
	"github.com/youngpres/checker-backend/internal/repo"
	"github.com/youngpres/checker-backend/internal/utils"
)

// PaymentGateway is the contract OrderService needs from the payment provider.
type PaymentGateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
}

// SMSSender delivers plain text messages. Delivery is best-effort: the order
// lifecycle never depends on it.
type SMSSender interface {
	SendSMS(ctx context.Context, to, content string) error
}

// OrderService provides order initiation and payment verification.
type OrderService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Payments is the payment gateway client.
	Payments PaymentGateway
	// Messages delivers the post-payment SMS. May be nil in tests.
	Messages SMSSender

	// UnitPrice is the price per checker in pesewas.
	UnitPrice int64
	// CallbackURL is where the gateway redirects the buyer after payment.
	CallbackURL string
	// CallingCode prefixes locally formatted phone numbers ("233" for Ghana).
	CallingCode string
	// FallbackEmail is used for gateway initialization when the buyer gave none.
	FallbackEmail string
}

// NewOrderService constructs an OrderService with Ghanaian defaults.
func NewOrderService(db *gorm.DB, payments PaymentGateway, messages SMSSender, unitPrice int64, callbackURL string) *OrderService {
	return &OrderService{
		DB:            db,
		Payments:      payments,
		Messages:      messages,
		UnitPrice:     unitPrice,
		CallbackURL:   callbackURL,
		CallingCode:   "233",
		FallbackEmail: "orders@checker.local",
	}
}

// InitiateOrderInput is what a buyer submits to start a purchase.
type InitiateOrderInput struct {
	Category string
	Quantity int
	Phone    string
	Email    string
}

// InitiateOrderResult pairs the pending order with the gateway handoff URL.
type InitiateOrderResult struct {
	Order            *domain.Order
	AuthorizationURL string
}

// errConcurrentResolve signals that another verification resolved the order
// while ours was in flight. The caller re-reads and returns the stored state.
var errConcurrentResolve = errors.New("order resolved concurrently")

// InitiateOrder validates the request, checks stock, creates a pending order,
// and opens a payment authorization with the gateway. No checker is touched
// here; assignment happens only on verified payment. If the gateway refuses
// the initialization the pending order is removed again so retries start
// clean.
func (s *OrderService) InitiateOrder(ctx context.Context, in InitiateOrderInput) (*InitiateOrderResult, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "InitiateOrder",
		trace.WithAttributes(
			attribute.String("order.category", in.Category),
			attribute.Int("order.quantity", in.Quantity),
		),
	)
	defer span.End()

	category, err := domain.ParseCategory(strings.ToUpper(strings.TrimSpace(in.Category)))
	if err != nil {
		return nil, ErrInvalidCategory
	}
	if in.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	phone, err := utils.NormalizePhone(in.Phone, s.CallingCode)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	available, err := repo.CountAvailable(ctx, s.DB, category)
	if err != nil {
		return nil, err
	}
	if available < int64(in.Quantity) {
		return nil, ErrInsufficientStock
	}

	order := &domain.Order{
		Category:    category,
		Quantity:    in.Quantity,
		Phone:       phone,
		Email:       strings.TrimSpace(in.Email),
		TotalAmount: s.UnitPrice * int64(in.Quantity),
		Reference:   "REF-" + uuid.NewString(),
	}
	order, err = repo.CreateOrder(ctx, s.DB, order)
	if err != nil {
		return nil, err
	}

	email := order.Email
	if email == "" {
		email = s.FallbackEmail
	}
	init, err := s.Payments.Initialize(ctx, paystack.InitializeRequest{
		Email:       email,
		Amount:      order.TotalAmount,
		Reference:   order.Reference,
		CallbackURL: s.CallbackURL,
		OrderID:     order.ID,
	})
	if err != nil {
		// Undo the pending order so the buyer can simply retry.
		if derr := repo.DeleteOrder(ctx, s.DB, order.ID); derr != nil {
			log.Ctx(ctx).Error().Err(derr).Str("order_id", order.ID).
				Msg("failed to remove order after payment init failure")
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentInit, err)
	}

	// The gateway reference is authoritative from now on. An order whose
	// reference could not be persisted would be unverifiable, so it is removed
	// the same way as on a gateway refusal.
	if init.Reference != "" && init.Reference != order.Reference {
		if err := repo.UpdateOrderReference(ctx, s.DB, order.ID, init.Reference); err != nil {
			if derr := repo.DeleteOrder(ctx, s.DB, order.ID); derr != nil {
				log.Ctx(ctx).Error().Err(derr).Str("order_id", order.ID).
					Msg("failed to remove order after reference update failure")
			}
			return nil, err
		}
		order.Reference = init.Reference
	}

	ordersInitiated.Inc()
	log.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("category", string(order.Category)).
		Int("quantity", order.Quantity).
		Int64("amount", order.TotalAmount).
		Msg("order initiated")

	return &InitiateOrderResult{Order: order, AuthorizationURL: init.AuthorizationURL}, nil
}

// VerifyPayment resolves the order behind reference. It is the only code path
// that moves an order out of pending, and both the buyer's polling endpoint
// and the webhook funnel into it, so delivering the same event twice is
// harmless.
//
// Outcomes:
//   - order already terminal: returned unchanged, no gateway call.
//   - gateway says anything but success: order transitions to failed.
//   - gateway says success but the paid amount differs from the order total:
//     the order stays pending and ErrAmountMismatch is returned for review.
//   - success with matching amount: checkers are claimed and the order
//     transitions to paid in one transaction. If stock ran short the
//     transaction rolls back, the order transitions to failed, and
//     ErrAllocationFailed is returned; the payment needs a manual refund.
func (s *OrderService) VerifyPayment(ctx context.Context, reference string) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "VerifyPayment",
		trace.WithAttributes(attribute.String("order.reference", reference)),
	)
	defer span.End()

	order, err := repo.GetOrderByReference(ctx, s.DB, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.Status.Terminal() {
		return order, nil
	}

	tx, err := s.Payments.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	// Anything but success (failed, abandoned, reversed) resolves the order to
	// failed: a verify call never leaves a pending order unresolved.
	if tx.Status != "success" {
		if err := s.failPending(ctx, order); err != nil {
			return nil, err
		}
		return repo.GetOrder(ctx, s.DB, order.ID)
	}

	if tx.Amount != order.TotalAmount {
		log.Ctx(ctx).Warn().
			Str("order_id", order.ID).
			Int64("expected", order.TotalAmount).
			Int64("paid", tx.Amount).
			Msg("paid amount does not match order total")
		return order, ErrAmountMismatch
	}

	err = s.DB.WithContext(ctx).Transaction(func(txdb *gorm.DB) error {
		claimed, err := repo.ClaimAvailable(ctx, txdb, order.Category, order.ID, order.Quantity)
		if err != nil {
			return err
		}
		if len(claimed) < order.Quantity {
			return ErrAllocationFailed
		}
		snapshot := make(domain.CheckerSnapshot, 0, len(claimed))
		for _, c := range claimed {
			snapshot = append(snapshot, domain.AssignedChecker{
				ID:       c.ID,
				Serial:   c.Serial,
				Pin:      c.Pin,
				Category: c.Category,
			})
		}
		if err := repo.MarkOrderPaid(ctx, txdb, order.ID, snapshot); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errConcurrentResolve
			}
			return err
		}
		return nil
	})

	switch {
	case errors.Is(err, ErrAllocationFailed):
		allocationShortfalls.Inc()
		log.Ctx(ctx).Error().
			Str("order_id", order.ID).
			Str("reference", reference).
			Int64("amount", order.TotalAmount).
			Msg("stock ran out after payment; order failed, refund required")
		if ferr := s.failPending(ctx, order); ferr != nil {
			return nil, ferr
		}
		failed, gerr := repo.GetOrder(ctx, s.DB, order.ID)
		if gerr != nil {
			return nil, gerr
		}
		return failed, ErrAllocationFailed
	case errors.Is(err, errConcurrentResolve):
		// Someone else won the transition; their result stands.
		return repo.GetOrder(ctx, s.DB, order.ID)
	case err != nil:
		return nil, err
	}

	paid, err := repo.GetOrder(ctx, s.DB, order.ID)
	if err != nil {
		return nil, err
	}

	ordersResolved.WithLabelValues(string(domain.OrderPaid)).Inc()
	checkersAssigned.WithLabelValues(string(paid.Category)).Add(float64(paid.Quantity))
	log.Ctx(ctx).Info().
		Str("order_id", paid.ID).
		Str("category", string(paid.Category)).
		Int("quantity", paid.Quantity).
		Msg("order paid and checkers assigned")

	s.sendCheckers(ctx, paid)
	return paid, nil
}

// failPending transitions the order to failed, tolerating the race where a
// concurrent verification already resolved it.
func (s *OrderService) failPending(ctx context.Context, order *domain.Order) error {
	err := repo.MarkOrderFailed(ctx, s.DB, order.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		ordersResolved.WithLabelValues(string(domain.OrderFailed)).Inc()
	}
	return nil
}

// sendCheckers delivers the purchased credentials over SMS. Failures are
// logged and counted but never surfaced: the buyer can always retrieve the
// checkers later through the OTP flow.
func (s *OrderService) sendCheckers(ctx context.Context, order *domain.Order) {
	if s.Messages == nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Your %s result checker", order.Category)
	if order.Quantity > 1 {
		b.WriteString("s")
	}
	b.WriteString(":")
	for i, c := range order.Checkers {
		fmt.Fprintf(&b, " %d) Serial: %s PIN: %s", i+1, c.Serial, c.Pin)
	}
	if err := s.Messages.SendSMS(ctx, order.Phone, b.String()); err != nil {
		smsDeliveries.WithLabelValues("error").Inc()
		log.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).Msg("checker sms delivery failed")
		return
	}
	smsDeliveries.WithLabelValues("ok").Inc()
}
