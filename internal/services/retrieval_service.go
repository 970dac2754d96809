// Package services – RetrievalService
//
// This file implements the OTP-gated retrieval flow: a buyer who lost the
// SMS with their checkers proves ownership of the phone number and gets every
// checker from their paid orders back. It also owns the background sweep that
// removes expired OTP sessions.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/youngpres/checker-backend/internal/domain"
	"github.com/youngpres/checker-backend/internal/gateway/hubtel"
	"github.com/youngpres/checker-backend/internal/repo"
	"github.com/youngpres/checker-backend/internal/utils"
)

// OTPGateway is the contract RetrievalService needs from the OTP provider.
// The provider generates and delivers the code itself; we only hold the
// session handle (request id + prefix) needed to verify.
type OTPGateway interface {
	SendOTP(ctx context.Context, phone string) (*hubtel.OTPSession, error)
	VerifyOTP(ctx context.Context, requestID, prefix, code string) error
}

// RetrievalService provides OTP initiation, OTP verification, and expired
// session cleanup.
type RetrievalService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// OTP is the gateway that delivers and checks one-time codes.
	OTP OTPGateway

	// SessionTTL bounds how long a sent code stays verifiable.
	SessionTTL time.Duration
	// CallingCode prefixes locally formatted phone numbers.
	CallingCode string

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewRetrievalService constructs a RetrievalService with Ghanaian defaults.
func NewRetrievalService(db *gorm.DB, otpGW OTPGateway, sessionTTL time.Duration) *RetrievalService {
	return &RetrievalService{
		DB:          db,
		OTP:         otpGW,
		SessionTTL:  sessionTTL,
		CallingCode: "233",
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// OTPChallenge is returned by InitiateOTP; the client echoes RequestID back
// together with the code the buyer received.
type OTPChallenge struct {
	RequestID string `json:"request_id"`
	Prefix    string `json:"prefix"`
}

// RetrievedCheckers is the payload unlocked by a verified OTP.
type RetrievedCheckers struct {
	Phone    string                   `json:"phone"`
	Checkers []domain.AssignedChecker `json:"checkers"`
}

// InitiateOTP starts a retrieval challenge for phone. A number with no paid
// orders is rejected before any SMS is sent, so the flow cannot be used to
// probe-spam arbitrary numbers.
func (s *RetrievalService) InitiateOTP(ctx context.Context, rawPhone string) (*OTPChallenge, error) {
	tr := otel.Tracer("services/RetrievalService")
	ctx, span := tr.Start(ctx, "InitiateOTP")
	defer span.End()

	phone, err := utils.NormalizePhone(rawPhone, s.CallingCode)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	paid, err := repo.CountPaidByPhone(ctx, s.DB, phone)
	if err != nil {
		return nil, err
	}
	if paid == 0 {
		return nil, ErrNoPaidOrders
	}

	sent, err := s.OTP.SendOTP(ctx, phone)
	if err != nil {
		return nil, ErrOTPDispatch
	}

	if _, err := repo.CreateOTPSession(ctx, s.DB, phone, sent.RequestID, sent.Prefix, s.SessionTTL); err != nil {
		return nil, err
	}

	otpSent.Inc()
	log.Ctx(ctx).Info().Str("request_id", sent.RequestID).Msg("otp challenge sent")
	return &OTPChallenge{RequestID: sent.RequestID, Prefix: sent.Prefix}, nil
}

// VerifyOTP checks the submitted code against the session behind requestID
// and, on success, consumes the session and returns every checker from the
// phone's paid orders. A missing, expired, or already-consumed session all
// yield ErrSessionNotFound; a wrong code yields ErrInvalidOTP and leaves the
// session usable for another attempt.
func (s *RetrievalService) VerifyOTP(ctx context.Context, requestID, code string) (*RetrievedCheckers, error) {
	tr := otel.Tracer("services/RetrievalService")
	ctx, span := tr.Start(ctx, "VerifyOTP",
		trace.WithAttributes(attribute.String("otp.request_id", requestID)),
	)
	defer span.End()

	session, err := repo.GetActiveOTPSession(ctx, s.DB, requestID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if err := s.OTP.VerifyOTP(ctx, session.RequestID, session.Prefix, code); err != nil {
		if errors.Is(err, hubtel.ErrInvalidCode) {
			return nil, ErrInvalidOTP
		}
		return nil, err
	}

	if err := repo.MarkOTPVerified(ctx, s.DB, session.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Consumed by a concurrent verification a moment ago.
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	orders, err := repo.ListPaidByPhone(ctx, s.DB, session.Phone)
	if err != nil {
		return nil, err
	}
	out := &RetrievedCheckers{Phone: session.Phone}
	for _, o := range orders {
		out.Checkers = append(out.Checkers, o.Checkers...)
	}

	otpVerified.Inc()
	log.Ctx(ctx).Info().Str("request_id", requestID).Int("checkers", len(out.Checkers)).
		Msg("otp verified, checkers released")
	return out, nil
}

// CleanupExpiredSessions removes every OTP session past its expiry and
// returns the number of rows removed.
func (s *RetrievalService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return repo.DeleteExpiredOTPSessions(ctx, s.DB, time.Now().UTC())
}

// StartCleanup launches the periodic expired-session sweep. Call Stop to
// shut it down.
func (s *RetrievalService) StartCleanup(interval time.Duration) {
	s.started = true
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				n, err := s.CleanupExpiredSessions(ctx)
				cancel()
				if err != nil {
					log.Error().Err(err).Msg("otp session sweep failed")
				} else if n > 0 {
					log.Info().Int64("removed", n).Msg("expired otp sessions removed")
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop terminates the cleanup loop and waits for it to exit. Safe to call
// more than once, and a no-op if StartCleanup was never called.
func (s *RetrievalService) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	if !s.started {
		return
	}
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
	}
}
