package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/youngpres/checker-backend/internal/domain"
	"github.com/youngpres/checker-backend/internal/gateway/hubtel"
	"github.com/youngpres/checker-backend/internal/repo"
)

// fakeOTP scripts the OTP gateway.
type fakeOTP struct {
	sendErr   error
	sendCalls int

	verifyErr   error
	verifyCalls int
}

func (f *fakeOTP) SendOTP(_ context.Context, phone string) (*hubtel.OTPSession, error) {
	f.sendCalls++
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &hubtel.OTPSession{RequestID: "req-" + phone, Prefix: "ABCD"}, nil
}

func (f *fakeOTP) VerifyOTP(_ context.Context, _, _, _ string) error {
	f.verifyCalls++
	return f.verifyErr
}

func seedPaidOrder(t *testing.T, db *gorm.DB, phone string, snap domain.CheckerSnapshot) *domain.Order {
	t.Helper()
	o, err := repo.CreateOrder(context.Background(), db, &domain.Order{
		Category:    domain.CategoryBECE,
		Quantity:    len(snap),
		Phone:       phone,
		TotalAmount: int64(len(snap)) * 1750,
		Reference:   "REF-" + phone + "-" + time.Now().Format("150405.000000000"),
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if err := repo.MarkOrderPaid(context.Background(), db, o.ID, snap); err != nil {
		t.Fatalf("MarkOrderPaid: %v", err)
	}
	return o
}

func TestInitiateOTP_RequiresPaidOrders(t *testing.T) {
	db := newServiceDB(t)
	gw := &fakeOTP{}
	svc := NewRetrievalService(db, gw, 10*time.Minute)

	if _, err := svc.InitiateOTP(context.Background(), "0241234567"); !errors.Is(err, ErrNoPaidOrders) {
		t.Fatalf("err = %v, want ErrNoPaidOrders", err)
	}
	// The gate comes before the SMS: no code may be dispatched.
	if gw.sendCalls != 0 {
		t.Fatalf("otp dispatched %d times for a number with no purchases", gw.sendCalls)
	}
}

func TestInitiateOTP_Success(t *testing.T) {
	db := newServiceDB(t)
	seedPaidOrder(t, db, "233241234567", domain.CheckerSnapshot{{Serial: "SN-1", Pin: "P-1", Category: domain.CategoryBECE}})
	svc := NewRetrievalService(db, &fakeOTP{}, 10*time.Minute)

	ch, err := svc.InitiateOTP(context.Background(), "0241234567")
	if err != nil {
		t.Fatalf("InitiateOTP: %v", err)
	}
	if ch.RequestID == "" || ch.Prefix != "ABCD" {
		t.Fatalf("unexpected challenge: %+v", ch)
	}

	// A session row backs the challenge.
	s, err := repo.GetActiveOTPSession(context.Background(), db, ch.RequestID, time.Now().UTC())
	if err != nil {
		t.Fatalf("GetActiveOTPSession: %v", err)
	}
	if s.Phone != "233241234567" {
		t.Fatalf("session phone = %s", s.Phone)
	}
}

func TestInitiateOTP_DispatchFailure(t *testing.T) {
	db := newServiceDB(t)
	seedPaidOrder(t, db, "233241234567", domain.CheckerSnapshot{{Serial: "SN-1", Pin: "P-1", Category: domain.CategoryBECE}})
	svc := NewRetrievalService(db, &fakeOTP{sendErr: errors.New("gateway down")}, 10*time.Minute)

	if _, err := svc.InitiateOTP(context.Background(), "0241234567"); !errors.Is(err, ErrOTPDispatch) {
		t.Fatalf("err = %v, want ErrOTPDispatch", err)
	}
}

func TestVerifyOTP_ReleasesAllPaidCheckers(t *testing.T) {
	db := newServiceDB(t)
	phone := "233241234567"
	seedPaidOrder(t, db, phone, domain.CheckerSnapshot{
		{Serial: "SN-1", Pin: "P-1", Category: domain.CategoryBECE},
		{Serial: "SN-2", Pin: "P-2", Category: domain.CategoryBECE},
	})
	seedPaidOrder(t, db, phone, domain.CheckerSnapshot{
		{Serial: "SN-3", Pin: "P-3", Category: domain.CategoryWASSCE},
	})
	gw := &fakeOTP{}
	svc := NewRetrievalService(db, gw, 10*time.Minute)

	ch, err := svc.InitiateOTP(context.Background(), phone)
	if err != nil {
		t.Fatalf("InitiateOTP: %v", err)
	}

	got, err := svc.VerifyOTP(context.Background(), ch.RequestID, "123456")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if got.Phone != phone {
		t.Fatalf("phone = %s", got.Phone)
	}
	if len(got.Checkers) != 3 {
		t.Fatalf("released %d checkers, want 3", len(got.Checkers))
	}

	// The session is consumed; a replay behaves like a missing session.
	if _, err := svc.VerifyOTP(context.Background(), ch.RequestID, "123456"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("replay: err = %v, want ErrSessionNotFound", err)
	}
}

func TestVerifyOTP_WrongCodeKeepsSessionUsable(t *testing.T) {
	db := newServiceDB(t)
	phone := "233241234567"
	seedPaidOrder(t, db, phone, domain.CheckerSnapshot{{Serial: "SN-1", Pin: "P-1", Category: domain.CategoryBECE}})
	gw := &fakeOTP{verifyErr: hubtel.ErrInvalidCode}
	svc := NewRetrievalService(db, gw, 10*time.Minute)

	ch, err := svc.InitiateOTP(context.Background(), phone)
	if err != nil {
		t.Fatalf("InitiateOTP: %v", err)
	}

	if _, err := svc.VerifyOTP(context.Background(), ch.RequestID, "000000"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("err = %v, want ErrInvalidOTP", err)
	}

	// Another attempt with the right code still works.
	gw.verifyErr = nil
	got, err := svc.VerifyOTP(context.Background(), ch.RequestID, "123456")
	if err != nil {
		t.Fatalf("retry after wrong code: %v", err)
	}
	if len(got.Checkers) != 1 {
		t.Fatalf("released %d checkers, want 1", len(got.Checkers))
	}
}

func TestVerifyOTP_UnknownSession(t *testing.T) {
	db := newServiceDB(t)
	svc := NewRetrievalService(db, &fakeOTP{}, 10*time.Minute)

	if _, err := svc.VerifyOTP(context.Background(), "no-such-request", "123456"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	db := newServiceDB(t)
	svc := NewRetrievalService(db, &fakeOTP{}, 10*time.Minute)

	if _, err := repo.CreateOTPSession(context.Background(), db, "233241234567", "req-old", "AAAA", -time.Minute); err != nil {
		t.Fatalf("CreateOTPSession: %v", err)
	}
	if _, err := repo.CreateOTPSession(context.Background(), db, "233241234567", "req-new", "BBBB", time.Hour); err != nil {
		t.Fatalf("CreateOTPSession: %v", err)
	}

	removed, err := svc.CleanupExpiredSessions(context.Background())
	if err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := repo.GetActiveOTPSession(context.Background(), db, "req-new", time.Now().UTC()); err != nil {
		t.Fatalf("live session swept: %v", err)
	}
}

func TestStop_WithoutStartReturnsImmediately(t *testing.T) {
	db := newServiceDB(t)
	svc := NewRetrievalService(db, &fakeOTP{}, 10*time.Minute)

	done := make(chan struct{})
	go func() {
		svc.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a running cleanup loop")
	}
}

func TestStartAndStopCleanup(t *testing.T) {
	db := newServiceDB(t)
	svc := NewRetrievalService(db, &fakeOTP{}, 10*time.Minute)

	svc.StartCleanup(10 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	svc.Stop()
	// Stop is safe to call again.
	svc.Stop()
}
