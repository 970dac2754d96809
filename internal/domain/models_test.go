package domain

import (
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	for _, s := range []string{"BECE", "WASSCE", "NOVDEC", "CSSPS", "CTVET"} {
		c, err := ParseCategory(s)
		if err != nil {
			t.Errorf("ParseCategory(%q): %v", s, err)
		}
		if string(c) != s {
			t.Errorf("ParseCategory(%q) = %q", s, c)
		}
	}
	for _, s := range []string{"", "bece", "SAT", "WAEC"} {
		if _, err := ParseCategory(s); err != ErrInvalidCategory {
			t.Errorf("ParseCategory(%q): err = %v, want ErrInvalidCategory", s, err)
		}
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	if OrderPending.Terminal() {
		t.Error("pending reported terminal")
	}
	if !OrderPaid.Terminal() || !OrderFailed.Terminal() {
		t.Error("paid/failed not reported terminal")
	}
}

func TestChecker_Available(t *testing.T) {
	c := Checker{}
	if !c.Available() {
		t.Error("unassigned checker not available")
	}
	oid := "order-1"
	c.OrderID = &oid
	if c.Available() {
		t.Error("assigned checker still available")
	}
}

func TestCheckerSnapshot_ValueAndScan(t *testing.T) {
	snap := CheckerSnapshot{
		{ID: "c1", Serial: "SN-1", Pin: "PIN-1", Category: CategoryBECE},
		{ID: "c2", Serial: "SN-2", Pin: "PIN-2", Category: CategoryWASSCE},
	}

	v, err := snap.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	s, ok := v.(string)
	if !ok {
		t.Fatalf("Value returned %T, want string", v)
	}

	var got CheckerSnapshot
	if err := got.Scan(s); err != nil {
		t.Fatalf("Scan(string): %v", err)
	}
	if len(got) != 2 || got[0].Serial != "SN-1" || got[1].Category != CategoryWASSCE {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	// Byte-slice columns scan too.
	var fromBytes CheckerSnapshot
	if err := fromBytes.Scan([]byte(s)); err != nil {
		t.Fatalf("Scan([]byte): %v", err)
	}
	if len(fromBytes) != 2 {
		t.Fatalf("byte scan mismatch: %+v", fromBytes)
	}
}

func TestCheckerSnapshot_EmptyIsNull(t *testing.T) {
	var snap CheckerSnapshot
	v, err := snap.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != nil {
		t.Fatalf("empty snapshot stored as %v, want NULL", v)
	}

	var got CheckerSnapshot
	if err := got.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if got != nil {
		t.Fatalf("NULL scanned into %+v", got)
	}

	if err := got.Scan(42); err == nil {
		t.Fatal("Scan accepted an int column")
	}
}

func TestOTPSession_Active(t *testing.T) {
	now := time.Now().UTC()
	s := OTPSession{ExpiresAt: now.Add(time.Minute)}
	if !s.Active(now) {
		t.Error("fresh session not active")
	}
	if s.Active(now.Add(2 * time.Minute)) {
		t.Error("expired session still active")
	}
	s.Verified = true
	if s.Active(now) {
		t.Error("consumed session still active")
	}
}
