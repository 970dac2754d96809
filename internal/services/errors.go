// Package services defines the business logic for orders, checker stock,
// retrieval, and administration. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Order-related errors.
var (
	// ErrInvalidCategory is returned when a request names an examination
	// category that is not sold here.
	ErrInvalidCategory = errors.New("invalid checker category")

	// ErrInvalidQuantity is returned when the requested quantity is not a
	// positive integer.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrInvalidPhone is returned when the buyer's phone number cannot be
	// normalized to a Ghanaian MSISDN.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrInsufficientStock is returned when fewer checkers are available than
	// the order asks for.
	ErrInsufficientStock = errors.New("insufficient checker stock")

	// ErrOrderNotFound indicates that no order matches the given reference
	// or id.
	ErrOrderNotFound = errors.New("order not found")

	// ErrAmountMismatch is returned when the gateway-confirmed amount does not
	// equal the order total. The order is left pending for manual review.
	ErrAmountMismatch = errors.New("paid amount does not match order total")

	// ErrAllocationFailed is returned when payment succeeded but the stock ran
	// out between initiation and verification. The order is marked failed and
	// the payment must be refunded out of band.
	ErrAllocationFailed = errors.New("checker allocation failed after payment")

	// ErrPaymentInit is returned when the payment gateway rejects or fails the
	// transaction initialization.
	ErrPaymentInit = errors.New("payment initialization failed")
)

// Retrieval-related errors.
var (
	// ErrNoPaidOrders is returned when a phone number with no paid orders asks
	// for an OTP. No session is created and no SMS is sent.
	ErrNoPaidOrders = errors.New("no paid orders for this phone number")

	// ErrSessionNotFound indicates the OTP session is missing, expired, or
	// already consumed. The three cases are deliberately indistinguishable.
	ErrSessionNotFound = errors.New("otp session not found or expired")

	// ErrInvalidOTP is returned when the gateway rejects the submitted code.
	// The session stays active for another attempt until it expires.
	ErrInvalidOTP = errors.New("invalid otp code")

	// ErrOTPDispatch is returned when the SMS gateway cannot deliver the
	// one-time code.
	ErrOTPDispatch = errors.New("could not send otp")
)

// Admin-related errors.
var (
	// ErrInvalidCredentials is returned on a failed admin login. It does not
	// reveal whether the account exists.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmptyImport is returned when a checker import contains no rows.
	ErrEmptyImport = errors.New("import contains no checkers")

	// ErrBadImportRow is returned when an import row is malformed; the message
	// wrapping it names the offending line.
	ErrBadImportRow = errors.New("malformed import row")
)
