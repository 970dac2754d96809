// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., insufficient_stock, amount_mismatch) are reserved
//     for business outcomes that cannot be conveyed by status alone.
//   - All error responses must include both an HTTP status and one of these codes.

package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInsufficientStock = "insufficient_stock"
	ErrCodeAmountMismatch    = "amount_mismatch"
	ErrCodeAllocationFailed  = "allocation_failed"
	ErrCodePaymentInit       = "payment_init_failed"
	ErrCodeBadSignature      = "bad_signature"
	ErrCodeOTPDispatch       = "otp_dispatch_failed"
	ErrCodeInvalidOTP        = "invalid_otp"
	ErrCodeImportFailed      = "import_failed"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)
