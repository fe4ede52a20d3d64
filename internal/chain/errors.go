package chain

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Sentinel errors surfaced by the gateway before any transaction is submitted.
var (
	// ErrNotConfigured indicates a missing or invalid contract address.
	ErrNotConfigured = errors.New("contract not configured")

	// ErrNoActiveProposal is returned by CancelSell when the caller has no
	// active sell proposal for the requested token.
	ErrNoActiveProposal = errors.New("no active sell proposal found for this token")

	// ErrInvalidPrice rejects listings priced at zero or below.
	ErrInvalidPrice = errors.New("price must be greater than zero")

	// ErrUnsupportedPayment rejects unknown payment selectors.
	ErrUnsupportedPayment = errors.New("unsupported payment method")

	// ErrNoSigner indicates no signing key was configured for a write call.
	ErrNoSigner = errors.New("no signing account configured")
)

// ErrorKind is a coarse, user-facing failure category. The raw error is
// always preserved alongside it; the kind only drives the short label shown
// to users.
type ErrorKind string

const (
	KindConfig            ErrorKind = "configuration"
	KindValidation        ErrorKind = "validation"
	KindInsufficientFunds ErrorKind = "insufficient-funds"
	KindReverted          ErrorKind = "reverted"
	KindNetwork           ErrorKind = "network"
	KindOther             ErrorKind = "other"
)

// Categorize maps an error from a chain call to a user-facing category.
// Matching on error text is best-effort: RPC providers do not agree on error
// shapes, so unknown failures fall through to KindOther rather than guessing.
func Categorize(err error) ErrorKind {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotConfigured), errors.Is(err, ErrNoSigner):
		return KindConfig
	case errors.Is(err, ErrNoActiveProposal),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrUnsupportedPayment):
		return KindValidation
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"),
		strings.Contains(msg, "insufficient balance"),
		strings.Contains(msg, "gas required exceeds allowance"):
		return KindInsufficientFunds
	case strings.Contains(msg, "execution reverted"),
		strings.Contains(msg, "revert"):
		return KindReverted
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "eof"):
		return KindNetwork
	}
	return KindOther
}
