package domain

import "errors"

// Sentinel errors for domain-level error handling. Every failure aborts
// the whole operation with no partial state change; none are retried
// automatically by the engine. The handler layer maps these to HTTP
// status codes.
var (
	// Creation-time input validation.
	ErrInvalidParty    = errors.New("invalid_party")
	ErrInvalidDeadline = errors.New("invalid_deadline")
	ErrInvalidAmount   = errors.New("invalid_amount")

	// Oracle failures during the price lock. The deal is not mutated.
	ErrStalePrice   = errors.New("stale_price")
	ErrInvalidPrice = errors.New("invalid_price")

	// Funding and lifecycle violations.
	ErrWrongFundingAmount = errors.New("wrong_funding_amount")
	ErrAlreadyFunded      = errors.New("already_funded")
	ErrAlreadyTerminal    = errors.New("already_terminal")
	ErrDeadlinePassed     = errors.New("deadline_passed")
	ErrDealNotExpired     = errors.New("deal_not_expired")
	ErrUnauthorizedCaller = errors.New("unauthorized_caller")

	ErrDealNotFound = errors.New("deal_not_found")

	// Ledger-level failures surfaced through funding and settlement.
	ErrInsufficientBalance   = errors.New("insufficient_balance")
	ErrInsufficientAllowance = errors.New("insufficient_allowance")
)
