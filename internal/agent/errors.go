package agent

import "errors"

// Misuse errors. These indicate a caller bug and are never returned for
// ordinary policy outcomes, which travel as Decision values instead.
var (
	ErrNotApproved     = errors.New("decision is not approved")
	ErrAlreadyExecuted = errors.New("decision already executed")
	ErrUnknownDecision = errors.New("decision was not issued by this agent or is no longer pending")
	ErrInvalidWallet   = errors.New("invalid wallet address")
)
