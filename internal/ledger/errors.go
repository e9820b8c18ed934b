package ledger

import (
	"errors"
	"fmt"

	"daoTracker/internal/events"
)

var (
	ErrUnknownWallet      = errors.New("ledger: unknown wallet")
	ErrInsufficientShares = errors.New("ledger: insufficient shares")
	ErrDelegationMismatch = errors.New("ledger: delegation target mismatch")
	ErrUnknownVoting      = errors.New("ledger: unknown voting")
	ErrDuplicateVoting    = errors.New("ledger: voting already started")
	ErrDuplicateEpoch     = errors.New("ledger: epoch already minted")
)

// ViolationError reports an event that was skipped because applying it would
// break a ledger invariant. The ledger is unchanged when it is returned.
type ViolationError struct {
	Kind        events.Kind
	BlockNumber uint64
	LogIndex    uint64
	Err         error
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("skip %s at block %d log %d: %v", e.Kind, e.BlockNumber, e.LogIndex, e.Err)
}

func (e *ViolationError) Unwrap() error {
	return e.Err
}

func violation(e events.OnChainEvent, err error) error {
	return &ViolationError{Kind: e.Entry.Kind(), BlockNumber: e.BlockNumber, LogIndex: e.LogIndex, Err: err}
}
