package segcache

import (
	"fmt"

	"github.com/pkg/errors"
)

// ContractError reports a violated invariant from §3/§7. New panics with one
// on zero-capacity construction. Inconsistencies surfaced by the underlying
// store (a null handle, or a handle whose segment no longer exists) panic
// with store.ErrNullHandle or store.ErrInvalidHandle wrapped by
// github.com/pkg/errors instead, not with a ContractError. These are
// programming errors, not recoverable outcomes — the cache core logs and
// re-raises such panics but never swallows them, so they propagate to the
// caller's process.
type ContractError struct {
	Invariant string
	Err       error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("segcache: contract violation (%s): %v", e.Invariant, e.Err)
}

func (e *ContractError) Unwrap() error { return e.Err }

func newContractError(invariant, msg string) *ContractError {
	return &ContractError{Invariant: invariant, Err: errors.New(msg)}
}

// ErrUpdateInProgress is returned by the single-flight guard's Put when a
// compute is already in flight for the key (§4.4, §7). Callers may retry
// after a wait or abandon; it is the only recoverable, user-visible error
// this module defines.
var ErrUpdateInProgress = errors.New("segcache: update already in progress for key")
