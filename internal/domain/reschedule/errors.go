package reschedule

import "errors"

// Sentinel kinds for displacement failures. All are recoverable-by-the-user
// outcomes; the orchestrator maps them to typed failures with suggestions.
var (
	ErrAutoRescheduleDisabled      = errors.New("auto-reschedule disabled")
	ErrOnlyProtectedConflicts      = errors.New("only protected conflicts")
	ErrNoSlotEvenAfterDisplacement = errors.New("no slot even after displacement")
)
