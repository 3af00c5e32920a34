package domain

// nextStatus is the whole transition graph: each status has at most one
// canonical successor and Closed is terminal. The engine re-validates the
// requested status against this table regardless of what the caller sent.
var nextStatus = map[TicketStatus]TicketStatus{
	TicketStatusPending:    TicketStatusInProgress,
	TicketStatusInProgress: TicketStatusResolved,
	TicketStatusResolved:   TicketStatusClosed,
}

// NextStatus returns the canonical successor of current, if any.
func NextStatus(current TicketStatus) (TicketStatus, bool) {
	next, ok := nextStatus[current]
	return next, ok
}

// CanTransition reports whether requested is the designated next status for
// current. Backward moves and skips are never permitted here; the
// assignment manager's status coupling is a separate, documented exception.
func CanTransition(current, requested TicketStatus) bool {
	next, ok := nextStatus[current]
	return ok && next == requested
}
