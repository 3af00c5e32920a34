package service

import "github.com/spec-kit/helpdesk-core/internal/domain"

// Operation enumerates the guarded mutations of the ticket engine.
type Operation string

const (
	OpAdvanceStatus  Operation = "advance_status"
	OpAssign         Operation = "assign"
	OpSelfAssign     Operation = "self_assign"
	OpUnassign       Operation = "unassign"
	OpProposePrice   Operation = "propose_price"
	OpRespondToPrice Operation = "respond_to_price"
	OpPayPrice       Operation = "pay_price"
	OpAddComment     Operation = "add_comment"
	OpSetSolution    Operation = "set_solution"
	OpViewTicket     Operation = "view_ticket"
)

// Guard centralizes every role/ownership rule. All other components consult
// CanPerform before mutating and must not duplicate its logic.
type Guard struct{}

// NewGuard builds the guard.
func NewGuard() *Guard {
	return &Guard{}
}

// CanPerform is a pure predicate deciding whether actor may apply op to
// ticket. It never mutates anything.
func (g *Guard) CanPerform(actor *domain.Profile, op Operation, ticket *domain.Ticket) bool {
	if actor == nil {
		return false
	}
	switch op {
	case OpAdvanceStatus, OpSetSolution:
		// Clients never drive status or solutions.
		return actor.Role.Staff()
	case OpAssign, OpUnassign:
		return actor.Role == domain.RoleAdmin
	case OpSelfAssign:
		// A technician may pick up an unassigned Pending ticket.
		return actor.Role == domain.RoleTechnician &&
			ticket != nil &&
			ticket.AssignedTo == nil &&
			ticket.Status == domain.TicketStatusPending
	case OpProposePrice:
		if actor.Role == domain.RoleAdmin {
			return true
		}
		return actor.Role == domain.RoleTechnician && ticket != nil && ticket.AssignedToProfile(actor.ID)
	case OpRespondToPrice, OpPayPrice:
		return actor.Role == domain.RoleClient && ticket != nil && ticket.OwnerID == actor.ID
	case OpAddComment:
		if ticket == nil {
			return false
		}
		return actor.Role == domain.RoleAdmin ||
			ticket.OwnerID == actor.ID ||
			ticket.AssignedToProfile(actor.ID)
	case OpViewTicket:
		if actor.Role.Staff() {
			return true
		}
		return ticket != nil && ticket.OwnerID == actor.ID
	}
	return false
}
