package service

import (
	"context"
	"sync"
	"testing"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

func TestAdminAssignForcesInProgress(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	tech := env.addProfile("tech-1", domain.RoleTechnician)
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	ticket := env.addTicket(client.ID, domain.TicketStatusPending)

	updated, err := env.assignmentSvc.Assign(context.Background(), ticket.ID, tech.ID, admin.ID)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if updated.AssignedTo == nil || *updated.AssignedTo != tech.ID {
		t.Errorf("AssignedTo = %v, want %q", updated.AssignedTo, tech.ID)
	}
	if updated.Status != domain.TicketStatusInProgress {
		t.Errorf("Status = %q, want %q", updated.Status, domain.TicketStatusInProgress)
	}
}

func TestUnassignResetsToPending(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	tech := env.addProfile("tech-1", domain.RoleTechnician)
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	ticket := env.addTicket(client.ID, domain.TicketStatusPending)

	if _, err := env.assignmentSvc.Assign(context.Background(), ticket.ID, tech.ID, admin.ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	updated, err := env.assignmentSvc.Assign(context.Background(), ticket.ID, domain.UnassignSentinel, admin.ID)
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if updated.AssignedTo != nil {
		t.Errorf("AssignedTo = %v, want nil", updated.AssignedTo)
	}
	if updated.Status != domain.TicketStatusPending {
		t.Errorf("Status = %q, want %q", updated.Status, domain.TicketStatusPending)
	}
}

func TestTechnicianSelfAssign(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	tech := env.addProfile("tech-1", domain.RoleTechnician)
	ticket := env.addTicket(client.ID, domain.TicketStatusPending)

	updated, err := env.assignmentSvc.Assign(context.Background(), ticket.ID, tech.ID, tech.ID)
	if err != nil {
		t.Fatalf("self-assign: %v", err)
	}
	if updated.AssignedTo == nil || *updated.AssignedTo != tech.ID {
		t.Errorf("AssignedTo = %v, want %q", updated.AssignedTo, tech.ID)
	}
}

func TestTechnicianCannotAssignOthers(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	tech := env.addProfile("tech-1", domain.RoleTechnician)
	otherTech := env.addProfile("tech-2", domain.RoleTechnician)
	ticket := env.addTicket(client.ID, domain.TicketStatusPending)

	_, err := env.assignmentSvc.Assign(context.Background(), ticket.ID, otherTech.ID, tech.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodePermissionDenied {
		t.Errorf("error code = %q, want %q", code, apperrors.CodePermissionDenied)
	}
}

func TestTechnicianCannotStealAssignedTicket(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	tech := env.addProfile("tech-1", domain.RoleTechnician)
	otherTech := env.addProfile("tech-2", domain.RoleTechnician)
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	ticket := env.addTicket(client.ID, domain.TicketStatusPending)

	if _, err := env.assignmentSvc.Assign(context.Background(), ticket.ID, tech.ID, admin.ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	_, err := env.assignmentSvc.Assign(context.Background(), ticket.ID, otherTech.ID, otherTech.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodePermissionDenied {
		t.Errorf("error code = %q, want %q", code, apperrors.CodePermissionDenied)
	}
}

func TestAssignRejectsNonTechnicianTarget(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	otherClient := env.addProfile("client-2", domain.RoleClient)
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	ticket := env.addTicket(client.ID, domain.TicketStatusPending)

	for _, target := range []string{otherClient.ID, "nobody"} {
		_, err := env.assignmentSvc.Assign(context.Background(), ticket.ID, target, admin.ID)
		if code := apperrors.CodeOf(err); code != apperrors.CodeNotFound {
			t.Errorf("target %q: error code = %q, want %q", target, code, apperrors.CodeNotFound)
		}
	}
}

func TestAssignRejectsClosedTicket(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	tech := env.addProfile("tech-1", domain.RoleTechnician)
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	ticket := env.addTicket(client.ID, domain.TicketStatusClosed)

	_, err := env.assignmentSvc.Assign(context.Background(), ticket.ID, tech.ID, admin.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodeTicketClosed {
		t.Errorf("error code = %q, want %q", code, apperrors.CodeTicketClosed)
	}
}

func TestAssignUnknownTicketBeatsValidation(t *testing.T) {
	env := newTestEnv()
	admin := env.addProfile("admin-1", domain.RoleAdmin)

	// Existence is checked before target validation, so an unknown ticket
	// with an equally unknown technician still reports the ticket.
	_, err := env.assignmentSvc.Assign(context.Background(), "missing", "nobody", admin.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodeNotFound {
		t.Errorf("error code = %q, want %q", code, apperrors.CodeNotFound)
	}
}

func TestConcurrentAssignExactlyOneWins(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	techA := env.addProfile("tech-a", domain.RoleTechnician)
	techB := env.addProfile("tech-b", domain.RoleTechnician)
	adminA := env.addProfile("admin-a", domain.RoleAdmin)
	adminB := env.addProfile("admin-b", domain.RoleAdmin)
	ticket := env.addTicket(client.ID, domain.TicketStatusPending)

	type outcome struct {
		err error
	}
	results := make([]outcome, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := env.assignmentSvc.Assign(context.Background(), ticket.ID, techA.ID, adminA.ID)
		results[0] = outcome{err: err}
	}()
	go func() {
		defer wg.Done()
		_, err := env.assignmentSvc.Assign(context.Background(), ticket.ID, techB.ID, adminB.ID)
		results[1] = outcome{err: err}
	}()
	wg.Wait()

	var wins, conflicts int
	for _, res := range results {
		switch apperrors.CodeOf(res.err) {
		case "":
			wins++
		case apperrors.CodeConcurrentModification:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", res.err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins = %d, conflicts = %d; want exactly one of each", wins, conflicts)
	}

	final, err := env.tickets.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.AssignedTo == nil {
		t.Fatal("ticket must end up assigned")
	}
	if *final.AssignedTo != techA.ID && *final.AssignedTo != techB.ID {
		t.Errorf("AssignedTo = %q, want one of the two racing technicians", *final.AssignedTo)
	}
	if final.Status != domain.TicketStatusInProgress {
		t.Errorf("Status = %q, want %q", final.Status, domain.TicketStatusInProgress)
	}
}
