package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

func newExchangeService(env *testEnv) *ExchangeService {
	return NewExchangeService(env.tickets, env.profiles, NewAuditService(env.auditRepo, zap.NewNop()))
}

func TestExportTicketsAdminOnly(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	tech := env.addProfile("tech-1", domain.RoleTechnician)
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	env.addTicket(client.ID, domain.TicketStatusPending)
	svc := newExchangeService(env)
	ctx := context.Background()

	for _, actor := range []string{client.ID, tech.ID} {
		var buf bytes.Buffer
		_, err := svc.ExportTickets(ctx, actor, &buf)
		if code := apperrors.CodeOf(err); code != apperrors.CodePermissionDenied {
			t.Errorf("actor %q: error code = %q, want %q", actor, code, apperrors.CodePermissionDenied)
		}
	}

	var buf bytes.Buffer
	count, err := svc.ExportTickets(ctx, admin.ID, &buf)
	if err != nil {
		t.Fatalf("ExportTickets: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if !strings.HasPrefix(buf.String(), "ID,Title,Description,Status,Category,Created At") {
		t.Errorf("export missing header: %q", buf.String())
	}
}

func TestImportTicketsCreatesRows(t *testing.T) {
	env := newTestEnv()
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	svc := newExchangeService(env)

	input := strings.Join([]string{
		"ID,Title,Description,Status,Category,Created At",
		"old-1,restore backup,from last friday,Pending,storage,2026-01-05T08:00:00Z",
		"old-2,vpn flaky,drops every hour,In Progress,,",
	}, "\n")

	created, err := svc.ImportTickets(context.Background(), admin.ID, strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportTickets: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %d, want 2", len(created))
	}
	// Imported tickets get fresh ids and are owned by the importer.
	if created[0].ID == "old-1" {
		t.Error("imported ticket kept foreign id")
	}
	if created[0].OwnerID != admin.ID {
		t.Errorf("OwnerID = %q, want importer", created[0].OwnerID)
	}
	if created[1].Status != domain.TicketStatusInProgress {
		t.Errorf("Status = %q, want %q", created[1].Status, domain.TicketStatusInProgress)
	}
}

func TestImportTicketsRejectsBadStatusBeforeWriting(t *testing.T) {
	env := newTestEnv()
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	svc := newExchangeService(env)

	input := strings.Join([]string{
		"ID,Title,Description,Status,Category,Created At",
		"a,good row,desc,Pending,,",
		"b,bad row,desc,Reopened,,",
	}, "\n")

	_, err := svc.ImportTickets(context.Background(), admin.ID, strings.NewReader(input))
	if code := apperrors.CodeOf(err); code != apperrors.CodeValidationFailed {
		t.Fatalf("error code = %q, want %q", code, apperrors.CodeValidationFailed)
	}
	// Parse-stage rejection means nothing was written.
	tickets, _ := env.tickets.ListWithFilter(context.Background(), repository.TicketFilter{Limit: 100})
	if len(tickets) != 0 {
		t.Errorf("tickets written = %d, want 0", len(tickets))
	}
}
