// Package exchange implements the flat-row interchange format used for
// bulk ticket export and import.
package exchange

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// Header is the column set, symmetric for export and import.
var Header = []string{"ID", "Title", "Description", "Status", "Category", "Created At"}

// Row is one imported ticket record. Identity and created_at are reassigned
// on import; they travel for export completeness only.
type Row struct {
	ID          string
	Title       string
	Description string
	Status      domain.TicketStatus
	Category    *string
	CreatedAt   time.Time
}

// Export writes tickets as CSV with standard quoting.
func Export(w io.Writer, tickets []domain.Ticket) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for i := range tickets {
		ticket := &tickets[i]
		category := ""
		if ticket.Category != nil {
			category = *ticket.Category
		}
		record := []string{
			ticket.ID,
			ticket.Title,
			ticket.Description,
			string(ticket.Status),
			category,
			ticket.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Import parses CSV rows, rejecting any row whose status is not one of the
// four canonical statuses. The header row is required.
func Import(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !headerMatches(header) {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		line++

		status := domain.TicketStatus(strings.TrimSpace(record[3]))
		if !domain.ValidStatus(status) {
			return nil, fmt.Errorf("row %d: invalid status %q", line, record[3])
		}
		title := strings.TrimSpace(record[1])
		description := strings.TrimSpace(record[2])
		if title == "" {
			return nil, fmt.Errorf("row %d: title is required", line)
		}

		row := Row{
			ID:          strings.TrimSpace(record[0]),
			Title:       title,
			Description: description,
			Status:      status,
		}
		if category := strings.TrimSpace(record[4]); category != "" {
			row.Category = &category
		}
		if createdAt, err := time.Parse(time.RFC3339, strings.TrimSpace(record[5])); err == nil {
			row.CreatedAt = createdAt
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(Header) {
		return false
	}
	for i := range Header {
		if !strings.EqualFold(strings.TrimSpace(header[i]), Header[i]) {
			return false
		}
	}
	return true
}
