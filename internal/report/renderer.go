// Package report renders run results for operators and downstream tooling.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
)

const emptyCell = "-"

// AuditRow is the flat display form of one audit entry
type AuditRow struct {
	Email    string `json:"email" yaml:"email"`
	Phone    string `json:"phone" yaml:"phone"`
	Status   string `json:"status" yaml:"status"`
	Product  string `json:"product" yaml:"product"`
	LastPaid string `json:"last_paid" yaml:"last_paid"`
	Plan     string `json:"plan" yaml:"plan"`
}

// AuditDocument is the machine-readable audit report
type AuditDocument struct {
	RunID   string     `json:"run_id" yaml:"run_id"`
	Count   int        `json:"count" yaml:"count"`
	Entries []AuditRow `json:"entries" yaml:"entries"`
}

// NewAuditDocument flattens an audit report, keeping entry order
func NewAuditDocument(report entity.AuditReport) AuditDocument {
	doc := AuditDocument{
		RunID:   report.RunID,
		Count:   len(report.Entries),
		Entries: make([]AuditRow, 0, len(report.Entries)),
	}
	for _, entry := range report.Entries {
		doc.Entries = append(doc.Entries, AuditRow{
			Email:    entry.Email(),
			Phone:    entry.Contact.NormalizedPhone,
			Status:   string(entry.Summary.Status),
			Product:  entry.Summary.ProductName,
			LastPaid: entry.Summary.LastPaid(),
			Plan:     entry.Summary.PlanIdentifier,
		})
	}
	return doc
}

// Renderer writes reports in one format
type Renderer struct {
	format Format
}

// NewRenderer creates a renderer for the given format
func NewRenderer(format Format) *Renderer {
	return &Renderer{format: format}
}

// Format returns the renderer's output format
func (r *Renderer) Format() Format {
	return r.format
}

// Audit renders the identity-provider-only listing
func (r *Renderer) Audit(w io.Writer, report entity.AuditReport) error {
	doc := NewAuditDocument(report)
	if r.format != FormatTable {
		return r.encode(w, doc)
	}

	if _, err := fmt.Fprintf(w, "IN IDENTITY PROVIDER ONLY (%d)\n", doc.Count); err != nil {
		return err
	}
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "EMAIL\tPHONE\tSTATUS\tPRODUCT\tLAST PAID\tPLAN")
	for _, row := range doc.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Email, cell(row.Phone), cell(row.Status), cell(row.Product), cell(row.LastPaid), cell(row.Plan))
	}
	return tw.Flush()
}

// Sync renders the subscription sync tally
func (r *Renderer) Sync(w io.Writer, tally entity.SyncTally) error {
	if r.format != FormatTable {
		return r.encode(w, tally)
	}
	return writeCounters(w, "SUBSCRIPTION SYNC", tally.RunID, []counter{
		{"total", tally.Total},
		{"updated", tally.Updated},
		{"not found", tally.NotFound},
		{"errors", tally.Errors},
		{"invoices inserted", tally.InvoicesInserted},
		{"invoice errors", tally.InvoiceErrors},
		{"invoice table missing", tally.InvoiceTableMissing},
	})
}

// Invoices renders the invoice backfill tally
func (r *Renderer) Invoices(w io.Writer, tally entity.InvoiceSyncTally) error {
	if r.format != FormatTable {
		return r.encode(w, tally)
	}
	return writeCounters(w, "INVOICE SYNC", tally.RunID, []counter{
		{"clients", tally.Clients},
		{"inserted", tally.Inserted},
		{"skipped", tally.Skipped},
		{"errors", tally.Errors},
		{"invoice table missing", tally.InvoiceTableMissing},
	})
}

// Link renders the customer link tally
func (r *Renderer) Link(w io.Writer, tally entity.LinkTally) error {
	if r.format != FormatTable {
		return r.encode(w, tally)
	}
	return writeCounters(w, "CUSTOMER LINK", tally.RunID, []counter{
		{"clients", tally.Clients},
		{"linked", tally.Linked},
		{"not found", tally.NotFound},
		{"errors", tally.Errors},
	})
}

func (r *Renderer) encode(w io.Writer, v interface{}) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported report format %q", r.format)
	}
}

type counter struct {
	label string
	value interface{}
}

func writeCounters(w io.Writer, title, runID string, counters []counter) error {
	if _, err := fmt.Fprintf(w, "%s (run %s)\n", title, runID); err != nil {
		return err
	}
	tw := newTabWriter(w)
	for _, c := range counters {
		fmt.Fprintf(tw, "%s\t%v\n", c.label, c.value)
	}
	return tw.Flush()
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func cell(value string) string {
	if value == "" {
		return emptyCell
	}
	return value
}
