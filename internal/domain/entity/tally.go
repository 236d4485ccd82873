package entity

// SyncTally counts subscription sync outcomes for one run
type SyncTally struct {
	RunID               string `json:"run_id" yaml:"run_id"`
	Total               int    `json:"total" yaml:"total"`
	Updated             int    `json:"updated" yaml:"updated"`
	NotFound            int    `json:"not_found" yaml:"not_found"`
	Errors              int    `json:"errors" yaml:"errors"`
	InvoicesInserted    int    `json:"invoices_inserted" yaml:"invoices_inserted"`
	InvoiceErrors       int    `json:"invoice_errors" yaml:"invoice_errors"`
	InvoiceTableMissing bool   `json:"invoice_table_missing" yaml:"invoice_table_missing"`
}

// Record buckets one upsert result
func (t *SyncTally) Record(result UpsertResult) {
	t.Total++
	t.InvoicesInserted += result.InvoicesInserted
	t.InvoiceErrors += result.InvoiceErrors
	switch result.Outcome {
	case OutcomeUpdated:
		t.Updated++
	case OutcomeNotFound:
		t.NotFound++
	default:
		t.Errors++
	}
}

// InvoiceSyncTally counts invoice backfill outcomes for one run
type InvoiceSyncTally struct {
	RunID               string `json:"run_id" yaml:"run_id"`
	Clients             int    `json:"clients" yaml:"clients"`
	Inserted            int    `json:"inserted" yaml:"inserted"`
	Skipped             int    `json:"skipped" yaml:"skipped"`
	Errors              int    `json:"errors" yaml:"errors"`
	InvoiceTableMissing bool   `json:"invoice_table_missing" yaml:"invoice_table_missing"`
}

// LinkTally counts customer link outcomes for one run
type LinkTally struct {
	RunID    string `json:"run_id" yaml:"run_id"`
	Clients  int    `json:"clients" yaml:"clients"`
	Linked   int    `json:"linked" yaml:"linked"`
	NotFound int    `json:"not_found" yaml:"not_found"`
	Errors   int    `json:"errors" yaml:"errors"`
}

// AuditReport lists identities present in the identity provider but absent from the CRM
type AuditReport struct {
	RunID   string            `json:"run_id" yaml:"run_id"`
	Entries []ReconciledEntry `json:"entries" yaml:"entries"`
}
