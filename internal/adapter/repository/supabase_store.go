package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/config"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/billing-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/repository"
)

const (
	restPrefix = "/rest/v1"
	// pageSize stays under the default PostgREST max-rows cap
	pageSize = 1000

	// PostgREST codes for objects missing from the schema cache
	pgrstTableMissing    = "PGRST205"
	pgrstFunctionMissing = "PGRST202"
)

const clientColumns = "id,name,email,stripe_customer_id,employee_id,subscription_status,subscription_product,subscription_plan,last_payment_date"

// SupabaseStore implements the target store over the Supabase REST API (PostgREST)
type SupabaseStore struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	procedure string
	logger    *zap.Logger
}

// NewSupabaseStore creates a new Supabase store authenticated with the service-role key
func NewSupabaseStore(cfg config.SupabaseConfig, procedure string, timeout time.Duration, logger *zap.Logger) repository.Store {
	return &SupabaseStore{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		apiKey:    cfg.ServiceRoleKey,
		procedure: procedure,
		logger:    logger,
	}
}

// clientRow mirrors the clients table; dates come back as plain strings
type clientRow struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Email               string  `json:"email"`
	StripeCustomerID    *string `json:"stripe_customer_id"`
	EmployeeID          *string `json:"employee_id"`
	SubscriptionStatus  *string `json:"subscription_status"`
	SubscriptionProduct *string `json:"subscription_product"`
	SubscriptionPlan    *string `json:"subscription_plan"`
	LastPaymentDate     *string `json:"last_payment_date"`
}

func (r clientRow) toEntity() entity.ClientRecord {
	record := entity.ClientRecord{
		ID:                  r.ID,
		Name:                r.Name,
		Email:               r.Email,
		StripeCustomerID:    r.StripeCustomerID,
		EmployeeID:          r.EmployeeID,
		SubscriptionStatus:  r.SubscriptionStatus,
		SubscriptionProduct: r.SubscriptionProduct,
		SubscriptionPlan:    r.SubscriptionPlan,
	}
	if r.LastPaymentDate != nil && len(*r.LastPaymentDate) >= len(entity.DateLayout) {
		if t, err := time.Parse(entity.DateLayout, (*r.LastPaymentDate)[:len(entity.DateLayout)]); err == nil {
			record.LastPaymentDate = &t
		}
	}
	return record
}

// restError is the PostgREST error body
type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (s *SupabaseStore) FindByEmail(ctx context.Context, email string) ([]entity.ClientRecord, error) {
	params := url.Values{}
	params.Set("select", clientColumns)
	params.Set("email", "ilike."+escapeLike(email))
	params.Set("order", "id")

	var rows []clientRow
	if err := s.do(ctx, http.MethodGet, "clients", "/clients", params, nil, &rows); err != nil {
		return nil, err
	}
	return clientRecords(rows), nil
}

func (s *SupabaseStore) UpdateSubscription(ctx context.Context, clientID string, fields entity.SubscriptionFields) error {
	var lastPayment *string
	if fields.LastPaymentDate != nil {
		date := fields.LastPaymentDate.UTC().Format(entity.DateLayout)
		lastPayment = &date
	}
	body := map[string]interface{}{
		"subscription_status":  fields.Status,
		"subscription_product": fields.Product,
		"subscription_plan":    fields.Plan,
		"last_payment_date":    lastPayment,
	}

	params := url.Values{}
	params.Set("id", "eq."+clientID)
	return s.do(ctx, http.MethodPatch, "clients", "/clients", params, body, nil)
}

func (s *SupabaseStore) ListWithCustomerID(ctx context.Context) ([]entity.ClientRecord, error) {
	params := url.Values{}
	params.Add("stripe_customer_id", "not.is.null")
	params.Add("stripe_customer_id", "neq.")
	return s.listClients(ctx, params)
}

func (s *SupabaseStore) ListWithoutCustomerID(ctx context.Context) ([]entity.ClientRecord, error) {
	params := url.Values{}
	params.Set("or", `(stripe_customer_id.is.null,stripe_customer_id.eq."")`)
	return s.listClients(ctx, params)
}

// listClients pages with limit/offset until a short page
func (s *SupabaseStore) listClients(ctx context.Context, filters url.Values) ([]entity.ClientRecord, error) {
	var records []entity.ClientRecord
	for offset := 0; ; offset += pageSize {
		params := url.Values{}
		for key, values := range filters {
			params[key] = append([]string(nil), values...)
		}
		params.Set("select", clientColumns)
		params.Set("order", "id")
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("offset", strconv.Itoa(offset))

		var rows []clientRow
		if err := s.do(ctx, http.MethodGet, "clients", "/clients", params, nil, &rows); err != nil {
			return nil, err
		}
		records = append(records, clientRecords(rows)...)
		if len(rows) < pageSize {
			return records, nil
		}
	}
}

func (s *SupabaseStore) SetCustomerID(ctx context.Context, clientID, customerID string) error {
	params := url.Values{}
	params.Set("id", "eq."+clientID)
	body := map[string]interface{}{
		"stripe_customer_id": customerID,
	}
	return s.do(ctx, http.MethodPatch, "clients", "/clients", params, body, nil)
}

func (s *SupabaseStore) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	params := url.Values{}
	params.Set("select", "id")
	params.Set("stripe_invoice_id", "eq."+externalID)
	params.Set("limit", "1")

	var rows []struct {
		ID json.RawMessage `json:"id"`
	}
	if err := s.do(ctx, http.MethodGet, "invoices", "/invoices", params, nil, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (s *SupabaseStore) Insert(ctx context.Context, clientID string, invoice entity.InvoiceRecord) error {
	var pdf *string
	if invoice.DocumentURL != "" {
		pdf = &invoice.DocumentURL
	}
	amount := json.Number(invoice.AmountPaid.StringFixed(2))
	createdAt := invoice.CreatedAt.UTC().Format(time.RFC3339)

	if s.procedure == "" {
		body := map[string]interface{}{
			"client_id":         clientID,
			"stripe_invoice_id": invoice.ExternalID,
			"amount_paid":       amount,
			"created_at":        createdAt,
			"status":            invoice.Status,
			"invoice_pdf":       pdf,
		}
		return s.do(ctx, http.MethodPost, "invoices", "/invoices", nil, body, nil)
	}

	body := map[string]interface{}{
		"p_client_id":         clientID,
		"p_stripe_invoice_id": invoice.ExternalID,
		"p_amount_paid":       amount,
		"p_created_at":        createdAt,
		"p_status":            invoice.Status,
		"p_invoice_pdf":       pdf,
	}
	return s.do(ctx, http.MethodPost, s.procedure, "/rpc/"+s.procedure, nil, body, nil)
}

// Ping reads one client id to prove the store is reachable and authorized
func (s *SupabaseStore) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("select", "id")
	params.Set("limit", "1")

	var rows []json.RawMessage
	return s.do(ctx, http.MethodGet, "clients", "/clients", params, nil, &rows)
}

func (s *SupabaseStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *SupabaseStore) do(ctx context.Context, method, table, path string, params url.Values, body, out interface{}) error {
	op := opName(method, path)

	endpoint := s.baseURL + restPrefix + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &domainErrors.StoreError{Op: op, Table: table, Cause: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &domainErrors.StoreError{Op: op, Table: table, Cause: err}
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=minimal")
	}

	requestStart := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Supabase request failed",
			zap.String("op", op),
			zap.String("table", table),
			zap.Duration("request_duration", time.Since(requestStart)),
			zap.Error(err))
		return &domainErrors.StoreError{Op: op, Table: table, Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domainErrors.StoreError{Op: op, Table: table, StatusCode: resp.StatusCode, Cause: err}
	}

	s.logger.Debug("Supabase request completed",
		zap.String("op", op),
		zap.String("table", table),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("request_duration", time.Since(requestStart)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.statusError(op, table, path, resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &domainErrors.StoreError{
			Op:         op,
			Table:      table,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

func (s *SupabaseStore) statusError(op, table, path string, status int, body []byte) error {
	var rest restError
	_ = json.Unmarshal(body, &rest)

	storeErr := &domainErrors.StoreError{
		Op:         op,
		Table:      table,
		StatusCode: status,
		Code:       rest.Code,
		Message:    rest.Message,
	}
	if storeErr.Message == "" {
		storeErr.Message = strings.TrimSpace(string(body))
	}

	isRPC := strings.HasPrefix(path, "/rpc/")
	switch {
	case rest.Code == pgUndefinedTable || rest.Code == pgrstTableMissing:
		storeErr.Kind = domainErrors.ErrTableMissing
	case rest.Code == pgUndefinedFunction || rest.Code == pgrstFunctionMissing:
		storeErr.Kind = domainErrors.ErrProcedureMissing
	case status == http.StatusNotFound && isRPC:
		storeErr.Kind = domainErrors.ErrProcedureMissing
	case status == http.StatusNotFound:
		storeErr.Kind = domainErrors.ErrTableMissing
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		s.logger.Error("Unauthorized access to Supabase API - check the service role key",
			zap.String("table", table),
			zap.Int("status_code", status))
	}
	return storeErr
}

func opName(method, path string) string {
	switch {
	case strings.HasPrefix(path, "/rpc/"):
		return "call"
	case method == http.MethodGet:
		return "select"
	case method == http.MethodPatch:
		return "update"
	case method == http.MethodPost:
		return "insert"
	default:
		return strings.ToLower(method)
	}
}

// escapeLike escapes LIKE metacharacters so ilike behaves as a case-insensitive equality
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func clientRecords(rows []clientRow) []entity.ClientRecord {
	records := make([]entity.ClientRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toEntity())
	}
	return records
}
