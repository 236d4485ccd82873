package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/billing-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/repository"
	"github.com/wekeepgrowing/billing-reconciler/internal/infrastructure/database"
)

// Postgres error codes
const (
	pgUndefinedTable    = "42P01"
	pgUndefinedFunction = "42883"
)

var procedureName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type postgresStore struct {
	db        *gorm.DB
	procedure string
	logger    *zap.Logger
}

// NewPostgresStore creates a store that talks to Postgres directly through gorm.
// procedure names the invoice insert function; empty inserts rows directly.
func NewPostgresStore(db *gorm.DB, procedure string, logger *zap.Logger) (repository.Store, error) {
	if procedure != "" && !procedureName.MatchString(procedure) {
		return nil, fmt.Errorf("invalid invoice procedure name %q", procedure)
	}
	return &postgresStore{
		db:        db,
		procedure: procedure,
		logger:    logger,
	}, nil
}

func (r *postgresStore) FindByEmail(ctx context.Context, email string) ([]entity.ClientRecord, error) {
	var rows []model.Client
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, classify("select", "clients", err)
	}
	return toClientRecords(rows), nil
}

func (r *postgresStore) UpdateSubscription(ctx context.Context, clientID string, fields entity.SubscriptionFields) error {
	// A map keeps nil values, so cleared fields are written as NULL
	updates := map[string]interface{}{
		"subscription_status":  fields.Status,
		"subscription_product": fields.Product,
		"subscription_plan":    fields.Plan,
		"last_payment_date":    fields.LastPaymentDate,
	}
	err := r.db.WithContext(ctx).
		Model(&model.Client{}).
		Where("id = ?", clientID).
		Updates(updates).Error
	if err != nil {
		return classify("update", "clients", err)
	}
	return nil
}

func (r *postgresStore) ListWithCustomerID(ctx context.Context) ([]entity.ClientRecord, error) {
	var rows []model.Client
	err := r.db.WithContext(ctx).
		Where("stripe_customer_id IS NOT NULL AND stripe_customer_id <> ''").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, classify("select", "clients", err)
	}
	return toClientRecords(rows), nil
}

func (r *postgresStore) ListWithoutCustomerID(ctx context.Context) ([]entity.ClientRecord, error) {
	var rows []model.Client
	err := r.db.WithContext(ctx).
		Where("stripe_customer_id IS NULL OR stripe_customer_id = ''").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, classify("select", "clients", err)
	}
	return toClientRecords(rows), nil
}

func (r *postgresStore) SetCustomerID(ctx context.Context, clientID, customerID string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Client{}).
		Where("id = ?", clientID).
		Update("stripe_customer_id", customerID).Error
	if err != nil {
		return classify("update", "clients", err)
	}
	return nil
}

func (r *postgresStore) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Invoice{}).
		Where("stripe_invoice_id = ?", externalID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, classify("select", "invoices", err)
	}
	return count > 0, nil
}

func (r *postgresStore) Insert(ctx context.Context, clientID string, invoice entity.InvoiceRecord) error {
	row := model.NewInvoice(clientID, invoice)

	if r.procedure == "" {
		if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
			return classify("insert", "invoices", err)
		}
		return nil
	}

	sql := fmt.Sprintf("SELECT %s(p_client_id => ?, p_stripe_invoice_id => ?, p_amount_paid => ?, "+
		"p_created_at => ?, p_status => ?, p_invoice_pdf => ?)", r.procedure)
	err := r.db.WithContext(ctx).
		Exec(sql, row.ClientID, row.StripeInvoiceID, row.AmountPaid, row.CreatedAt, row.Status, row.InvoicePDF).Error
	if err != nil {
		return classify("call", r.procedure, err)
	}
	return nil
}

func (r *postgresStore) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *postgresStore) Close() error {
	return database.Close(r.db, r.logger)
}

func toClientRecords(rows []model.Client) []entity.ClientRecord {
	records := make([]entity.ClientRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].ToEntity())
	}
	return records
}

// classify maps driver errors onto store errors, recognizing missing tables and functions
func classify(op, table string, err error) error {
	storeErr := &domainErrors.StoreError{
		Op:    op,
		Table: table,
		Cause: err,
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		storeErr.Code = pgErr.Code
		switch pgErr.Code {
		case pgUndefinedTable:
			storeErr.Kind = domainErrors.ErrTableMissing
		case pgUndefinedFunction:
			storeErr.Kind = domainErrors.ErrProcedureMissing
		}
		return storeErr
	}

	// SQLite reports a missing table only in the message
	if strings.Contains(err.Error(), "no such table") {
		storeErr.Kind = domainErrors.ErrTableMissing
	}
	return storeErr
}
