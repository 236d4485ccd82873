package cli

import (
	"context"
	"io"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/billing-reconciler/internal/usecase"
)

// auditNotice is the published payload for audits; the rows stay in the report
type auditNotice struct {
	Count int `json:"count"`
}

// Audit lists identity-provider users missing from the CRM
func (a *App) Audit(ctx context.Context) error {
	identities, err := a.contactSource(entity.SourceClerk)
	if err != nil {
		return err
	}
	crm, err := a.contactSource(entity.SourceHubSpot)
	if err != nil {
		return err
	}
	billing, err := a.billingResolver()
	if err != nil {
		return err
	}

	result, err := usecase.NewAuditService(identities, crm, billing, a.logger).Run(ctx)
	if err != nil {
		return err
	}
	result.RunID = a.runID

	return a.emit(ctx, CommandAudit, func(w io.Writer) error {
		return a.renderer.Audit(w, result)
	}, auditNotice{Count: len(result.Entries)})
}

// Sync writes subscription state onto every matching client
func (a *App) Sync(ctx context.Context) error {
	// the store is checked before any upstream fetch
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	identities, err := a.contactSource(entity.SourceClerk)
	if err != nil {
		return err
	}
	billing, err := a.billingResolver()
	if err != nil {
		return err
	}

	upserter := usecase.NewSubscriptionSync(store, usecase.NewInvoiceWriter(store, a.logger), a.logger)
	tally, err := usecase.NewBatchDriver(identities, billing, upserter, a.logger).Run(ctx)
	if err != nil {
		return err
	}
	tally.RunID = a.runID

	return a.emit(ctx, CommandSync, func(w io.Writer) error {
		return a.renderer.Sync(w, tally)
	}, tally)
}

// Invoices backfills paid subscription invoices
func (a *App) Invoices(ctx context.Context) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	gateway, err := a.gateway()
	if err != nil {
		return err
	}

	writer := usecase.NewInvoiceWriter(store, a.logger)
	tally, err := usecase.NewInvoiceSync(store, gateway, writer, a.cfg.Stripe.InvoiceSyncLimit, a.logger).Run(ctx)
	if err != nil {
		return err
	}
	tally.RunID = a.runID

	return a.emit(ctx, CommandInvoices, func(w io.Writer) error {
		return a.renderer.Invoices(w, tally)
	}, tally)
}

// Link records payment customer ids on clients that lack one
func (a *App) Link(ctx context.Context) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	gateway, err := a.gateway()
	if err != nil {
		return err
	}

	tally, err := usecase.NewCustomerLink(store, gateway, a.logger).Run(ctx)
	if err != nil {
		return err
	}
	tally.RunID = a.runID

	return a.emit(ctx, CommandLink, func(w io.Writer) error {
		return a.renderer.Link(w, tally)
	}, tally)
}
