package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	adapterRepository "github.com/wekeepgrowing/billing-reconciler/internal/adapter/repository"
	"github.com/wekeepgrowing/billing-reconciler/internal/config"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/provider"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/repository"
	"github.com/wekeepgrowing/billing-reconciler/internal/infrastructure/archive"
	"github.com/wekeepgrowing/billing-reconciler/internal/infrastructure/cache"
	providerFactory "github.com/wekeepgrowing/billing-reconciler/internal/infrastructure/provider"
	"github.com/wekeepgrowing/billing-reconciler/internal/report"
	"github.com/wekeepgrowing/billing-reconciler/internal/usecase"
	"github.com/wekeepgrowing/billing-reconciler/pkg/errors"
	"github.com/wekeepgrowing/billing-reconciler/pkg/logger"
	"github.com/wekeepgrowing/billing-reconciler/pkg/messaging"
)

// ReportArchiver stores a rendered report and returns where it went
type ReportArchiver interface {
	Archive(ctx context.Context, command, runID, ext, contentType string, body []byte) (string, error)
}

// RunSummary is the notification published when a run finishes
type RunSummary struct {
	RunID      string      `json:"run_id"`
	Command    string      `json:"command"`
	ArchiveKey string      `json:"archive_key,omitempty"`
	Result     interface{} `json:"result"`
}

// App holds the collaborators shared by every command of one run
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	runID     string
	out       io.Writer
	renderer  *report.Renderer
	factory   *providerFactory.Factory
	archiver  ReportArchiver
	publisher messaging.Publisher
	redis     *redis.Client
	closers   []func() error
}

// Run executes one command end to end
func Run(ctx context.Context, cfg *config.Config, command string, out io.Writer) error {
	if err := requireFor(cfg, command); err != nil {
		return err
	}

	app, err := NewApp(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer app.Close()

	app.logger.Info("Starting run", zap.String("command", command))
	startTime := time.Now()

	switch command {
	case CommandAudit:
		err = app.Audit(ctx)
	case CommandSync:
		err = app.Sync(ctx)
	case CommandInvoices:
		err = app.Invoices(ctx)
	case CommandLink:
		err = app.Link(ctx)
	}
	if err != nil {
		errors.LogError(app.logger, err, "Run failed", zap.String("command", command))
		return err
	}

	app.logger.Info("Run finished",
		zap.String("command", command),
		zap.Duration("duration", time.Since(startTime)))
	return nil
}

func requireFor(cfg *config.Config, command string) error {
	switch command {
	case CommandAudit:
		return cfg.RequireAudit()
	case CommandSync:
		return cfg.RequireSync()
	case CommandInvoices:
		return cfg.RequireInvoices()
	case CommandLink:
		return cfg.RequireLink()
	default:
		return errors.Config(fmt.Sprintf("unknown command %q", command), nil)
	}
}

// NewApp builds the logger and the optional sinks. Optional integrations that fail to start
// are logged and disabled rather than failing the run.
func NewApp(ctx context.Context, cfg *config.Config, out io.Writer) (*App, error) {
	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return nil, errors.Config("invalid report format", err)
	}

	baseLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		return nil, errors.Config("failed to initialize logger", err)
	}

	runID := uuid.NewString()
	app := &App{
		cfg:       cfg,
		logger:    baseLogger.With(zap.String("run_id", runID)),
		runID:     runID,
		out:       out,
		renderer:  report.NewRenderer(format),
		publisher: messaging.NopPublisher{},
	}
	app.closers = append(app.closers, func() error {
		_ = baseLogger.Sync()
		return nil
	})
	app.factory = providerFactory.NewFactory(cfg, app.logger)

	if cfg.Redis.Enabled() {
		client, err := messaging.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			errors.LogWarn(app.logger, err, "Redis unavailable; using in-memory product cache without notifications")
		} else {
			app.redis = client
			app.closers = append(app.closers, client.Close)
			if cfg.Notify.Channel != "" {
				app.publisher = messaging.NewRedisPublisher(client)
			}
		}
	}

	if cfg.Archive.Enabled() {
		client, err := archive.NewS3Client(ctx, cfg.Archive)
		if err != nil {
			errors.LogWarn(app.logger, err, "Report archive disabled")
		} else {
			app.archiver = archive.NewS3Archive(client, cfg.Archive, app.logger)
		}
	}

	return app, nil
}

// Close releases every resource the app opened, newest first
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to release resource", zap.Error(err))
		}
	}
	a.closers = nil
}

// RunID identifies this run in logs, archives and notifications
func (a *App) RunID() string {
	return a.runID
}

func (a *App) openStore(ctx context.Context) (repository.Store, error) {
	store, err := adapterRepository.NewStore(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	return store, nil
}

func (a *App) gateway() (provider.BillingGateway, error) {
	gateway, err := a.factory.GetGateway(provider.ProviderTypeStripe)
	if err != nil {
		return nil, errors.Config("payment gateway unavailable", err)
	}
	return gateway, nil
}

func (a *App) contactSource(source entity.ContactSource) (provider.ContactSource, error) {
	contacts, err := a.factory.GetContactSource(source)
	if err != nil {
		return nil, errors.Config("contact source unavailable", err)
	}
	return contacts, nil
}

func (a *App) productCache() provider.ProductCache {
	if a.redis != nil {
		return cache.NewRedisProductCache(a.redis, a.cfg.Cache.TTL, a.logger)
	}
	return cache.NewMemoryProductCache()
}

func (a *App) billingResolver() (*usecase.BillingResolver, error) {
	gateway, err := a.gateway()
	if err != nil {
		return nil, err
	}
	return usecase.NewBillingResolver(gateway, a.productCache(), a.cfg.Stripe.InvoiceLimit, a.logger), nil
}

// emit renders the result to the output, then archives and announces it.
// Archive and notification failures never fail a run whose work already happened.
func (a *App) emit(ctx context.Context, command string, render func(w io.Writer) error, result interface{}) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return errors.Wrap(err, "failed to render report")
	}
	if _, err := a.out.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write report")
	}

	summary := RunSummary{
		RunID:   a.runID,
		Command: command,
		Result:  result,
	}

	if a.archiver != nil {
		format := a.renderer.Format()
		key, err := a.archiver.Archive(ctx, command, a.runID, format.Extension(), format.ContentType(), buf.Bytes())
		if err != nil {
			errors.LogWarn(a.logger, err, "Failed to archive report")
		} else {
			summary.ArchiveKey = key
		}
	}

	if a.cfg.Notify.Channel != "" {
		envelope := messaging.Envelope{
			Type:    "reconciler." + command,
			Payload: summary,
			Time:    time.Now().UTC(),
		}
		if err := a.publisher.Publish(ctx, a.cfg.Notify.Channel, envelope); err != nil {
			errors.LogWarn(a.logger, err, "Failed to publish run summary",
				zap.String("channel", a.cfg.Notify.Channel))
		}
	}

	return nil
}
