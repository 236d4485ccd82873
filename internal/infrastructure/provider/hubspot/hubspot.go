package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/config"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/billing-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/provider"
	"github.com/wekeepgrowing/billing-reconciler/internal/identity"
)

const (
	contactsPath    = "/crm/v3/objects/contacts"
	contactFields   = "email,phone,mobilephone"
	defaultPageSize = 100
)

// Client reads contacts from the HubSpot CRM v3 API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	pageSize    int
	logger      *zap.Logger
}

// NewClient creates a new HubSpot contact source
func NewClient(cfg config.HubSpotConfig, timeout time.Duration, logger *zap.Logger) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		pageSize:    pageSize,
		logger:      logger,
	}
}

var _ provider.ContactSource = (*Client)(nil)

// Contact is one CRM contact with the projected properties
type Contact struct {
	ID          string
	Email       string
	Phone       string
	MobilePhone string
}

type contactObject struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

type listResponse struct {
	Results []contactObject `json:"results"`
	Paging  *struct {
		Next *struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

// Name returns the source identifier
func (c *Client) Name() entity.ContactSource {
	return entity.SourceHubSpot
}

// FetchAll drains the contact iterator, keeping contacts that have an email
func (c *Client) FetchAll(ctx context.Context) ([]entity.ContactRecord, error) {
	startTime := time.Now()
	var (
		records []entity.ContactRecord
		skipped int
	)

	it := c.Contacts(ctx)
	for it.Next() {
		contact := it.Contact()
		email := identity.CanonicalEmail(contact.Email)
		if email == "" {
			skipped++
			continue
		}
		phone := contact.Phone
		if phone == "" {
			phone = contact.MobilePhone
		}
		records = append(records, entity.ContactRecord{
			Source:          entity.SourceHubSpot,
			ExternalID:      contact.ID,
			CanonicalEmail:  email,
			NormalizedPhone: identity.NormalizePhone(phone),
		})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	c.logger.Info("Fetched HubSpot contacts",
		zap.Int("contacts", len(records)),
		zap.Int("skipped_without_email", skipped),
		zap.Duration("duration", time.Since(startTime)))

	return records, nil
}

// Contacts returns an iterator over every contact. Pages are requested lazily
// as the caller advances.
func (c *Client) Contacts(ctx context.Context) *Iter {
	return &Iter{ctx: ctx, client: c}
}

// Iter yields contacts one at a time, following the paging cursor
type Iter struct {
	ctx    context.Context
	client *Client
	page   []contactObject
	cur    contactObject
	after  string
	done   bool
	err    error
}

// Next advances to the next contact. It returns false at the end or on error.
func (it *Iter) Next() bool {
	for len(it.page) == 0 {
		if it.done || it.err != nil {
			return false
		}
		it.fetchPage()
	}
	it.cur = it.page[0]
	it.page = it.page[1:]
	return true
}

// Contact returns the current contact
func (it *Iter) Contact() Contact {
	props := it.cur.Properties
	return Contact{
		ID:          it.cur.ID,
		Email:       props["email"],
		Phone:       props["phone"],
		MobilePhone: props["mobilephone"],
	}
}

// Err returns the error that stopped iteration, if any
func (it *Iter) Err() error {
	return it.err
}

func (it *Iter) fetchPage() {
	c := it.client

	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageSize))
	params.Set("properties", contactFields)
	params.Set("archived", "false")
	if it.after != "" {
		params.Set("after", it.after)
	}
	queryURL := fmt.Sprintf("%s%s?%s", c.baseURL, contactsPath, params.Encode())

	req, err := http.NewRequestWithContext(it.ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		it.err = domainErrors.NewTransportError(string(entity.SourceHubSpot), err)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		it.err = domainErrors.NewTransportError(string(entity.SourceHubSpot), err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		it.err = domainErrors.NewTransportError(string(entity.SourceHubSpot), err)
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("HubSpot API returned non-2xx status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("after", it.after),
			zap.ByteString("response_body", body))
		it.err = domainErrors.NewStatusError(string(entity.SourceHubSpot), resp.StatusCode, body)
		return
	}

	var page listResponse
	if err := json.Unmarshal(body, &page); err != nil {
		it.err = domainErrors.NewTransportError(string(entity.SourceHubSpot),
			fmt.Errorf("failed to decode contacts page: %w", err))
		return
	}

	c.logger.Debug("HubSpot page fetched",
		zap.String("after", it.after),
		zap.Int("contacts", len(page.Results)))

	it.page = page.Results
	if page.Paging == nil || page.Paging.Next == nil || page.Paging.Next.After == "" || len(page.Results) == 0 {
		it.done = true
		return
	}
	it.after = page.Paging.Next.After
}
