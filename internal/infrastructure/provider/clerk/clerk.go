package clerk

import (
	"bytes"
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

const defaultPageSize = 100

// Client reads users from the Clerk Backend API
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	pageSize   int
	logger     *zap.Logger
}

// NewClient creates a new Clerk contact source
func NewClient(cfg config.ClerkConfig, timeout time.Duration, logger *zap.Logger) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		pageSize:  pageSize,
		logger:    logger,
	}
}

var _ provider.ContactSource = (*Client)(nil)

type emailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type phoneNumber struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
}

type user struct {
	ID                    string         `json:"id"`
	EmailAddresses        []emailAddress `json:"email_addresses"`
	PhoneNumbers          []phoneNumber  `json:"phone_numbers"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	PrimaryPhoneNumberID  string         `json:"primary_phone_number_id"`
}

// Name returns the source identifier
func (c *Client) Name() entity.ContactSource {
	return entity.SourceClerk
}

// FetchAll pages through every user with limit/offset until a short or empty page
func (c *Client) FetchAll(ctx context.Context) ([]entity.ContactRecord, error) {
	startTime := time.Now()
	var (
		records []entity.ContactRecord
		skipped int
	)

	for offset := 0; ; offset += c.pageSize {
		users, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}

		for _, u := range users {
			record, ok := toContact(u)
			if !ok {
				skipped++
				continue
			}
			records = append(records, record)
		}

		c.logger.Debug("Clerk page fetched",
			zap.Int("offset", offset),
			zap.Int("users", len(users)))

		if len(users) < c.pageSize {
			break
		}
	}

	c.logger.Info("Fetched Clerk users",
		zap.Int("contacts", len(records)),
		zap.Int("skipped_without_email", skipped),
		zap.Duration("duration", time.Since(startTime)))

	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, offset int) ([]user, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageSize))
	params.Set("offset", strconv.Itoa(offset))
	queryURL := fmt.Sprintf("%s/v1/users?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, domainErrors.NewTransportError(string(entity.SourceClerk), err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domainErrors.NewTransportError(string(entity.SourceClerk), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domainErrors.NewTransportError(string(entity.SourceClerk), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Clerk API returned non-2xx status",
			zap.Int("status_code", resp.StatusCode),
			zap.Int("offset", offset),
			zap.ByteString("response_body", body))
		return nil, domainErrors.NewStatusError(string(entity.SourceClerk), resp.StatusCode, body)
	}

	users, err := decodeUsers(body)
	if err != nil {
		return nil, domainErrors.NewTransportError(string(entity.SourceClerk),
			fmt.Errorf("failed to decode users page at offset %d: %w", offset, err))
	}
	return users, nil
}

// decodeUsers accepts either a bare array or an object with a data array
func decodeUsers(body []byte) ([]user, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var users []user
		if err := json.Unmarshal(trimmed, &users); err != nil {
			return nil, err
		}
		return users, nil
	}

	var envelope struct {
		Data []user `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

func toContact(u user) (entity.ContactRecord, bool) {
	email := identity.CanonicalEmail(primaryEmail(u))
	if email == "" {
		return entity.ContactRecord{}, false
	}
	return entity.ContactRecord{
		Source:          entity.SourceClerk,
		ExternalID:      u.ID,
		CanonicalEmail:  email,
		NormalizedPhone: identity.NormalizePhone(primaryPhone(u)),
	}, true
}

// primaryEmail picks the address flagged primary, else the first listed
func primaryEmail(u user) string {
	for _, e := range u.EmailAddresses {
		if e.ID != "" && e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

func primaryPhone(u user) string {
	for _, p := range u.PhoneNumbers {
		if p.ID != "" && p.ID == u.PrimaryPhoneNumberID {
			return p.PhoneNumber
		}
	}
	if len(u.PhoneNumbers) > 0 {
		return u.PhoneNumbers[0].PhoneNumber
	}
	return ""
}
