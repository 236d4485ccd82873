package clerk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/config"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/billing-reconciler/internal/domain/errors"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.ClerkConfig{
		SecretKey: "sk_test_clerk",
		BaseURL:   serverURL,
		PageSize:  100,
	}, 5*time.Second, zap.NewNop())
}

func makeUsers(from, count int) []user {
	users := make([]user, 0, count)
	for i := from; i < from+count; i++ {
		users = append(users, user{
			ID:                    fmt.Sprintf("user_%d", i),
			EmailAddresses:        []emailAddress{{ID: "idn_" + strconv.Itoa(i), EmailAddress: fmt.Sprintf("User%d@Example.com", i)}},
			PrimaryEmailAddressID: "idn_" + strconv.Itoa(i),
		})
	}
	return users
}

func TestClient_FetchAll_TwoPages(t *testing.T) {
	var offsets []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/users", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_clerk", r.Header.Get("Authorization"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))

		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)

		w.Header().Set("Content-Type", "application/json")
		switch offset {
		case "0":
			json.NewEncoder(w).Encode(makeUsers(0, 100))
		case "100":
			json.NewEncoder(w).Encode(map[string]interface{}{"data": makeUsers(100, 1)})
		default:
			t.Errorf("unexpected offset %s", offset)
		}
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).FetchAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, records, 101)
	assert.Equal(t, []string{"0", "100"}, offsets)
	assert.Equal(t, "user0@example.com", records[0].CanonicalEmail)
	assert.Equal(t, "user100@example.com", records[100].CanonicalEmail)
	assert.Equal(t, entity.SourceClerk, records[100].Source)
}

func TestClient_FetchAll_EmptyFirstPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).FetchAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClient_FetchAll_PrimaryIdentifiers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{
				"id": "user_primary",
				"primary_email_address_id": "idn_2",
				"primary_phone_number_id": "idn_p2",
				"email_addresses": [
					{"id": "idn_1", "email_address": "old@example.com"},
					{"id": "idn_2", "email_address": "Jane@Example.com"}
				],
				"phone_numbers": [
					{"id": "idn_p1", "phone_number": "+1 (555) 000-0000"},
					{"id": "idn_p2", "phone_number": "(555) 123-4567"}
				]
			},
			{
				"id": "user_fallback",
				"primary_email_address_id": null,
				"email_addresses": [
					{"id": "idn_3", "email_address": "first@example.com"},
					{"id": "idn_4", "email_address": "second@example.com"}
				],
				"phone_numbers": []
			},
			{
				"id": "user_no_email",
				"email_addresses": [],
				"phone_numbers": [{"id": "idn_p5", "phone_number": "5550001111"}]
			}
		]`))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).FetchAll(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, entity.ContactRecord{
		Source:          entity.SourceClerk,
		ExternalID:      "user_primary",
		CanonicalEmail:  "jane@example.com",
		NormalizedPhone: "15551234567",
	}, records[0])

	assert.Equal(t, "first@example.com", records[1].CanonicalEmail)
	assert.Empty(t, records[1].NormalizedPhone)
}

func TestClient_FetchAll_NonSuccessStatus(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("offset") == "0" {
			json.NewEncoder(w).Encode(makeUsers(0, 100))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"errors":[{"code":"rate_limit_exceeded"}]}`))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).FetchAll(context.Background())

	require.Error(t, err)
	assert.Nil(t, records)
	assert.Equal(t, 2, calls)

	var fetchErr *domainErrors.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "clerk", fetchErr.Source)
	assert.Equal(t, http.StatusTooManyRequests, fetchErr.StatusCode)
	assert.Contains(t, fetchErr.Body, "rate_limit_exceeded")
}

func TestClient_FetchAll_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": "nope"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchAll(context.Background())

	var fetchErr *domainErrors.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "decode")
}
