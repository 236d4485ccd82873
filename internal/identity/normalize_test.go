package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"national formatting", "(555) 123-4567", "15551234567"},
		{"e164", "+15551234567", "15551234567"},
		{"bare national", "5551234567", "15551234567"},
		{"non-breaking hyphen", "555‑123‑4567", "15551234567"},
		{"en dash and tabs", "555–123\t4567", "15551234567"},
		{"fullwidth digits", "５５５１２３４５６７", "15551234567"},
		{"international kept", "+44 20 7946 0958", "442079460958"},
		{"short number untouched", "123-45", "12345"},
		{"extension text kept", "555-123-4567 x9", "5551234567x9"},
		{"empty", "", ""},
		{"only formatting", " ( ) - + ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.raw))
		})
	}
}

func TestNormalizePhoneIsIdempotent(t *testing.T) {
	for _, raw := range []string{"(555) 123-4567", "+44 20 7946 0958", "555.123.4567", ""} {
		once := NormalizePhone(raw)
		assert.Equal(t, once, NormalizePhone(once), raw)
	}
}

func TestSamePhone(t *testing.T) {
	assert.True(t, SamePhone("(555) 123-4567", "+15551234567"))
	assert.False(t, SamePhone("", ""))
	assert.False(t, SamePhone("(555) 123-4567", "(555) 123-4568"))
}

func TestCanonicalEmail(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Jane@Example.com", "jane@example.com"},
		{"  jane@example.com\n", "jane@example.com"},
		{"ＪＡＮＥ@example.com", "ｊａｎｅ@example.com"},
		{"ÉLODIE@Example.fr", "élodie@example.fr"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalEmail(tt.raw), tt.raw)
	}
	assert.Equal(t, CanonicalEmail("Jane@Example.com"), CanonicalEmail("jane@example.com"))
}
