package usecase

import (
	"sort"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
)

// Index keys contacts by canonical email. A duplicate email inside one source keeps the last record seen.
func Index(contacts []entity.ContactRecord) map[string]entity.ContactRecord {
	index := make(map[string]entity.ContactRecord, len(contacts))
	for _, c := range contacts {
		if c.CanonicalEmail == "" {
			continue
		}
		index[c.CanonicalEmail] = c
	}
	return index
}

// Difference returns the keys of a that are absent from b, sorted
func Difference[A, B any](a map[string]A, b map[string]B) []string {
	diff := make([]string, 0)
	for key := range a {
		if _, ok := b[key]; !ok {
			diff = append(diff, key)
		}
	}
	sort.Strings(diff)
	return diff
}

// Enrich pairs every contact with its billing summary, or the not_in_source sentinel
// when the payment processor does not know the email. Entries are ordered by email.
func Enrich(contacts map[string]entity.ContactRecord, summaries map[string]entity.SubscriptionSummary) []entity.ReconciledEntry {
	entries := make([]entity.ReconciledEntry, 0, len(contacts))
	for email, contact := range contacts {
		summary, ok := summaries[email]
		if !ok {
			summary = entity.NotInSourceSummary(email)
		}
		entries = append(entries, entity.ReconciledEntry{
			Contact: contact,
			Summary: summary,
		})
	}
	sortEntries(entries)
	return entries
}

// EnrichKeys enriches only the listed emails of the contact set
func EnrichKeys(keys []string, contacts map[string]entity.ContactRecord, summaries map[string]entity.SubscriptionSummary) []entity.ReconciledEntry {
	subset := make(map[string]entity.ContactRecord, len(keys))
	for _, key := range keys {
		if contact, ok := contacts[key]; ok {
			subset[key] = contact
		}
	}
	return Enrich(subset, summaries)
}

// SyncSet is the enrichment of every contact plus every payment-processor identity
// the contact set lacks, so each known identity gets exactly one write
func SyncSet(contacts map[string]entity.ContactRecord, summaries map[string]entity.SubscriptionSummary) []entity.ReconciledEntry {
	entries := Enrich(contacts, summaries)
	for _, email := range Difference(summaries, contacts) {
		entries = append(entries, entity.ReconciledEntry{
			Contact: entity.ContactRecord{
				Source:         entity.SourceStripe,
				ExternalID:     summaries[email].CustomerID,
				CanonicalEmail: email,
			},
			Summary: summaries[email],
		})
	}
	sortEntries(entries)
	return entries
}

func sortEntries(entries []entity.ReconciledEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Email() < entries[j].Email()
	})
}
