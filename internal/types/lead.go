// Package types provides type definitions for structured data used throughout the mapleads system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// LeadRecord is one listing discovered in the results feed.
// Every field except Href degrades to an empty or placeholder value.
type LeadRecord struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Rating      string    `json:"rating"`      // "N/A" when absent
	ReviewCount string    `json:"reviewCount"` // numeric string, "0" when absent
	Phone       string    `json:"phone"`
	Industry    string    `json:"industry"`
	Address     string    `json:"address"` // raw joined item text
	CompanyURL  string    `json:"companyUrl"`
	Href        string    `json:"href" validate:"required"`

	// Enrichment is nil until the record has been enriched.
	Enrichment *EnrichmentResult `json:"-"`
}

// NewRecordID derives a stable identity for a listing from its link.
// occurrence distinguishes repeated links within a single feed (0 for the first).
func NewRecordID(href string, occurrence int) uuid.UUID {
	name := href
	if occurrence > 0 {
		name = fmt.Sprintf("%s#%d", href, occurrence)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name))
}

// AssignIDs returns a copy of records where every record without an ID gets
// the one NewRecordID derives from its link and its occurrence count.
func AssignIDs(records []LeadRecord) []LeadRecord {
	out := make([]LeadRecord, len(records))
	seen := make(map[string]int, len(records))
	for i, r := range records {
		if r.ID == uuid.Nil {
			r.ID = NewRecordID(r.Href, seen[r.Href])
		}
		seen[r.Href]++
		out[i] = r
	}
	return out
}

// ValidateRecord checks the structural invariants of a record.
func ValidateRecord(r *LeadRecord) error {
	return validate.Struct(r)
}

// WithEnrichment returns a copy of the record carrying the given result.
// Extraction fields are left untouched.
func (r LeadRecord) WithEnrichment(res EnrichmentResult) LeadRecord {
	r.Enrichment = &res
	return r
}

// MarshalJSON flattens the enrichment fields next to the extraction fields,
// matching the row shape consumed by exporters and the HTTP API.
func (r LeadRecord) MarshalJSON() ([]byte, error) {
	type plain LeadRecord
	return json.Marshal(struct {
		plain
		*EnrichmentResult
	}{plain(r), r.Enrichment})
}

// UnmarshalJSON reverses MarshalJSON. Enrichment is set only when seo_health is present.
func (r *LeadRecord) UnmarshalJSON(data []byte) error {
	type plain LeadRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	*r = LeadRecord(p)
	if _, ok := keys["seo_health"]; ok {
		var res EnrichmentResult
		if err := json.Unmarshal(data, &res); err != nil {
			return err
		}
		r.Enrichment = &res
	}
	return nil
}
