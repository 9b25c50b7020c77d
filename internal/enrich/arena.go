package enrich

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/mapleads/internal/types"
)

// Arena holds the records of one enrichment request in extraction order.
// Concurrent merges are safe; each merge touches only its own record.
type Arena struct {
	mu      sync.Mutex
	records []types.LeadRecord
	byID    map[uuid.UUID][]int
}

// NewArena snapshots records. Records sharing an ID are all kept.
func NewArena(records []types.LeadRecord) *Arena {
	a := &Arena{
		records: make([]types.LeadRecord, len(records)),
		byID:    make(map[uuid.UUID][]int, len(records)),
	}
	copy(a.records, records)
	for i, r := range a.records {
		a.byID[r.ID] = append(a.byID[r.ID], i)
	}
	return a
}

// Merge attaches an outcome to its record, leaving the extraction fields
// untouched. The outcome's Index wins when it points at a record with the
// same ID; otherwise the first not yet enriched record with that ID is used.
// It reports false when no record matches.
func (a *Arena) Merge(o Outcome) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	i, ok := a.locate(o)
	if !ok {
		return false
	}
	a.records[i] = a.records[i].WithEnrichment(o.Result)
	return true
}

func (a *Arena) locate(o Outcome) (int, bool) {
	if o.Index >= 0 && o.Index < len(a.records) && a.records[o.Index].ID == o.ID {
		return o.Index, true
	}
	for _, i := range a.byID[o.ID] {
		if a.records[i].Enrichment == nil {
			return i, true
		}
	}
	return 0, false
}

// Records returns a copy of the records in extraction order.
func (a *Arena) Records() []types.LeadRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]types.LeadRecord, len(a.records))
	copy(out, a.records)
	return out
}

// Len returns the number of records.
func (a *Arena) Len() int {
	return len(a.records)
}

// Stats counts enriched records and the ones that fell back.
func (a *Arena) Stats() (enriched, failed int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, rec := range a.records {
		if rec.Enrichment == nil {
			continue
		}
		enriched++
		if rec.Enrichment.IsFallback() {
			failed++
		}
	}
	return enriched, failed
}
