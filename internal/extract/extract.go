package extract

import (
	"fmt"
	"log/slog"

	"github.com/jonathan/mapleads/internal/types"
)

// Extractor turns feed items into lead records.
type Extractor struct {
	fields []Field
	logger *slog.Logger
}

// New creates an extractor. A nil fields slice selects DefaultFields.
func New(fields []Field, logger *slog.Logger) *Extractor {
	if fields == nil {
		fields = DefaultFields()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{fields: fields, logger: logger.With("component", "extract")}
}

// Extract converts items into records, preserving feed order.
// Items without a primary link are dropped. A miss on any field degrades only that field.
func Extract(items []Item) []types.LeadRecord {
	return New(nil, nil).Extract(items)
}

// Extract converts items into records, preserving feed order.
func (e *Extractor) Extract(items []Item) []types.LeadRecord {
	records := make([]types.LeadRecord, 0, len(items))
	occurrences := make(map[string]int)
	dropped := 0

	for _, item := range items {
		rec, ok := e.extractOne(item)
		if !ok {
			dropped++
			continue
		}
		rec.ID = types.NewRecordID(rec.Href, occurrences[rec.Href])
		occurrences[rec.Href]++
		records = append(records, rec)
	}

	e.logger.Debug("extracted feed items", "items", len(items), "records", len(records), "dropped", dropped)
	return records
}

func (e *Extractor) extractOne(item Item) (rec types.LeadRecord, ok bool) {
	if item == nil {
		return rec, false
	}

	href, ok := safeCall(func() (string, bool) { return item.PrimaryLink() })
	if !ok {
		return rec, false
	}
	rec.Href = href

	text, _ := safeCall(func() (string, bool) { return item.Text(), true })
	c := &Context{Item: item, Lines: Lines(text), RawLines: RawLines(text), Record: &rec}

	for _, f := range e.fields {
		f.Set(&rec, e.resolve(f, c))
	}
	return rec, true
}

func (e *Extractor) resolve(f Field, c *Context) string {
	for _, strategy := range f.Strategies {
		v, ok := safeCall(func() (string, bool) { return strategy(c) })
		if ok && v != "" {
			return v
		}
	}
	return f.Default
}

// safeCall runs fn and converts a panic into a miss.
func safeCall(fn func() (string, bool)) (v string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("extraction strategy panicked", "component", "extract", "panic", fmt.Sprint(r))
			v, ok = "", false
		}
	}()
	return fn()
}
