package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/mapleads/internal/types"
)

// ToDelimitedText renders records as comma-separated text. Every field, the header
// included, is wrapped in double quotes with inner quotes doubled. Each row ends in "\n".
func ToDelimitedText(records []types.LeadRecord, columns []Column) string {
	var sb strings.Builder
	for _, row := range Rows(records, columns) {
		for i, field := range row {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte('"')
			sb.WriteString(strings.ReplaceAll(field, `"`, `""`))
			sb.WriteByte('"')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DefaultFileName returns the download name for an export made at now.
func DefaultFileName(now time.Time) string {
	return fmt.Sprintf("mapleads_%d.csv", now.UnixMilli())
}

// WriteFile writes the delimited text of records to path, creating parent directories.
// A nil columns selects CSVColumns.
func WriteFile(path string, records []types.LeadRecord, columns []Column) error {
	if columns == nil {
		columns = CSVColumns()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(ToDelimitedText(records, columns)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
