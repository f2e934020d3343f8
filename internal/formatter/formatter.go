// package formatter renders waitlist data as CSV exports, terminal tables and JSON
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/kxo/internal/models"
	"github.com/desertthunder/kxo/internal/shared"
)

const (
	// DefaultPrefix is the export filename prefix.
	DefaultPrefix = "kanairoxo-waitlist"

	// MissingPhone is written in place of an absent phone number.
	MissingPhone = "N/A"

	// TimestampLayout renders Joined At as ISO 8601 UTC with milliseconds.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// CSVHeader is the fixed header row of a waitlist export.
var CSVHeader = []string{"ID", "Name", "Email", "Phone", "Beta Tester", "Ambassador", "Joined At"}

// CSVRecord returns the export fields for one entry.
func CSVRecord(e models.WaitlistEntry) []string {
	phone := MissingPhone
	if e.HasPhone() {
		phone = e.Phone
	}

	joined := ""
	if !e.CreatedAt.IsZero() {
		joined = e.CreatedAt.UTC().Format(TimestampLayout)
	}

	return []string{
		strconv.FormatInt(e.ID, 10),
		e.Name,
		e.Email,
		phone,
		shared.YesNo(e.BetaTester),
		shared.YesNo(e.Ambassador),
		joined,
	}
}

// quoteCSV wraps a field in double quotes and doubles any embedded quote.
func quoteCSV(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func csvLine(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteCSV(f)
	}
	return strings.Join(quoted, ",")
}

// ExportToCSV converts entries to a CSV document: header first, every field quoted, rows joined by "\n" with no trailing newline.
func ExportToCSV(entries []models.WaitlistEntry) []byte {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, csvLine(CSVHeader))
	for _, e := range entries {
		lines = append(lines, csvLine(CSVRecord(e)))
	}
	return []byte(strings.Join(lines, "\n"))
}

// WriteWaitlistCSV writes the CSV document for entries to w.
func WriteWaitlistCSV(w io.Writer, entries []models.WaitlistEntry) error {
	if _, err := w.Write(ExportToCSV(entries)); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// Filename returns "<prefix>-<YYYY-MM-DD>.csv" for the UTC date of now.
func Filename(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s-%s.csv", prefix, now.UTC().Format(time.DateOnly))
}

// WaitlistFilename returns the default export filename for now.
func WaitlistFilename(now time.Time) string {
	return Filename(DefaultPrefix, now)
}

// WriteCSVExport writes entries to path, creating parent directories.
func WriteCSVExport(entries []models.WaitlistEntry, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}

	if err := WriteWaitlistCSV(f, entries); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close CSV file: %w", err)
	}
	return nil
}

// ExportToJSON renders entries as indented JSON with camelCase keys.
func ExportToJSON(entries []models.WaitlistEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.WaitlistEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode waitlist: %w", err)
	}
	return data, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// ExportToText renders entries as a bordered terminal table followed by a count line.
func ExportToText(entries []models.WaitlistEntry) []byte {
	var buf bytes.Buffer

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		record := CSVRecord(e)
		if !e.CreatedAt.IsZero() {
			record[6] = e.CreatedAt.UTC().Format(time.DateTime)
		}
		rows = append(rows, record)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(CSVHeader...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	buf.WriteString(t.Render())
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "%d members\n", len(entries))

	return buf.Bytes()
}
