package ui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/kxo/internal/models"
)

var (
	_ list.Item = exportItem{}
)

// exportItem wraps [models.ExportRecord] to implement [list.Item].
type exportItem struct {
	record *models.ExportRecord
}

func (i exportItem) FilterValue() string { return i.record.Path() }
func (i exportItem) Title() string       { return filepath.Base(i.record.Path()) }
func (i exportItem) Description() string {
	desc := fmt.Sprintf("%d rows • %s", i.record.Rows(), i.record.CreatedAt().Local().Format(time.DateTime))
	if i.record.SearchTerm() != "" {
		desc = fmt.Sprintf("%s • search %q", desc, i.record.SearchTerm())
	}
	return desc
}
