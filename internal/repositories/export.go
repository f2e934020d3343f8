package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/kxo/internal/models"
	"github.com/desertthunder/kxo/internal/shared"
)

var _ models.Repository[*models.ExportRecord] = (*ExportRepository)(nil)

const exportColumns = `id, COALESCE(session_id, ''), path, row_count, search_term, created_at`

// ExportRepository implements [models.Repository] for [models.ExportRecord] persistence.
type ExportRepository struct {
	db *sql.DB
}

// NewExportRepository creates a new [ExportRepository] with the given database connection
func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create records an export with a generated ID
func (r *ExportRepository) Create(record *models.ExportRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var sessionID sql.NullString
	if record.SessionID() != "" {
		sessionID = sql.NullString{String: record.SessionID(), Valid: true}
	}

	id := shared.GenerateID()
	query := `
		INSERT INTO exports (id, session_id, path, row_count, search_term, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, id, sessionID, record.Path(), record.Rows(), record.SearchTerm(), record.CreatedAt()); err != nil {
		return fmt.Errorf("failed to insert export: %w", err)
	}

	record.SetID(id)
	return nil
}

// Get retrieves an export by ID
func (r *ExportRepository) Get(id string) (*models.ExportRecord, error) {
	record, err := scanExport(r.db.QueryRow(`SELECT `+exportColumns+` FROM exports WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("export not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query export: %w", err)
	}
	return record, nil
}

// Delete removes an export record. The CSV file itself is left alone.
func (r *ExportRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM exports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}
	return expectOneRow(result, fmt.Errorf("export not found: %s", id))
}

// List retrieves exports newest first.
//
// Supported criteria: "session_id" (string) and "limit" (int).
func (r *ExportRepository) List(criteria map[string]any) ([]*models.ExportRecord, error) {
	query := `SELECT ` + exportColumns + ` FROM exports WHERE 1 = 1`
	args := []any{}

	if sessionID, ok := criteria["session_id"].(string); ok && sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}

	query += " ORDER BY created_at DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exports: %w", err)
	}
	defer rows.Close()

	var records []*models.ExportRecord
	for rows.Next() {
		record, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

func scanExport(row scanner) (*models.ExportRecord, error) {
	var (
		id         string
		sessionID  string
		path       string
		rows       int
		searchTerm string
		createdAt  time.Time
	)

	if err := row.Scan(&id, &sessionID, &path, &rows, &searchTerm, &createdAt); err != nil {
		return nil, err
	}

	record := models.NewExportRecord(sessionID, path, rows, searchTerm)
	record.SetID(id)
	record.SetCreatedAt(createdAt)
	return record, nil
}
