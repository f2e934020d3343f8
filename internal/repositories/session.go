package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/kxo/internal/models"
	"github.com/desertthunder/kxo/internal/shared"
)

var _ models.Repository[*models.Session] = (*SessionRepository)(nil)

const sessionColumns = `id, base_url, cookies, is_admin, verified_at, created_at, updated_at`

// SessionRepository implements [models.Repository] for [models.Session] persistence.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session with a generated ID
func (r *SessionRepository) Create(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	cookies, err := json.Marshal(session.Cookies())
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO sessions (id, base_url, cookies, is_admin, verified_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, session.BaseURL(), string(cookies), session.IsAdmin(),
		nullTime(session.VerifiedAt()), session.CreatedAt(), session.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	session.SetID(id)
	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	row := r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return session, nil
}

// GetByBaseURL retrieves the session for an API base URL
func (r *SessionRepository) GetByBaseURL(baseURL string) (*models.Session, error) {
	row := r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE base_url = ?`, baseURL)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, baseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return session, nil
}

// FindOrCreate returns the session for baseURL, creating an empty one on first use
func (r *SessionRepository) FindOrCreate(baseURL string) (*models.Session, error) {
	session, err := r.GetByBaseURL(baseURL)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, shared.ErrSessionNotFound) {
		return nil, err
	}

	session = models.NewSession(baseURL)
	if err := r.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Update persists cookies, the admin hint and verification time
func (r *SessionRepository) Update(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	cookies, err := json.Marshal(session.Cookies())
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	now := time.Now().UTC()
	query := `
		UPDATE sessions
		SET cookies = ?, is_admin = ?, verified_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, string(cookies), session.IsAdmin(), nullTime(session.VerifiedAt()), now, session.ID())
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if err := expectOneRow(result, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, session.ID())); err != nil {
		return err
	}

	session.SetUpdatedAt(now)
	return nil
}

// Delete removes a session by ID. Exports referencing it keep their rows with a NULL session.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return expectOneRow(result, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id))
}

// List retrieves sessions, optionally filtered by "is_admin" (bool)
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1 = 1`
	args := []any{}

	if admin, ok := criteria["is_admin"].(bool); ok {
		query += " AND is_admin = ?"
		args = append(args, admin)
	}

	query += " ORDER BY updated_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

func scanSession(row scanner) (*models.Session, error) {
	var (
		id         string
		baseURL    string
		rawCookies string
		isAdmin    bool
		verifiedAt sql.NullTime
		createdAt  time.Time
		updatedAt  time.Time
	)

	if err := row.Scan(&id, &baseURL, &rawCookies, &isAdmin, &verifiedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var cookies []models.StoredCookie
	if err := json.Unmarshal([]byte(rawCookies), &cookies); err != nil {
		return nil, fmt.Errorf("failed to decode cookies for session %s: %w", id, err)
	}

	session := models.NewSession(baseURL)
	session.SetID(id)
	session.SetCookies(cookies)
	session.SetCreatedAt(createdAt)
	session.SetUpdatedAt(updatedAt)
	if isAdmin {
		session.MarkAdmin(true, updatedAt)
	}
	if verifiedAt.Valid {
		session.SetVerifiedAt(&verifiedAt.Time)
	} else {
		session.SetVerifiedAt(nil)
	}

	return session, nil
}
