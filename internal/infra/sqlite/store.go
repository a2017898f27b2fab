// Package sqlite implements the lead/project store on a local SQLite
// database. Writes go through a single connection, which serializes
// concurrent status updates on top of the compare-and-swap guard.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	company_name TEXT NOT NULL,
	industry TEXT NOT NULL,
	contact_email TEXT,
	access_code_hash TEXT NOT NULL,
	access_code_hint TEXT NOT NULL,
	diagnosis_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	lead_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	status TEXT NOT NULL,
	selected_modules_json TEXT NOT NULL,
	notes TEXT,
	FOREIGN KEY (lead_id) REFERENCES leads(id)
);

CREATE INDEX IF NOT EXISTS idx_projects_lead_id ON projects(lead_id);

CREATE TABLE IF NOT EXISTS access_credentials (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	service_name TEXT NOT NULL,
	secret_enc TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (project_id) REFERENCES projects(id)
);

CREATE INDEX IF NOT EXISTS idx_credentials_project_id ON access_credentials(project_id);
`

// Store is the SQLite-backed lead/project store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path and initializes the
// schema. WAL mode and a single write connection avoid "database locked"
// errors under concurrent requests.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, ":memory:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Leads ---

// CreateLead persists a lead with its serialized diagnosis. This is the
// single atomic persistence point of the diagnosis pipeline; failures are
// surfaced as ErrPersistence because losing a lead is business-critical.
func (s *Store) CreateLead(ctx context.Context, lead *domain.Lead) error {
	diagJSON, err := json.Marshal(lead.Diagnosis)
	if err != nil {
		return &domain.ErrPersistence{Op: "create_lead", Err: err}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leads (id, created_at, company_name, industry, contact_email, access_code_hash, access_code_hint, diagnosis_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, lead.ID, lead.CreatedAt, lead.CompanyName, lead.Industry, lead.ContactEmail,
		lead.AccessCodeHash, lead.AccessCodeHint, string(diagJSON))
	if err != nil {
		s.logger.Error("sqlite: failed to insert lead",
			zap.String("lead_id", lead.ID),
			zap.Error(err),
		)
		return &domain.ErrPersistence{Op: "create_lead", Err: err}
	}
	return nil
}

// GetLead loads a lead and its stored diagnosis.
func (s *Store) GetLead(ctx context.Context, leadID string) (*domain.Lead, error) {
	lead := &domain.Lead{}
	var diagJSON string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, company_name, industry, contact_email, access_code_hint, diagnosis_json
		FROM leads WHERE id = ?
	`, leadID).Scan(&lead.ID, &lead.CreatedAt, &lead.CompanyName, &lead.Industry,
		&lead.ContactEmail, &lead.AccessCodeHint, &diagJSON)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Resource: "lead", ID: leadID}
	}
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "get_lead", Err: err}
	}

	var diag domain.Diagnosis
	if err := json.Unmarshal([]byte(diagJSON), &diag); err != nil {
		return nil, &domain.ErrPersistence{Op: "get_lead", Err: err}
	}
	lead.Diagnosis = &diag
	return lead, nil
}

// GetLeadAuth loads only the fields needed to validate a portal login.
func (s *Store) GetLeadAuth(ctx context.Context, leadID string) (*domain.LeadAuth, error) {
	auth := &domain.LeadAuth{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, contact_email, access_code_hash FROM leads WHERE id = ?
	`, leadID).Scan(&auth.LeadID, &auth.ContactEmail, &auth.AccessCodeHash)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Resource: "lead", ID: leadID}
	}
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "get_lead_auth", Err: err}
	}
	return auth, nil
}

// --- Projects ---

// CreateProject inserts a project for an existing lead. Unknown lead ids
// fail with ErrNotFound.
func (s *Store) CreateProject(ctx context.Context, project *domain.Project) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM leads WHERE id = ?`, project.LeadID).Scan(&exists)
	if err == sql.ErrNoRows {
		return &domain.ErrNotFound{Resource: "lead", ID: project.LeadID}
	}
	if err != nil {
		return &domain.ErrPersistence{Op: "create_project", Err: err}
	}

	modulesJSON, err := json.Marshal(project.SelectedModules)
	if err != nil {
		return &domain.ErrPersistence{Op: "create_project", Err: err}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, lead_id, created_at, updated_at, status, selected_modules_json, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, project.ID, project.LeadID, project.CreatedAt, project.UpdatedAt,
		string(project.Status), string(modulesJSON), project.Notes)
	if err != nil {
		s.logger.Error("sqlite: failed to insert project",
			zap.String("project_id", project.ID),
			zap.String("lead_id", project.LeadID),
			zap.Error(err),
		)
		return &domain.ErrPersistence{Op: "create_project", Err: err}
	}
	return nil
}

// GetProject loads a project by id.
func (s *Store) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	project := &domain.Project{}
	var status, modulesJSON string
	var notes sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, lead_id, created_at, updated_at, status, selected_modules_json, notes
		FROM projects WHERE id = ?
	`, projectID).Scan(&project.ID, &project.LeadID, &project.CreatedAt,
		&project.UpdatedAt, &status, &modulesJSON, &notes)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Resource: "project", ID: projectID}
	}
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "get_project", Err: err}
	}

	project.Status = domain.ProjectStatus(status)
	project.Notes = notes.String
	if err := json.Unmarshal([]byte(modulesJSON), &project.SelectedModules); err != nil {
		return nil, &domain.ErrPersistence{Op: "get_project", Err: err}
	}
	return project, nil
}

// AdvanceStatus moves a project's status from expected to next with a
// compare-and-swap UPDATE. A mismatch yields ErrConflict carrying the
// actual stored status; an unknown id yields ErrNotFound.
func (s *Store) AdvanceStatus(ctx context.Context, projectID string, expected, next domain.ProjectStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`, string(next), time.Now().UTC(), projectID, string(expected))
	if err != nil {
		return &domain.ErrPersistence{Op: "advance_status", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &domain.ErrPersistence{Op: "advance_status", Err: err}
	}
	if affected > 0 {
		return nil
	}

	var actual string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM projects WHERE id = ?`, projectID).Scan(&actual)
	if err == sql.ErrNoRows {
		return &domain.ErrNotFound{Resource: "project", ID: projectID}
	}
	if err != nil {
		return &domain.ErrPersistence{Op: "advance_status", Err: err}
	}
	return &domain.ErrConflict{Resource: "project", Expected: string(expected), Actual: actual}
}

// --- Credentials ---

// AddCredential stores an already-encrypted credential secret for a
// project. Unknown project ids fail with ErrNotFound.
func (s *Store) AddCredential(ctx context.Context, cred *domain.AccessCredential) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ?`, cred.ProjectID).Scan(&exists)
	if err == sql.ErrNoRows {
		return &domain.ErrNotFound{Resource: "project", ID: cred.ProjectID}
	}
	if err != nil {
		return &domain.ErrPersistence{Op: "add_credential", Err: err}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO access_credentials (id, project_id, service_name, secret_enc, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, cred.ID, cred.ProjectID, cred.ServiceName, cred.EncryptedSecret, cred.CreatedAt)
	if err != nil {
		return &domain.ErrPersistence{Op: "add_credential", Err: err}
	}
	return nil
}

// ListCredentials returns a project's credentials with their encrypted
// secrets; callers decide whether to decrypt.
func (s *Store) ListCredentials(ctx context.Context, projectID string) ([]domain.AccessCredential, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, service_name, secret_enc, created_at
		FROM access_credentials WHERE project_id = ? ORDER BY created_at
	`, projectID)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "list_credentials", Err: err}
	}
	defer rows.Close()

	var creds []domain.AccessCredential
	for rows.Next() {
		var c domain.AccessCredential
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.ServiceName, &c.EncryptedSecret, &c.CreatedAt); err != nil {
			return nil, &domain.ErrPersistence{Op: "list_credentials", Err: err}
		}
		creds = append(creds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.ErrPersistence{Op: "list_credentials", Err: err}
	}
	return creds, nil
}
