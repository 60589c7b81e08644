package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"safecampus/models"
)

const reportColumns = `id, type, university, description, evidence_url, evidence_urls, status,
	client_id, platform, platform_profile, suspect_name, suspect_username, suspect_contact,
	incident_date, incident_location, witnesses, victim_contact, admin_notes, created_at`

// ReportStore persists incident reports in MySQL.
type ReportStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewReportStore creates a report store over db.
func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db, now: time.Now}
}

// Create inserts r and stamps its creation time. r.ID must already be set.
func (s *ReportStore) Create(ctx context.Context, r *models.Report) error {
	evidence, err := encodeEvidence(r.EvidenceURLs)
	if err != nil {
		return err
	}
	r.Timestamp = s.now().UTC().Truncate(time.Microsecond)

	_, err = s.db.ExecContext(ctx, `INSERT INTO reports (`+reportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Type, r.University, r.Description, r.EvidenceURL, evidence, r.Status,
		r.ClientID, r.Platform, r.PlatformProfile, r.SuspectName, r.SuspectUsername, r.SuspectContact,
		r.IncidentDate, r.IncidentLocation, r.Witnesses, r.VictimContact, r.AdminNotes, r.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// Get returns the report with the given id or ErrNotFound.
func (s *ReportStore) Get(ctx context.Context, id string) (*models.Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report %s: %w", id, err)
	}
	return r, nil
}

// List returns the reports matching filter, newest first.
func (s *ReportStore) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.University != "" {
		where = append(where, "university = ?")
		args = append(args, filter.University)
	}

	query := `SELECT ` + reportColumns + ` FROM reports`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, seq DESC"

	return s.query(ctx, query, args...)
}

// ListOldestFirst returns every report in creation order.
func (s *ReportStore) ListOldestFirst(ctx context.Context) ([]models.Report, error) {
	return s.query(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY created_at ASC, seq ASC`)
}

// Update applies the non-nil fields and returns the stored report.
func (s *ReportStore) Update(ctx context.Context, id string, status, adminNotes *string) (*models.Report, error) {
	var (
		sets []string
		args []interface{}
	)
	if status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *status)
	}
	if adminNotes != nil {
		sets = append(sets, "admin_notes = ?")
		args = append(args, *adminNotes)
	}

	if len(sets) > 0 {
		args = append(args, id)
		query := fmt.Sprintf("UPDATE reports SET %s WHERE id = ?", strings.Join(sets, ", "))
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to update report %s: %w", id, err)
		}
	}

	return s.Get(ctx, id)
}

// Delete removes the report row. It returns ErrNotFound when nothing was deleted.
func (s *ReportStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ReportStore) query(ctx context.Context, query string, args ...interface{}) ([]models.Report, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reports: %w", err)
	}
	return reports, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row scanner) (*models.Report, error) {
	var (
		r           models.Report
		evidenceURL sql.NullString
		evidence    sql.NullString
	)
	err := row.Scan(&r.ID, &r.Type, &r.University, &r.Description, &evidenceURL, &evidence, &r.Status,
		&r.ClientID, &r.Platform, &r.PlatformProfile, &r.SuspectName, &r.SuspectUsername, &r.SuspectContact,
		&r.IncidentDate, &r.IncidentLocation, &r.Witnesses, &r.VictimContact, &r.AdminNotes, &r.Timestamp)
	if err != nil {
		return nil, err
	}
	if evidenceURL.Valid {
		v := evidenceURL.String
		r.EvidenceURL = &v
	}
	r.EvidenceURLs = []string{}
	if evidence.Valid && evidence.String != "" {
		if err := json.Unmarshal([]byte(evidence.String), &r.EvidenceURLs); err != nil {
			return nil, fmt.Errorf("bad evidence list for report %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

func encodeEvidence(urls []string) (string, error) {
	if urls == nil {
		urls = []string{}
	}
	b, err := json.Marshal(urls)
	if err != nil {
		return "", fmt.Errorf("failed to encode evidence list: %w", err)
	}
	return string(b), nil
}
