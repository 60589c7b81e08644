package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"safecampus/database"
	"safecampus/metrics"
	"safecampus/models"
	"safecampus/storage"

	"github.com/apex/log"
	"github.com/google/uuid"
)

const (
	EventReportCreated = "report.created"
	EventReportUpdated = "report.updated"
	EventReportDeleted = "report.deleted"
)

// ReportRepository persists reports.
type ReportRepository interface {
	Create(ctx context.Context, r *models.Report) error
	Get(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	ListOldestFirst(ctx context.Context) ([]models.Report, error)
	Update(ctx context.Context, id string, status, adminNotes *string) (*models.Report, error)
	Delete(ctx context.Context, id string) error
}

// EventPublisher receives report lifecycle events.
type EventPublisher interface {
	PublishReportEvent(ctx context.Context, ev models.ReportEvent) error
}

// CreateReportInput is the text part of a report submission. Empty optional
// fields get their defaults.
type CreateReportInput struct {
	Type             string
	University       string
	Description      string
	ClientID         string
	Platform         string
	PlatformProfile  string
	SuspectName      string
	SuspectUsername  string
	SuspectContact   string
	IncidentDate     string
	IncidentLocation string
	Witnesses        string
	VictimContact    string
}

// ReportService implements the report lifecycle.
type ReportService struct {
	reports ReportRepository
	blobs   storage.BlobStore
	events  EventPublisher
	newID   func() string
	now     func() time.Time
}

// NewReportService creates a report service. events may be nil.
func NewReportService(reports ReportRepository, blobs storage.BlobStore, events EventPublisher) *ReportService {
	return &ReportService{
		reports: reports,
		blobs:   blobs,
		events:  events,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Create validates and stores a new report with its evidence files and
// returns the generated id.
func (s *ReportService) Create(ctx context.Context, in CreateReportInput, uploads []storage.Upload) (string, error) {
	if strings.TrimSpace(in.Type) == "" || strings.TrimSpace(in.Description) == "" {
		return "", invalid("type and description are required")
	}
	if err := checkLengths(in); err != nil {
		return "", err
	}
	if len(uploads) > storage.MaxFiles {
		return "", ErrTooManyFiles
	}
	for _, u := range uploads {
		if u.Size > storage.MaxFileSize {
			return "", ErrPayloadTooLarge
		}
	}

	urls := make([]string, 0, len(uploads))
	for _, u := range uploads {
		url, err := s.blobs.Store(ctx, u)
		if err != nil {
			metrics.EvidenceFilesTotal.WithLabelValues("store", "error").Inc()
			s.discard(urls)
			if errors.Is(err, storage.ErrTooLarge) {
				return "", ErrPayloadTooLarge
			}
			return "", fmt.Errorf("failed to store evidence: %w", err)
		}
		metrics.EvidenceFilesTotal.WithLabelValues("store", "ok").Inc()
		urls = append(urls, url)
	}

	r := newReport(in, urls)
	r.ID = s.newID()
	if err := s.reports.Create(ctx, r); err != nil {
		s.discard(urls)
		return "", err
	}

	metrics.ReportsCreatedTotal.Inc()
	log.WithFields(log.Fields{"report_id": r.ID, "evidence": len(urls)}).Info("Report created")
	s.publish(ctx, EventReportCreated, r)
	return r.ID, nil
}

const (
	// maxTextBytes is the capacity of a TEXT column.
	maxTextBytes = 65535
	// maxLabelChars bounds the indexed university and client id columns.
	maxLabelChars = 255
)

func checkLengths(in CreateReportInput) error {
	labels := []struct{ field, value string }{
		{"university", in.University},
		{"clientId", in.ClientID},
	}
	for _, l := range labels {
		if utf8.RuneCountInString(l.value) > maxLabelChars {
			return invalid(fmt.Sprintf("%s must be at most %d characters", l.field, maxLabelChars))
		}
	}

	texts := []struct{ field, value string }{
		{"type", in.Type},
		{"description", in.Description},
		{"platform", in.Platform},
		{"platformProfile", in.PlatformProfile},
		{"suspectName", in.SuspectName},
		{"suspectUsername", in.SuspectUsername},
		{"suspectContact", in.SuspectContact},
		{"incidentDate", in.IncidentDate},
		{"incidentLocation", in.IncidentLocation},
		{"witnesses", in.Witnesses},
		{"victimContact", in.VictimContact},
	}
	for _, t := range texts {
		if len(t.value) > maxTextBytes {
			return invalid(fmt.Sprintf("%s is too long", t.field))
		}
	}
	return nil
}

func newReport(in CreateReportInput, urls []string) *models.Report {
	r := &models.Report{
		Type:             in.Type,
		University:       orDefault(in.University, models.DefaultUniversity),
		Description:      in.Description,
		EvidenceURLs:     urls,
		Status:           models.StatusNew,
		ClientID:         orDefault(in.ClientID, models.DefaultClientID),
		Platform:         in.Platform,
		PlatformProfile:  in.PlatformProfile,
		SuspectName:      in.SuspectName,
		SuspectUsername:  in.SuspectUsername,
		SuspectContact:   in.SuspectContact,
		IncidentDate:     in.IncidentDate,
		IncidentLocation: in.IncidentLocation,
		Witnesses:        in.Witnesses,
		VictimContact:    in.VictimContact,
	}
	if len(urls) > 0 {
		first := urls[0]
		r.EvidenceURL = &first
	}
	return r
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// discard removes blobs stored for a submission that did not go through.
func (s *ReportService) discard(urls []string) {
	for _, url := range urls {
		if err := s.blobs.Delete(context.Background(), url); err != nil {
			log.Warnf("Failed to clean up evidence %s: %v", url, err)
		}
	}
}

// Update changes the status and/or admin notes of a report. A nil or blank
// status leaves the status unchanged; non-nil notes replace the old ones.
func (s *ReportService) Update(ctx context.Context, id string, status, adminNotes *string) (*models.ReportSummary, error) {
	if status != nil {
		trimmed := strings.TrimSpace(*status)
		if trimmed == "" {
			status = nil
		} else if !models.ValidStatus(trimmed) {
			return nil, invalid(fmt.Sprintf("invalid status %q", trimmed))
		} else {
			status = &trimmed
		}
	}

	r, err := s.reports.Update(ctx, id, status, adminNotes)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	metrics.ReportsUpdatedTotal.Inc()
	log.WithFields(log.Fields{"report_id": id, "status": r.Status}).Info("Report updated")
	s.publish(ctx, EventReportUpdated, r)

	return &models.ReportSummary{ID: r.ID, Status: r.Status, AdminNotes: r.AdminNotes}, nil
}

// Delete removes a report and its evidence. Blob removal is best effort;
// the record is deleted even when some blobs could not be.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	r, err := s.reports.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	for _, url := range r.EvidenceList() {
		if err := s.blobs.Delete(ctx, url); err != nil {
			metrics.EvidenceFilesTotal.WithLabelValues("delete", "error").Inc()
			log.WithFields(log.Fields{"report_id": id, "url": url}).Warnf("Failed to delete evidence: %v", err)
			continue
		}
		metrics.EvidenceFilesTotal.WithLabelValues("delete", "ok").Inc()
	}

	err = s.reports.Delete(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	metrics.ReportsDeletedTotal.Inc()
	log.WithField("report_id", id).Info("Report deleted")
	s.publish(ctx, EventReportDeleted, r)
	return nil
}

// List returns reports matching filter, newest first.
func (s *ReportService) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	filter.Status = strings.TrimSpace(filter.Status)
	filter.University = strings.TrimSpace(filter.University)
	return s.reports.List(ctx, filter)
}

// Get returns a single report.
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	r, err := s.reports.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	return r, err
}

// OpenEvidence streams a stored evidence blob by its retrieval URL.
func (s *ReportService) OpenEvidence(ctx context.Context, url string) (io.ReadCloser, error) {
	rc, err := s.blobs.Open(ctx, url)
	if errors.Is(err, storage.ErrNotExist) || errors.Is(err, storage.ErrNotOwned) {
		return nil, ErrNotFound
	}
	return rc, err
}

func (s *ReportService) publish(ctx context.Context, event string, r *models.Report) {
	if s.events == nil {
		return
	}
	ev := models.ReportEvent{
		Event:      event,
		ID:         r.ID,
		Type:       r.Type,
		University: r.University,
		Status:     r.Status,
		Evidence:   len(r.EvidenceList()),
		Timestamp:  s.now().UTC(),
	}
	if err := s.events.PublishReportEvent(ctx, ev); err != nil {
		log.WithField("report_id", r.ID).Warnf("Failed to publish %s: %v", event, err)
	}
}
