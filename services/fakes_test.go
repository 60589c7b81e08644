package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"safecampus/database"
	"safecampus/models"
	"safecampus/storage"
)

type memReports struct {
	mu        sync.Mutex
	seq       int
	rows      map[string]*models.Report
	order     map[string]int
	now       func() time.Time
	createErr error
}

func newMemReports(now func() time.Time) *memReports {
	return &memReports{rows: make(map[string]*models.Report), order: make(map[string]int), now: now}
}

func (m *memReports) Create(ctx context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	r.Timestamp = m.now()
	cp := *r
	m.rows[r.ID] = &cp
	m.seq++
	m.order[r.ID] = m.seq
	return nil
}

func (m *memReports) Get(ctx context.Context, id string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memReports) sorted(desc bool) []models.Report {
	out := make([]models.Report, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp) != desc
		}
		return (m.order[a.ID] < m.order[b.ID]) != desc
	})
	return out
}

func (m *memReports) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Report{}
	for _, r := range m.sorted(true) {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.University != "" && r.University != filter.University {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memReports) ListOldestFirst(ctx context.Context) ([]models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(false), nil
}

func (m *memReports) Update(ctx context.Context, id string, status, adminNotes *string) (*models.Report, error) {
	m.mu.Lock()
	r, ok := m.rows[id]
	if ok {
		if status != nil {
			r.Status = *status
		}
		if adminNotes != nil {
			r.AdminNotes = *adminNotes
		}
	}
	m.mu.Unlock()
	if !ok {
		return nil, database.ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *memReports) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memReports) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memBlobs struct {
	mu        sync.Mutex
	n         int
	blobs     map[string][]byte
	deleteErr map[string]error
	deleted   []string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: make(map[string][]byte), deleteErr: make(map[string]error)}
}

func (m *memBlobs) Store(ctx context.Context, u storage.Upload) (string, error) {
	data, err := io.ReadAll(io.LimitReader(u.Body, storage.MaxFileSize+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > storage.MaxFileSize {
		return "", storage.ErrTooLarge
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	url := storage.URLFor(fmt.Sprintf("evidence-%d-%s", m.n, u.Filename))
	m.blobs[url] = data
	return url, nil
}

func (m *memBlobs) Delete(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, url)
	if err := m.deleteErr[url]; err != nil {
		return err
	}
	delete(m.blobs, url)
	return nil
}

func (m *memBlobs) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[url]
	if !ok {
		return nil, storage.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

type memAdmins struct {
	byID map[string]*models.AdminUser
	err  error
}

func (m *memAdmins) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memAdmins) GetByID(ctx context.Context, id string) (*models.AdminUser, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.byID[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return a, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ReportEvent
	err    error
}

func (p *recordingPublisher) PublishReportEvent(ctx context.Context, ev models.ReportEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

var errBoom = errors.New("boom")
