package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"reflect"
	"testing"
	"time"

	"safecampus/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

var reportRowColumns = []string{
	"id", "type", "university", "description", "evidence_url", "evidence_urls", "status",
	"client_id", "platform", "platform_profile", "suspect_name", "suspect_username", "suspect_contact",
	"incident_date", "incident_location", "witnesses", "victim_contact", "admin_notes", "created_at",
}

func addReportRow(rows *sqlmock.Rows, id, typ, status, notes, evidence string, evidenceURL interface{}, ts time.Time) *sqlmock.Rows {
	return rows.AddRow(id, typ, "egerton", "something happened", evidenceURL, evidence, status,
		"anonymous", "", "", "", "", "", "", "", "", "", notes, ts)
}

func TestReportStoreCreate(t *testing.T) {
	it(func() {
		store := NewReportStore(db)
		store.now = func() time.Time { return fixedNow }

		first := "/uploads/evidence-1.png"
		r := &models.Report{
			ID:           "b9c1d1de-55a5-4d1c-9a1e-0c7f7b0d2f11",
			Type:         "harassment",
			University:   "egerton",
			Description:  "something happened",
			EvidenceURL:  &first,
			EvidenceURLs: []string{first, "/uploads/evidence-2.pdf"},
			Status:       models.StatusNew,
			ClientID:     "anonymous",
		}

		mock.ExpectExec("INSERT INTO reports").
			WithArgs(r.ID, r.Type, r.University, r.Description, r.EvidenceURL,
				`["/uploads/evidence-1.png","/uploads/evidence-2.pdf"]`, models.StatusNew,
				"anonymous", "", "", "", "", "", "", "", "", "", "", fixedNow).
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := store.Create(context.Background(), r); err != nil {
			t.Fatalf("Create: unexpected error %v", err)
		}
		if !r.Timestamp.Equal(fixedNow) {
			t.Errorf("Create: expected timestamp %v, got %v", fixedNow, r.Timestamp)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestReportStoreGet(t *testing.T) {
	it(func() {
		testCases := []struct {
			name        string
			id          string
			rows        *sqlmock.Rows
			queryErr    error
			expectErr   error
			expectURLs  []string
			expectFirst *string
		}{
			{
				name: "Found with evidence",
				id:   "r1",
				rows: addReportRow(sqlmock.NewRows(reportRowColumns), "r1", "stalking", "new", "",
					`["/uploads/a.jpg"]`, "/uploads/a.jpg", fixedNow),
				expectURLs:  []string{"/uploads/a.jpg"},
				expectFirst: strPtr("/uploads/a.jpg"),
			},
			{
				name: "Found without evidence",
				id:   "r2",
				rows: addReportRow(sqlmock.NewRows(reportRowColumns), "r2", "stalking", "new", "",
					"", nil, fixedNow),
				expectURLs: []string{},
			},
			{
				name:      "Not found",
				id:        "missing",
				queryErr:  sql.ErrNoRows,
				expectErr: ErrNotFound,
			},
		}

		for _, tc := range testCases {
			setUp()
			store := NewReportStore(db)
			q := mock.ExpectQuery("FROM reports WHERE id = \\?").WithArgs(tc.id)
			if tc.queryErr != nil {
				q.WillReturnError(tc.queryErr)
			} else {
				q.WillReturnRows(tc.rows)
			}

			r, err := store.Get(context.Background(), tc.id)
			if tc.expectErr != nil {
				if !errors.Is(err, tc.expectErr) {
					t.Errorf("%s: expected error %v, got %v", tc.name, tc.expectErr, err)
				}
				continue
			}
			if err != nil {
				t.Errorf("%s: unexpected error %v", tc.name, err)
				continue
			}
			if !reflect.DeepEqual(r.EvidenceURLs, tc.expectURLs) {
				t.Errorf("%s: expected evidence %v, got %v", tc.name, tc.expectURLs, r.EvidenceURLs)
			}
			if !reflect.DeepEqual(r.EvidenceURL, tc.expectFirst) {
				t.Errorf("%s: expected legacy evidence %v, got %v", tc.name, tc.expectFirst, r.EvidenceURL)
			}
		}
	})
}

func TestReportStoreList(t *testing.T) {
	it(func() {
		testCases := []struct {
			name   string
			filter models.ReportFilter
			query  string
			args   []interface{}
		}{
			{
				name:  "No filter",
				query: "FROM reports ORDER BY created_at DESC, seq DESC",
			},
			{
				name:   "Status filter",
				filter: models.ReportFilter{Status: "resolved"},
				query:  "FROM reports WHERE status = \\? ORDER BY created_at DESC, seq DESC",
				args:   []interface{}{"resolved"},
			},
			{
				name:   "Status and university filter",
				filter: models.ReportFilter{Status: "new", University: "egerton"},
				query:  "FROM reports WHERE status = \\? AND university = \\? ORDER BY created_at DESC, seq DESC",
				args:   []interface{}{"new", "egerton"},
			},
		}

		for _, tc := range testCases {
			setUp()
			store := NewReportStore(db)
			rows := sqlmock.NewRows(reportRowColumns)
			addReportRow(rows, "r2", "stalking", "new", "", "[]", nil, fixedNow)
			addReportRow(rows, "r1", "harassment", "new", "", "[]", nil, fixedNow.Add(-time.Hour))

			q := mock.ExpectQuery(tc.query)
			if len(tc.args) > 0 {
				q.WithArgs(argsToValues(tc.args)...)
			}
			q.WillReturnRows(rows)

			reports, err := store.List(context.Background(), tc.filter)
			if err != nil {
				t.Errorf("%s: unexpected error %v", tc.name, err)
				continue
			}
			if len(reports) != 2 || reports[0].ID != "r2" || reports[1].ID != "r1" {
				t.Errorf("%s: unexpected reports %+v", tc.name, reports)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("%s: unmet expectations: %v", tc.name, err)
			}
		}
	})
}

func TestReportStoreListOldestFirst(t *testing.T) {
	it(func() {
		store := NewReportStore(db)
		mock.ExpectQuery("FROM reports ORDER BY created_at ASC, seq ASC").
			WillReturnRows(sqlmock.NewRows(reportRowColumns))

		reports, err := store.ListOldestFirst(context.Background())
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if reports == nil || len(reports) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", reports)
		}
	})
}

func TestReportStoreUpdate(t *testing.T) {
	it(func() {
		testCases := []struct {
			name       string
			status     *string
			notes      *string
			execQuery  string
			execArgs   []interface{}
			expectExec bool
		}{
			{
				name:       "Status only",
				status:     strPtr("resolved"),
				execQuery:  "UPDATE reports SET status = \\? WHERE id = \\?",
				execArgs:   []interface{}{"resolved", "r1"},
				expectExec: true,
			},
			{
				name:       "Notes only",
				notes:      strPtr(""),
				execQuery:  "UPDATE reports SET admin_notes = \\? WHERE id = \\?",
				execArgs:   []interface{}{"", "r1"},
				expectExec: true,
			},
			{
				name:       "Both",
				status:     strPtr("in_progress"),
				notes:      strPtr("called back"),
				execQuery:  "UPDATE reports SET status = \\?, admin_notes = \\? WHERE id = \\?",
				execArgs:   []interface{}{"in_progress", "called back", "r1"},
				expectExec: true,
			},
			{
				name: "Nothing to update",
			},
		}

		for _, tc := range testCases {
			setUp()
			store := NewReportStore(db)
			if tc.expectExec {
				mock.ExpectExec(tc.execQuery).
					WithArgs(argsToValues(tc.execArgs)...).
					WillReturnResult(sqlmock.NewResult(0, 1))
			}
			mock.ExpectQuery("FROM reports WHERE id = \\?").WithArgs("r1").
				WillReturnRows(addReportRow(sqlmock.NewRows(reportRowColumns), "r1", "stalking", "resolved", "", "[]", nil, fixedNow))

			if _, err := store.Update(context.Background(), "r1", tc.status, tc.notes); err != nil {
				t.Errorf("%s: unexpected error %v", tc.name, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("%s: unmet expectations: %v", tc.name, err)
			}
		}
	})
}

func TestReportStoreDelete(t *testing.T) {
	it(func() {
		testCases := []struct {
			name         string
			rowsAffected int64
			expectErr    error
		}{
			{name: "Deleted", rowsAffected: 1},
			{name: "Missing", rowsAffected: 0, expectErr: ErrNotFound},
		}

		for _, tc := range testCases {
			setUp()
			store := NewReportStore(db)
			mock.ExpectExec("DELETE FROM reports WHERE id = \\?").
				WithArgs("r1").
				WillReturnResult(sqlmock.NewResult(0, tc.rowsAffected))

			err := store.Delete(context.Background(), "r1")
			if !errors.Is(err, tc.expectErr) {
				t.Errorf("%s: expected error %v, got %v", tc.name, tc.expectErr, err)
			}
		}
	})
}

func strPtr(s string) *string {
	return &s
}

func argsToValues(args []interface{}) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}
