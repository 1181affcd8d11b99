package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/repositories"
	"github.com/wellirecord/connect/repositories/memory"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return &DB{DB: sqlDB, logger: zap.NewNop()}, mock
}

func q(s string) string {
	return regexp.QuoteMeta(s)
}

var systemCols = []string{"id", "name", "type", "status", "last_sync", "health_score", "region", "ip_address", "version", "latency_ms", "error_message"}

func TestSystemRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	synced := time.Date(2025, 1, 15, 11, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSystemRepository(db, zap.NewNop())

		mock.ExpectQuery(q("FROM system_nodes WHERE id = $1")).
			WithArgs("4").
			WillReturnRows(sqlmock.NewRows(systemCols).
				AddRow("4", "TeleHealth Connect", "telemedicine", "error", synced, 45, "AP", "10.40.1.9", "v1.9.2", 0, "Handshake Timeout"))

		n, err := repo.GetByID(ctx, "4")
		require.NoError(t, err)
		assert.Equal(t, models.NodeTypeTelemedicine, n.Type)
		assert.Equal(t, models.NodeStatusError, n.Status)
		assert.Equal(t, 45, n.HealthScore)
		assert.Equal(t, "Handshake Timeout", n.ErrorMessage)
		assert.True(t, n.LastSync.Equal(synced))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSystemRepository(db, zap.NewNop())

		mock.ExpectQuery(q("FROM system_nodes WHERE id = $1")).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(systemCols))

		_, err := repo.GetByID(ctx, "missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("query error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSystemRepository(db, zap.NewNop())

		mock.ExpectQuery(q("FROM system_nodes WHERE id = $1")).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.GetByID(ctx, "1")
		require.Error(t, err)
		assert.False(t, errors.Is(err, repositories.ErrNotFound))
		assert.Contains(t, err.Error(), "failed to get system node")
	})
}

func TestSystemRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name   string
		filter repositories.SystemFilter
		query  string
		args   []driver.Value
	}{
		{
			name:  "no filter",
			query: "FROM system_nodes ORDER BY id",
		},
		{
			name:   "type and region",
			filter: repositories.SystemFilter{Type: models.NodeTypeLab, Region: "AF"},
			query:  "FROM system_nodes WHERE type = $1 AND region = $2 ORDER BY id",
			args:   []driver.Value{"lab", "AF"},
		},
		{
			name:   "status only",
			filter: repositories.SystemFilter{Status: models.NodeStatusOffline},
			query:  "FROM system_nodes WHERE status = $1 ORDER BY id",
			args:   []driver.Value{"offline"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewSystemRepository(db, zap.NewNop())

			rows := sqlmock.NewRows(systemCols).
				AddRow("1", "A", "lab", "offline", now, 0, "AF", "", "", 0, "down").
				AddRow("2", "B", "lab", "connected", now, 99, "AF", "", "", 20, "")

			exp := mock.ExpectQuery(q(tt.query))
			if len(tt.args) > 0 {
				exp = exp.WithArgs(tt.args...)
			}
			exp.WillReturnRows(rows)

			nodes, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, nodes, 2)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestActivityRepository_List(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewActivityRepository(db, zap.NewNop())
	since := time.Date(2025, 1, 15, 11, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q("FROM activity_logs WHERE type = $1 AND status = $2 AND timestamp >= $3 ORDER BY timestamp DESC LIMIT $4")).
		WithArgs("data_transfer", "error", since, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "message", "timestamp", "source", "status"}).
			AddRow("act-2", "data_transfer", "sync failed", since.Add(20*time.Minute), "TeleHealth Connect", "error"))

	entries, err := repo.List(ctx, repositories.ActivityFilter{
		Type:   models.ActivityDataTransfer,
		Status: models.ActivityError,
		Since:  since,
		Limit:  5,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "act-2", entries[0].ID)
	assert.Equal(t, models.ActivityError, entries[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsentRepository_DecodesScopes(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewConsentRepository(db, zap.NewNop())

	mock.ExpectQuery(q("FROM consent_records WHERE status = $1 ORDER BY last_access DESC")).
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows([]string{"id", "provider_name", "provider_type", "trust_score", "last_access", "scopes", "status"}).
			AddRow("con-1", "Metro General Clinic", "clinic", 98, time.Now(),
				[]byte(`[{"key":"mental_health","label":"Mental Health","enabled":true,"sensitive":true,"duration":"7d"}]`),
				"active"))

	records, err := repo.List(ctx, repositories.ConsentFilter{Status: models.ConsentActive})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Scopes, 1)
	assert.Equal(t, models.ScopeMentalHealth, records[0].Scopes[0].Key)
	assert.Equal(t, 1, records[0].SensitiveScopesEnabled())
}

func TestPatientRepository_ScansArrays(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewPatientRepository(db, zap.NewNop())

	mock.ExpectQuery(q("FROM patients WHERE id = $1")).
		WithArgs("p-3").
		WillReturnRows(sqlmock.NewRows([]string{"id", "did", "name", "dob", "gender", "blood_type", "allergies", "last_visit", "status", "fhir_compliant"}).
			AddRow("p-3", "did:welli:c45d17", "Musa Bello", "1991-07-21", "male", "B+", []byte("{Sulfa,Latex}"), time.Now(), "archived", true))

	p, err := repo.GetByID(ctx, "p-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sulfa", "Latex"}, p.Allergies)
	assert.Equal(t, models.PatientArchived, p.Status)
	assert.True(t, p.FHIRCompliant)
}

func TestClinicalNoteRepository_List(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewClinicalNoteRepository(db, zap.NewNop())
	now := time.Now()

	mock.ExpectQuery(q("FROM clinical_notes WHERE patient_id = $1 ORDER BY date DESC LIMIT $2")).
		WithArgs("p-2", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_id", "date", "provider", "role", "type", "title", "content", "signed_at", "signature_hash", "verified", "fhir_compliant", "fhir_issues"}).
			AddRow("n-3", "p-2", now, "Dr. Sani", "clinician", "referral", "Cardiology referral", "Echo", now, "0x77", true, false, []byte(`{"Missing performer reference"}`)))

	notes, err := repo.List(ctx, repositories.ClinicalNoteFilter{PatientID: "p-2", Limit: 10})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, []string{"Missing performer reference"}, notes[0].FHIRIssues)
	assert.Equal(t, models.NoteReferral, notes[0].Type)
}

func TestLabOrderRepository_List(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewLabOrderRepository(db, zap.NewNop())

	mock.ExpectQuery(q("FROM lab_orders WHERE status = $1 AND priority = $2 ORDER BY received_at")).
		WithArgs("pending", "stat").
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_name", "patient_id", "requester", "test_name", "priority", "status", "received_at", "specimen_id"}).
			AddRow("lo-2", "Babatunde Adeyemi", "p-2", "Dr. Sani", "Troponin I", "stat", "pending", time.Now(), "SP-1002"))

	orders, err := repo.List(ctx, repositories.LabOrderFilter{Status: models.LabOrderPending, Priority: models.PriorityStat})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.PriorityStat, orders[0].Priority)
}

func TestPrescriptionRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewPrescriptionRepository(db, zap.NewNop())

	mock.ExpectQuery(q("FROM prescriptions WHERE id = $1")).
		WithArgs("rx-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_name", "patient_id", "provider", "medication", "generic_name", "dosage", "instructions", "date", "status", "type", "refills_remaining", "interactions", "is_controlled"}).
			AddRow("rx-2", "Babatunde Adeyemi", "p-2", "Dr. Sani", "Amoxil", "Amoxicillin", "500mg", "TID", time.Now(), "flagged", "new", 0,
				[]byte(`[{"type":"allergy","severity":"high","description":"penicillin"}]`), false))

	p, err := repo.GetByID(ctx, "rx-2")
	require.NoError(t, err)
	assert.Equal(t, models.PrescriptionFlagged, p.Status)
	assert.NotEmpty(t, p.HighSeverityInteractions())
}

func TestConsultationRepository_List(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewConsultationRepository(db, zap.NewNop())
	now := time.Now()

	mock.ExpectQuery(q("FROM tele_consultations ORDER BY scheduled_time")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_name", "patient_id", "scheduled_time", "status", "reason", "remote_vitals", "symptoms"}).
			AddRow("tc-1", "Adaeze Okafor", "p-1", now, "waiting", "BP review",
				[]byte(`{"heart_rate":78,"spo2":98,"device_status":"offline"}`), []byte("{headache}")).
			AddRow("tc-3", "Musa Bello", "p-3", now.Add(time.Hour), "scheduled", "check-in", nil, []byte("{}")))

	list, err := repo.List(ctx, repositories.ConsultationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].RemoteVitals)
	assert.True(t, list[0].DeviceOffline())
	assert.Equal(t, []string{"headache"}, list[0].Symptoms)
	assert.Nil(t, list[1].RemoteVitals)
	assert.Empty(t, list[1].Symptoms)
}

func TestAccessEventRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("insert", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccessEventRepository(db, zap.NewNop())

		event := models.NewAccessEvent(uuid.New(), models.AccessActionViewDenied, models.RolePatient, models.ViewLab).
			WithPrevious(models.ViewDashboard).
			WithRequest("req-1", "10.0.0.1")

		mock.ExpectExec(q("INSERT INTO access_events")).
			WithArgs(event.ID, event.SessionID, "view_denied", "patient", "lab", "dashboard", nil, "req-1", "10.0.0.1", event.Timestamp).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Insert(ctx, event))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert nil", func(t *testing.T) {
		db, _ := newMockDB(t)
		repo := NewAccessEventRepository(db, zap.NewNop())
		assert.Error(t, repo.Insert(ctx, nil))
	})

	t.Run("get by session", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccessEventRepository(db, zap.NewNop())
		sessionID := uuid.New()
		eventID := uuid.New()

		mock.ExpectQuery(q("FROM access_events WHERE session_id = $1 ORDER BY timestamp DESC LIMIT $2 OFFSET $3")).
			WithArgs(sessionID, 20, 0).
			WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "action", "role", "view", "previous_view", "details", "request_id", "ip_address", "timestamp"}).
				AddRow(eventID.String(), sessionID.String(), "view_corrected", "lab_tech", "dashboard", "pharmacy", []byte(`{"reason":"role_changed"}`), "", "", time.Now()))

		events, err := repo.GetBySessionID(ctx, sessionID, 20, 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, eventID, events[0].ID)
		assert.Equal(t, models.AccessActionViewCorrected, events[0].Action)
		assert.Equal(t, models.ViewPharmacy, events[0].Previous)
		assert.JSONEq(t, `{"reason":"role_changed"}`, string(events[0].Details))
	})
}

func TestTransactionManager(t *testing.T) {
	ctx := context.Background()

	t.Run("commit shares the transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(q("DELETE FROM activity_logs")).WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		err := tm.InTransaction(ctx, func(ctx context.Context) error {
			exec := GetExecutor(ctx, db)
			assert.NotSame(t, db.DB, exec)
			_, err := exec.ExecContext(ctx, "DELETE FROM activity_logs")
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := tm.InTransaction(ctx, func(ctx context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("executor without transaction is the pool", func(t *testing.T) {
		db, _ := newMockDB(t)
		assert.Equal(t, Executor(db.DB), GetExecutor(ctx, db))
	})
}

func TestSeeder_Seed(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	ds := &memory.Dataset{
		Systems:       []models.SystemNode{{ID: "1", Name: "Metro", Type: models.NodeTypeClinic, Status: models.NodeStatusConnected, LastSync: now}},
		Patients:      []models.Patient{{ID: "p-1", Name: "Adaeze", Status: models.PatientActive, LastVisit: now}},
		Consultations: []models.TeleConsultation{{ID: "tc-1", PatientName: "Adaeze", PatientID: "p-1", ScheduledTime: now, Status: models.ConsultationScheduled}},
	}

	t.Run("success", func(t *testing.T) {
		db, mock := newMockDB(t)
		seeder := NewSeeder(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(q("INSERT INTO system_nodes")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q("INSERT INTO patients")).
			WithArgs("p-1", "", "Adaeze", "", "", "", "{}", now, "active", false).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q("INSERT INTO tele_consultations")).
			WithArgs("tc-1", "Adaeze", "p-1", now, "scheduled", "", nil, "{}").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		n, err := seeder.Seed(ctx, ds)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		seeder := NewSeeder(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(q("INSERT INTO system_nodes")).WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback()

		_, err := seeder.Seed(ctx, ds)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to seed system_nodes")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDB_InitSchemaAndHealthCheck(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)

	mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS system_nodes")).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, db.InitSchema(ctx))

	mock.ExpectQuery(q("SELECT 1")).WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	require.NoError(t, db.HealthCheck(ctx))

	mock.ExpectQuery(q("SELECT 1")).WillReturnError(errors.New("down"))
	err := db.HealthCheck(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database query check failed")

	assert.NoError(t, mock.ExpectationsWereMet())
}
