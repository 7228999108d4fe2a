package storage

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/detailops/engagement-core/internal/apperrors"
	"github.com/detailops/engagement-core/internal/model"
)

func TestReminderRepo_FindOpenJob_None(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTestTenant()

	mock.ExpectQuery(`SELECT \* FROM "reminder_jobs"`).
		WillReturnError(gorm.ErrRecordNotFound)

	job, err := repo.Reminders().FindOpenJob(ctx, "cust-1", "rule-1")

	// No open job is a normal state, not an error.
	assert.NoError(t, err)
	assert.Nil(t, job)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderRepo_FindOpenJob_Found(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTestTenant()

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "customer_id", "rule_id", "status"}).
		AddRow("job-1", testTenantID, "cust-1", "rule-1", model.ReminderJobStatusPending)

	mock.ExpectQuery(`SELECT \* FROM "reminder_jobs"`).
		WillReturnRows(rows)

	job, err := repo.Reminders().FindOpenJob(ctx, "cust-1", "rule-1")

	assert.NoError(t, err)
	assert.NotNil(t, job)
	assert.Equal(t, "job-1", job.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderRepo_CreateJob_DuplicateOpenJob(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTestTenant()

	// Partial unique index rejects a second open job for the pair.
	mock.ExpectExec(`INSERT INTO "reminder_jobs"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_reminder_jobs_open"})

	job := model.ReminderJob{
		ID:           "job-dup",
		TenantID:     testTenantID,
		CustomerID:   "cust-1",
		RuleID:       "rule-1",
		Status:       model.ReminderJobStatusPending,
		ScheduledFor: time.Now(),
	}
	err := repo.Reminders().CreateJob(ctx, job)

	assert.True(t, apperrors.IsDuplicateError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderRepo_CreateJob_TenantMismatch(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := contextWithTestTenant()

	job := model.ReminderJob{
		ID:       "job-x",
		TenantID: "other-tenant",
	}
	err := repo.Reminders().CreateJob(ctx, job)

	assert.True(t, apperrors.IsBadRequestError(err))
}

func TestReminderRepo_ListDuePendingJobs(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTestTenant()

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "customer_id", "rule_id", "status"}).
		AddRow("job-a", testTenantID, "cust-a", "rule-1", model.ReminderJobStatusPending).
		AddRow("job-b", testTenantID, "cust-b", "rule-1", model.ReminderJobStatusPending)

	mock.ExpectQuery(`SELECT \* FROM "reminder_jobs"`).
		WillReturnRows(rows)

	jobs, err := repo.Reminders().ListDuePendingJobs(ctx, time.Now(), 50)

	assert.NoError(t, err)
	assert.Len(t, jobs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderRepo_MarkJobSent_NotPending(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTestTenant()

	mock.ExpectExec(`UPDATE "reminder_jobs" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "status"}).
		AddRow("job-sent", testTenantID, model.ReminderJobStatusSent)
	mock.ExpectQuery(`SELECT \* FROM "reminder_jobs"`).
		WillReturnRows(rows)

	err := repo.Reminders().MarkJobSent(ctx, "job-sent", time.Now())

	assert.True(t, apperrors.IsConflictError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderRepo_HasOptOut(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTestTenant()

	rows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "reminder_opt_outs"`).
		WillReturnRows(rows)

	optedOut, err := repo.Reminders().HasOptOut(ctx, "cust-optout")

	assert.NoError(t, err)
	assert.True(t, optedOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderRepo_HasActiveSnooze_Expired(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTestTenant()

	rows := sqlmock.NewRows([]string{"count"}).AddRow(0)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "reminder_snoozes"`).
		WillReturnRows(rows)

	snoozed, err := repo.Reminders().HasActiveSnooze(ctx, "cust-snooze", time.Now())

	assert.NoError(t, err)
	assert.False(t, snoozed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantRegistry_ListActiveTenantIDs(t *testing.T) {
	repo, mock := newTestRepo(t)

	rows := sqlmock.NewRows([]string{"tenant_id"}).
		AddRow("tenant-a").
		AddRow("tenant-b")

	mock.ExpectQuery(`SELECT DISTINCT "tenant_id" FROM "reminder_rules"`).
		WillReturnRows(rows)

	// The registry read takes no tenant scope; it enumerates tenants.
	ids, err := repo.Tenants().ListActiveTenantIDs(contextWithTestTenant())

	assert.NoError(t, err)
	assert.Equal(t, []string{"tenant-a", "tenant-b"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantRegistry_ListEscalationTenantIDs(t *testing.T) {
	repo, mock := newTestRepo(t)

	rows := sqlmock.NewRows([]string{"tenant_id"}).
		AddRow("tenant-escalations-only").
		AddRow("tenant-b")

	// Sweep tenants come from open escalation rows, not reminder rules,
	// so a tenant without any rules is still enumerated.
	mock.ExpectQuery(`SELECT DISTINCT "tenant_id" FROM "escalation_requests"`).
		WillReturnRows(rows)

	ids, err := repo.Tenants().ListEscalationTenantIDs(contextWithTestTenant())

	assert.NoError(t, err)
	assert.Equal(t, []string{"tenant-escalations-only", "tenant-b"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
