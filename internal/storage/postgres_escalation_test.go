package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/detailops/engagement-core/internal/apperrors"
	"github.com/detailops/engagement-core/internal/model"
)

func TestEscalationRepo_FindByID_Found(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTestTenant()

	escID := "esc-find-1"
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "conversation_id", "customer_phone", "status"}).
		AddRow(escID, testTenantID, "conv-1", "+15551234567", model.EscalationStatusPending)

	mock.ExpectQuery(`SELECT \* FROM "escalation_requests" WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(escID, testTenantID, 1).
		WillReturnRows(rows)

	esc, err := repo.Escalations().FindByID(ctx, escID)

	assert.NoError(t, err)
	assert.NotNil(t, esc)
	assert.Equal(t, escID, esc.ID)
	assert.Equal(t, model.EscalationStatusPending, esc.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscalationRepo_FindByID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTestTenant()

	mock.ExpectQuery(`SELECT \* FROM "escalation_requests"`).
		WillReturnError(gorm.ErrRecordNotFound)

	esc, err := repo.Escalations().FindByID(ctx, "missing")

	assert.Nil(t, esc)
	assert.True(t, apperrors.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscalationRepo_FindByID_MissingTenant(t *testing.T) {
	repo, _ := newTestRepo(t)

	esc, err := repo.Escalations().FindByID(context.Background(), "esc-1")

	assert.Nil(t, esc)
	assert.True(t, apperrors.IsUnauthorizedError(err))
}

func TestEscalationRepo_SetNotificationFlags(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTestTenant()

	mock.ExpectExec(`UPDATE "escalation_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Escalations().SetNotificationFlags(ctx, "esc-flags-1", true, false)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscalationRepo_Acknowledge_Pending(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTestTenant()

	mock.ExpectExec(`UPDATE "escalation_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Escalations().Acknowledge(ctx, "esc-ack-1", "staff-1", time.Now())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscalationRepo_Acknowledge_AlreadyResolved(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTestTenant()

	// Conditional update misses because the row is no longer pending.
	mock.ExpectExec(`UPDATE "escalation_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// The repo then re-reads to distinguish missing from wrong-state.
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "status"}).
		AddRow("esc-ack-2", testTenantID, model.EscalationStatusResolved)
	mock.ExpectQuery(`SELECT \* FROM "escalation_requests"`).
		WillReturnRows(rows)

	err := repo.Escalations().Acknowledge(ctx, "esc-ack-2", "staff-1", time.Now())

	assert.True(t, apperrors.IsConflictError(err))
	assert.Contains(t, err.Error(), model.EscalationStatusResolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscalationRepo_Acknowledge_Missing(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTestTenant()

	mock.ExpectExec(`UPDATE "escalation_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "escalation_requests"`).
		WillReturnError(gorm.ErrRecordNotFound)

	err := repo.Escalations().Acknowledge(ctx, "esc-missing", "staff-1", time.Now())

	assert.True(t, apperrors.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscalationRepo_ExpireOlderThan(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTestTenant()

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "conversation_id", "status"}).
		AddRow("esc-exp-1", testTenantID, "conv-a", model.EscalationStatusExpired).
		AddRow("esc-exp-2", testTenantID, "conv-b", model.EscalationStatusExpired)

	mock.ExpectQuery(`UPDATE "escalation_requests" SET .+ RETURNING`).
		WillReturnRows(rows)

	expired, err := repo.Escalations().ExpireOlderThan(ctx, time.Now())

	assert.NoError(t, err)
	assert.Len(t, expired, 2)
	assert.Equal(t, "conv-a", expired[0].ConversationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscalationRepo_Save_TenantMismatch(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := contextWithTestTenant()

	esc := model.EscalationRequest{
		ID:       "esc-mismatch",
		TenantID: "some-other-tenant",
	}

	err := repo.Escalations().Save(ctx, esc)

	assert.True(t, apperrors.IsBadRequestError(err))
}
