package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/detailops/engagement-core/internal/apperrors"
	"github.com/detailops/engagement-core/internal/model"
	"github.com/detailops/engagement-core/internal/tenant"
	"github.com/detailops/engagement-core/pkg/logger"
)

// --- Retry Logic Configuration ---
const (
	defaultRetryInitialInterval = 50 * time.Millisecond
	defaultRetryMaxInterval     = 2 * time.Second
	readRetryMaxElapsedTime     = 5 * time.Second  // More aggressive for reads
	commitRetryMaxElapsedTime   = 15 * time.Second // More tolerant for commits
)

// PostgresRepo implements the repository interfaces on a shared
// tenant-column database. Every method requires a tenant id in context
// except the tenant registry read.
type PostgresRepo struct {
	db *gorm.DB
}

// NewPostgresRepo connects to postgres with retry and optionally runs
// migrations.
func NewPostgresRepo(dsn string, autoMigrate bool) (*PostgresRepo, error) {
	operationConnect := func() (*gorm.DB, error) {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			TranslateError: true,
		})
		if err != nil {
			if isTransientError(err) {
				logger.Log.Warn("Failed to connect to postgres (transient), retrying...", zap.Error(err))
				return nil, err
			}
			return nil, backoff.Permanent(fmt.Errorf("failed to connect to postgres: %w", err))
		}
		return db, nil
	}

	notify := func(err error, d time.Duration) {
		logger.Log.Warn("Retrying DB connection", zap.Error(err), zap.Duration("after", d))
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 15 * time.Second
	b.MaxElapsedTime = 1 * time.Minute

	db, err := backoff.RetryNotifyWithData(operationConnect, b, notify)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres after retries: %w", err)
	}

	repo := &PostgresRepo{db: db}

	if autoMigrate {
		if err := repo.migrate(); err != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
			return nil, err
		}
	}

	return repo, nil
}

// migrate runs gorm AutoMigrate for all models plus the hand-written
// constraints gorm cannot express.
func (r *PostgresRepo) migrate() error {
	if err := r.db.AutoMigrate(
		&model.Customer{},
		&model.ServiceVisit{},
		&model.StaffUser{},
		&model.Conversation{},
		&model.ConversationMessage{},
		&model.EscalationRequest{},
		&model.ReminderRule{},
		&model.ReminderJob{},
		&model.ReminderEvent{},
		&model.ReminderOptOut{},
		&model.ReminderSnooze{},
	); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	// Partial unique index closing the concurrent-scheduler dedup race:
	// at most one open (pending or sent) job per customer/rule pair. A
	// plain gorm uniqueIndex cannot carry the WHERE clause.
	openJobIndexSQL := `
		CREATE UNIQUE INDEX IF NOT EXISTS uq_reminder_jobs_open
		ON reminder_jobs (customer_id, rule_id)
		WHERE status IN ('pending', 'sent')`
	if err := r.db.Exec(openJobIndexSQL).Error; err != nil {
		return fmt.Errorf("failed to create open-job unique index: %w", err)
	}

	logger.Log.Info("Database migration completed")
	return nil
}

// Ping verifies database connectivity, for readiness probes.
func (r *PostgresRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying database connection.
func (r *PostgresRepo) Close(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to get underlying SQL DB for closing", zap.Error(err))
		return nil
	}

	if closeErr := sqlDB.Close(); closeErr != nil {
		logger.FromContext(ctx).Error("Failed to close database connection", zap.Error(closeErr))
		return fmt.Errorf("failed to close SQL DB: %w", closeErr)
	}

	logger.FromContext(ctx).Info("Database connection closed successfully")
	return nil
}

// Conversations returns the conversation repository view.
func (r *PostgresRepo) Conversations() ConversationRepo {
	return &conversationRepo{db: r.db}
}

// Customers returns the customer and service-history repository view.
func (r *PostgresRepo) Customers() CustomerRepo {
	return &customerRepo{db: r.db}
}

// Escalations returns the escalation request repository view.
func (r *PostgresRepo) Escalations() EscalationRepo {
	return &escalationRepo{db: r.db}
}

// Reminders returns the reminder repository view.
func (r *PostgresRepo) Reminders() ReminderRepo {
	return &reminderRepo{db: r.db}
}

// Tenants returns the tenant registry view.
func (r *PostgresRepo) Tenants() TenantRegistry {
	return &tenantRegistry{db: r.db}
}

// requireTenant extracts the tenant id from context, mapping absence to
// an authorization error. All scoped repository methods start here.
func requireTenant(ctx context.Context) (string, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}
	return tenantID, nil
}

// newRetryPolicy creates a new exponential backoff policy with context awareness.
func newRetryPolicy(ctx context.Context, maxElapsedTime time.Duration) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultRetryInitialInterval
	b.MaxInterval = defaultRetryMaxInterval
	b.MaxElapsedTime = maxElapsedTime
	b.Reset() // Important: Reset before first use
	return backoff.WithContext(b, ctx)
}

// retryableOperation wraps a database operation with retry logic.
func retryableOperation(ctx context.Context, policy backoff.BackOffContext, opName string, operation func() error) error {
	notify := func(err error, d time.Duration) {
		logger.FromContext(ctx).Warn("Retrying DB operation",
			zap.String("operation", opName),
			zap.Error(err),
			zap.Duration("after", d),
		)
	}

	err := backoff.RetryNotify(func() error {
		err := operation()
		if err != nil {
			// Check for non-retryable errors first
			if errors.Is(err, gorm.ErrRecordNotFound) ||
				errors.Is(err, gorm.ErrInvalidTransaction) ||
				errors.Is(err, gorm.ErrDuplicatedKey) ||
				errors.Is(err, gorm.ErrForeignKeyViolated) ||
				apperrors.IsDuplicateError(err) ||
				apperrors.IsNotFoundError(err) {
				return backoff.Permanent(err)
			}
			// Check for potentially transient errors
			if isTransientError(err) {
				return err // Retry transient errors
			}
			// Treat other errors as permanent by default
			return backoff.Permanent(err)
		}
		return nil // Success
	}, policy, notify)

	return err
}

// isTransientError checks if the error suggests a temporary issue like a network problem.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	// Context deadline exceeded often indicates a timeout
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 — Connection Exception
		// Class 53 — Insufficient Resources
		// 40P01 deadlock, 40001 serialization failure
		if strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "53") ||
			pgErr.Code == "40P01" ||
			pgErr.Code == "40001" {
			return true
		}
	}

	// Fallback to string matching for common network-related errors
	errStr := strings.ToLower(err.Error())
	transientIndicators := []string{
		"connection refused",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"connection reset by peer",
		"could not translate host name",
		"no route to host",
		"database system is starting up",
		"connection timed out",
		"connection reset",
	}
	for _, indicator := range transientIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// checkConstraintViolation inspects database errors and maps them to standard apperrors.
func checkConstraintViolation(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", apperrors.ErrNotFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", apperrors.ErrDuplicate, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		// Class 23 — Integrity Constraint Violation
		case "23505": // unique_violation
			return fmt.Errorf("%w: constraint %s: %w", apperrors.ErrDuplicate, pgErr.ConstraintName, err)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: constraint %s: %w", apperrors.ErrBadRequest, pgErr.ConstraintName, err)
		case "23502": // not_null_violation
			return fmt.Errorf("%w: null value in column %s: %w", apperrors.ErrBadRequest, pgErr.ColumnName, err)
		case "23514": // check_violation
			return fmt.Errorf("%w: constraint %s: %w", apperrors.ErrBadRequest, pgErr.ConstraintName, err)

		// Class 40 — Transaction Rollback
		case "40001", "40P01":
			return fmt.Errorf("%w: transaction rollback (%s): %w", apperrors.ErrDatabase, pgErr.Code, err)

		default:
			if strings.HasPrefix(pgErr.Code, "53") { // Class 53 — Insufficient Resources
				return fmt.Errorf("%w: insufficient resources (%s): %w", apperrors.ErrDatabase, pgErr.Code, err)
			}
			if strings.HasPrefix(pgErr.Code, "08") { // Class 08 — Connection Exception
				return fmt.Errorf("%w: connection error (%s): %w", apperrors.ErrDatabase, pgErr.Code, err)
			}
			return fmt.Errorf("%w: unhandled pgcode %s: %w", apperrors.ErrDatabase, pgErr.Code, err)
		}
	}

	return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
}
