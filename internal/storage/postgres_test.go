package storage

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/detailops/engagement-core/internal/tenant"
	"github.com/detailops/engagement-core/pkg/logger"
)

const testTenantID = "tenant-test-456"

// AnyTime matches any time.Time argument in sqlmock expectations.
type AnyTime struct{}

// Match satisfies sqlmock.Argument
func (a AnyTime) Match(v driver.Value) bool {
	_, ok := v.(time.Time)
	return ok
}

// Helper to create a mock DB and PostgresRepo instance for testing
func newTestRepo(t *testing.T) (*PostgresRepo, sqlmock.Sqlmock) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	assert.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{
		Logger:                 gormLogger.Default.LogMode(gormLogger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	assert.NoError(t, err)

	repo := &PostgresRepo{db: gormDB}
	return repo, mock
}

// Helper to create context with tenant ID
func contextWithTestTenant() context.Context {
	return tenant.WithTenantID(context.Background(), testTenantID)
}
