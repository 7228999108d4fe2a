package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/detailops/engagement-core/internal/model"
	"github.com/detailops/engagement-core/internal/observer"
)

type customerRepo struct {
	db *gorm.DB
}

func (r *customerRepo) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var customer model.Customer
	operation := func() error {
		return r.db.WithContext(ctx).
			Where("id = ? AND tenant_id = ?", id, tenantID).
			First(&customer).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindCustomerByID", operation)
	observer.ObserveDbOperationDuration("find", "customer", tenantID, time.Since(start), err)
	if err != nil {
		return nil, checkConstraintViolation(err)
	}
	return &customer, nil
}

// LastCompletedVisit returns the customer's most recent completed visit,
// or nil when the customer has no completed history. Absence is a normal
// state, not an error.
func (r *customerRepo) LastCompletedVisit(ctx context.Context, customerID string) (*model.ServiceVisit, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var visit model.ServiceVisit
	operation := func() error {
		return r.db.WithContext(ctx).
			Where("customer_id = ? AND tenant_id = ? AND status = ? AND completed_at IS NOT NULL",
				customerID, tenantID, model.VisitStatusCompleted).
			Order("completed_at DESC").
			First(&visit).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "LastCompletedVisit", operation)
	observer.ObserveDbOperationDuration("find", "service_visit", tenantID, time.Since(start), err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, checkConstraintViolation(err)
	}
	return &visit, nil
}

// LatestCompletedVisits groups each customer's single most recent
// completed visit, with no date filtering. Callers apply the reminder
// window to the grouped result; filtering rows before grouping would
// resurrect older visits and re-remind customers who already returned.
func (r *customerRepo) LatestCompletedVisits(ctx context.Context, serviceID *string) ([]LatestVisit, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT DISTINCT ON (customer_id)
			customer_id, service_name, completed_at AS last_completed_at
		FROM service_visits
		WHERE tenant_id = ? AND status = ? AND completed_at IS NOT NULL`
	args := []interface{}{tenantID, model.VisitStatusCompleted}
	if serviceID != nil {
		query += ` AND service_id = ?`
		args = append(args, *serviceID)
	}
	query += ` ORDER BY customer_id, completed_at DESC`

	start := time.Now()
	var visits []LatestVisit
	operation := func() error {
		return r.db.WithContext(ctx).Raw(query, args...).Scan(&visits).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "LatestCompletedVisits", operation)
	observer.ObserveDbOperationDuration("list", "service_visit", tenantID, time.Since(start), err)
	if err != nil {
		return nil, checkConstraintViolation(err)
	}
	return visits, nil
}

// ListAdminUserIDs returns the tenant's admin dashboard users, the push
// notification recipients for escalations.
func (r *customerRepo) ListAdminUserIDs(ctx context.Context) ([]string, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var ids []string
	operation := func() error {
		return r.db.WithContext(ctx).Model(&model.StaffUser{}).
			Where("tenant_id = ? AND role = ?", tenantID, model.StaffRoleAdmin).
			Pluck("id", &ids).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListAdminUserIDs", operation)
	observer.ObserveDbOperationDuration("list", "staff_user", tenantID, time.Since(start), err)
	if err != nil {
		return nil, checkConstraintViolation(err)
	}
	return ids, nil
}
