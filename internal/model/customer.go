package model

import (
	"time"
)

// Customer is the denormalized customer record this core reads for
// eligibility checks and escalation snapshots. Owned by the wider
// platform; this service never creates customers.
type Customer struct {
	ID                 string    `json:"id" gorm:"primaryKey;type:text"`
	TenantID           string    `json:"tenant_id" gorm:"column:tenant_id;index;type:text" validate:"required"`
	Name               string    `json:"name,omitempty" gorm:"type:text"`
	Phone              string    `json:"phone,omitempty" gorm:"type:text;index"`
	Email              string    `json:"email,omitempty" gorm:"type:text"`
	SMSConsent         bool      `json:"sms_consent,omitempty" gorm:"column:sms_consent"`
	Vehicle            string    `json:"vehicle,omitempty" gorm:"type:text"` // Primary vehicle description
	VisitCount         int       `json:"visit_count,omitempty" gorm:"column:visit_count"`
	LifetimeValueCents int64     `json:"lifetime_value_cents,omitempty" gorm:"column:lifetime_value_cents"`
	CreatedAt          time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt          time.Time `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Customer model.
func (Customer) TableName() string {
	return "customers"
}

// Visit statuses.
const (
	VisitStatusScheduled = "scheduled"
	VisitStatusCompleted = "completed"
	VisitStatusCancelled = "cancelled"
)

// ServiceVisit is one appointment in a customer's service history.
// Only completed visits feed the reminder rule engine.
type ServiceVisit struct {
	ID          string     `json:"id" gorm:"primaryKey;type:text"`
	TenantID    string     `json:"tenant_id" gorm:"column:tenant_id;index;type:text" validate:"required"`
	CustomerID  string     `json:"customer_id" gorm:"column:customer_id;index;type:text" validate:"required"`
	ServiceID   string     `json:"service_id,omitempty" gorm:"column:service_id;type:text"`
	ServiceName string     `json:"service_name,omitempty" gorm:"column:service_name;type:text"`
	Status      string     `json:"status" gorm:"type:text;default:scheduled"`
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"column:completed_at;index"`
	CreatedAt   time.Time  `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the ServiceVisit model.
func (ServiceVisit) TableName() string {
	return "service_visits"
}

// Staff roles.
const (
	StaffRoleAdmin = "admin"
	StaffRoleStaff = "staff"
)

// StaffUser is a dashboard user of the tenant. Admins receive escalation
// push notifications.
type StaffUser struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	TenantID  string    `json:"tenant_id" gorm:"column:tenant_id;index;type:text" validate:"required"`
	Name      string    `json:"name,omitempty" gorm:"type:text"`
	Role      string    `json:"role" gorm:"type:text;default:staff" validate:"oneof=admin staff"`
	CreatedAt time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the StaffUser model.
func (StaffUser) TableName() string {
	return "staff_users"
}
