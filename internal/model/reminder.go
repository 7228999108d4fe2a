package model

import (
	"time"

	"gorm.io/datatypes"
)

// Default rule window when a tenant leaves the fields unset.
const (
	DefaultTriggerIntervalDays = 90
	DefaultReminderWindowDays  = 7
)

// ReminderRule is tenant-configured policy describing when a customer
// becomes due for a follow-up. Created by admins; read-only here.
type ReminderRule struct {
	ID                  string    `json:"id" gorm:"primaryKey;type:text"`
	TenantID            string    `json:"tenant_id" gorm:"column:tenant_id;index;type:text" validate:"required"`
	ServiceID           *string   `json:"service_id,omitempty" gorm:"column:service_id;type:text"` // nil = applies to all services
	TriggerIntervalDays int       `json:"trigger_interval_days" gorm:"column:trigger_interval_days" validate:"gte=0"`
	ReminderWindowDays  int       `json:"reminder_window_days" gorm:"column:reminder_window_days" validate:"gte=0"`
	Enabled             bool      `json:"enabled" gorm:"default:true"`
	CreatedAt           time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt           time.Time `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the ReminderRule model.
func (ReminderRule) TableName() string {
	return "reminder_rules"
}

// TriggerDays returns the configured trigger interval or the default.
func (r *ReminderRule) TriggerDays() int {
	if r.TriggerIntervalDays <= 0 {
		return DefaultTriggerIntervalDays
	}
	return r.TriggerIntervalDays
}

// WindowDays returns the configured window width or the default.
func (r *ReminderRule) WindowDays() int {
	if r.ReminderWindowDays <= 0 {
		return DefaultReminderWindowDays
	}
	return r.ReminderWindowDays
}

// Reminder job statuses. Pending and sent form the open set guarded by
// the partial unique index on (customer_id, rule_id).
const (
	ReminderJobStatusPending   = "pending"
	ReminderJobStatusSent      = "sent"
	ReminderJobStatusFailed    = "failed"
	ReminderJobStatusSnoozed   = "snoozed"
	ReminderJobStatusCancelled = "cancelled"
)

// ReminderJob is one scheduled reminder attempt for a customer under a
// rule.
type ReminderJob struct {
	ID             string     `json:"id" gorm:"primaryKey;type:text"`
	TenantID       string     `json:"tenant_id" gorm:"column:tenant_id;index;type:text" validate:"required"`
	CustomerID     string     `json:"customer_id" gorm:"column:customer_id;index;type:text" validate:"required"`
	RuleID         string     `json:"rule_id" gorm:"column:rule_id;index;type:text" validate:"required"`
	ScheduledFor   time.Time  `json:"scheduled_for" gorm:"column:scheduled_for;index"`
	MessageContent string     `json:"message_content" gorm:"column:message_content;type:text"`
	Status         string     `json:"status" gorm:"type:text;default:pending;index"`
	AttemptsCount  int        `json:"attempts_count" gorm:"column:attempts_count"`
	ErrorMessage   string     `json:"error_message,omitempty" gorm:"column:error_message;type:text"`
	SentAt         *time.Time `json:"sent_at,omitempty" gorm:"column:sent_at"`
	LastAttemptAt  *time.Time `json:"last_attempt_at,omitempty" gorm:"column:last_attempt_at"`
	CreatedAt      time.Time  `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the ReminderJob model.
func (ReminderJob) TableName() string {
	return "reminder_jobs"
}

// Reminder event types.
const (
	ReminderEventCreated = "created"
	ReminderEventSent    = "sent"
	ReminderEventFailed  = "failed"
)

// ReminderEvent is the append-only audit trail of job lifecycle
// transitions. Rows are inserted, never mutated.
type ReminderEvent struct {
	ID        string         `json:"id" gorm:"primaryKey;type:text"`
	TenantID  string         `json:"tenant_id" gorm:"column:tenant_id;index;type:text" validate:"required"`
	JobID     string         `json:"job_id" gorm:"column:job_id;index;type:text" validate:"required"`
	EventType string         `json:"event_type" gorm:"column:event_type;type:text" validate:"oneof=created sent failed"`
	Channel   string         `json:"channel,omitempty" gorm:"type:text"`
	Metadata  datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at,omitempty" gorm:"autoCreateTime"`
}

// TableName specifies the table name for the ReminderEvent model.
func (ReminderEvent) TableName() string {
	return "reminder_events"
}

// ReminderOptOut suppresses all reminders for a customer.
type ReminderOptOut struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text"`
	TenantID   string    `json:"tenant_id" gorm:"column:tenant_id;uniqueIndex:uq_optout_tenant_customer;type:text" validate:"required"`
	CustomerID string    `json:"customer_id" gorm:"column:customer_id;uniqueIndex:uq_optout_tenant_customer;type:text" validate:"required"`
	CreatedAt  time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
}

// TableName specifies the table name for the ReminderOptOut model.
func (ReminderOptOut) TableName() string {
	return "reminder_opt_outs"
}

// ReminderSnooze suppresses reminders for a customer until SnoozedUntil.
type ReminderSnooze struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text"`
	TenantID     string    `json:"tenant_id" gorm:"column:tenant_id;index;type:text" validate:"required"`
	CustomerID   string    `json:"customer_id" gorm:"column:customer_id;index;type:text" validate:"required"`
	SnoozedUntil time.Time `json:"snoozed_until" gorm:"column:snoozed_until;index"`
	CreatedAt    time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
}

// TableName specifies the table name for the ReminderSnooze model.
func (ReminderSnooze) TableName() string {
	return "reminder_snoozes"
}
