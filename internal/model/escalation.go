package model

import (
	"time"
)

// Escalation request statuses. Pending and acknowledged are open;
// resolved and expired are terminal.
const (
	EscalationStatusPending      = "pending"
	EscalationStatusAcknowledged = "acknowledged"
	EscalationStatusResolved     = "resolved"
	EscalationStatusExpired      = "expired"
)

// EscalationRequest is one row per escalation event: a customer asked
// for a human. The customer fields are a denormalized snapshot taken at
// creation time so staff can act without extra lookups. Rows are never
// deleted.
type EscalationRequest struct {
	ID                   string     `json:"id" gorm:"primaryKey;type:text"`
	TenantID             string     `json:"tenant_id" gorm:"column:tenant_id;index;type:text" validate:"required"`
	ConversationID       string     `json:"conversation_id" gorm:"column:conversation_id;index;type:text" validate:"required"`
	CustomerID           string     `json:"customer_id" gorm:"column:customer_id;index;type:text"`
	CustomerPhone        string     `json:"customer_phone" gorm:"column:customer_phone;type:text" validate:"required"`
	CustomerName         string     `json:"customer_name,omitempty" gorm:"column:customer_name;type:text"`
	CustomerVehicle      string     `json:"customer_vehicle,omitempty" gorm:"column:customer_vehicle;type:text"`
	LastServiceDate      *time.Time `json:"last_service_date,omitempty" gorm:"column:last_service_date"`
	TriggerPhrase        string     `json:"trigger_phrase" gorm:"column:trigger_phrase;type:text"`
	TriggerTier          string     `json:"trigger_tier,omitempty" gorm:"column:trigger_tier;type:text"`
	TriggerMessageID     string     `json:"trigger_message_id,omitempty" gorm:"column:trigger_message_id;type:text"`
	RecentMessageSummary string     `json:"recent_message_summary,omitempty" gorm:"column:recent_message_summary;type:text"`
	Status               string     `json:"status" gorm:"type:text;default:pending;index"`
	SMSNotificationSent  bool       `json:"sms_notification_sent" gorm:"column:sms_notification_sent"`
	PushNotificationSent bool       `json:"push_notification_sent" gorm:"column:push_notification_sent"`
	ExpiresAt            time.Time  `json:"expires_at" gorm:"column:expires_at;index"`
	AcknowledgedAt       *time.Time `json:"acknowledged_at,omitempty" gorm:"column:acknowledged_at"`
	AcknowledgedBy       string     `json:"acknowledged_by,omitempty" gorm:"column:acknowledged_by;type:text"`
	ResolvedAt           *time.Time `json:"resolved_at,omitempty" gorm:"column:resolved_at"`
	ResolvedBy           string     `json:"resolved_by,omitempty" gorm:"column:resolved_by;type:text"`
	CreatedAt            time.Time  `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt            time.Time  `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the EscalationRequest model.
func (EscalationRequest) TableName() string {
	return "escalation_requests"
}

// IsOpen reports whether the request still demands staff attention.
func (e *EscalationRequest) IsOpen() bool {
	return e.Status == EscalationStatusPending || e.Status == EscalationStatusAcknowledged
}
