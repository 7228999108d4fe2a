package model

import (
	"time"
)

// Conversation tracks a messaging thread with a customer. The AI reply
// pipeline (external to this core) reads HumanEscalationActive to
// suppress automated responses while a human takes over.
type Conversation struct {
	ID                         string     `json:"id" gorm:"primaryKey;type:text"`
	TenantID                   string     `json:"tenant_id" gorm:"column:tenant_id;index;type:text" validate:"required"`
	CustomerID                 string     `json:"customer_id" gorm:"column:customer_id;index;type:text"`
	HumanEscalationActive      bool       `json:"human_escalation_active" gorm:"column:human_escalation_active"`
	HumanEscalationRequestedAt *time.Time `json:"human_escalation_requested_at,omitempty" gorm:"column:human_escalation_requested_at"`
	HumanHandledAt             *time.Time `json:"human_handled_at,omitempty" gorm:"column:human_handled_at"`
	HumanHandledBy             string     `json:"human_handled_by,omitempty" gorm:"column:human_handled_by;type:text"`
	CreatedAt                  time.Time  `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt                  time.Time  `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Conversation model.
func (Conversation) TableName() string {
	return "conversations"
}

// Message directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// ConversationMessage is one message in a conversation, read here only
// to build the recent-message summary on an escalation snapshot.
type ConversationMessage struct {
	ID             string    `json:"id" gorm:"primaryKey;type:text"`
	TenantID       string    `json:"tenant_id" gorm:"column:tenant_id;index;type:text" validate:"required"`
	ConversationID string    `json:"conversation_id" gorm:"column:conversation_id;index;type:text" validate:"required"`
	Direction      string    `json:"direction" gorm:"type:text" validate:"oneof=inbound outbound"`
	Body           string    `json:"body" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at,omitempty" gorm:"autoCreateTime;index"`
}

// TableName specifies the table name for the ConversationMessage model.
func (ConversationMessage) TableName() string {
	return "conversation_messages"
}
