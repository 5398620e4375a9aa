package models

import (
	"github.com/google/uuid"
)

// Contract request types.
const (
	RequestTypeDroneChange = "drone_change"
	RequestTypeCancel      = "cancel"
	RequestTypeTerminate   = "terminate"
)

// ContractRequest records a customer-initiated change, cancel or terminate
// request against an existing contract.
type ContractRequest struct {
	BaseModel
	ApplicationID *uuid.UUID `gorm:"type:uuid;index" json:"application_id"`
	ContractID    string     `gorm:"index" json:"contract_id"`
	RequestType   string     `json:"request_type"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	Reason        string     `json:"reason"`
	RefundAccount string     `json:"refund_account"`
	RequestData   []byte     `gorm:"type:jsonb" json:"request_data"`
}

// DroneChangeLog keeps one changed field of one drone for a change request.
type DroneChangeLog struct {
	BaseModel
	RequestID  uuid.UUID `gorm:"type:uuid;index" json:"request_id"`
	DroneIndex int       `json:"drone_index"`
	FieldName  string    `json:"field_name"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
}
