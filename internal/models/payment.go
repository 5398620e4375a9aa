package models

// Payment stores a confirmed (or rejected) Toss Payments transaction.
type Payment struct {
	BaseModel
	PaymentKey  string `gorm:"uniqueIndex" json:"payment_key"`
	OrderID     string `gorm:"index" json:"order_id"`
	OrderName   string `json:"order_name"`
	TotalAmount int64  `json:"total_amount"`
	Method      string `json:"method"`
	Status      string `json:"status"`
	RequestedAt string `json:"requested_at"`
	ApprovedAt  string `json:"approved_at"`
	RawResponse []byte `gorm:"type:jsonb" json:"-"`
}
