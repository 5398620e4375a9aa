package models

// DroneInquiry stores a consultation request from the drone-insurance page.
type DroneInquiry struct {
	BaseModel
	Name          string `json:"name"`
	Phone         string `gorm:"index" json:"phone"`
	Email         string `json:"email"`
	InsuranceType string `json:"insurance_type"` // "business" | "personal"
	Message       string `json:"message"`
	SourcePage    string `gorm:"default:drone-insurance" json:"source_page"`
	Status        string `gorm:"index;default:new" json:"status"` // new | contacted | completed
}
