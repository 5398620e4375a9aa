package models

import (
	"time"

	"github.com/google/uuid"
)

// PersonalDroneApplication is a policy application submitted from the
// personal drone insurance form. Coverage dates and times are kept as the
// raw strings the form sends ("2006-01-02", "15:04") so the contract view
// can rebuild the exact window the customer picked.
type PersonalDroneApplication struct {
	BaseModel
	IsNonMandatory    bool   `gorm:"default:true" json:"is_non_mandatory"`
	IsDroneplayMember bool   `gorm:"default:true" json:"is_droneplay_member"`
	Name              string `gorm:"index" json:"name"`
	BirthDate         string `json:"birth_date"` // YYMMDD
	Gender            string `json:"gender"`     // "male" | "female"
	Phone             string `gorm:"index" json:"phone"`
	Email             string `json:"email"`

	CoverageStartDate string `json:"coverage_start_date"`
	CoverageStartTime string `json:"coverage_start_time"`
	CoverageEndDate   string `json:"coverage_end_date"`
	CoverageEndTime   string `json:"coverage_end_time"`
	CoverageLocation  string `json:"coverage_location"`

	DroneCount   int           `gorm:"default:1" json:"drone_count"`
	Drones       []DroneDetail `gorm:"foreignKey:ApplicationID" json:"drones,omitempty"`
	TotalPremium int           `gorm:"default:0" json:"total_premium"`

	TermsAgreed bool       `gorm:"default:false" json:"terms_agreed"`
	AgreedAt    *time.Time `json:"agreed_at"`

	SourcePage string `gorm:"default:personal-drone-insurance-form" json:"source_page"`
	Status     string `gorm:"index;default:pending" json:"status"` // pending | processing | issued | cancelled | terminated
}

// DroneDetail is one insured drone on an application (up to 10 per form).
type DroneDetail struct {
	BaseModel
	ApplicationID uuid.UUID `gorm:"type:uuid;index" json:"application_id"`
	DroneIndex    int       `json:"drone_index"`
	Model         string    `json:"model"`
	SerialNumber  string    `json:"serial_number"`
	DroneType     string    `json:"drone_type"` // camera | fpv | toy | other
	DroneTypeName string    `json:"drone_type_name"`
	Weight        float64   `json:"weight"`
	MaxWeight     float64   `json:"max_weight"`
	Plan          string    `json:"plan"` // slim | standard | premium
	PlanName      string    `json:"plan_name"`
	Price         int       `json:"price"`
}
