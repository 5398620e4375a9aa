package models

// AdminUser is a dashboard operator account.
type AdminUser struct {
	BaseModel
	Username     string `gorm:"uniqueIndex" json:"username"`
	PasswordHash string `json:"-"`
}
