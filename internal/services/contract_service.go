package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/liabon/internal/models"
)

// Contract lifecycle states as shown to the customer.
const (
	ContractStatusPending    = "pending"
	ContractStatusActive     = "active"
	ContractStatusExpired    = "expired"
	ContractStatusCancelled  = "cancelled"
	ContractStatusTerminated = "terminated"
)

// Contract is the customer-facing view of one application.
type Contract struct {
	ID            string          `json:"id"`
	ApplicationID uuid.UUID       `json:"application_id"`
	Product       string          `json:"product"`
	Status        string          `json:"status"`
	Plan          string          `json:"plan"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	TotalPremium  int             `json:"total_premium"`
	Drones        []ContractDrone `json:"drones"`
	CanCancel     bool            `json:"can_cancel"`
	CanTerminate  bool            `json:"can_terminate"`
	CreatedAt     string          `json:"created_at"`
}

// ContractDrone is one insured drone inside a contract view.
type ContractDrone struct {
	Index     int     `json:"index"`
	Model     string  `json:"model"`
	Serial    string  `json:"serial"`
	Type      string  `json:"type"`
	TypeName  string  `json:"type_name"`
	Weight    float64 `json:"weight"`
	MaxWeight float64 `json:"max_weight"`
}

// DroneChange is one requested drone modification on a change request.
type DroneChange struct {
	Index     int    `json:"index"`
	Model     string `json:"model"`
	Serial    string `json:"serial"`
	Type      string `json:"type"`
	Weight    string `json:"weight"`
	MaxWeight string `json:"max_weight"`
}

// ContractStore is the persistence boundary the my-insurance handler talks
// to once a lookup is authorized.
type ContractStore interface {
	FetchContracts(ctx context.Context, name, phone string) ([]Contract, error)
	SaveChangeRequest(ctx context.Context, name, phone, contractID string, changes []DroneChange) (uuid.UUID, error)
	SaveCancelRequest(ctx context.Context, name, phone, contractID, reason string) (uuid.UUID, error)
	SaveTerminateRequest(ctx context.Context, name, phone, contractID, reason, refundAccount string) (uuid.UUID, error)
}

// ContractService implements ContractStore on Postgres.
type ContractService struct {
	db *gorm.DB
}

// NewContractService creates a ContractService.
func NewContractService(db *gorm.DB) *ContractService {
	return &ContractService{db: db}
}

var contractIDPattern = regexp.MustCompile(`KBD-([0-9a-fA-F-]+)`)

// FormatContractID renders the public contract number for an application.
// Short numeric suffixes keep the legacy KBD-%08d look.
func FormatContractID(appID uuid.UUID) string {
	return "KBD-" + appID.String()[:8]
}

// ParseApplicationRef extracts the application reference embedded in a
// public contract number. Returns "" when the format is unrecognized.
func ParseApplicationRef(contractID string) string {
	match := contractIDPattern.FindStringSubmatch(contractID)
	if match == nil {
		return ""
	}
	return match[1]
}

// FetchContracts loads every application registered under the exact
// (name, phone) pair, newest first, mapped to the contract view.
func (s *ContractService) FetchContracts(ctx context.Context, name, phone string) ([]Contract, error) {
	var apps []models.PersonalDroneApplication
	if err := s.db.WithContext(ctx).
		Preload("Drones", func(db *gorm.DB) *gorm.DB {
			return db.Order("drone_index asc")
		}).
		Where("name = ? AND phone = ?", name, phone).
		Order("created_at desc").
		Find(&apps).Error; err != nil {
		return nil, err
	}

	contracts := make([]Contract, 0, len(apps))
	for _, app := range apps {
		contracts = append(contracts, mapApplicationToContract(app, time.Now()))
	}
	return contracts, nil
}

func mapApplicationToContract(app models.PersonalDroneApplication, now time.Time) Contract {
	status := DeriveContractStatus(
		app.Status,
		app.CoverageStartDate, app.CoverageStartTime,
		app.CoverageEndDate, app.CoverageEndTime,
		now,
	)

	plan := ""
	drones := make([]ContractDrone, 0, len(app.Drones))
	for _, d := range app.Drones {
		drones = append(drones, ContractDrone{
			Index:     d.DroneIndex,
			Model:     d.Model,
			Serial:    d.SerialNumber,
			Type:      d.DroneType,
			TypeName:  d.DroneTypeName,
			Weight:    d.Weight,
			MaxWeight: d.MaxWeight,
		})
	}
	if len(app.Drones) > 0 {
		plan = app.Drones[0].PlanName
	}

	return Contract{
		ID:            FormatContractID(app.ID),
		ApplicationID: app.ID,
		Product:       "KB손해보험 개인용 드론보험",
		Status:        status,
		Plan:          plan,
		StartDate:     app.CoverageStartDate,
		EndDate:       app.CoverageEndDate,
		TotalPremium:  app.TotalPremium,
		Drones:        drones,
		CanCancel:     status == ContractStatusPending,
		CanTerminate:  status == ContractStatusActive,
		CreatedAt:     app.CreatedAt.Format("2006-01-02"),
	}
}

// DeriveContractStatus computes the effective state of a contract from its
// stored status and coverage window. Cancelled and terminated are sticky;
// everything else follows the clock.
func DeriveContractStatus(stored, startDate, startTime, endDate, endTime string, now time.Time) string {
	if stored == "" {
		stored = ContractStatusPending
	}
	if stored == ContractStatusCancelled || stored == ContractStatusTerminated {
		return stored
	}

	start, startOK := parseCoverageInstant(startDate, startTime, "00:00")
	end, endOK := parseCoverageInstant(endDate, endTime, "23:59")

	switch {
	case !startOK:
		return ContractStatusPending
	case now.Before(start):
		return ContractStatusPending
	case endOK && now.After(end):
		return ContractStatusExpired
	default:
		return ContractStatusActive
	}
}

func parseCoverageInstant(date, clock, defaultClock string) (time.Time, bool) {
	if date == "" {
		return time.Time{}, false
	}
	if clock == "" {
		clock = defaultClock
	}
	t, err := time.ParseInLocation("2006-01-02T15:04", date+"T"+clock, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SaveChangeRequest records a drone-change request and a per-field diff
// against the currently stored drone data.
func (s *ContractService) SaveChangeRequest(ctx context.Context, name, phone, contractID string, changes []DroneChange) (uuid.UUID, error) {
	app, _ := s.findApplication(ctx, contractID)

	data, err := json.Marshal(changes)
	if err != nil {
		return uuid.Nil, err
	}

	req := models.ContractRequest{
		ContractID:    contractID,
		RequestType:   models.RequestTypeDroneChange,
		CustomerName:  name,
		CustomerPhone: phone,
		RequestData:   data,
	}
	if app != nil {
		req.ApplicationID = &app.ID
	}

	if err := s.db.WithContext(ctx).Create(&req).Error; err != nil {
		return uuid.Nil, err
	}

	oldDrones := map[int]models.DroneDetail{}
	if app != nil {
		for _, d := range app.Drones {
			oldDrones[d.DroneIndex] = d
		}
	}

	for _, change := range changes {
		old := oldDrones[change.Index]
		fields := []struct {
			name     string
			oldValue string
			newValue string
		}{
			{"model", old.Model, change.Model},
			{"serial", old.SerialNumber, change.Serial},
			{"type", old.DroneType, change.Type},
			{"weight", formatWeight(old.Weight), change.Weight},
			{"max_weight", formatWeight(old.MaxWeight), change.MaxWeight},
		}

		for _, f := range fields {
			if f.oldValue == f.newValue {
				continue
			}
			logEntry := models.DroneChangeLog{
				RequestID:  req.ID,
				DroneIndex: change.Index,
				FieldName:  f.name,
				OldValue:   f.oldValue,
				NewValue:   f.newValue,
			}
			if err := s.db.WithContext(ctx).Create(&logEntry).Error; err != nil {
				return uuid.Nil, err
			}
		}
	}

	return req.ID, nil
}

// SaveCancelRequest records a cancellation and flips the application status.
func (s *ContractService) SaveCancelRequest(ctx context.Context, name, phone, contractID, reason string) (uuid.UUID, error) {
	return s.saveStatusRequest(ctx, name, phone, contractID, reason, "", models.RequestTypeCancel, ContractStatusCancelled)
}

// SaveTerminateRequest records a termination and flips the application status.
func (s *ContractService) SaveTerminateRequest(ctx context.Context, name, phone, contractID, reason, refundAccount string) (uuid.UUID, error) {
	return s.saveStatusRequest(ctx, name, phone, contractID, reason, refundAccount, models.RequestTypeTerminate, ContractStatusTerminated)
}

func (s *ContractService) saveStatusRequest(ctx context.Context, name, phone, contractID, reason, refundAccount, requestType, newStatus string) (uuid.UUID, error) {
	app, _ := s.findApplication(ctx, contractID)

	req := models.ContractRequest{
		ContractID:    contractID,
		RequestType:   requestType,
		CustomerName:  name,
		CustomerPhone: phone,
		Reason:        reason,
		RefundAccount: refundAccount,
	}
	if app != nil {
		req.ApplicationID = &app.ID
	}

	if err := s.db.WithContext(ctx).Create(&req).Error; err != nil {
		return uuid.Nil, err
	}

	if app != nil {
		if err := s.db.WithContext(ctx).
			Model(&models.PersonalDroneApplication{}).
			Where("id = ?", app.ID).
			Update("status", newStatus).Error; err != nil {
			return uuid.Nil, err
		}
	}

	return req.ID, nil
}

func (s *ContractService) findApplication(ctx context.Context, contractID string) (*models.PersonalDroneApplication, error) {
	ref := ParseApplicationRef(contractID)
	if ref == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var app models.PersonalDroneApplication
	if err := s.db.WithContext(ctx).
		Preload("Drones").
		Where("id::text LIKE ?", ref+"%").
		First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func formatWeight(w float64) string {
	if w == 0 {
		return ""
	}
	return strconv.FormatFloat(w, 'f', -1, 64)
}
