package handlers

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/liabon/internal/models"
)

// InquiryHandler persists consultation inquiries and insurance applications
// submitted by the public forms. These endpoints answer with an error field
// instead of the message field the rest of the API uses; the static pages
// were built against that shape.
type InquiryHandler struct {
	db *gorm.DB
}

// NewInquiryHandler creates an InquiryHandler.
func NewInquiryHandler(db *gorm.DB) *InquiryHandler {
	return &InquiryHandler{db: db}
}

type inquiryRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	InsuranceType string `json:"insurance_type"`
	Message       string `json:"message"`
}

// SubmitInquiry serves POST /api/drone-inquiries.
func (h *InquiryHandler) SubmitInquiry(c *fiber.Ctx) error {
	var req inquiryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식입니다."})
	}

	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	if name == "" || phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "이름과 연락처는 필수입니다."})
	}

	inquiry := models.DroneInquiry{
		Name:          name,
		Phone:         phone,
		Email:         strings.TrimSpace(req.Email),
		InsuranceType: req.InsuranceType,
		Message:       strings.TrimSpace(req.Message),
		SourcePage:    "drone-insurance",
		Status:        "new",
	}

	if err := h.db.WithContext(c.Context()).Create(&inquiry).Error; err != nil {
		log.Printf("[Inquiry] insert failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요."})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"id":      inquiry.ID,
		"message": "상담 신청이 접수되었습니다.",
	})
}

type applicationDrone struct {
	Model        string      `json:"model"`
	SerialNumber string      `json:"serial_number"`
	Type         string      `json:"type"`
	TypeName     string      `json:"type_name"`
	Weight       interface{} `json:"weight"`
	MaxWeight    interface{} `json:"max_weight"`
	Plan         string      `json:"plan"`
	PlanName     string      `json:"plan_name"`
	PlanPrice    interface{} `json:"plan_price"`
}

type applicationRequest struct {
	IsNonMandatory   *bool  `json:"is_non_mandatory"`
	IsDroneplayMember *bool `json:"is_droneplay_member"`

	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`

	CoverageStart    string `json:"coverage_start"`
	CoverageEnd      string `json:"coverage_end"`
	CoverageLocation string `json:"coverage_location"`

	DroneCount   interface{}        `json:"drone_count"`
	Drones       []applicationDrone `json:"drones"`
	TotalPremium interface{}        `json:"total_premium"`
	TermsAgreed  bool               `json:"terms_agreed"`
}

// SubmitApplication serves POST /api/submit-personal-drone-application.
func (h *InquiryHandler) SubmitApplication(c *fiber.Ctx) error {
	var req applicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식입니다."})
	}

	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	email := strings.TrimSpace(req.Email)

	switch {
	case name == "" || phone == "" || email == "":
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "이름, 연락처, 이메일은 필수입니다."})
	case strings.TrimSpace(req.BirthDate) == "":
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "생년월일은 필수입니다."})
	case req.CoverageStart == "":
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "보험 시작일은 필수입니다."})
	case !req.TermsAgreed:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "약관 동의가 필요합니다."})
	}

	startDate, startTime := splitISOInstant(req.CoverageStart)
	endDate, endTime := splitISOInstant(req.CoverageEnd)

	now := time.Now()
	app := models.PersonalDroneApplication{
		IsNonMandatory:    boolOrDefault(req.IsNonMandatory, true),
		IsDroneplayMember: boolOrDefault(req.IsDroneplayMember, true),
		Name:              name,
		BirthDate:         strings.TrimSpace(req.BirthDate),
		Gender:            req.Gender,
		Phone:             phone,
		Email:             email,
		CoverageStartDate: startDate,
		CoverageStartTime: startTime,
		CoverageEndDate:   endDate,
		CoverageEndTime:   endTime,
		CoverageLocation:  strings.TrimSpace(req.CoverageLocation),
		DroneCount:        intFromAny(req.DroneCount, 1),
		TotalPremium:      intFromAny(req.TotalPremium, 0),
		TermsAgreed:       req.TermsAgreed,
		AgreedAt:          &now,
		SourcePage:        "personal-drone-insurance-form",
		Status:            "pending",
	}

	for i, d := range req.Drones {
		app.Drones = append(app.Drones, models.DroneDetail{
			DroneIndex:   i,
			Model:        d.Model,
			SerialNumber: d.SerialNumber,
			DroneType:    d.Type,
			DroneTypeName: firstNonEmpty(d.TypeName, droneTypeNames[d.Type]),
			Weight:       floatFromAny(d.Weight),
			MaxWeight:    floatFromAny(d.MaxWeight),
			Plan:         d.Plan,
			PlanName:     d.PlanName,
			Price:        intFromAny(d.PlanPrice, 0),
		})
	}

	if err := h.db.WithContext(c.Context()).Create(&app).Error; err != nil {
		log.Printf("[Application] insert failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요."})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"id":      app.ID,
		"message": "가입 신청이 완료되었습니다. 영업일 기준 1~2일 내 연락드리겠습니다.",
	})
}

// splitISOInstant breaks "2026-09-01T09:00" into its date and clock parts.
// A bare date yields an empty clock.
func splitISOInstant(s string) (date, clock string) {
	date, clock, _ = strings.Cut(s, "T")
	if len(clock) > 5 {
		clock = clock[:5]
	}
	return date, clock
}

func boolOrDefault(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func floatFromAny(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return 0
}
