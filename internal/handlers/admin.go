package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/liabon/internal/models"
	"github.com/example/liabon/internal/utils"
)

// AdminHandler serves the operator dashboard API.
type AdminHandler struct {
	db           *gorm.DB
	jwtSecret    string
	tokenExpires time.Duration
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *gorm.DB, jwtSecret string, tokenExpires time.Duration) *AdminHandler {
	return &AdminHandler{
		db:           db,
		jwtSecret:    jwtSecret,
		tokenExpires: tokenExpires,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login serves POST /api/admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "잘못된 요청 형식입니다.")
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "아이디와 비밀번호를 입력해주세요.")
	}

	var admin models.AdminUser
	if err := h.db.WithContext(c.Context()).
		Where("username = ?", req.Username).
		First(&admin).Error; err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "아이디 또는 비밀번호가 올바르지 않습니다.")
	}

	if !utils.CheckPassword(req.Password, admin.PasswordHash) {
		return fiber.NewError(fiber.StatusUnauthorized, "아이디 또는 비밀번호가 올바르지 않습니다.")
	}

	token, err := utils.GenerateToken(admin.ID.String(), admin.Username, h.jwtSecret, h.tokenExpires)
	if err != nil {
		log.Printf("[Admin] token issue failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "토큰 발급에 실패했습니다.")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"token":    token,
		"username": admin.Username,
	})
}

// DroneData serves GET /api/admin/drone-data. The dashboard browses either
// inquiries or applications with optional status and name/phone search.
func (h *AdminHandler) DroneData(c *fiber.Ctx) error {
	dataType := c.Query("type", "applications")
	status := c.Query("status")
	q := c.Query("q")
	p := utils.ParsePagination(c)

	if dataType == "inquiries" {
		query := h.db.WithContext(c.Context()).Model(&models.DroneInquiry{})
		if q != "" {
			query = query.Where("name ILIKE ? OR phone ILIKE ?", "%"+q+"%", "%"+q+"%")
		}
		if status != "" {
			query = query.Where("status = ?", status)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "조회 중 오류가 발생했습니다.")
		}

		var rows []models.DroneInquiry
		if err := query.Order("created_at desc").Limit(p.Limit).Offset(p.Offset).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "조회 중 오류가 발생했습니다.")
		}

		return c.JSON(fiber.Map{
			"type":  "inquiries",
			"total": total,
			"page":  p.Page,
			"limit": p.Limit,
			"data":  rows,
		})
	}

	query := h.db.WithContext(c.Context()).Model(&models.PersonalDroneApplication{})
	if q != "" {
		query = query.Where("name ILIKE ? OR phone ILIKE ? OR email ILIKE ?", "%"+q+"%", "%"+q+"%", "%"+q+"%")
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "조회 중 오류가 발생했습니다.")
	}

	var rows []models.PersonalDroneApplication
	if err := query.Preload("Drones").Order("created_at desc").Limit(p.Limit).Offset(p.Offset).Find(&rows).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "조회 중 오류가 발생했습니다.")
	}

	return c.JSON(fiber.Map{
		"type":  "applications",
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
		"data":  rows,
	})
}

// Stats serves GET /api/admin/stats with dashboard headline counts.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	db := h.db.WithContext(c.Context())

	var inquiriesTotal, inquiriesNew int64
	var appsTotal, appsPending int64
	var requestsTotal int64
	var paymentsTotal int64

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&inquiriesTotal, db.Model(&models.DroneInquiry{})},
		{&inquiriesNew, db.Model(&models.DroneInquiry{}).Where("status = ?", "new")},
		{&appsTotal, db.Model(&models.PersonalDroneApplication{})},
		{&appsPending, db.Model(&models.PersonalDroneApplication{}).Where("status = ?", "pending")},
		{&requestsTotal, db.Model(&models.ContractRequest{})},
		{&paymentsTotal, db.Model(&models.Payment{})},
	}
	for _, cnt := range counts {
		if err := cnt.query.Count(cnt.dst).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "조회 중 오류가 발생했습니다.")
		}
	}

	return c.JSON(fiber.Map{
		"inquiries": fiber.Map{
			"total": inquiriesTotal,
			"new":   inquiriesNew,
		},
		"applications": fiber.Map{
			"total":   appsTotal,
			"pending": appsPending,
		},
		"contract_requests": fiber.Map{
			"total": requestsTotal,
		},
		"payments": fiber.Map{
			"total": paymentsTotal,
		},
	})
}
