package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/liabon/internal/models"
	"github.com/example/liabon/internal/services"
	"github.com/example/liabon/internal/utils"
)

// PaymentHandler confirms Toss payments and archives the results.
type PaymentHandler struct {
	db   *gorm.DB
	toss *services.TossService
}

// NewPaymentHandler creates a PaymentHandler.
func NewPaymentHandler(db *gorm.DB, toss *services.TossService) *PaymentHandler {
	return &PaymentHandler{db: db, toss: toss}
}

type tossConfirmBody struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

// Confirm serves POST /api/toss-payment-confirm. The confirm call runs
// server-side only; the widget never sees the secret key. The amount from
// the client is checked against what Toss actually charged before the
// payment is accepted.
func (h *PaymentHandler) Confirm(c *fiber.Ctx) error {
	var req tossConfirmBody
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "잘못된 요청 형식입니다.")
	}
	if req.PaymentKey == "" || req.OrderID == "" || req.Amount == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "paymentKey, orderId, amount 는 필수값입니다.")
	}

	payment, rawBody, err := h.toss.Confirm(req.PaymentKey, req.OrderID, req.Amount)
	if err != nil {
		var tossErr *services.TossError
		if errors.As(err, &tossErr) {
			log.Printf("[Payment] confirm rejected: %s (%s)", tossErr.Message, tossErr.Code)
			return c.Status(tossErr.Status).JSON(fiber.Map{
				"success": false,
				"message": tossErr.Message,
				"code":    tossErr.Code,
			})
		}
		log.Printf("[Payment] confirm failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "결제 승인 중 오류가 발생했습니다.",
			"code":    "INTERNAL_ERROR",
		})
	}

	if payment.TotalAmount != req.Amount {
		log.Printf("[Payment] amount mismatch: requested=%d charged=%d", req.Amount, payment.TotalAmount)
		return fiber.NewError(fiber.StatusBadRequest, "결제 금액이 일치하지 않습니다. 보안 오류입니다.")
	}

	record := models.Payment{
		PaymentKey:  payment.PaymentKey,
		OrderID:     payment.OrderID,
		OrderName:   payment.OrderName,
		TotalAmount: payment.TotalAmount,
		Method:      payment.Method,
		Status:      payment.Status,
		RequestedAt: payment.RequestedAt,
		ApprovedAt:  payment.ApprovedAt,
		RawResponse: rawBody,
	}
	if err := h.db.WithContext(c.Context()).Create(&record).Error; err != nil {
		// Confirmed money is never rolled back over a bookkeeping failure.
		log.Printf("[Payment] archive failed for %s: %v", payment.PaymentKey, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"payment": fiber.Map{
			"orderId":     payment.OrderID,
			"paymentKey":  payment.PaymentKey,
			"totalAmount": payment.TotalAmount,
			"method":      payment.Method,
			"status":      payment.Status,
			"orderName":   payment.OrderName,
			"requestedAt": payment.RequestedAt,
			"approvedAt":  payment.ApprovedAt,
		},
	})
}

// List serves GET /api/admin/payments.
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	var total int64
	if err := h.db.WithContext(c.Context()).Model(&models.Payment{}).Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "조회 중 오류가 발생했습니다.")
	}

	var rows []models.Payment
	if err := h.db.WithContext(c.Context()).
		Order("created_at desc").
		Limit(p.Limit).Offset(p.Offset).
		Find(&rows).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "조회 중 오류가 발생했습니다.")
	}

	return c.JSON(fiber.Map{
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
		"data":  rows,
	})
}
