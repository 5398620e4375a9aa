package handlers

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/liabon/internal/services"
)

// PDFHandler renders downloadable quote sheets.
type PDFHandler struct {
	pdf *services.PDFService
}

// NewPDFHandler creates a PDFHandler.
func NewPDFHandler(pdf *services.PDFService) *PDFHandler {
	return &PDFHandler{pdf: pdf}
}

type pdfQuoteRequest struct {
	CorpName       string             `json:"corp_name"`
	Name           string             `json:"name"`
	Phone          string             `json:"phone"`
	Email          string             `json:"email"`
	DroneCount     interface{}        `json:"drone_count"`
	Drones         []contactDrone     `json:"drones"`
	DronePlans     []contactDronePlan `json:"drone_plans"`
	PlanTotalPrice interface{}        `json:"plan_total_price"`
	InsuranceStart string             `json:"insurance_start"`
	InsuranceEnd   string             `json:"insurance_end"`
}

// Generate serves POST /api/generate-pdf and answers with the quote sheet
// as an attachment. The filename carries the customer name, RFC 5987
// encoded so Korean survives the header.
func (h *PDFHandler) Generate(c *fiber.Ctx) error {
	var req pdfQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "잘못된 요청 형식입니다.")
	}

	custName := req.CorpName
	if custName == "" {
		custName = req.Name
	}

	now := time.Now()
	quote := services.QuoteData{
		QuoteNumber:  fmt.Sprintf("Q%s", now.Format("20060102-150405")),
		IssuedDate:   now.Format("2006.1.2"),
		CustomerName: custName,
		Phone:        req.Phone,
		Email:        req.Email,
		StartDate:    req.InsuranceStart,
		EndDate:      req.InsuranceEnd,
		TotalPremium: intFromAny(req.PlanTotalPrice, 0),
	}

	for i, d := range req.Drones {
		qd := services.QuoteDrone{
			Model:     d.Model,
			Serial:    d.Serial,
			Weight:    floatFromAny(d.Weight),
			MaxWeight: floatFromAny(d.MaxWeight),
		}
		if plan := dronePlanAt(req.DronePlans, i); plan != nil {
			qd.PlanName = plan.PlanName
			qd.Price = intFromAny(plan.Price, 0)
		}
		quote.Drones = append(quote.Drones, qd)
	}

	data, err := h.pdf.RenderQuote(quote)
	if err != nil {
		log.Printf("[PDF] render failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "PDF 생성 중 오류가 발생했습니다.")
	}

	filename := url.PathEscape(fmt.Sprintf("KB_드론보험_견적서_%s_%s.pdf", custName, now.Format("20060102")))
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename*=UTF-8''"+filename)
	return c.Send(data)
}
