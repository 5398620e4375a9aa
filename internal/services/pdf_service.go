package services

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// QuoteData carries everything the quote sheet renders. All monetary values
// are KRW integers.
type QuoteData struct {
	QuoteNumber  string
	IssuedDate   string
	CustomerName string
	Phone        string
	Email        string
	StartDate    string
	EndDate      string
	Drones       []QuoteDrone
	TotalPremium int
}

// QuoteDrone is one drone line on the quote sheet.
type QuoteDrone struct {
	Model     string
	Serial    string
	TypeName  string
	Weight    float64
	MaxWeight float64
	PlanName  string
	Price     int
}

// PDFService renders insurance quote sheets.
type PDFService struct{}

// NewPDFService creates a PDFService.
func NewPDFService() *PDFService {
	return &PDFService{}
}

const (
	quoteGoldR, quoteGoldG, quoteGoldB = 255, 184, 0
	quoteDarkR, quoteDarkG, quoteDarkB = 26, 26, 26
)

// RenderQuote produces the quote sheet as a PDF document. Layout is A4 in
// point units: gold header band, quote and customer info columns, coverage
// conditions, one block per drone, total premium band, notice and footer.
func (s *PDFService) RenderQuote(q QuoteData) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(true, 40)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	margin := 40.0
	contentW := pageW - 2*margin

	// Header band
	pdf.SetFillColor(quoteGoldR, quoteGoldG, quoteGoldB)
	pdf.Rect(0, 0, pageW, 90, "F")
	pdf.SetTextColor(quoteDarkR, quoteDarkG, quoteDarkB)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetXY(margin, 28)
	pdf.CellFormat(contentW, 26, "Drone Insurance Quote", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetX(margin)
	pdf.CellFormat(contentW, 14, "KB Insurance / Personal Drone Coverage", "", 1, "L", false, 0, "")

	pdf.SetY(110)

	// Quote info and customer info, two columns
	colW := contentW / 2
	leftX := margin
	rightX := margin + colW + 10

	s.sectionTitle(pdf, leftX, "Quote Information")
	s.infoRow(pdf, leftX, colW-10, "Quote No.", q.QuoteNumber)
	s.infoRow(pdf, leftX, colW-10, "Issued", q.IssuedDate)
	s.infoRow(pdf, leftX, colW-10, "Valid Until", q.EndDate)

	pdf.SetY(110)
	s.sectionTitleAt(pdf, rightX, "Customer Information")
	s.infoRow(pdf, rightX, colW-10, "Name", q.CustomerName)
	s.infoRow(pdf, rightX, colW-10, "Phone", q.Phone)
	s.infoRow(pdf, rightX, colW-10, "Email", q.Email)

	pdf.SetY(210)

	// Coverage window
	s.sectionTitle(pdf, margin, "Insurance Conditions")
	s.infoRow(pdf, margin, contentW, "Coverage Period", fmt.Sprintf("%s ~ %s", q.StartDate, q.EndDate))
	s.infoRow(pdf, margin, contentW, "Insured Drones", fmt.Sprintf("%d", len(q.Drones)))
	pdf.Ln(12)

	// Per-drone blocks
	for i, d := range q.Drones {
		s.sectionTitle(pdf, margin, fmt.Sprintf("Drone %d", i+1))
		s.infoRow(pdf, margin, contentW, "Model", d.Model)
		s.infoRow(pdf, margin, contentW, "Serial No.", d.Serial)
		s.infoRow(pdf, margin, contentW, "Type", d.TypeName)
		s.infoRow(pdf, margin, contentW, "Weight / MTOW", fmt.Sprintf("%.1fkg / %.1fkg", d.Weight, d.MaxWeight))
		s.infoRow(pdf, margin, contentW, "Plan", d.PlanName)
		s.infoRow(pdf, margin, contentW, "Premium", formatKRW(d.Price))
		pdf.Ln(8)
	}

	// Total band
	pdf.Ln(6)
	y := pdf.GetY()
	pdf.SetFillColor(quoteGoldR, quoteGoldG, quoteGoldB)
	pdf.Rect(margin, y, contentW, 34, "F")
	pdf.SetXY(margin+12, y+9)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW/2, 16, "Annual Total Premium", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2-24, 16, formatKRW(q.TotalPremium), "", 1, "R", false, 0, "")
	pdf.SetY(y + 46)

	// Notice
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(110, 110, 110)
	pdf.MultiCell(contentW, 11,
		"This quote is an estimate. The final premium is fixed at underwriting and may "+
			"differ depending on drone registration details and coverage options. "+
			"The quote is valid for 7 days from the issue date.",
		"", "L", false)

	// Footer
	pdf.SetY(-70)
	footY := pdf.GetY()
	pdf.SetFillColor(quoteDarkR, quoteDarkG, quoteDarkB)
	pdf.Rect(0, footY, pageW, 70, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(margin, footY+16)
	pdf.CellFormat(contentW, 12, "LIAB.ON Insurance Agency", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetX(margin)
	pdf.CellFormat(contentW, 11, "liab.on.ins@gmail.com", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("quote render: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *PDFService) sectionTitle(pdf *fpdf.Fpdf, x float64, title string) {
	s.sectionTitleAt(pdf, x, title)
}

func (s *PDFService) sectionTitleAt(pdf *fpdf.Fpdf, x float64, title string) {
	pdf.SetX(x)
	pdf.SetTextColor(quoteDarkR, quoteDarkG, quoteDarkB)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(200, 16, title, "", 2, "L", false, 0, "")
	y := pdf.GetY()
	pdf.SetDrawColor(quoteGoldR, quoteGoldG, quoteGoldB)
	pdf.SetLineWidth(1.2)
	pdf.Line(x, y, x+60, y)
	pdf.SetY(y + 6)
	pdf.SetX(x)
}

func (s *PDFService) infoRow(pdf *fpdf.Fpdf, x, w float64, label, value string) {
	pdf.SetX(x)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(w*0.38, 14, label, "", 0, "L", false, 0, "")
	pdf.SetTextColor(quoteDarkR, quoteDarkG, quoteDarkB)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(w*0.62, 14, value, "", 1, "L", false, 0, "")
}

func formatKRW(amount int) string {
	s := fmt.Sprintf("%d", amount)
	if len(s) <= 3 {
		return s + " KRW"
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out) + " KRW"
}
