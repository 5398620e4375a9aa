package handlers

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/liabon/internal/services"
)

// ContactHandler turns consultation forms into operator mail and, for
// personal drone insurance, an optional customer quote mail.
type ContactHandler struct {
	mailer     services.Mailer
	adminEmail string
}

// NewContactHandler creates a ContactHandler.
func NewContactHandler(mailer services.Mailer, adminEmail string) *ContactHandler {
	return &ContactHandler{mailer: mailer, adminEmail: adminEmail}
}

type contactDrone struct {
	Model     string      `json:"model"`
	Serial    string      `json:"serial"`
	Weight    interface{} `json:"weight"`
	MaxWeight interface{} `json:"max_weight"`
}

type contactDronePlan struct {
	Plan     string      `json:"plan"`
	PlanName string      `json:"plan_name"`
	Price    interface{} `json:"price"`
}

type contactRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Message       string `json:"message"`
	InsuranceType string `json:"insurance_type"`

	// travel insurance
	DepartureDate string      `json:"departure_date"`
	ArrivalDate   string      `json:"arrival_date"`
	Destination   string      `json:"destination"`
	TravelPurpose string      `json:"travel_purpose"`
	Travelers     interface{} `json:"travelers"`

	// personal drone insurance
	BirthDate         string             `json:"birth_date"`
	Gender            string             `json:"gender"`
	DroneType         string             `json:"drone_type"`
	DroneCount        interface{}        `json:"drone_count"`
	Plan              string             `json:"plan"`
	PlanName          string             `json:"plan_name"`
	PlanPricePerDrone interface{}        `json:"plan_price_per_drone"`
	PlanTotalPrice    interface{}        `json:"plan_total_price"`
	InsuranceStart    string             `json:"insurance_start"`
	InsuranceEnd      string             `json:"insurance_end"`
	Drones            []contactDrone     `json:"drones"`
	DronePlans        []contactDronePlan `json:"drone_plans"`
	PlanSelectionType string             `json:"plan_selection_type"`
	SendToCustomer    bool               `json:"send_to_customer"`
	RequestType       string             `json:"request_type"`

	// business drone quote
	ManagerName    string      `json:"manager_name"`
	ManagerPhone   string      `json:"manager_phone"`
	ManagerEmail   string      `json:"manager_email"`
	CustomerType   string      `json:"customer_type"`
	CompanyName    string      `json:"company_name"`
	DroneUnder25   interface{} `json:"drone_under_25kg"`
	Drone25To100   interface{} `json:"drone_25_100kg"`
	DroneOver100   interface{} `json:"drone_over_100kg"`
	Inquiry        string      `json:"inquiry"`
}

var droneTypeNames = map[string]string{
	"camera": "촬영용 센서드론",
	"fpv":    "FPV/레이싱 드론",
	"toy":    "완구형 드론",
	"other":  "기타 드론",
}

// Handle serves POST /api/contact.
func (h *ContactHandler) Handle(c *fiber.Ctx) error {
	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "잘못된 요청 형식입니다.")
	}

	subject, body := h.buildAdminMail(req)

	customerQuote := req.SendToCustomer && req.InsuranceType == "개인용 드론보험"

	// The customer quote flow replaces the operator mail.
	if !customerQuote {
		if err := h.mailer.SendHTML(h.adminEmail, subject, body); err != nil {
			log.Printf("[Contact] admin mail failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "전송 중 오류가 발생했습니다. 다시 시도해주세요.")
		}
	}

	if customerQuote && req.Email != "" {
		quoteSubject := fmt.Sprintf("[배상온 대리점] KB손해보험 개인용 드론보험 견적서 - %s님", req.Name)
		if err := h.mailer.SendHTML(req.Email, quoteSubject, h.buildCustomerQuote(req)); err != nil {
			log.Printf("[Contact] customer quote mail failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "전송 중 오류가 발생했습니다. 다시 시도해주세요.")
		}
	}

	message := "상담 신청이 완료되었습니다."
	if req.SendToCustomer {
		message = "상담 신청이 완료되었으며, 견적서가 이메일로 전송되었습니다."
	}
	return c.JSON(fiber.Map{"message": message})
}

func (h *ContactHandler) buildAdminMail(req contactRequest) (subject, body string) {
	switch {
	case req.InsuranceType == "해외여행보험":
		return fmt.Sprintf("[KB손해보험 해외여행보험 문의] %s님의 상담 신청", req.Name),
			h.travelMail("해외여행보험 상담 신청", "여행 국가", req)
	case req.InsuranceType == "국내여행보험":
		return fmt.Sprintf("[KB손해보험 국내여행보험 문의] %s님의 상담 신청", req.Name),
			h.travelMail("국내여행보험 상담 신청", "여행 지역", req)
	case req.InsuranceType == "개인용 드론보험":
		return fmt.Sprintf("[KB손해보험 개인용 드론보험 문의] %s님의 상담 신청", req.Name),
			h.personalDroneMail(req)
	case req.RequestType == "business_quote":
		name := req.ManagerName
		if name == "" {
			name = req.Name
		}
		return fmt.Sprintf("[드론배상 문의] %s님의 상담 신청", name),
			h.businessQuoteMail(req)
	default:
		return fmt.Sprintf("[KB손해보험 문의] %s님의 상담 신청", req.Name),
			h.genericMail(req)
	}
}

func (h *ContactHandler) travelMail(title, regionLabel string, req contactRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>", title)
	b.WriteString(mailSection("신청자 정보",
		kv("이름", req.Name),
		kv("연락처", req.Phone),
		kv("이메일", orMissing(req.Email))))
	b.WriteString(mailSection("여행 정보",
		kv("출발일", orMissing(req.DepartureDate)),
		kv("도착일", orMissing(req.ArrivalDate)),
		kv(regionLabel, orMissing(req.Destination)),
		kv("여행 목적", orMissing(req.TravelPurpose)),
		kv("인원 수", orMissing(anyString(req.Travelers))+"명")))
	if req.Message != "" {
		b.WriteString(mailSection("추가 문의사항", "<p>"+esc(req.Message)+"</p>"))
	}
	b.WriteString(mailFooter)
	return b.String()
}

func (h *ContactHandler) personalDroneMail(req contactRequest) string {
	gender := "미입력"
	switch req.Gender {
	case "male":
		gender = "남성"
	case "female":
		gender = "여성"
	}

	var b strings.Builder
	b.WriteString("<h2>개인용 드론보험 상담 신청</h2>")
	b.WriteString(mailSection("신청자 정보",
		kv("이름", req.Name),
		kv("연락처", req.Phone),
		kv("이메일", orMissing(req.Email)),
		kv("생년월일", orMissing(req.BirthDate)),
		kv("성별", gender)))

	var drones strings.Builder
	drones.WriteString(kv("드론 종류", orMissing(droneTypeNames[req.DroneType])))
	drones.WriteString(kv("드론 대수", fmt.Sprintf("%d대", intFromAny(req.DroneCount, 1))))
	for i, d := range req.Drones {
		drones.WriteString(h.droneBlock(i, d, dronePlanAt(req.DronePlans, i), req.Plan))
	}
	b.WriteString(mailSection("드론 정보", drones.String()))
	b.WriteString(mailSection("보험 기간",
		kv("보험 시작일", orMissing(req.InsuranceStart)),
		kv("보험 종료일", orMissing(req.InsuranceEnd))))

	priceLines := kv("총 보험료", formatWon(intFromAny(req.PlanTotalPrice, 0))+"/년")
	if req.PlanSelectionType == "unified" {
		priceLines += kv("플랜명", orMissing(req.PlanName)+" (전체 동일)")
		priceLines += kv("보험료(1대당)", formatWon(intFromAny(req.PlanPricePerDrone, 0))+"/년")
	} else {
		priceLines += kv("플랜 선택", "드론별 개별 플랜")
	}
	b.WriteString(mailSection("보험료 정보", priceLines))

	if req.Message != "" {
		b.WriteString(mailSection("추가 문의사항", "<p>"+esc(req.Message)+"</p>"))
	}
	b.WriteString(mailFooter)
	return b.String()
}

func (h *ContactHandler) businessQuoteMail(req contactRequest) string {
	name, phone, email := req.ManagerName, req.ManagerPhone, req.ManagerEmail
	if name == "" {
		name = req.Name
	}
	if phone == "" {
		phone = req.Phone
	}
	if email == "" {
		email = req.Email
	}

	customerType := "미입력"
	switch req.CustomerType {
	case "corporation":
		customerType = "법인사업자"
	case "individual":
		customerType = "개인사업자"
	}

	under := intFromAny(req.DroneUnder25, 0)
	mid := intFromAny(req.Drone25To100, 0)
	over := intFromAny(req.DroneOver100, 0)

	var b strings.Builder
	b.WriteString("<h2>업무용 드론보험 견적 의뢰</h2>")
	b.WriteString("<p><strong>군집드론 또는 특수 자격으로 인한 별도 심사 건입니다.</strong></p>")
	b.WriteString(mailSection("사업자 정보",
		kv("가입대상자", customerType),
		kv("회사명", orMissing(req.CompanyName))))
	b.WriteString(mailSection("드론 정보",
		kv("드론중량 25kg 미만", fmt.Sprintf("%d대", under)),
		kv("드론중량 25kg~100kg 미만", fmt.Sprintf("%d대", mid)),
		kv("드론중량 100kg 이상", fmt.Sprintf("%d대", over)),
		kv("총 드론 대수", fmt.Sprintf("%d대", under+mid+over))))
	b.WriteString(mailSection("담당자 정보",
		kv("담당자명", name),
		kv("담당자 연락처", phone),
		kv("담당자 이메일", email)))
	b.WriteString(mailSection("보험상품", kv("상품명", "드론배상책임보험")))
	if req.Inquiry != "" {
		b.WriteString(mailSection("문의사항", "<p>"+esc(req.Inquiry)+"</p>"))
	}
	b.WriteString(mailFooter)
	return b.String()
}

func (h *ContactHandler) genericMail(req contactRequest) string {
	message := req.Message
	if message == "" {
		message = "상담 요청"
	}
	var b strings.Builder
	b.WriteString("<h2>새로운 상담 신청이 접수되었습니다</h2>")
	b.WriteString(kv("이름", req.Name))
	b.WriteString(kv("연락처", req.Phone))
	b.WriteString(kv("이메일", orMissing(req.Email)))
	b.WriteString("<p><strong>문의 내용:</strong></p><p>" + esc(message) + "</p>")
	b.WriteString(mailFooter)
	return b.String()
}

// buildCustomerQuote renders the HTML quote sheet mailed to the customer.
func (h *ContactHandler) buildCustomerQuote(req contactRequest) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family:'Noto Sans KR',sans-serif;max-width:600px;margin:0 auto;">`)
	b.WriteString(`<div style="background:#FFB800;padding:30px;text-align:center;">` +
		`<h1 style="color:#1a1a1a;margin:0;">배상온 개인용 드론보험</h1>` +
		`<h2 style="color:#1a1a1a;margin:10px 0 0 0;font-size:1.2rem;">견적서</h2></div>`)
	b.WriteString(`<div style="padding:30px;background:#fff;">`)

	b.WriteString(mailSection("견적 정보",
		kv("견적일자", time.Now().Format("2006-01-02")),
		kv("보험기간", orMissing(req.InsuranceStart)+" ~ "+orMissing(req.InsuranceEnd)),
		kv("상품명", "KB손해보험 개인용 드론보험")))
	b.WriteString(mailSection("고객 정보",
		kv("이름", req.Name),
		kv("연락처", req.Phone),
		kv("이메일", req.Email)))

	var drones strings.Builder
	drones.WriteString(kv("드론 종류", orMissing(droneTypeNames[req.DroneType])))
	drones.WriteString(kv("드론 대수", fmt.Sprintf("%d대", intFromAny(req.DroneCount, 1))))
	for i, d := range req.Drones {
		drones.WriteString(h.droneBlock(i, d, dronePlanAt(req.DronePlans, i), req.Plan))
	}
	b.WriteString(mailSection("드론 정보", drones.String()))

	if req.PlanSelectionType != "individual" {
		b.WriteString(mailSection("보장 내용 (전체 동일)",
			kv("선택 플랜", orMissing(req.PlanName))+
				CoverageDetails(req.Plan)+
				kv("자기부담금", "100,000원")))
	}

	b.WriteString(`<div style="background:#FFB800;padding:20px;border-radius:10px;text-align:center;margin-bottom:20px;">` +
		`<p style="margin:0 0 10px 0;color:#1a1a1a;">연간 보험료</p>` +
		`<p style="margin:0;color:#1a1a1a;font-size:2rem;font-weight:bold;">` + formatWon(intFromAny(req.PlanTotalPrice, 0)) + `</p>`)
	if req.PlanSelectionType != "individual" {
		if per := intFromAny(req.PlanPricePerDrone, 0); per > 0 {
			b.WriteString(`<p style="margin:10px 0 0 0;color:#1a1a1a;font-size:0.9rem;">1대당 ` + formatWon(per) + `</p>`)
		}
	}
	b.WriteString(`</div>`)

	b.WriteString(`<div style="background:#fff9e6;padding:15px;border-radius:8px;font-size:0.9rem;color:#666;">` +
		`<p style="margin:0;"><strong>유의사항</strong></p>` +
		`<p style="margin:5px 0 0 0;">※ 구체적인 보장/면책 및 보험금 지급은 약관에 따릅니다.</p>` +
		`<p style="margin:5px 0 0 0;">※ 본 견적서는 참고용이며, 최종 보험료는 심사 후 확정됩니다.</p></div>`)

	b.WriteString(`</div>`)
	b.WriteString(`<div style="background:#1a1a1a;padding:20px;text-align:center;color:#fff;">` +
		`<p style="margin:0;font-size:0.9rem;">배상온 대리점</p>` +
		`<p style="margin:5px 0;font-size:0.85rem;">liab.on.ins@gmail.com | www.liab.co.kr</p>` +
		`<p style="margin:5px 0 0 0;font-size:0.8rem;opacity:0.7;">KB손해보험 공식 대리점</p></div>`)
	b.WriteString(`</div>`)
	return b.String()
}

func (h *ContactHandler) droneBlock(i int, d contactDrone, plan *contactDronePlan, fallbackPlan string) string {
	var b strings.Builder
	b.WriteString(`<div style="border-left:3px solid #FFB800;padding:12px 12px 12px 15px;margin:15px 0;background:#fff;border-radius:6px;">`)
	fmt.Fprintf(&b, `<p style="margin:5px 0;font-weight:bold;color:#FFB800;">드론 %d</p>`, i+1)
	b.WriteString(kv("모델명", orMissing(d.Model)))
	b.WriteString(kv("시리얼번호", orMissing(d.Serial)))
	b.WriteString(kv("자체중량", orMissing(anyString(d.Weight))+"kg"))
	b.WriteString(kv("최대이륙중량", orMissing(anyString(d.MaxWeight))+"kg"))
	if plan != nil {
		b.WriteString(kv("플랜", plan.PlanName))
		b.WriteString(kv("보험료", formatWon(intFromAny(plan.Price, 0))+"/년"))
		planCode := plan.Plan
		if planCode == "" {
			planCode = fallbackPlan
		}
		b.WriteString(CoverageDetails(planCode))
	}
	b.WriteString(`</div>`)
	return b.String()
}

// CoverageDetails maps a plan code to its coverage summary block. Plan codes
// combine a tier (slim/standard/premium) with a drone class (camera/fpv).
func CoverageDetails(plan string) string {
	if plan == "" {
		return "<p>플랜 정보 없음</p>"
	}

	var personal, property, additional string
	switch {
	case strings.Contains(plan, "slim"):
		personal, property = "50,000,000원", "50,000,000원"
	case strings.Contains(plan, "standard"):
		personal, property = "100,000,000원", "100,000,000원"
	case strings.Contains(plan, "premium"):
		personal, property = "500,000,000원", "500,000,000원"
	}

	switch {
	case strings.Contains(plan, "camera"):
		switch {
		case strings.Contains(plan, "slim"):
			additional = "기본충실"
		case strings.Contains(plan, "standard"):
			additional = "누구나운전 포함"
		case strings.Contains(plan, "premium"):
			additional = "누구나운전 + 구조비용"
		}
	case strings.Contains(plan, "fpv"):
		switch {
		case strings.Contains(plan, "slim"):
			additional = "드론경기중 보장"
		case strings.Contains(plan, "standard"):
			additional = "드론경기중 + 누구나운전"
		case strings.Contains(plan, "premium"):
			additional = "드론경기중 + 누구나운전 + 구조비용"
		}
	default:
		switch {
		case strings.Contains(plan, "slim"):
			additional = "기본 보장"
		case strings.Contains(plan, "standard"):
			additional = "누구나운전 포함"
		case strings.Contains(plan, "premium"):
			additional = "누구나운전 + 구조비용"
		}
	}

	return `<div style="border-left:3px solid #FFB800;padding-left:15px;margin:15px 0;">` +
		kv("대인배상", personal) +
		kv("대물배상", property) +
		kv("기본보장", additional) +
		`</div>`
}

// TableMailHandler mails every submitted field as an escaped key/value
// table. The static quote forms post free-form payloads, so nothing is
// assumed about their shape.
type TableMailHandler struct {
	mailer     services.Mailer
	adminEmail string
}

// NewTableMailHandler creates a TableMailHandler.
func NewTableMailHandler(mailer services.Mailer, adminEmail string) *TableMailHandler {
	return &TableMailHandler{mailer: mailer, adminEmail: adminEmail}
}

// DroneInsurance serves POST /api/drone-insurance.
func (h *TableMailHandler) DroneInsurance(c *fiber.Ctx) error {
	data, err := parseAnyBody(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "잘못된 요청 형식입니다.")
	}

	applicant := stringField(data, "name")
	if applicant == "" {
		applicant = "미상"
	}
	subject := "[드론보험]"
	if it := stringField(data, "insuranceType"); it != "" {
		subject += " (" + it + ")"
	}
	subject += " " + applicant

	body := "<h2>드론보험 상담 신청</h2>" + fieldTable(data) +
		"<hr><small>www.liab.co.kr/drone-insurance 에서 전송됨</small>"

	if err := h.mailer.SendHTML(h.adminEmail, subject, body); err != nil {
		log.Printf("[DroneInsurance] mail failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "전송 중 오류가 발생했습니다. 다시 시도해주세요.")
	}
	return c.JSON(fiber.Map{"message": "상담 신청이 완료되었습니다."})
}

// EventInsurance serves POST /api/event-insurance.
func (h *TableMailHandler) EventInsurance(c *fiber.Ctx) error {
	data, err := parseAnyBody(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "잘못된 요청 형식입니다.")
	}

	applicant := stringField(data, "contactName")
	if applicant == "" {
		applicant = stringField(data, "name")
	}
	if applicant == "" {
		applicant = stringField(data, "companyName")
	}
	if applicant == "" {
		applicant = "미상"
	}

	body := "<h2>행사보험 견적 신청이 접수되었습니다</h2>" +
		"<p>아래는 고객이 입력한 전체 데이터입니다.</p>" + fieldTable(data) +
		"<hr/><p><small>www.liab.co.kr/event-insurance 에서 전송됨</small></p>"

	if err := h.mailer.SendHTML(h.adminEmail, "[행사보험 견적신청] "+applicant, body); err != nil {
		log.Printf("[EventInsurance] mail failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "전송 중 오류가 발생했습니다. 다시 시도해주세요.")
	}
	return c.JSON(fiber.Map{"message": "견적 신청이 완료되었습니다."})
}

func parseAnyBody(c *fiber.Ctx) (map[string]interface{}, error) {
	data := map[string]interface{}{}
	if len(c.Body()) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(c.Body(), &data); err != nil {
		return nil, err
	}
	return data, nil
}

func fieldTable(data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows strings.Builder
	for _, k := range keys {
		v := data[k]
		var value string
		switch t := v.(type) {
		case []interface{}:
			parts := make([]string, 0, len(t))
			for _, p := range t {
				parts = append(parts, anyString(p))
			}
			value = strings.Join(parts, ", ")
		case map[string]interface{}:
			raw, _ := json.Marshal(t)
			value = string(raw)
		default:
			value = anyString(v)
		}
		rows.WriteString(`<tr><td style="padding:8px 10px;border:1px solid #eee;background:#fafafa;"><strong>` +
			esc(k) + `</strong></td><td style="padding:8px 10px;border:1px solid #eee;">` + esc(value) + `</td></tr>`)
	}
	if rows.Len() == 0 {
		rows.WriteString("<tr><td>데이터가 없습니다.</td></tr>")
	}
	return `<table style="border-collapse:collapse;width:100%;max-width:900px;">` + rows.String() + `</table>`
}

const mailFooter = `<hr style="margin:30px 0;border:none;border-top:2px solid #e0e0e0;">` +
	`<p style="color:#999;font-size:14px;">배상온 대리점 웹사이트에서 전송됨</p>`

func mailSection(title string, lines ...string) string {
	return `<div style="background:#f8f9fa;padding:20px;border-radius:10px;margin:20px 0;">` +
		`<h3 style="color:#FFB800;margin-top:0;">` + esc(title) + `</h3>` +
		strings.Join(lines, "") + `</div>`
}

func kv(label, value string) string {
	return "<p><strong>" + esc(label) + ":</strong> " + esc(value) + "</p>"
}

func esc(s string) string {
	return html.EscapeString(s)
}

func orMissing(s string) string {
	if s == "" {
		return "미입력"
	}
	return s
}

func anyString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func intFromAny(v interface{}, fallback int) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return fallback
}

func dronePlanAt(plans []contactDronePlan, i int) *contactDronePlan {
	if i < 0 || i >= len(plans) {
		return nil
	}
	return &plans[i]
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key]; ok {
		return anyString(v)
	}
	return ""
}

func formatWon(amount int) string {
	s := strconv.Itoa(amount)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var out strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	if neg {
		return "-" + out.String() + "원"
	}
	return out.String() + "원"
}
