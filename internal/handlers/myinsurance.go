package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/liabon/internal/otp"
	"github.com/example/liabon/internal/services"
)

// MyInsuranceHandler serves the customer self-service endpoint. Every
// operation arrives as POST /api/my-insurance with an action field.
type MyInsuranceHandler struct {
	codec    *otp.Codec
	verifier *otp.Verifier
	sms      services.SMSSender
	notifier services.AdminNotifier
	store    services.ContractStore
}

// NewMyInsuranceHandler creates a MyInsuranceHandler.
func NewMyInsuranceHandler(codec *otp.Codec, verifier *otp.Verifier, sms services.SMSSender, notifier services.AdminNotifier, store services.ContractStore) *MyInsuranceHandler {
	return &MyInsuranceHandler{
		codec:    codec,
		verifier: verifier,
		sms:      sms,
		notifier: notifier,
		store:    store,
	}
}

type myInsuranceRequest struct {
	Action        string                 `json:"action"`
	Name          string                 `json:"name"`
	Phone         string                 `json:"phone"`
	OTP           string                 `json:"otp"`
	OTPToken      string                 `json:"otp_token"`
	ContractID    string                 `json:"contract_id"`
	Changes       []services.DroneChange `json:"changes"`
	Reason        string                 `json:"reason"`
	RefundAccount string                 `json:"refund_account"`
}

// Handle dispatches on the action field.
func (h *MyInsuranceHandler) Handle(c *fiber.Ctx) error {
	var req myInsuranceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "잘못된 요청 형식입니다.")
	}

	switch req.Action {
	case "":
		return fiber.NewError(fiber.StatusBadRequest, "action 파라미터가 필요합니다.")
	case "send_otp":
		return h.sendOTP(c, req)
	case "verify_and_fetch":
		return h.verifyAndFetch(c, req)
	case "change_drone_info":
		return h.changeDroneInfo(c, req)
	case "cancel_contract":
		return h.cancelContract(c, req)
	case "terminate_contract":
		return h.terminateContract(c, req)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "알 수 없는 action: "+req.Action)
	}
}

// sendOTP issues a verification code. The code travels to the phone by SMS
// and, encrypted inside the token, back to the caller. The server keeps
// nothing. A failed SMS still returns success with sms_sent=false so the
// operator can relay the code manually after the fallback mail.
func (h *MyInsuranceHandler) sendOTP(c *fiber.Ctx, req myInsuranceRequest) error {
	name := otp.NormalizeName(req.Name)
	if !otp.ValidName(name) {
		return fiber.NewError(fiber.StatusBadRequest, "이름을 올바르게 입력해주세요.")
	}

	phone := otp.NormalizePhone(req.Phone)
	if !otp.ValidPhone(phone) {
		return fiber.NewError(fiber.StatusBadRequest, "올바른 휴대폰 번호(11자리)를 입력해주세요.")
	}

	code, err := otp.GenerateCode()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "인증번호 생성에 실패했습니다.")
	}

	token, err := h.codec.Encode(code, name, phone)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "인증번호 생성에 실패했습니다.")
	}

	smsSent := true
	text := fmt.Sprintf("[배상온] 본인확인을 위해 인증번호 [%s]를 입력해주세요.", code)
	if err := h.sms.Send(phone, text); err != nil {
		smsSent = false
		log.Printf("[OTP] SMS send failed for %s: %v", phone, err)

		subject := fmt.Sprintf("[OTP fallback] %s → %s", phone, code)
		body := fmt.Sprintf("고객: %s\n번호: %s\nOTP: %s\n\nSMS 발송 실패\n오류: %v", name, phone, code, err)
		if nerr := h.notifier.NotifyAdmin(subject, body); nerr != nil {
			log.Printf("[OTP] admin fallback mail failed: %v", nerr)
		}
	}

	message := "인증번호를 발송했습니다. 3분 이내에 입력해주세요."
	if !smsSent {
		message = "인증번호 발송에 문제가 발생했습니다. 담당자에게 문의해주세요."
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   message,
		"sms_sent":  smsSent,
		"otp_token": token,
	})
}

// authorize runs the verification chain for authenticated actions and maps
// each failure to its user-facing message. On success it returns the
// normalized identity used for lookups.
func (h *MyInsuranceHandler) authorize(req myInsuranceRequest) (name, phone string, err error) {
	name = otp.NormalizeName(req.Name)
	phone = otp.NormalizePhone(req.Phone)

	if name == "" || phone == "" {
		return "", "", fiber.NewError(fiber.StatusBadRequest, "이름과 휴대폰 번호를 입력해주세요.")
	}

	verr := h.verifier.Verify(otp.Input{
		Name:  name,
		Phone: phone,
		Code:  strings.TrimSpace(req.OTP),
		Token: req.OTPToken,
	})
	if verr == nil {
		return name, phone, nil
	}

	switch {
	case errors.Is(verr, otp.ErrCodeRequired):
		err = fiber.NewError(fiber.StatusBadRequest, "인증번호를 입력해주세요.")
	case errors.Is(verr, otp.ErrTokenRequired):
		err = fiber.NewError(fiber.StatusBadRequest, "인증번호를 먼저 요청해주세요.")
	case errors.Is(verr, otp.ErrTokenInvalid):
		err = fiber.NewError(fiber.StatusBadRequest, "인증 정보가 유효하지 않습니다. 다시 요청해주세요.")
	case errors.Is(verr, otp.ErrCodeExpired):
		err = fiber.NewError(fiber.StatusBadRequest, "인증번호가 만료되었습니다. 재발송해주세요.")
	case errors.Is(verr, otp.ErrCodeMismatch):
		err = fiber.NewError(fiber.StatusBadRequest, "인증번호가 올바르지 않습니다.")
	case errors.Is(verr, otp.ErrNameMismatch):
		err = fiber.NewError(fiber.StatusBadRequest, "이름이 가입 정보와 일치하지 않습니다.")
	case errors.Is(verr, otp.ErrPhoneMismatch):
		err = fiber.NewError(fiber.StatusBadRequest, "휴대폰 번호가 일치하지 않습니다.")
	default:
		err = fiber.NewError(fiber.StatusBadRequest, "인증에 실패했습니다.")
	}
	return "", "", err
}

func (h *MyInsuranceHandler) verifyAndFetch(c *fiber.Ctx, req myInsuranceRequest) error {
	name, phone, err := h.authorize(req)
	if err != nil {
		return err
	}

	contracts, err := h.store.FetchContracts(c.Context(), name, phone)
	if err != nil {
		log.Printf("[MyInsurance] contract lookup failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "계약 조회 중 오류가 발생했습니다.")
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   fmt.Sprintf("%d건의 계약을 조회했습니다.", len(contracts)),
		"contracts": contracts,
	})
}

// Post-lookup actions record the request even when the application row
// cannot be matched: the operator mail is the real workflow and the row is
// bookkeeping. Save failures are logged and reported in the mail body.
func (h *MyInsuranceHandler) changeDroneInfo(c *fiber.Ctx, req myInsuranceRequest) error {
	name, phone, err := h.authorize(req)
	if err != nil {
		return err
	}
	if req.ContractID == "" || len(req.Changes) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "필수 정보가 누락되었습니다.")
	}

	requestRef := "DB저장실패"
	requestID, err := h.store.SaveChangeRequest(c.Context(), name, phone, req.ContractID, req.Changes)
	if err != nil {
		log.Printf("[MyInsurance] change request save failed: %v", err)
	} else {
		requestRef = requestID.String()
	}

	var detail strings.Builder
	for i, ch := range req.Changes {
		fmt.Fprintf(&detail, "드론%d: %s / %s / %s / %skg / %skg\n",
			i+1, ch.Model, ch.Serial, ch.Type, ch.Weight, ch.MaxWeight)
	}

	h.notifyRequest("드론정보변경", name, phone, req.ContractID, requestRef,
		"변경내용:\n"+detail.String())

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "드론 정보 변경 요청이 접수되었습니다. 담당자가 1~2 영업일 내 처리해드립니다.",
		"request_id": requestRef,
	})
}

func (h *MyInsuranceHandler) cancelContract(c *fiber.Ctx, req myInsuranceRequest) error {
	name, phone, err := h.authorize(req)
	if err != nil {
		return err
	}
	if req.ContractID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "필수 정보가 누락되었습니다.")
	}

	requestRef := "DB저장실패"
	requestID, err := h.store.SaveCancelRequest(c.Context(), name, phone, req.ContractID, req.Reason)
	if err != nil {
		log.Printf("[MyInsurance] cancel request save failed: %v", err)
	} else {
		requestRef = requestID.String()
	}

	h.notifyRequest("계약취소", name, phone, req.ContractID, requestRef,
		fmt.Sprintf("취소사유: %s\n\n환불 처리 필요 (3~5 영업일)", orDefault(req.Reason, "미입력")))

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "계약이 취소되었습니다. 환불은 결제 수단으로 3~5 영업일 내 처리됩니다.",
		"request_id": requestRef,
	})
}

func (h *MyInsuranceHandler) terminateContract(c *fiber.Ctx, req myInsuranceRequest) error {
	name, phone, err := h.authorize(req)
	if err != nil {
		return err
	}
	if req.ContractID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "필수 정보가 누락되었습니다.")
	}

	requestRef := "DB저장실패"
	requestID, err := h.store.SaveTerminateRequest(c.Context(), name, phone, req.ContractID, req.Reason, req.RefundAccount)
	if err != nil {
		log.Printf("[MyInsurance] terminate request save failed: %v", err)
	} else {
		requestRef = requestID.String()
	}

	h.notifyRequest("계약해지", name, phone, req.ContractID, requestRef,
		fmt.Sprintf("해지사유: %s\n환불계좌: %s\n\n미경과보험료 환불 처리 필요",
			orDefault(req.Reason, "미입력"), orDefault(req.RefundAccount, "원결제수단")))

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "계약 해지 신청이 완료되었습니다. 미경과 보험료는 보험사 처리 후 5~7 영업일 내 환불됩니다.",
		"request_id": requestRef,
	})
}

func (h *MyInsuranceHandler) notifyRequest(kind, name, phone, contractID, requestRef, extra string) {
	subject := fmt.Sprintf("[%s] %s / %s (요청#%s)", kind, name, contractID, requestRef)
	body := fmt.Sprintf("고객명: %s\n번호: %s\n계약번호: %s\n요청번호: %s\n\n%s\n요청시각: %s",
		name, phone, contractID, requestRef, extra, time.Now().Format("2006-01-02 15:04:05"))
	if err := h.notifier.NotifyAdmin(subject, body); err != nil {
		log.Printf("[MyInsurance] admin notify failed: %v", err)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
