package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/liabon/internal/otp"
	"github.com/example/liabon/internal/services"
)

type fakeSMS struct {
	sent []string
	err  error
}

func (f *fakeSMS) Send(to, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

type fakeNotifier struct {
	subjects []string
}

func (f *fakeNotifier) NotifyAdmin(subject, body string) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

type fakeStore struct {
	contracts  []services.Contract
	fetchErr   error
	requestID  uuid.UUID
	saveCalls  int
	lastReason string
}

func (f *fakeStore) FetchContracts(ctx context.Context, name, phone string) ([]services.Contract, error) {
	return f.contracts, f.fetchErr
}

func (f *fakeStore) SaveChangeRequest(ctx context.Context, name, phone, contractID string, changes []services.DroneChange) (uuid.UUID, error) {
	f.saveCalls++
	return f.requestID, nil
}

func (f *fakeStore) SaveCancelRequest(ctx context.Context, name, phone, contractID, reason string) (uuid.UUID, error) {
	f.saveCalls++
	f.lastReason = reason
	return f.requestID, nil
}

func (f *fakeStore) SaveTerminateRequest(ctx context.Context, name, phone, contractID, reason, refundAccount string) (uuid.UUID, error) {
	f.saveCalls++
	f.lastReason = reason
	return f.requestID, nil
}

type myInsuranceEnv struct {
	app      *fiber.App
	codec    *otp.Codec
	sms      *fakeSMS
	notifier *fakeNotifier
	store    *fakeStore
}

func newMyInsuranceEnv(t *testing.T, requireOTP bool) *myInsuranceEnv {
	t.Helper()

	codec := otp.NewCodec("test-secret", 3*time.Minute)
	env := &myInsuranceEnv{
		codec:    codec,
		sms:      &fakeSMS{},
		notifier: &fakeNotifier{},
		store:    &fakeStore{requestID: uuid.New()},
	}

	handler := NewMyInsuranceHandler(codec, otp.NewVerifier(codec, requireOTP), env.sms, env.notifier, env.store)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "서버 오류가 발생했습니다."
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
				message = fiberErr.Message
			}
			return c.Status(code).JSON(fiber.Map{"success": false, "message": message})
		},
	})
	app.Post("/api/my-insurance", handler.Handle)

	env.app = app
	return env
}

func (e *myInsuranceEnv) post(t *testing.T, payload map[string]interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/my-insurance", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp, parsed
}

func TestSendOTP_Success(t *testing.T) {
	env := newMyInsuranceEnv(t, false)

	resp, body := env.post(t, map[string]interface{}{
		"action": "send_otp",
		"name":   "홍길동",
		"phone":  "010-1234-5678",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["sms_sent"])

	token, _ := body["otp_token"].(string)
	require.NotEmpty(t, token)

	// The token must decode back to the normalized identity.
	ch, err := env.codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "홍길동", ch.Name)
	assert.Equal(t, "01012345678", ch.Phone)
	assert.Len(t, ch.Code, 6)

	require.Len(t, env.sms.sent, 1)
	assert.Contains(t, env.sms.sent[0], ch.Code)
}

func TestSendOTP_RejectsBadName(t *testing.T) {
	env := newMyInsuranceEnv(t, false)

	resp, body := env.post(t, map[string]interface{}{
		"action": "send_otp",
		"name":   "김",
		"phone":  "01012345678",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "이름을 올바르게 입력해주세요.", body["message"])
}

func TestSendOTP_RejectsBadPhone(t *testing.T) {
	env := newMyInsuranceEnv(t, false)

	resp, body := env.post(t, map[string]interface{}{
		"action": "send_otp",
		"name":   "홍길동",
		"phone":  "1234",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "올바른 휴대폰 번호(11자리)를 입력해주세요.", body["message"])
}

func TestSendOTP_SMSFailureStillSucceeds(t *testing.T) {
	env := newMyInsuranceEnv(t, false)
	env.sms.err = errors.New("gateway down")

	resp, body := env.post(t, map[string]interface{}{
		"action": "send_otp",
		"name":   "홍길동",
		"phone":  "01012345678",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["sms_sent"])
	assert.NotEmpty(t, body["otp_token"])

	// The operator gets the code by mail instead.
	require.Len(t, env.notifier.subjects, 1)
	assert.Contains(t, env.notifier.subjects[0], "[OTP fallback]")
}

func TestVerifyAndFetch_Success(t *testing.T) {
	env := newMyInsuranceEnv(t, false)
	env.store.contracts = []services.Contract{{ID: "KBD-12345678", Status: "active"}}

	token, err := env.codec.Encode("654321", "홍길동", "01012345678")
	require.NoError(t, err)

	resp, body := env.post(t, map[string]interface{}{
		"action":    "verify_and_fetch",
		"name":      "홍길동",
		"phone":     "010-1234-5678",
		"otp":       "654321",
		"otp_token": token,
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "1건의 계약을 조회했습니다.", body["message"])

	contracts, ok := body["contracts"].([]interface{})
	require.True(t, ok)
	require.Len(t, contracts, 1)
}

func TestVerifyAndFetch_WrongCode(t *testing.T) {
	env := newMyInsuranceEnv(t, false)

	token, err := env.codec.Encode("654321", "홍길동", "01012345678")
	require.NoError(t, err)

	resp, body := env.post(t, map[string]interface{}{
		"action":    "verify_and_fetch",
		"name":      "홍길동",
		"phone":     "01012345678",
		"otp":       "000000",
		"otp_token": token,
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "인증번호가 올바르지 않습니다.", body["message"])
}

func TestVerifyAndFetch_GarbageToken(t *testing.T) {
	env := newMyInsuranceEnv(t, false)

	resp, body := env.post(t, map[string]interface{}{
		"action":    "verify_and_fetch",
		"name":      "홍길동",
		"phone":     "01012345678",
		"otp":       "123456",
		"otp_token": "deadbeef",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "인증 정보가 유효하지 않습니다. 다시 요청해주세요.", body["message"])
}

func TestVerifyAndFetch_CodeWithoutToken(t *testing.T) {
	env := newMyInsuranceEnv(t, false)

	resp, body := env.post(t, map[string]interface{}{
		"action": "verify_and_fetch",
		"name":   "홍길동",
		"phone":  "01012345678",
		"otp":    "123456",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "인증번호를 먼저 요청해주세요.", body["message"])
}

func TestVerifyAndFetch_EmptyCodeRequiredMode(t *testing.T) {
	env := newMyInsuranceEnv(t, true)

	resp, body := env.post(t, map[string]interface{}{
		"action": "verify_and_fetch",
		"name":   "홍길동",
		"phone":  "01012345678",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "인증번호를 입력해주세요.", body["message"])
}

func TestVerifyAndFetch_EmptyCodeOptionalMode(t *testing.T) {
	env := newMyInsuranceEnv(t, false)
	env.store.contracts = []services.Contract{}

	resp, body := env.post(t, map[string]interface{}{
		"action": "verify_and_fetch",
		"name":   "홍길동",
		"phone":  "01012345678",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestCancelContract_RequiresContractID(t *testing.T) {
	env := newMyInsuranceEnv(t, false)

	token, err := env.codec.Encode("654321", "홍길동", "01012345678")
	require.NoError(t, err)

	resp, body := env.post(t, map[string]interface{}{
		"action":    "cancel_contract",
		"name":      "홍길동",
		"phone":     "01012345678",
		"otp":       "654321",
		"otp_token": token,
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "필수 정보가 누락되었습니다.", body["message"])
	assert.Zero(t, env.store.saveCalls)
}

func TestChangeDroneInfo_Success(t *testing.T) {
	env := newMyInsuranceEnv(t, false)

	token, err := env.codec.Encode("654321", "홍길동", "01012345678")
	require.NoError(t, err)

	resp, body := env.post(t, map[string]interface{}{
		"action":      "change_drone_info",
		"name":        "홍길동",
		"phone":       "01012345678",
		"otp":         "654321",
		"otp_token":   token,
		"contract_id": "KBD-12345678",
		"changes": []map[string]interface{}{
			{"index": 0, "model": "Mavic 3", "serial": "SN001", "type": "camera", "weight": "0.9", "max_weight": "1.2"},
		},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, env.store.requestID.String(), body["request_id"])
	assert.Equal(t, 1, env.store.saveCalls)

	require.Len(t, env.notifier.subjects, 1)
	assert.Contains(t, env.notifier.subjects[0], "[드론정보변경]")
}

func TestTerminateContract_Success(t *testing.T) {
	env := newMyInsuranceEnv(t, false)

	token, err := env.codec.Encode("654321", "홍길동", "01012345678")
	require.NoError(t, err)

	resp, body := env.post(t, map[string]interface{}{
		"action":         "terminate_contract",
		"name":           "홍길동",
		"phone":          "01012345678",
		"otp":            "654321",
		"otp_token":      token,
		"contract_id":    "KBD-12345678",
		"reason":         "기체 매각",
		"refund_account": "국민 123-456",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "기체 매각", env.store.lastReason)

	require.Len(t, env.notifier.subjects, 1)
	assert.Contains(t, env.notifier.subjects[0], "[계약해지]")
}

func TestUnknownAction(t *testing.T) {
	env := newMyInsuranceEnv(t, false)

	resp, body := env.post(t, map[string]interface{}{"action": "frobnicate"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "알 수 없는 action: frobnicate", body["message"])
}

func TestMissingAction(t *testing.T) {
	env := newMyInsuranceEnv(t, false)

	resp, body := env.post(t, map[string]interface{}{"name": "홍길동"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "action 파라미터가 필요합니다.", body["message"])
}
