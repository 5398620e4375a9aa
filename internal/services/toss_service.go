package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const tossConfirmURL = "https://api.tosspayments.com/v1/payments/confirm"

var tossHTTPClient = &http.Client{Timeout: 30 * time.Second}

// TossService confirms payments against the Toss Payments API.
type TossService struct {
	secretKey string
}

// NewTossService creates a TossService.
func NewTossService(secretKey string) *TossService {
	return &TossService{secretKey: secretKey}
}

// TossPayment is the subset of the confirm response the application keeps.
type TossPayment struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	OrderName   string `json:"orderName"`
	TotalAmount int64  `json:"totalAmount"`
	Method      string `json:"method"`
	Status      string `json:"status"`
	RequestedAt string `json:"requestedAt"`
	ApprovedAt  string `json:"approvedAt"`
}

// TossError is a structured gateway rejection.
type TossError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *TossError) Error() string {
	return fmt.Sprintf("toss confirm failed: %s (%s)", e.Message, e.Code)
}

type tossConfirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

// Confirm approves a payment. Authorization is Basic base64(secretKey + ":")
// per the Toss server-to-server contract; the secret never reaches clients.
// The raw response body is returned alongside the parsed payment so it can
// be archived with the payment record.
func (s *TossService) Confirm(paymentKey, orderID string, amount int64) (*TossPayment, []byte, error) {
	body, err := json.Marshal(tossConfirmRequest{
		PaymentKey: paymentKey,
		OrderID:    orderID,
		Amount:     amount,
	})
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequest(http.MethodPost, tossConfirmURL, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("toss request build: %w", err)
	}

	encodedKey := base64.StdEncoding.EncodeToString([]byte(s.secretKey + ":"))
	req.Header.Set("Authorization", "Basic "+encodedKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := tossHTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("toss confirm request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		tossErr := &TossError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, tossErr); err != nil || tossErr.Message == "" {
			tossErr.Code = "INTERNAL_ERROR"
			tossErr.Message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return nil, respBody, tossErr
	}

	var payment TossPayment
	if err := json.Unmarshal(respBody, &payment); err != nil {
		return nil, respBody, fmt.Errorf("toss confirm unmarshal: %w", err)
	}

	return &payment, respBody, nil
}
