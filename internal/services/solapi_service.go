package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/example/liabon/internal/otp"
)

const solapiSendURL = "https://api.solapi.com/messages/v4/send"

var solapiHTTPClient = &http.Client{Timeout: 15 * time.Second}

// SMSSender delivers a plaintext message to a phone number.
type SMSSender interface {
	Send(to, text string) error
}

// SolapiService sends SMS messages through the Solapi REST API.
type SolapiService struct {
	apiKey    string
	apiSecret string
	sender    string
}

// NewSolapiService creates a SolapiService.
func NewSolapiService(apiKey, apiSecret, sender string) *SolapiService {
	return &SolapiService{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		sender:    sender,
	}
}

type solapiMessage struct {
	To   string `json:"to"`
	From string `json:"from"`
	Text string `json:"text"`
}

type solapiSendRequest struct {
	Message solapiMessage `json:"message"`
}

// Send delivers text to the given phone number. When credentials or the
// sender number are not configured the message is skipped with a log line,
// not an error, so local setups keep working.
func (s *SolapiService) Send(to, text string) error {
	if s.apiKey == "" || s.apiSecret == "" || s.sender == "" {
		log.Println("[Solapi] credentials not configured, skipping SMS")
		return nil
	}

	body, err := json.Marshal(solapiSendRequest{
		Message: solapiMessage{
			To:   otp.NormalizePhone(to),
			From: otp.NormalizePhone(s.sender),
			Text: text,
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, solapiSendURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("solapi request build: %w", err)
	}

	auth, err := s.authHeader()
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)

	resp, err := solapiHTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("solapi send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("solapi send: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// authHeader builds the Solapi HMAC-SHA256 authorization header:
// signature = HMAC-SHA256(secret, date + salt).
func (s *SolapiService) authHeader() (string, error) {
	saltBytes := make([]byte, 16)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", err
	}
	salt := hex.EncodeToString(saltBytes)
	date := time.Now().UTC().Format(time.RFC3339)

	mac := hmac.New(sha256.New, []byte(s.apiSecret))
	mac.Write([]byte(date + salt))
	signature := hex.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("HMAC-SHA256 apiKey=%s, date=%s, salt=%s, signature=%s",
		s.apiKey, date, salt, signature), nil
}
