package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveContractStatus(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name   string
		stored string
		start  string
		end    string
		want   string
	}{
		{"cancelled is sticky", ContractStatusCancelled, "2026-01-01", "2026-12-31", ContractStatusCancelled},
		{"terminated is sticky", ContractStatusTerminated, "2026-01-01", "2026-12-31", ContractStatusTerminated},
		{"before coverage start", "pending", "2026-09-01", "2027-08-31", ContractStatusPending},
		{"inside coverage window", "pending", "2026-01-01", "2026-12-31", ContractStatusActive},
		{"after coverage end", "pending", "2025-01-01", "2025-12-31", ContractStatusExpired},
		{"no start date", "pending", "", "", ContractStatusPending},
		{"empty stored status inside window", "", "2026-01-01", "2026-12-31", ContractStatusActive},
		{"open ended coverage", "pending", "2026-01-01", "", ContractStatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveContractStatus(tt.stored, tt.start, "", tt.end, "", now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveContractStatus_TimeOfDayBounds(t *testing.T) {
	// Coverage runs 09:00 to 18:00 on the same day.
	start, end := "2026-08-15", "2026-08-15"

	before := time.Date(2026, 8, 15, 8, 59, 0, 0, time.Local)
	during := time.Date(2026, 8, 15, 12, 0, 0, 0, time.Local)
	after := time.Date(2026, 8, 15, 18, 1, 0, 0, time.Local)

	assert.Equal(t, ContractStatusPending, DeriveContractStatus("pending", start, "09:00", end, "18:00", before))
	assert.Equal(t, ContractStatusActive, DeriveContractStatus("pending", start, "09:00", end, "18:00", during))
	assert.Equal(t, ContractStatusExpired, DeriveContractStatus("pending", start, "09:00", end, "18:00", after))
}

func TestContractIDRoundTrip(t *testing.T) {
	for i := 0; i < 50; i++ {
		id := uuid.New()
		contractID := FormatContractID(id)

		assert.Len(t, contractID, len("KBD-")+8)
		require.Equal(t, id.String()[:8], ParseApplicationRef(contractID))
	}
}

func TestParseApplicationRef_Unrecognized(t *testing.T) {
	assert.Equal(t, "", ParseApplicationRef(""))
	assert.Equal(t, "", ParseApplicationRef("ABC-12345678"))
	assert.Equal(t, "", ParseApplicationRef("KBD-"))
}

func TestSolapiAuthHeader(t *testing.T) {
	s := NewSolapiService("key123", "secret456", "01000000000")

	header, err := s.authHeader()
	require.NoError(t, err)

	assert.Contains(t, header, "HMAC-SHA256 apiKey=key123")
	assert.Contains(t, header, "date=")
	assert.Contains(t, header, "salt=")
	assert.Contains(t, header, "signature=")

	// Fresh salt per call means headers never repeat.
	second, err := s.authHeader()
	require.NoError(t, err)
	assert.NotEqual(t, header, second)
}

func TestRenderQuote(t *testing.T) {
	pdf := NewPDFService()

	data, err := pdf.RenderQuote(QuoteData{
		QuoteNumber:  "Q20260815-120000",
		IssuedDate:   "2026.8.15",
		CustomerName: "Hong Gildong",
		Phone:        "01012345678",
		Email:        "hong@example.com",
		StartDate:    "2026-09-01",
		EndDate:      "2027-08-31",
		Drones: []QuoteDrone{
			{Model: "Mavic 3", Serial: "SN001", TypeName: "Camera", Weight: 0.9, MaxWeight: 1.2, PlanName: "Standard", Price: 120000},
			{Model: "Avata 2", Serial: "SN002", TypeName: "FPV", Weight: 0.4, MaxWeight: 0.6, PlanName: "Slim", Price: 80000},
		},
		TotalPremium: 200000,
	})
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}
