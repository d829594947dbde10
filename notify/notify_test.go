package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubverify/kyc-backend/model"
	"github.com/clubverify/kyc-backend/risk"
)

func sampleSubmission() model.Submission {
	return model.Submission{
		SubmissionID:      "sub-123",
		FullName:          "Jane Player",
		Email:             "jane@example.com",
		Country:           "USA",
		PokerPlatform:     "GGPoker",
		PlayerID:          "GG12345",
		IPAddress:         "203.0.113.7",
		DeviceFingerprint: "fp-abcdef",
		Status:            model.StatusPending,
	}
}

func sampleReport() risk.Report {
	return risk.Report{
		VPNDetected:      true,
		LocationMismatch: true,
		FraudScore:       82,
		FraudRisk:        risk.RiskHigh,
		Confidence:       risk.ConfidenceHigh,
		RealLocation: &risk.Location{
			Country:   "Canada",
			City:      "Toronto",
			ISP:       "Example ISP",
			UsageType: "DCH",
		},
		ProxyInfo: &risk.ProxyInfo{
			ProxyType:    "VPN",
			IsVPN:        true,
			IsDataCenter: true,
			Threat:       "HIGH",
		},
	}
}

func TestComposeEmailHTML(t *testing.T) {
	body := ComposeEmailHTML(sampleSubmission(), sampleReport())

	assert.Contains(t, body, "Jane Player")
	assert.Contains(t, body, "jane@example.com")
	assert.Contains(t, body, "GG12345")
	assert.Contains(t, body, "Canada")
	assert.Contains(t, body, "VPN/Proxy Detected:</strong> YES")
	assert.Contains(t, body, "82/100 HIGH RISK")
	assert.Contains(t, body, "Mismatch detected")
	// Omitted fields render placeholders, never empty values.
	assert.Contains(t, body, "Phone:</strong> Not provided")
}

func TestComposeEmailHTMLFallbackReport(t *testing.T) {
	report := risk.Report{FraudRisk: risk.RiskLow, Confidence: risk.ConfidenceLow}
	body := ComposeEmailHTML(sampleSubmission(), report)

	assert.Contains(t, body, "VPN/Proxy Detected:</strong> No")
	assert.Contains(t, body, "0/100 LOW RISK")
	assert.Contains(t, body, "Analysis Confidence:</strong> low")
	assert.NotContains(t, body, "Proxy Type")
}

func TestComposeTelegramMessage(t *testing.T) {
	msg := ComposeTelegramMessage(sampleSubmission(), sampleReport())

	assert.True(t, strings.HasPrefix(msg, "*New KYC Submission*"))
	assert.Contains(t, msg, "Jane Player")
	assert.Contains(t, msg, "VPN/Proxy: DETECTED")
	assert.Contains(t, msg, "Fraud Score: 82/100 (HIGH)")
	assert.Contains(t, msg, "Location: MISMATCH")
	assert.Contains(t, msg, "IP: 203.0.113.7")
}

func TestTelegramSenderPostsMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	sender := NewTelegramSender("bot-token", "chat-1")
	sender.SetBaseURL(srv.URL)

	err := sender.Send(context.Background(), sampleSubmission(), sampleReport())
	require.NoError(t, err)

	assert.Equal(t, "/botbot-token/sendMessage", gotPath)
	assert.Equal(t, "chat-1", gotBody["chat_id"])
	assert.Equal(t, "Markdown", gotBody["parse_mode"])
	assert.Contains(t, gotBody["text"], "Jane Player")
}

func TestTelegramSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	sender := NewTelegramSender("bot-token", "chat-1")
	sender.SetBaseURL(srv.URL)

	err := sender.Send(context.Background(), sampleSubmission(), sampleReport())
	assert.Error(t, err)
}

type failingSender struct{ calls int }

func (f *failingSender) Name() string { return "failing" }
func (f *failingSender) Send(context.Context, model.Submission, risk.Report) error {
	f.calls++
	return fmt.Errorf("boom")
}

type recordingSender struct{ calls int }

func (r *recordingSender) Name() string { return "recording" }
func (r *recordingSender) Send(context.Context, model.Submission, risk.Report) error {
	r.calls++
	return nil
}

func TestDispatcherBestEffort(t *testing.T) {
	failing := &failingSender{}
	recording := &recordingSender{}
	d := NewDispatcher(failing, recording)

	// A failing channel must not stop the others.
	d.Dispatch(context.Background(), sampleSubmission(), sampleReport())
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, recording.calls)
}
