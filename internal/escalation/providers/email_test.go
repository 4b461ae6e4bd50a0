package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/steadypath/steadypath/internal/config"
	"github.com/steadypath/steadypath/pkg/models"
)

func testTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestAPIEmailSend(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Bearer mk", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg := config.EmailConfig{APIURL: srv.URL, APIKey: "mk", FromAddress: "alerts@x.io", FromName: "Alerts"}
	p := NewAPIEmail(zap.NewNop(), cfg, srv.Client())
	err := p.Send(context.Background(), testContacts, testMessage())

	require.NoError(t, err)
	assert.Len(t, payload["to"].([]any), 2)
	assert.Contains(t, payload["subject"].(string), "Test User")
}

func TestAPIEmailSkipsContactsWithoutAddress(t *testing.T) {
	p := NewAPIEmail(zap.NewNop(), config.EmailConfig{APIURL: "http://unused.invalid"}, http.DefaultClient)
	contacts := []models.Contact{{Label: "No email", PhoneNumber: "+15550100"}}
	err := p.Send(context.Background(), contacts, testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no contacts with an email address")
}

func TestComposeEmailSend(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte

	p := NewComposeEmail(zap.NewNop(), config.EmailConfig{
		SMTPHost:    "localhost",
		SMTPPort:    2525,
		FromAddress: "alerts@x.io",
		FromName:    "Alerts",
	})
	p.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotBody = addr, from, to, msg
		return nil
	}

	err := p.Send(context.Background(), testContacts, testMessage())
	require.NoError(t, err)
	assert.Equal(t, "localhost:2525", gotAddr)
	assert.Equal(t, "alerts@x.io", gotFrom)
	assert.Equal(t, []string{"oncall@example.com", "backup@example.com"}, gotTo)
	assert.Contains(t, string(gotBody), "To: oncall@example.com, backup@example.com\r\n")
	assert.Contains(t, string(gotBody), "EMERGENCY")
}

func TestComposeEmailRelayFailure(t *testing.T) {
	p := NewComposeEmail(zap.NewNop(), config.EmailConfig{SMTPHost: "localhost", SMTPPort: 2525})
	p.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}
	err := p.Send(context.Background(), testContacts, testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestComposeEmailNoHostConfigured(t *testing.T) {
	p := NewComposeEmail(zap.NewNop(), config.EmailConfig{})
	err := p.Send(context.Background(), testContacts, testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no smtp host")
}
