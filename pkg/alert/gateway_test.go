package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookGatewaySend(t *testing.T) {
	var got Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL)
	err := gw.Send(context.Background(), Alert{
		Severity: "critical",
		Title:    "Draw ledger finalize failed",
		Message:  "payout sent",
		Fields:   map[string]string{"drawId": "2025-10-14-14"},
	})
	require.NoError(t, err)
	assert.Equal(t, "critical", got.Severity)
	assert.Equal(t, "2025-10-14-14", got.Fields["drawId"])
	assert.False(t, got.Time.IsZero())
}

func TestWebhookGatewayNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewGateway(srv.URL).Send(context.Background(), Alert{Title: "x"})
	assert.ErrorContains(t, err, "403")
}

func TestNewGatewayWithoutURLLogsOnly(t *testing.T) {
	gw := NewGateway("")
	_, ok := gw.(LogGateway)
	assert.True(t, ok)
	assert.NoError(t, gw.Send(context.Background(), Alert{Title: "x", Fields: map[string]string{"k": "v"}}))
}
