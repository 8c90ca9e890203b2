package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roaster/pkg/app"
	"roaster/pkg/config"
	"roaster/pkg/models"
	"roaster/pkg/orchestrator"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const validAddr = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, delay time.Duration) (*Server, *orchestrator.Orchestrator) {
	t.Helper()
	cfg := config.Default()
	cfg.Wallet.ConnectDelayMillis = int(delay / time.Millisecond)
	reg := prometheus.NewRegistry()
	o := app.Build(cfg, zap.NewNop(), reg)
	return NewServer(o, reg, zap.NewNop()), o
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHandleStatus(t *testing.T) {
	s, _ := newTestServer(t, time.Millisecond)

	rr := do(s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "en", resp.State.Language)
	assert.Equal(t, models.StatusDisconnected, resp.State.Session.Status)
	assert.Equal(t, app.ModeSimulated, resp.Modes.Wallet)
	assert.Equal(t, app.ModeDemo, resp.Modes.Portfolio)
	assert.Equal(t, app.ModeMock, resp.Modes.Generation)
	assert.Len(t, resp.Donation.Amounts, 3)
	assert.Equal(t, "SOL", resp.Donation.Currency)
}

func TestHandleAnalyze_Validation(t *testing.T) {
	s, _ := newTestServer(t, time.Millisecond)

	tests := []struct {
		name string
		body string
		code string
		msg  string
	}{
		{"empty", `{"address":"   "}`, "EMPTY", "Please enter a wallet address."},
		{"bad format", `{"address":"0xabc"}`, "BAD_FORMAT", "Invalid Solana address. Please check and try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(s, http.MethodPost, "/api/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			resp := decodeError(t, rr)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.msg, resp.Message)
		})
	}
}

func TestHandleAnalyze_NoWallet(t *testing.T) {
	s, _ := newTestServer(t, time.Millisecond)

	rr := do(s, http.MethodPost, "/api/analyze", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "NO_WALLET", decodeError(t, rr).Code)
}

func TestHandleAnalyze_ManualThenDonate(t *testing.T) {
	s, _ := newTestServer(t, time.Millisecond)

	rr := do(s, http.MethodPost, "/api/analyze", `{"address":"`+validAddr+`"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var st orchestrator.State
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	require.NotNil(t, st.Snapshot)
	require.NotNil(t, st.Roast)
	assert.Equal(t, validAddr, st.Snapshot.Address)
	assert.Equal(t, models.SourceMock, st.Roast.Source)

	rr = do(s, http.MethodPost, "/api/donate", `{"amount":"0.1"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "NOT_CONNECTED", decodeError(t, rr).Code)
}

func TestHandleConnectAndDonate(t *testing.T) {
	s, _ := newTestServer(t, time.Millisecond)

	rr := do(s, http.MethodPost, "/api/connect", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(s, http.MethodPost, "/api/analyze", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(s, http.MethodPost, "/api/donate", `{"amount":"0.5"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "AMOUNT_NOT_ALLOWED", decodeError(t, rr).Code)

	rr = do(s, http.MethodPost, "/api/donate", `{"amount":"0.1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Receipt models.DonationReceipt `json:"receipt"`
		Message string                 `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Receipt.Simulated)
	assert.Contains(t, resp.Message, "Demo")
	assert.Contains(t, resp.Message, "0.1 SOL")

	rr = do(s, http.MethodPost, "/api/disconnect", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var st orchestrator.State
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, models.StatusDisconnected, st.Session.Status)
	assert.Nil(t, st.Roast)
}

func TestHandleConnect_Busy(t *testing.T) {
	s, o := newTestServer(t, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *httptest.ResponseRecorder)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/api/connect", nil).WithContext(ctx)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)
		done <- rr
	}()

	require.Eventually(t, func() bool { return o.State().Busy }, time.Second, 5*time.Millisecond)

	rr := do(s, http.MethodPost, "/api/connect", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	resp := decodeError(t, rr)
	assert.Equal(t, "BUSY", resp.Code)

	cancel()
	first := <-done
	assert.NotEqual(t, http.StatusOK, first.Code)
	assert.False(t, o.State().Busy)
}

func TestHandleLanguage(t *testing.T) {
	s, o := newTestServer(t, time.Millisecond)

	rr := do(s, http.MethodPost, "/api/language", `{"language":"fr"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "fr", o.State().Language)

	rr = do(s, http.MethodPost, "/api/language", `{"language":"de"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "UNSUPPORTED_LANGUAGE", decodeError(t, rr).Code)

	rr = do(s, http.MethodPost, "/api/analyze", `{"address":"nope"}`)
	assert.Equal(t, "Adresse Solana invalide. Vérifie et réessaye.", decodeError(t, rr).Message)
}

func TestHandleShare(t *testing.T) {
	s, _ := newTestServer(t, time.Millisecond)

	rr := do(s, http.MethodGet, "/api/share/twitter", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	require.Equal(t, http.StatusOK, do(s, http.MethodPost, "/api/analyze", `{"address":"`+validAddr+`"}`).Code)

	rr = do(s, http.MethodGet, "/api/share/twitter", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp ShareResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.URL, "https://twitter.com/intent/tweet?"))
	assert.NotEmpty(t, resp.Text)

	rr = do(s, http.MethodGet, "/api/share/telegram", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(s, http.MethodGet, "/api/share/myspace", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, time.Millisecond)
	do(s, http.MethodPost, "/api/analyze", `{"address":"bad"}`)

	rr := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "roaster_operations_total")
}

func TestBadJSON(t *testing.T) {
	s, _ := newTestServer(t, time.Millisecond)

	rr := do(s, http.MethodPost, "/api/donate", `{"amount":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rr).Code)
}

func TestHandleWS(t *testing.T) {
	s, o := newTestServer(t, time.Millisecond)
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	var msg map[string]interface{}
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, "initial", msg["type"])
	assert.Contains(t, msg, "status")

	s.broadcast(orchestrator.Event{Type: orchestrator.EventLanguageUpdated, State: o.State()})

	var event orchestrator.Event
	_, raw, err := ws.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(bytes.NewReader(raw)).Decode(&event))
	assert.Equal(t, orchestrator.EventLanguageUpdated, event.Type)
}
