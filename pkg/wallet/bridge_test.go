package wallet

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPBridge_Connect(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/connect", r.URL.Path)
		_, _ = w.Write([]byte(`{"address":"` + addr + `"}`))
	}))
	defer ts.Close()

	b := NewHTTPBridge(ts.URL+"/", time.Second, zap.NewNop())
	got, err := b.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

func TestHTTPBridge_Transfer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transfer", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"to":"cryptoric89.skr","amount":"0.1","currency":"SOL"}`, string(body))
		_, _ = w.Write([]byte(`{"signature":"5sig"}`))
	}))
	defer ts.Close()

	b := NewHTTPBridge(ts.URL, time.Second, zap.NewNop())
	ack, err := b.Transfer(context.Background(), TransferRequest{
		To:       "cryptoric89.skr",
		Amount:   decimal.RequireFromString("0.1"),
		Currency: "SOL",
	})
	require.NoError(t, err)
	assert.Equal(t, "5sig", ack)
}

func TestHTTPBridge_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"locked"}`},
		{"empty address", http.StatusOK, `{}`},
		{"garbage", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			}))
			defer ts.Close()

			b := NewHTTPBridge(ts.URL, time.Second, zap.NewNop())
			_, err := b.Connect(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestHTTPBridge_CancelledContext(t *testing.T) {
	b := NewHTTPBridge("http://127.0.0.1:1", time.Second, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Connect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPBridge_TimeoutShorterThanContextDeadline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte(`{"address":"` + addr + `"}`))
	}))
	defer ts.Close()

	b := NewHTTPBridge(ts.URL, 50*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	_, err := b.Connect(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
