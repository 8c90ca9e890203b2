package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"roaster/pkg/models"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const addr = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

type MockDataSource struct {
	mock.Mock
}

func (m *MockDataSource) Snapshot(ctx context.Context, address string) (models.PortfolioSnapshot, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(models.PortfolioSnapshot), args.Error(1)
}

func TestAnalyze_Demo(t *testing.T) {
	mc := clock.NewMock()
	mc.Set(time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC))
	a := NewAnalyzer(nil, mc, zap.NewNop())
	assert.False(t, a.Live())

	snap, err := a.Analyze(context.Background(), addr)
	require.NoError(t, err)

	assert.True(t, snap.Demo)
	assert.Equal(t, addr, snap.Address)
	require.Len(t, snap.Tokens, 4)
	assert.Equal(t, []string{"SOL", "BONK", "WIF", "PEPE"}, []string{snap.Tokens[0].Name, snap.Tokens[1].Name, snap.Tokens[2].Name, snap.Tokens[3].Name})
	assert.Equal(t, 3, snap.NFTCount)
	assert.Equal(t, 420.69, snap.TotalValue)
	assert.Equal(t, 1337, snap.TransactionCount)
	assert.Equal(t, mc.Now(), snap.CapturedAt)
	assert.NotEqual(t, snap.TotalValue, snap.TokenValueSum(), "demo total is intentionally inconsistent")
}

func TestAnalyze_DemoIsFresh(t *testing.T) {
	a := NewAnalyzer(nil, nil, zap.NewNop())
	first, _ := a.Analyze(context.Background(), addr)
	first.Tokens[0].Name = "changed"
	second, _ := a.Analyze(context.Background(), addr)
	assert.Equal(t, "SOL", second.Tokens[0].Name)
}

func TestAnalyze_LiveEnforcesTotal(t *testing.T) {
	src := new(MockDataSource)
	src.On("Snapshot", mock.Anything, addr).Return(models.PortfolioSnapshot{
		Address: "ignored",
		Tokens: []models.TokenHolding{
			{Name: "SOL", Amount: 1, Value: 150},
			{Name: "JUP", Amount: 10, Value: 8.5},
			{Name: "RUG", Amount: -3, Value: -1},
		},
		NFTCount:         -2,
		TotalValue:       99999,
		TransactionCount: 12,
		Demo:             true,
	}, nil)

	a := NewAnalyzer(src, nil, zap.NewNop())
	assert.True(t, a.Live())

	snap, err := a.Analyze(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, addr, snap.Address)
	assert.False(t, snap.Demo)
	assert.Equal(t, 158.5, snap.TotalValue)
	assert.Equal(t, snap.TokenValueSum(), snap.TotalValue)
	assert.Equal(t, 0.0, snap.Tokens[2].Amount)
	assert.Equal(t, 0, snap.NFTCount)
	assert.Equal(t, 12, snap.TransactionCount)
	assert.False(t, snap.CapturedAt.IsZero())
}

func TestAnalyze_LiveFailure(t *testing.T) {
	cause := errors.New("rpc unavailable")
	src := new(MockDataSource)
	src.On("Snapshot", mock.Anything, addr).Return(models.PortfolioSnapshot{}, cause)

	a := NewAnalyzer(src, nil, zap.NewNop())
	_, err := a.Analyze(context.Background(), addr)

	var ae *AnalysisError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, addr, ae.Address)
	assert.ErrorIs(t, err, cause)
}

func TestAnalyze_LiveFallsBackForDemoAddress(t *testing.T) {
	src := new(MockDataSource)
	a := NewAnalyzer(src, nil, zap.NewNop())
	require.True(t, a.Live())

	snap, err := a.Analyze(context.Background(), "Demoxucnlhtiyh9yj")
	require.NoError(t, err)
	assert.True(t, snap.Demo)
	assert.Equal(t, "Demoxucnlhtiyh9yj", snap.Address)
	src.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything)
}
