package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cartera-ar/cartera/internal/clients/yahoo"
	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTickerLister struct{ mock.Mock }

func (m *MockTickerLister) ListTickers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type MockQuoteSource struct{ mock.Mock }

func (m *MockQuoteSource) GetQuote(ctx context.Context, symbol string) (yahoo.Quote, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(yahoo.Quote), args.Error(1)
}

type MockRateSource struct{ mock.Mock }

func (m *MockRateSource) GetRate(ctx context.Context, casa string) (decimal.Decimal, error) {
	args := m.Called(ctx, casa)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockPriceStore struct{ mock.Mock }

func (m *MockPriceStore) Upsert(ctx context.Context, p domain.CurrentPrice) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPriceStore) Get(ctx context.Context, ticker string) (domain.CurrentPrice, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(domain.CurrentPrice), args.Error(1)
}

func (m *MockPriceStore) List(ctx context.Context) (domain.PriceSnapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.PriceSnapshot), args.Error(1)
}

func TestBYMASymbol(t *testing.T) {
	assert.Equal(t, "AAPL.BA", BYMASymbol("aapl"))
	assert.Equal(t, "BRKB.BA", BYMASymbol("BRK.B"))
}

func TestPriceRefreshJob_Run(t *testing.T) {
	tickers := &MockTickerLister{}
	quotes := &MockQuoteSource{}
	rates := &MockRateSource{}
	prices := &MockPriceStore{}

	now := time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)
	tickers.On("ListTickers", mock.Anything).Return([]string{"AAPL", "KO", "GONE"}, nil)
	rates.On("GetRate", mock.Anything, "bolsa").Return(decimal.NewFromInt(1185), nil)
	quotes.On("GetQuote", mock.Anything, "AAPL.BA").Return(yahoo.Quote{Symbol: "AAPL.BA", Price: 15230.456}, nil)
	quotes.On("GetQuote", mock.Anything, "KO.BA").Return(yahoo.Quote{Symbol: "KO.BA", Price: 18100}, nil)
	quotes.On("GetQuote", mock.Anything, "GONE.BA").Return(yahoo.Quote{}, errors.New("no data"))

	prices.On("Upsert", mock.Anything, mock.MatchedBy(func(p domain.CurrentPrice) bool {
		return p.Ticker == "AAPL" && p.PriceARS.Equal(decimal.RequireFromString("15230.46")) && p.USDRate.Equal(decimal.NewFromInt(1185)) && p.UpdatedAt.Equal(now)
	})).Return(nil).Once()
	prices.On("Upsert", mock.Anything, mock.MatchedBy(func(p domain.CurrentPrice) bool {
		return p.Ticker == "KO"
	})).Return(nil).Once()

	job := NewPriceRefreshJob(tickers, quotes, rates, prices, "bolsa", zerolog.Nop())
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run())
	prices.AssertExpectations(t)
	quotes.AssertExpectations(t)
}

func TestPriceRefreshJob_RateFailureAborts(t *testing.T) {
	tickers := &MockTickerLister{}
	rates := &MockRateSource{}
	prices := &MockPriceStore{}

	tickers.On("ListTickers", mock.Anything).Return([]string{"AAPL"}, nil)
	rates.On("GetRate", mock.Anything, "bolsa").Return(decimal.Zero, errors.New("down"))

	job := NewPriceRefreshJob(tickers, &MockQuoteSource{}, rates, prices, "bolsa", zerolog.Nop())

	assert.Error(t, job.Run())
	prices.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestPriceRefreshJob_NoTickers(t *testing.T) {
	tickers := &MockTickerLister{}
	tickers.On("ListTickers", mock.Anything).Return([]string{}, nil)

	rates := &MockRateSource{}
	job := NewPriceRefreshJob(tickers, &MockQuoteSource{}, rates, &MockPriceStore{}, "bolsa", zerolog.Nop())

	assert.NoError(t, job.Run())
	rates.AssertNotCalled(t, "GetRate", mock.Anything, mock.Anything)
}
