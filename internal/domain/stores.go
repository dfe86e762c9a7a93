package domain

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// TransactionStore persists transactions for a user.
// ListByUser returns records in insertion order.
type TransactionStore interface {
	Create(ctx context.Context, tx Transaction) error
	ListByUser(ctx context.Context, userID string) ([]Transaction, error)
	GetByID(ctx context.Context, userID, id string) (Transaction, error)
	Delete(ctx context.Context, userID, id string) error
	ListTickers(ctx context.Context) ([]string, error)
}

// PriceStore persists the current price of each ticker.
type PriceStore interface {
	Upsert(ctx context.Context, price CurrentPrice) error
	Get(ctx context.Context, ticker string) (CurrentPrice, error)
	List(ctx context.Context) (PriceSnapshot, error)
}

// HistoricalPrice is one daily bar of a historical series.
type HistoricalPrice struct {
	Date     string  `json:"date" msgpack:"d"` // YYYY-MM-DD
	Close    float64 `json:"close" msgpack:"c"`
	AdjClose float64 `json:"adj_close" msgpack:"a"`
}
