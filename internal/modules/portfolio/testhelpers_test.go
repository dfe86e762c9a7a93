package portfolio

import (
	"fmt"
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

var txSeq int

// mkTx builds a transaction with totals filled in the way BuildTransaction does.
func mkTx(typ domain.TransactionType, ticker, date string, price float64, qty int64, rate float64) domain.Transaction {
	txSeq++
	p := decimal.NewFromFloat(price)
	r := decimal.NewFromFloat(rate)
	total := p.Mul(decimal.NewFromInt(qty))
	return domain.Transaction{
		ID:       fmt.Sprintf("tx-%d", txSeq),
		UserID:   "user-1",
		Date:     day(date),
		Type:     typ,
		Ticker:   ticker,
		PriceARS: p,
		Quantity: qty,
		USDRate:  r,
		TotalARS: total,
		TotalUSD: total.Div(r),
	}
}

func buy(ticker, date string, price float64, qty int64, rate float64) domain.Transaction {
	return mkTx(domain.TransactionTypeBuy, ticker, date, price, qty, rate)
}

func sell(ticker, date string, price float64, qty int64, rate float64) domain.Transaction {
	return mkTx(domain.TransactionTypeSell, ticker, date, price, qty, rate)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
