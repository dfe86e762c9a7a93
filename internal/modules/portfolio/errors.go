package portfolio

import "errors"

// Validation and lookup errors returned by the portfolio module.
var (
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrInvalidPrice        = errors.New("price must be greater than zero")
	ErrInvalidRate         = errors.New("usd rate must be greater than zero")
	ErrInvalidType         = errors.New("transaction type must be compra or venta")
	ErrMissingTicker       = errors.New("ticker is required")
	ErrMissingDate         = errors.New("transaction date is required")
	ErrOverSell            = errors.New("sell quantity exceeds open quantity")
	ErrTransactionNotFound = errors.New("transaction not found")
)
