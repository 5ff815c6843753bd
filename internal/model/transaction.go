package model

import "time"

// TransactionSource records how a transaction entered the system.
type TransactionSource string

// Transaction source constants.
const (
	SourceSMS    TransactionSource = "sms"
	SourceManual TransactionSource = "manual"
)

// DefaultCurrency is applied when a message carries no currency information.
const DefaultCurrency = "INR"

// Transaction is the canonical record forwarded to the remote ledger.
// The ledger is the sole source of truth; local copies are in-flight
// working state only. After creation a transaction is mutated solely
// through partial updates (category correction, satisfaction rating).
type Transaction struct {
	OccurredAt    time.Time
	ID            string
	Currency      string
	Category      string
	Vendor        string
	ReferenceID   string
	RawText       string
	Source        TransactionSource
	Direction     Direction
	PaymentMethod PaymentMethod
	Amount        float64
	Confidence    float64
	Satisfaction  int // 1-5, zero when unrated
	IsAuto        bool
}
