package model

// Direction indicates whether money moved into or out of the account.
type Direction string

// Direction constants.
const (
	DirectionCredit  Direction = "credit"
	DirectionDebit   Direction = "debit"
	DirectionUnknown Direction = "unknown"
)

// PaymentMethod identifies how a transaction was paid.
// Only UPI is ever detected from message text; the remaining methods
// exist for manual entry.
type PaymentMethod string

// Payment method constants.
const (
	MethodUPI        PaymentMethod = "UPI"
	MethodCard       PaymentMethod = "Card"
	MethodCash       PaymentMethod = "Cash"
	MethodNetBanking PaymentMethod = "NetBanking"
	MethodWallet     PaymentMethod = "Wallet"
	MethodUnknown    PaymentMethod = ""
)

// ExtractionResult holds the candidate fields detected in a message body.
// IsTransaction is true iff at least one of amount or direction was found.
type ExtractionResult struct {
	Amount        *float64
	Vendor        string
	ReferenceID   string
	Direction     Direction
	PaymentMethod PaymentMethod
	Confidence    float64
	IsTransaction bool
}
