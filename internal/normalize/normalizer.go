// Package normalize converts extraction results into canonical transactions.
package normalize

import (
	"time"

	"github.com/google/uuid"
	"github.com/paisaflow/paisaflow/internal/model"
)

// MessageContext carries the receipt metadata a raw message arrived with.
type MessageContext struct {
	ReceivedAt time.Time
	Sender     string
	Body       string
}

// Normalize maps an extraction result onto the canonical transaction record,
// applying defaults. It is a pure mapping: all I/O belongs to the delivery
// client. Returns false when the result does not describe a transaction.
//
// Defaults: direction falls back to debit when only an amount was found,
// category to "Other", currency to "INR". OccurredAt is the message receipt
// time; message bodies rarely carry reliable absolute timestamps.
func Normalize(result model.ExtractionResult, msgCtx MessageContext) (*model.Transaction, bool) {
	if !result.IsTransaction {
		return nil, false
	}

	direction := result.Direction
	if direction == model.DirectionUnknown {
		direction = model.DirectionDebit
	}

	var amount float64
	if result.Amount != nil {
		amount = *result.Amount
	}

	return &model.Transaction{
		ID:            uuid.New().String(),
		Amount:        amount,
		Currency:      model.DefaultCurrency,
		Direction:     direction,
		Category:      model.CategoryOther,
		Vendor:        result.Vendor,
		PaymentMethod: result.PaymentMethod,
		ReferenceID:   result.ReferenceID,
		RawText:       msgCtx.Body,
		OccurredAt:    msgCtx.ReceivedAt,
		Source:        model.SourceSMS,
		IsAuto:        true,
		Confidence:    result.Confidence,
	}, true
}
