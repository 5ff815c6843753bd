// Package extract implements rule-based field extraction from message text.
//
// Every detector is a pure function over the message body: detectors are
// independent of each other, run once per body, and never fail. A body that
// carries no detectable signal simply yields an empty result.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/paisaflow/paisaflow/internal/model"
)

var (
	// amountRe matches a currency marker (rs, inr, ₹) followed by a numeric
	// literal, possibly with thousands separators.
	amountRe = regexp.MustCompile(`(?i)(?:\brs\.?|\binr|₹)\s*([0-9][\d,]*(?:\.\d+)?)`)

	creditRe = regexp.MustCompile(`(?i)\b(?:credited|received|deposited|added)\b`)
	debitRe  = regexp.MustCompile(`(?i)\b(?:debited|spent|withdrawn|deducted|used|paid)\b`)

	// Vendor text runs from the preposition to the next delimiter or
	// known trailing token. "at" is preferred over "to".
	vendorAtRe = regexp.MustCompile(`(?i)\bat\s+([A-Za-z0-9][A-Za-z0-9&'_\- ]*?)(?:\s+(?:on|via|upi|ref|reference|for|using)\b|[.,;:!?\n]|$)`)
	vendorToRe = regexp.MustCompile(`(?i)\bto\s+([A-Za-z0-9][A-Za-z0-9&'_\- ]*?)(?:\s+(?:on|via|upi|ref|reference|for|using)\b|[.,;:!?\n]|$)`)

	upiRe = regexp.MustCompile(`(?i)\bupi\b`)

	referenceRe = regexp.MustCompile(`(?i)\bref(?:erence)?(?:\s*(?:no|num|number|id))?\.?\s*[:#\-]?\s*([A-Za-z0-9]+)`)
)

// Extract maps a raw message body to candidate transaction fields.
// It is total over all string inputs, including the empty string.
func Extract(body string) model.ExtractionResult {
	result := model.ExtractionResult{
		Direction:     model.DirectionUnknown,
		PaymentMethod: model.MethodUnknown,
	}
	if body == "" {
		return result
	}

	result.Amount = extractAmount(body)
	result.Direction = extractDirection(body)
	result.Vendor = extractVendor(body)
	result.PaymentMethod = extractPaymentMethod(body)
	result.ReferenceID = extractReference(body)
	result.IsTransaction = result.Amount != nil || result.Direction != model.DirectionUnknown

	return result
}

func extractAmount(body string) *float64 {
	matches := amountRe.FindStringSubmatch(body)
	if matches == nil {
		return nil
	}

	raw := strings.ReplaceAll(matches[1], ",", "")
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// Unparseable numeric literal means no amount, not an error.
		return nil
	}
	return &amount
}

func extractDirection(body string) model.Direction {
	// Credit wins when both keyword sets match.
	if creditRe.MatchString(body) {
		return model.DirectionCredit
	}
	if debitRe.MatchString(body) {
		return model.DirectionDebit
	}
	return model.DirectionUnknown
}

func extractVendor(body string) string {
	if matches := vendorAtRe.FindStringSubmatch(body); matches != nil {
		return strings.TrimSpace(matches[1])
	}
	if matches := vendorToRe.FindStringSubmatch(body); matches != nil {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

func extractPaymentMethod(body string) model.PaymentMethod {
	if upiRe.MatchString(body) {
		return model.MethodUPI
	}
	return model.MethodUnknown
}

func extractReference(body string) string {
	matches := referenceRe.FindStringSubmatch(body)
	if matches == nil {
		return ""
	}
	return matches[1]
}
