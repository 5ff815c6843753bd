package extract

import "github.com/paisaflow/paisaflow/internal/model"

// Confidence levels assigned by Classify. The scale is deliberately coarse:
// it separates "worth forwarding" from noise, it is not a calibrated
// probability.
const (
	// ConfidenceAmount is assigned when a monetary amount was detected.
	ConfidenceAmount = 0.6
	// ConfidenceDirectionOnly is assigned when only a direction keyword matched.
	ConfidenceDirectionOnly = 0.3
)

// ForwardingThreshold is the confidence at or above which a transaction is
// considered confidently classified. Anything below it is a feedback
// prompt candidate.
const ForwardingThreshold = ConfidenceAmount

// Classify runs extraction and assigns a confidence score. A body with
// neither amount nor direction is classified as noise.
func Classify(body string) model.ExtractionResult {
	result := Extract(body)

	switch {
	case result.Amount != nil:
		result.Confidence = ConfidenceAmount
	case result.Direction != model.DirectionUnknown:
		result.Confidence = ConfidenceDirectionOnly
	default:
		result.IsTransaction = false
		result.Confidence = 0
	}

	return result
}
