package extract

import (
	"testing"

	"github.com/paisaflow/paisaflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantConfidence float64
		wantTxn        bool
	}{
		{
			name:           "amount present",
			body:           "Rs.250.00 debited at Swiggy UPI Ref1234567",
			wantConfidence: ConfidenceAmount,
			wantTxn:        true,
		},
		{
			name:           "amount without direction",
			body:           "INR 5,000 transferred",
			wantConfidence: ConfidenceAmount,
			wantTxn:        true,
		},
		{
			name:           "direction only",
			body:           "Your account has been credited",
			wantConfidence: ConfidenceDirectionOnly,
			wantTxn:        true,
		},
		{
			name:           "noise",
			body:           "Your OTP is 482913. Do not share it.",
			wantConfidence: 0,
			wantTxn:        false,
		},
		{
			name:           "empty",
			body:           "",
			wantConfidence: 0,
			wantTxn:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.body)
			assert.Equal(t, tt.wantTxn, result.IsTransaction)
			assert.InDelta(t, tt.wantConfidence, result.Confidence, 0.001)
		})
	}
}

func TestClassify_AmountDominatesDirection(t *testing.T) {
	// A body with both signals scores the amount confidence, not the sum.
	result := Classify("Rs 100 debited from your account")
	require.True(t, result.IsTransaction)
	assert.InDelta(t, ConfidenceAmount, result.Confidence, 0.001)
	assert.Equal(t, model.DirectionDebit, result.Direction)
}

func TestForwardingThreshold(t *testing.T) {
	amount := Classify("Rs 100 at Swiggy")
	directionOnly := Classify("amount debited")

	assert.GreaterOrEqual(t, amount.Confidence, ForwardingThreshold)
	assert.Less(t, directionOnly.Confidence, ForwardingThreshold)
}
