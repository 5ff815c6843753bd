package model

import "time"

// PromptState tracks the lifecycle of a feedback prompt.
type PromptState string

// Prompt state constants.
const (
	PromptPending  PromptState = "PENDING"
	PromptResolved PromptState = "RESOLVED"
	PromptSkipped  PromptState = "SKIPPED"
)

// FeedbackPrompt solicits a category correction or satisfaction rating for
// a transaction that was forwarded without a confident category. At most
// one pending prompt exists per transaction at any time.
type FeedbackPrompt struct {
	CreatedAt        time.Time
	ResolvedAt       time.Time
	TransactionID    string
	ResolvedCategory string
	State            PromptState
	Candidates       []Candidate
}

// PromptOutcome is the user's answer to a feedback prompt.
type PromptOutcome struct {
	Category string
	Skipped  bool
}
