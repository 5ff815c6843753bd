// Package model defines the core domain models used throughout the application.
package model

import "time"

// RawMessage is a single text message as delivered by a message source.
// It is ephemeral: the pipeline consumes it once and never persists it.
type RawMessage struct {
	ReceivedAt time.Time
	ID         string
	Sender     string
	Body       string
}
