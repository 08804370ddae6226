// Package notify fans deployment outcomes out to chat webhooks.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Event is the structured outcome handed to every notifier.
type Event struct {
	Environment string // production|staging|sync
	Success     bool
	ThemeName   string
	ThemeID     int64
	Version     string
	Duration    time.Duration
	Err         string
}

// Message renders the event as a single chat line.
func (e Event) Message() string {
	status := "succeeded"
	if !e.Success {
		status = "failed"
	}

	msg := fmt.Sprintf("Theme deployment (%s) %s", e.Environment, status)
	if e.ThemeName != "" {
		msg += fmt.Sprintf(": %s (#%d)", e.ThemeName, e.ThemeID)
	}
	if e.Version != "" {
		msg += " version " + e.Version
	}
	if e.Duration > 0 {
		msg += fmt.Sprintf(" in %s", e.Duration.Round(time.Second))
	}
	if e.Err != "" {
		msg += ": " + e.Err
	}
	return msg
}

// Notifier delivers a deployment event somewhere.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Broadcast sends the event to every notifier. Delivery is
// fire-and-forget: failures are logged and never surfaced, so a dead
// webhook cannot mask the deployment's own outcome.
func Broadcast(ctx context.Context, notifiers []Notifier, event Event) {
	for _, n := range notifiers {
		if err := n.Notify(ctx, event); err != nil {
			log.Printf("[notify] notification failed, ignoring: %v", err)
		}
	}
}
