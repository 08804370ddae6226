// Package policy evaluates pre-deploy guard rules from configuration.
package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/themepilot/themepilot/internal/config"
)

// Violation represents a failed policy check.
type Violation struct {
	Name    string `json:"name"`
	Rule    string `json:"rule"`
	Action  string `json:"action"`
	Message string `json:"message"`
}

// BlockedError is a policy violation with action "block".
type BlockedError struct {
	Violation Violation
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("deployment blocked by policy %s: %s", e.Violation.Name, e.Violation.Message)
}

// Evaluate applies every configured rule against the deployment
// configuration and the current time.
func Evaluate(policies []config.PolicyConfig, cfg *config.Config, now time.Time) []Violation {
	violations := make([]Violation, 0)

	for _, p := range policies {
		action := normalizeAction(p.Action)
		rule := strings.TrimSpace(strings.ToLower(p.Rule))

		switch rule {
		case "require_backup":
			if !cfg.Backup.Enabled {
				violations = append(violations, Violation{
					Name:    p.Name,
					Rule:    p.Rule,
					Action:  action,
					Message: "backups are disabled but this deployment targets the store",
				})
			}

		case "require_selective":
			if !cfg.Deploy.Selective.Enabled {
				violations = append(violations, Violation{
					Name:    p.Name,
					Rule:    p.Rule,
					Action:  action,
					Message: "selective push is disabled; a full push can overwrite merchant-edited content",
				})
			}

		case "blocked_days":
			if dayBlocked(p.Value, now) {
				violations = append(violations, Violation{
					Name:    p.Name,
					Rule:    p.Rule,
					Action:  action,
					Message: fmt.Sprintf("deployments are blocked on %s", now.Weekday()),
				})
			}
		}
	}

	return violations
}

// dayBlocked reports whether now's weekday appears in a comma-separated
// list of weekday names ("Sat,Sun" or "Saturday,Sunday").
func dayBlocked(value string, now time.Time) bool {
	today := strings.ToLower(now.Weekday().String())
	for _, day := range strings.Split(value, ",") {
		day = strings.ToLower(strings.TrimSpace(day))
		if day == "" {
			continue
		}
		if day == today || strings.HasPrefix(today, day) {
			return true
		}
	}
	return false
}

func normalizeAction(action string) string {
	action = strings.TrimSpace(strings.ToLower(action))
	if action != "block" {
		return "warn"
	}
	return "block"
}
