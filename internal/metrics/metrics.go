// Package metrics summarizes delivery performance from deployment
// history.
package metrics

import (
	"sort"
	"time"

	"github.com/themepilot/themepilot/internal/storage"
)

// window is the reporting period for all metrics.
const window = 30 * 24 * time.Hour

// Summary describes deployment performance over the last 30 days.
type Summary struct {
	// DeployFrequency is successful deployments per day.
	DeployFrequency float64 `json:"deploy_frequency"`
	// FailureRate is the percentage of deployments that failed.
	FailureRate float64 `json:"failure_rate"`
	// AvgDuration is the mean duration of successful deployments.
	AvgDuration time.Duration `json:"avg_duration"`
	// MTTR is the mean time from a failed deployment to the next
	// successful one.
	MTTR time.Duration `json:"mttr"`
}

// Calculate computes a Summary from deployment records.
func Calculate(records []storage.Record, now time.Time) Summary {
	since := now.Add(-window)

	recent := make([]storage.Record, 0, len(records))
	for _, rec := range records {
		if rec.StartedAt.After(since) {
			recent = append(recent, rec)
		}
	}
	if len(recent) == 0 {
		return Summary{}
	}

	succeeded := 0
	failed := 0
	var totalDuration time.Duration
	for _, rec := range recent {
		if rec.Succeeded {
			succeeded++
			totalDuration += rec.Duration
		} else {
			failed++
		}
	}

	summary := Summary{}
	summary.DeployFrequency = float64(succeeded) / (float64(window) / float64(24*time.Hour))
	if succeeded > 0 {
		summary.AvgDuration = totalDuration / time.Duration(succeeded)
	}
	if total := succeeded + failed; total > 0 {
		summary.FailureRate = float64(failed) / float64(total) * 100.0
	}
	summary.MTTR = meanTimeToRecovery(recent)
	return summary
}

// meanTimeToRecovery averages the gap between each first failure and
// the next success that clears it.
func meanTimeToRecovery(records []storage.Record) time.Duration {
	sorted := append([]storage.Record(nil), records...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.Before(sorted[j].StartedAt)
	})

	var openFailure *time.Time
	var totalRecovery time.Duration
	recoveries := 0

	for _, rec := range sorted {
		if !rec.Succeeded {
			if openFailure == nil {
				failureTime := rec.StartedAt
				openFailure = &failureTime
			}
			continue
		}
		if openFailure != nil && rec.StartedAt.After(*openFailure) {
			totalRecovery += rec.StartedAt.Sub(*openFailure)
			recoveries++
			openFailure = nil
		}
	}

	if recoveries == 0 {
		return 0
	}
	return totalRecovery / time.Duration(recoveries)
}
