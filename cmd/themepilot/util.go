package main

import "time"

const timeRound = 100 * time.Millisecond

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-2] + ".."
}
