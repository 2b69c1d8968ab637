// Package extract turns raw server log lines into typed events and metric
// readings. It is stateless: output depends only on the input text, which
// keeps it unit-testable with literal line fixtures.
package extract

import (
	"regexp"
	"strconv"

	"github.com/graaaaa/hytale-companion/internal/event"
)

var (
	// Join lines carry an ISO timestamp, the quoted player and world
	// names, and a trailing parenthesized UUID.
	joinRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}T\S+).*Adding player '([^']+)' to world '([^']+)' at location .+\(([a-f0-9-]+)\)`)

	// Leave lines sometimes carry a parenthetical suffix inside the quoted
	// name; the non-greedy group strips it before use.
	leaveRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}T\S+).*Removing player '([^']+?)(?:\s*\([^)]+\))?'.*\(([a-f0-9-]+)\)\s*$`)

	tpsRe        = regexp.MustCompile(`Setting TPS of world \w+ to (\d+)`)
	viewRadiusRe = regexp.MustCompile(`(?:Initial view radius is|View radius.*?to) (\d+)`)
)

// Events extracts join and leave events from lines, in source order.
// Matching is independent per line; lines matching neither pattern are
// ignored.
func Events(lines []string) []event.Event {
	var events []event.Event
	for _, line := range lines {
		if m := joinRe.FindStringSubmatch(line); m != nil {
			events = append(events, event.Event{
				Timestamp: m[1],
				Name:      m[2],
				World:     m[3],
				PlayerID:  m[4],
				Kind:      event.KindJoin,
			})
			continue
		}
		if m := leaveRe.FindStringSubmatch(line); m != nil {
			events = append(events, event.Event{
				Timestamp: m[1],
				Name:      m[2],
				PlayerID:  m[3],
				Kind:      event.KindLeave,
			})
		}
	}
	return events
}

// Metrics holds the latest known tuning values found in a log slice.
// A nil field means the value was not mentioned in the scanned window,
// which is distinct from a reported zero.
type Metrics struct {
	TPS        *int
	ViewRadius *int
}

// LatestMetrics scans lines newest-to-oldest and returns the most recent
// TPS and view radius values. Each field is found independently, so the
// two values may come from different lines. Scanning stops as soon as
// both are known.
func LatestMetrics(lines []string) Metrics {
	var m Metrics
	for i := len(lines) - 1; i >= 0; i-- {
		if m.TPS == nil {
			if g := tpsRe.FindStringSubmatch(lines[i]); g != nil {
				if n, err := strconv.Atoi(g[1]); err == nil {
					m.TPS = &n
				}
			}
		}
		if m.ViewRadius == nil {
			if g := viewRadiusRe.FindStringSubmatch(lines[i]); g != nil {
				if n, err := strconv.Atoi(g[1]); err == nil {
					m.ViewRadius = &n
				}
			}
		}
		if m.TPS != nil && m.ViewRadius != nil {
			break
		}
	}
	return m
}
