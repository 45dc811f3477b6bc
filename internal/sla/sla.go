// Package sla derives a ticket's time-based compliance state. Classification
// is pure and pull-based: it is recomputed on every read and nothing here
// mutates the ticket or schedules timers.
package sla

import (
	"time"

	"github.com/psds-microservice/workflow-service/internal/model"
)

type Compliance string

const (
	ComplianceMet     Compliance = "met"
	ComplianceOnTrack Compliance = "on_track"
	ComplianceAtRisk  Compliance = "at_risk"
	ComplianceBreach  Compliance = "breached"
)

// atRiskFraction of the target after which an open ticket counts as at risk.
const atRiskFraction = 0.8

// HoursOpen returns how long the ticket has been open, in hours.
func HoursOpen(t *model.SupportTicket, now time.Time) float64 {
	return now.Sub(t.CreatedAt).Hours()
}

// Classify maps a ticket onto its compliance state at the given instant.
// Resolved and closed tickets are Met unconditionally; a closed ticket is
// never breached retroactively.
func Classify(t *model.SupportTicket, now time.Time) Compliance {
	if t.Status.Terminal() {
		return ComplianceMet
	}
	open := HoursOpen(t, now)
	switch {
	case open > t.SLATargetHours:
		return ComplianceBreach
	case open > atRiskFraction*t.SLATargetHours:
		return ComplianceAtRisk
	default:
		return ComplianceOnTrack
	}
}

// TimeToBreach returns the remaining time before the ticket breaches its
// target; negative once the target is exceeded. Zero for terminal tickets.
func TimeToBreach(t *model.SupportTicket, now time.Time) time.Duration {
	if t.Status.Terminal() {
		return 0
	}
	deadline := t.CreatedAt.Add(time.Duration(t.SLATargetHours * float64(time.Hour)))
	return deadline.Sub(now)
}
