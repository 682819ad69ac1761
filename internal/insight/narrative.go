package insight

import (
	"fmt"

	"github.com/pitchside/scoutrank/internal/config"
	"github.com/pitchside/scoutrank/internal/domain"
)

// Trajectory and form-signal values.
const (
	TrajectoryRising  = "rising"
	TrajectoryFalling = "falling"
	TrajectoryStable  = "stable"

	FormHotStreak           = "hot_streak"
	FormOverperforming      = "overperforming"
	FormMeetingExpectations = "meeting_expectations"
	FormUnderperforming     = "underperforming"
	FormColdStreak          = "cold_streak"
)

var trajectoryPhrases = map[string]string{
	TrajectoryRising:  "trending upward",
	TrajectoryFalling: "sliding",
	TrajectoryStable:  "holding steady",
}

var formPhrases = map[string]string{
	FormHotStreak:           "riding a hot streak well above their season baseline",
	FormOverperforming:      "playing above their season baseline",
	FormMeetingExpectations: "performing in line with their season baseline",
	FormUnderperforming:     "playing below their season baseline",
	FormColdStreak:          "stuck in a cold streak well below their season baseline",
}

// Narrative classifies rank trajectory purely from perf_centered. Comparing
// rank against SOS here would be circular: schedule strength is already
// inside the PowerScore that produced the rank.
func Narrative(snap domain.RankingSnapshot, cfg config.InsightConfig) domain.SeasonNarrative {
	if snap.PerfCentered == nil {
		return domain.SeasonNarrative{
			Text:       fmt.Sprintf("Not enough scored games (%d played) to read a season trajectory.", snap.GamesPlayed),
			Trajectory: TrajectoryStable,
			FormSignal: FormMeetingExpectations,
		}
	}

	perf := *snap.PerfCentered

	trajectory := TrajectoryStable
	switch {
	case perf > cfg.TrajectoryThreshold:
		trajectory = TrajectoryRising
	case perf < -cfg.TrajectoryThreshold:
		trajectory = TrajectoryFalling
	}

	form := FormMeetingExpectations
	switch {
	case perf >= cfg.FormBandOuter:
		form = FormHotStreak
	case perf >= cfg.FormBandInner:
		form = FormOverperforming
	case perf <= -cfg.FormBandOuter:
		form = FormColdStreak
	case perf <= -cfg.FormBandInner:
		form = FormUnderperforming
	}

	rankText := "unranked"
	if snap.RankInCohort != nil {
		rankText = fmt.Sprintf("ranked #%d", *snap.RankInCohort)
	}

	text := fmt.Sprintf("Currently %s in their cohort and %s: %d-%d-%d across %d games, %s.",
		rankText, trajectoryPhrases[trajectory],
		snap.Wins, snap.Losses, snap.Draws, snap.GamesPlayed,
		formPhrases[form])

	return domain.SeasonNarrative{
		Text:       text,
		Trajectory: trajectory,
		FormSignal: form,
	}
}
