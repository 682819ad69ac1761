package domain

import (
	"sort"
	"time"
)

// TeamWindow is a team's qualifying match history inside the trailing window,
// newest first, capped to the configured max games.
type TeamWindow struct {
	TeamID  string
	Matches []PerspectiveMatch
}

// BuildWindows splits raw match records into per-team perspective windows.
// Rows with a nil score on either side or a missing team identity are skipped
// and counted, never fatal. Matches older than the window cutoff are skipped
// too. Each surviving window is sorted newest first and truncated to maxGames
// so one prolific team cannot blow up downstream propagation cost.
func BuildWindows(matches []Match, asOf time.Time, windowDays, maxGames int) (map[string]*TeamWindow, SkipSummary) {
	cutoff := asOf.AddDate(0, 0, -windowDays)
	windows := make(map[string]*TeamWindow)
	var skips SkipSummary

	for _, m := range matches {
		if m.HomeID == "" || m.AwayID == "" {
			skips.MissingOpponent++
			continue
		}
		if !m.Scored() {
			skips.MissingScores++
			continue
		}
		if m.Date.Before(cutoff) || m.Date.After(asOf) {
			skips.OutsideWindow++
			continue
		}

		appendPerspective(windows, m.HomeID, PerspectiveMatch{
			MatchID:      m.ID,
			OpponentID:   m.AwayID,
			GoalsFor:     *m.HomeScore,
			GoalsAgainst: *m.AwayScore,
			Date:         m.Date,
		})
		appendPerspective(windows, m.AwayID, PerspectiveMatch{
			MatchID:      m.ID,
			OpponentID:   m.HomeID,
			GoalsFor:     *m.AwayScore,
			GoalsAgainst: *m.HomeScore,
			Date:         m.Date,
		})
	}

	for _, w := range windows {
		sort.SliceStable(w.Matches, func(i, j int) bool {
			if !w.Matches[i].Date.Equal(w.Matches[j].Date) {
				return w.Matches[i].Date.After(w.Matches[j].Date)
			}
			// Same-day fixtures order by match ID so repeated runs agree.
			return w.Matches[i].MatchID < w.Matches[j].MatchID
		})
		if maxGames > 0 && len(w.Matches) > maxGames {
			w.Matches = w.Matches[:maxGames]
		}
	}

	return windows, skips
}

func appendPerspective(windows map[string]*TeamWindow, teamID string, pm PerspectiveMatch) {
	w, ok := windows[teamID]
	if !ok {
		w = &TeamWindow{TeamID: teamID}
		windows[teamID] = w
	}
	w.Matches = append(w.Matches, pm)
}
