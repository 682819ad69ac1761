package domain

import (
	"errors"
	"fmt"
	"time"
)

// SnapshotStatus distinguishes "no data" and "thin data" from a real ranking,
// so callers can never mistake an unranked team for a bottom-of-table one.
type SnapshotStatus string

const (
	StatusOK               SnapshotStatus = "ok"
	StatusInsufficientData SnapshotStatus = "insufficient_data"
	StatusNoData           SnapshotStatus = "no_data"
)

// Structural failures that abort a single cohort's run. Per-record data
// problems are counted in SkipSummary instead and never returned as errors.
var (
	ErrEmptyCohort   = errors.New("cohort has no teams")
	ErrInvalidConfig = errors.New("invalid ranking configuration")
)

// CohortKey identifies the population within which percentiles and ranks are
// computed. Region is optional; an empty region means the cohort is not
// partitioned geographically.
type CohortKey struct {
	AgeBracket string `json:"age_bracket" db:"age_bracket"`
	Gender     string `json:"gender" db:"gender"`
	Region     string `json:"region,omitempty" db:"region"`
}

// String renders the cohort as a stable key suitable for logs and Redis keys.
func (c CohortKey) String() string {
	if c.Region == "" {
		return fmt.Sprintf("%s:%s", c.AgeBracket, c.Gender)
	}
	return fmt.Sprintf("%s:%s:%s", c.AgeBracket, c.Gender, c.Region)
}

// Team is a canonical team identity borrowed read-only from the match feed.
// Identity merges are resolved upstream; the core only ever sees canonical IDs.
type Team struct {
	ID     string    `json:"team_id" db:"team_id"`
	Name   string    `json:"name" db:"name"`
	Cohort CohortKey `json:"cohort"`
}

// Match is an immutable record of one played (or scheduled) fixture.
// A nil score on either side marks the match unplayed/unscored; such rows are
// excluded from all performance math but stay visible to diagnostics.
type Match struct {
	ID        string    `json:"match_id" db:"match_id"`
	HomeID    string    `json:"team_id_home" db:"team_id_home"`
	AwayID    string    `json:"team_id_away" db:"team_id_away"`
	HomeScore *int      `json:"score_home" db:"score_home"`
	AwayScore *int      `json:"score_away" db:"score_away"`
	Date      time.Time `json:"match_date" db:"match_date"`
}

// Scored reports whether both sides carry a final score.
func (m Match) Scored() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// PerspectiveMatch is one scored match viewed from a single team's side.
type PerspectiveMatch struct {
	MatchID      string
	OpponentID   string
	GoalsFor     int
	GoalsAgainst int
	Date         time.Time
}

// Outcome returns 1 for a win, 0.5 for a draw and 0 for a loss.
func (p PerspectiveMatch) Outcome() float64 {
	switch {
	case p.GoalsFor > p.GoalsAgainst:
		return 1
	case p.GoalsFor == p.GoalsAgainst:
		return 0.5
	default:
		return 0
	}
}

// RankingSnapshot is the per-team output of one cohort computation run.
// Snapshots are immutable once written and superseded, never edited, by the
// next run. Nil pointers mean the underlying signal does not exist for this
// team; they are never zero-filled.
type RankingSnapshot struct {
	RunID      string         `json:"run_id" db:"run_id"`
	TeamID     string         `json:"team_id" db:"team_id"`
	Cohort     CohortKey      `json:"cohort"`
	Status     SnapshotStatus `json:"status" db:"status"`
	ComputedAt time.Time      `json:"computed_at" db:"computed_at"`

	OffenseNorm  *float64 `json:"offense_norm,omitempty" db:"offense_norm"`
	DefenseNorm  *float64 `json:"defense_norm,omitempty" db:"defense_norm"`
	SOSRaw       *float64 `json:"sos_raw,omitempty" db:"sos_raw"`
	SOSNorm      *float64 `json:"sos_norm,omitempty" db:"sos_norm"`
	PerfCentered *float64 `json:"perf_centered,omitempty" db:"perf_centered"`
	PowerScore   *float64 `json:"power_score,omitempty" db:"power_score"`
	RankInCohort *int     `json:"rank_in_cohort,omitempty" db:"rank_in_cohort"`

	GamesPlayed int `json:"games_played" db:"games_played"`
	Wins        int `json:"wins" db:"wins"`
	Losses      int `json:"losses" db:"losses"`
	Draws       int `json:"draws" db:"draws"`
}

// SkipSummary counts per-record data-quality skips for one cohort run.
type SkipSummary struct {
	MissingScores   int `json:"missing_scores"`
	MissingOpponent int `json:"missing_opponent"`
	OutsideWindow   int `json:"outside_window"`
}

// Total returns the number of records skipped for any reason.
func (s SkipSummary) Total() int {
	return s.MissingScores + s.MissingOpponent + s.OutsideWindow
}

// Insight is the derived scouting artifact for one (team, snapshot) pair.
// It is a pure function of the snapshot plus the team's match window and can
// always be regenerated from its inputs.
type Insight struct {
	TeamID      string    `json:"team_id"`
	RunID       string    `json:"run_id"`
	Cohort      CohortKey `json:"cohort"`
	GeneratedAt time.Time `json:"generated_at"`

	Consistency ConsistencyScore `json:"consistency"`
	Persona     PersonaResult    `json:"persona"`
	Narrative   SeasonNarrative  `json:"narrative"`
}

// ConsistencyScore is a 0-100 reliability metric with its qualitative label
// and the three sub-metric scores that produced it.
type ConsistencyScore struct {
	Score           float64 `json:"score"`
	Label           string  `json:"label"`
	MarginStability float64 `json:"margin_stability"`
	StreakStability float64 `json:"streak_stability"`
	PowerStability  float64 `json:"power_stability"`
}

// PersonaResult is a behavioral archetype label with the tier win-rate
// evidence that justified it.
type PersonaResult struct {
	Label    string    `json:"label"`
	Evidence string    `json:"evidence"`
	Tiers    TierStats `json:"tiers"`
}

// TierStats holds win rates against stronger, similar and weaker opponents,
// bucketed by PowerScore gap rather than rank position.
type TierStats struct {
	StrongerGames int `json:"stronger_games"`
	StrongerWins  int `json:"stronger_wins"`
	SimilarGames  int `json:"similar_games"`
	SimilarWins   int `json:"similar_wins"`
	WeakerGames   int `json:"weaker_games"`
	WeakerWins    int `json:"weaker_wins"`
}

// WinRateStronger returns the win rate against stronger opposition, or -1
// when no such games exist.
func (t TierStats) WinRateStronger() float64 {
	if t.StrongerGames == 0 {
		return -1
	}
	return float64(t.StrongerWins) / float64(t.StrongerGames)
}

// WinRateWeaker returns the win rate against weaker opposition, or -1 when no
// such games exist.
func (t TierStats) WinRateWeaker() float64 {
	if t.WeakerGames == 0 {
		return -1
	}
	return float64(t.WeakerWins) / float64(t.WeakerGames)
}

// SeasonNarrative is the rank-trajectory story for one team: a template-filled
// string plus the structured trajectory and form-signal fields behind it.
type SeasonNarrative struct {
	Text       string `json:"text"`
	Trajectory string `json:"trajectory"`  // rising | falling | stable
	FormSignal string `json:"form_signal"` // hot_streak | overperforming | meeting_expectations | underperforming | cold_streak
}
