package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pitchside/scoutrank/internal/domain"
	"github.com/pitchside/scoutrank/internal/persistence"
)

// feedRepo implements the MatchFeed interface over PostgreSQL. The feed
// tables are owned by the upstream acquisition service; this repo only reads.
type feedRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewMatchFeed creates a PostgreSQL match feed reader.
func NewMatchFeed(db *sqlx.DB, timeout time.Duration) persistence.MatchFeed {
	return &feedRepo{db: db, timeout: timeout}
}

func (r *feedRepo) ListCohorts(ctx context.Context) ([]domain.CohortKey, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT DISTINCT age_bracket, gender, COALESCE(region, '') AS region
		FROM teams
		ORDER BY age_bracket, gender, region`

	var cohorts []domain.CohortKey
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list cohorts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key domain.CohortKey
		if err := rows.Scan(&key.AgeBracket, &key.Gender, &key.Region); err != nil {
			return nil, fmt.Errorf("failed to scan cohort row: %w", err)
		}
		cohorts = append(cohorts, key)
	}

	return cohorts, rows.Err()
}

func (r *feedRepo) ListTeams(ctx context.Context, cohort domain.CohortKey) ([]domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT team_id, name
		FROM teams
		WHERE age_bracket = $1 AND gender = $2 AND COALESCE(region, '') = $3
		ORDER BY team_id`

	rows, err := r.db.QueryxContext(ctx, query, cohort.AgeBracket, cohort.Gender, cohort.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for %s: %w", cohort, err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		t := domain.Team{Cohort: cohort}
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, t)
	}

	return teams, rows.Err()
}

func (r *feedRepo) ListMatches(ctx context.Context, cohort domain.CohortKey, since time.Time) ([]domain.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Unscored rows come back too; the core skips and counts them, and
	// diagnostic tooling still wants them visible.
	query := `
		SELECT match_id, team_id_home, team_id_away, score_home, score_away, match_date
		FROM matches
		WHERE age_bracket = $1 AND gender = $2 AND COALESCE(region, '') = $3
		  AND match_date >= $4
		ORDER BY match_date, match_id`

	rows, err := r.db.QueryxContext(ctx, query, cohort.AgeBracket, cohort.Gender, cohort.Region, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for %s: %w", cohort, err)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(&m.ID, &m.HomeID, &m.AwayID, &m.HomeScore, &m.AwayScore, &m.Date); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}
