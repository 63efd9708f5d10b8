package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"

	"github.com/fortuna/puckline/internal/pbp"
	"github.com/fortuna/puckline/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RecordRepository stores reconciled game records. It doubles as a sink for
// the scrape runner.
type RecordRepository struct {
	db *store.Database
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *store.Database) *RecordRepository {
	return &RecordRepository{db: db}
}

// Name identifies the repository as a sink.
func (r *RecordRepository) Name() string {
	return "postgres"
}

// Write stores a record, replacing any earlier scrape of the same game.
func (r *RecordRepository) Write(ctx context.Context, rec *pbp.GameRecord) error {
	return r.Upsert(ctx, rec)
}

// Upsert inserts or replaces a game record and all of its events
func (r *RecordRepository) Upsert(ctx context.Context, rec *pbp.GameRecord) error {
	meta := store.NewGameRecordRow(rec)

	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO game_records (game_id, season, game_date, home_team, away_team,
			home_team_name, away_team_name, home_score, away_score,
			event_count, located_count, coordinate_source, game_warning, live)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (game_id) DO UPDATE SET
			season = EXCLUDED.season,
			game_date = EXCLUDED.game_date,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_team_name = EXCLUDED.home_team_name,
			away_team_name = EXCLUDED.away_team_name,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			event_count = EXCLUDED.event_count,
			located_count = EXCLUDED.located_count,
			coordinate_source = EXCLUDED.coordinate_source,
			game_warning = EXCLUDED.game_warning,
			live = EXCLUDED.live,
			updated_at = NOW()
	`
	_, err = tx.ExecContext(ctx, query,
		meta.GameID, meta.Season, meta.GameDate, meta.HomeTeam, meta.AwayTeam,
		meta.HomeTeamName, meta.AwayTeamName, meta.HomeScore, meta.AwayScore,
		meta.EventCount, meta.LocatedCount, meta.CoordinateSource, meta.Warning, meta.Live,
	)
	if err != nil {
		return fmt.Errorf("upserting game %s: %w", rec.GameID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM game_events WHERE game_id = $1`, rec.GameID); err != nil {
		return fmt.Errorf("clearing events of %s: %w", rec.GameID, err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("game_events",
		"game_id", "event_index", "period", "game_seconds", "event_type",
		"event_team", "strength_state", "coords_x", "coords_y", "row_data"))
	if err != nil {
		return fmt.Errorf("preparing copy: %w", err)
	}
	for i := range rec.Rows {
		row := &rec.Rows[i]
		data, err := json.Marshal(row)
		if err != nil {
			stmt.Close()
			return fmt.Errorf("encoding event %d: %w", row.EventIndex, err)
		}
		_, err = stmt.ExecContext(ctx,
			rec.GameID, row.EventIndex, row.Period, row.GameSeconds, row.Type,
			nullable(row.EventTeam), nullable(row.StrengthState),
			intOrNil(row.CoordsX), intOrNil(row.CoordsY), string(data),
		)
		if err != nil {
			stmt.Close()
			return fmt.Errorf("copying event %d: %w", row.EventIndex, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flushing events of %s: %w", rec.GameID, err)
	}
	if err := stmt.Close(); err != nil {
		return err
	}

	return tx.Commit()
}

// GetGame finds a game record by its NHL game id
func (r *RecordRepository) GetGame(ctx context.Context, gameID string) (*store.GameRecordRow, error) {
	query := `
		SELECT game_id, season, game_date, home_team, away_team, home_team_name,
			away_team_name, home_score, away_score, event_count, located_count,
			coordinate_source, game_warning, live, created_at, updated_at
		FROM game_records
		WHERE game_id = $1
	`

	game, err := scanRecord(r.db.DB().QueryRowContext(ctx, query, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", gameID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying game: %w", err)
	}
	return game, nil
}

// ListGames returns stored games of a season, newest first. An empty season
// lists every season.
func (r *RecordRepository) ListGames(ctx context.Context, season string, limit int) ([]*store.GameRecordRow, error) {
	query := `
		SELECT game_id, season, game_date, home_team, away_team, home_team_name,
			away_team_name, home_score, away_score, event_count, located_count,
			coordinate_source, game_warning, live, created_at, updated_at
		FROM game_records
		WHERE ($1 = '' OR season = $1)
		ORDER BY game_date DESC NULLS LAST, game_id DESC
		LIMIT $2
	`

	rows, err := r.db.DB().QueryContext(ctx, query, season, limit)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	var games []*store.GameRecordRow
	for rows.Next() {
		game, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// ListEvents returns the stored rows of a game in event order, optionally
// limited to one event type.
func (r *RecordRepository) ListEvents(ctx context.Context, gameID, eventType string) ([]pbp.Row, error) {
	query := `
		SELECT row_data
		FROM game_events
		WHERE game_id = $1 AND ($2 = '' OR event_type = $2)
		ORDER BY event_index
	`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID, eventType)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var out []pbp.Row
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		var row pbp.Row
		if err := json.Unmarshal(data, &row); err != nil {
			return nil, fmt.Errorf("decoding event: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanRecord(scanner interface {
	Scan(dest ...interface{}) error
}) (*store.GameRecordRow, error) {
	g := &store.GameRecordRow{}
	err := scanner.Scan(
		&g.GameID, &g.Season, &g.GameDate, &g.HomeTeam, &g.AwayTeam, &g.HomeTeamName,
		&g.AwayTeamName, &g.HomeScore, &g.AwayScore, &g.EventCount, &g.LocatedCount,
		&g.CoordinateSource, &g.Warning, &g.Live, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func nullable(s string) interface{} {
	if s == "" || s == pbp.Blank {
		return nil
	}
	return s
}

func intOrNil(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
