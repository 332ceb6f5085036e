package results

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLConfig holds connection pool settings for a SQLStore.
type SQLConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultSQLConfig returns the default pool settings.
func DefaultSQLConfig() *SQLConfig {
	return &SQLConfig{
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}

// RunRecord is the stored summary of a sweep.
type RunRecord struct {
	ID        string
	Name      string
	LLM       string
	StartedAt time.Time
}

// SQLStore keeps sweep results in PostgreSQL or SQLite. DSNs starting with
// postgres:// or postgresql:// select PostgreSQL; anything else is an SQLite
// path, optionally prefixed with sqlite://.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func parseDSN(dsn string) (driver, source string, d dialect) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, dialectPostgres
	default:
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://"), dialectSQLite
	}
}

// OpenSQLStore connects to dsn and creates the tables if needed.
func OpenSQLStore(ctx context.Context, dsn string, cfg *SQLConfig) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("results dsn is required")
	}
	if cfg == nil {
		cfg = DefaultSQLConfig()
	}

	driver, source, d := parseDSN(dsn)
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLStore{db: db, dialect: d}
	if err := store.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database connection.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS fairgame_runs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			llm TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			games INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fairgame_games (
			run_id TEXT NOT NULL,
			game_id TEXT NOT NULL,
			language TEXT NOT NULL,
			n_rounds_is_known BOOLEAN NOT NULL,
			max_rounds INTEGER NOT NULL,
			played_rounds INTEGER NOT NULL,
			agents_communicate BOOLEAN NOT NULL,
			agents TEXT NOT NULL,
			PRIMARY KEY (run_id, game_id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveRun stores run and its games in one transaction.
func (s *SQLStore) SaveRun(ctx context.Context, run RunRecord, games []GameData) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO fairgame_runs (id, name, llm, started_at, games) VALUES (?, ?, ?, ?, ?)`),
		run.ID, run.Name, run.LLM, run.StartedAt.UTC(), len(games),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	insertGame := s.rebind(`INSERT INTO fairgame_games
		(run_id, game_id, language, n_rounds_is_known, max_rounds, played_rounds, agents_communicate, agents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, g := range games {
		agents, mErr := json.Marshal(g.Agents)
		if mErr != nil {
			err = fmt.Errorf("encode agents of %s: %w", g.GameID, mErr)
			return err
		}
		if _, err = tx.ExecContext(ctx, insertGame,
			run.ID, g.GameID, g.Language, g.RoundsKnown, g.MaxRounds, g.PlayedRounds, g.AgentsCommunicate, string(agents),
		); err != nil {
			return fmt.Errorf("insert game %s: %w", g.GameID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Games returns the stored games of a run in game order.
func (s *SQLStore) Games(ctx context.Context, runID string) ([]GameData, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT game_id, language, n_rounds_is_known, max_rounds, played_rounds, agents_communicate, agents
		FROM fairgame_games
		WHERE run_id = ?`), runID)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var games []GameData
	for rows.Next() {
		var g GameData
		var agents string
		if err := rows.Scan(&g.GameID, &g.Language, &g.RoundsKnown, &g.MaxRounds, &g.PlayedRounds, &g.AgentsCommunicate, &agents); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		if err := json.Unmarshal([]byte(agents), &g.Agents); err != nil {
			return nil, fmt.Errorf("decode agents of %s: %w", g.GameID, err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	sortByGameNumber(games)
	return games, nil
}

// sortByGameNumber orders game_2 before game_10.
func sortByGameNumber(games []GameData) {
	number := func(id string) int {
		n, err := strconv.Atoi(strings.TrimPrefix(id, "game_"))
		if err != nil {
			return -1
		}
		return n
	}
	slices.SortStableFunc(games, func(a, b GameData) int {
		return cmp.Compare(number(a.GameID), number(b.GameID))
	})
}
