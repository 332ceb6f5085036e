package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupMockDB(t *testing.T, d dialect) (sqlmock.Sqlmock, *SQLStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return mock, &SQLStore{db: db, dialect: d}
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn        string
		wantDriver string
		wantSource string
		wantDial   dialect
	}{
		{"postgres://u:p@localhost/fairgame", "postgres", "postgres://u:p@localhost/fairgame", dialectPostgres},
		{"postgresql://localhost/fairgame", "postgres", "postgresql://localhost/fairgame", dialectPostgres},
		{"sqlite://results.db", "sqlite", "results.db", dialectSQLite},
		{"file:results.db?cache=shared", "sqlite", "file:results.db?cache=shared", dialectSQLite},
	}
	for _, tt := range tests {
		driver, source, d := parseDSN(tt.dsn)
		if driver != tt.wantDriver || source != tt.wantSource || d != tt.wantDial {
			t.Errorf("parseDSN(%q) = %q, %q, %v", tt.dsn, driver, source, d)
		}
	}
}

func TestRebind(t *testing.T) {
	_, pg := setupMockDB(t, dialectPostgres)
	if got := pg.rebind("VALUES (?, ?, ?)"); got != "VALUES ($1, $2, $3)" {
		t.Errorf("postgres rebind = %q", got)
	}
	_, lite := setupMockDB(t, dialectSQLite)
	if got := lite.rebind("VALUES (?, ?)"); got != "VALUES (?, ?)" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestSQLStore_SaveRun(t *testing.T) {
	games := sampleGames(t)
	run := RunRecord{ID: "run-1", Name: "pd", LLM: "OpenAIGPT4o", StartedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	agents0, _ := json.Marshal(games[0].Agents)

	tests := []struct {
		name        string
		setupMock   func(sqlmock.Sqlmock)
		errContains string
	}{
		{
			name: "stores run and games",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT INTO fairgame_runs \(id, name, llm, started_at, games\) VALUES \(\$1, \$2, \$3, \$4, \$5\)`).
					WithArgs("run-1", "pd", "OpenAIGPT4o", run.StartedAt, 2).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("INSERT INTO fairgame_games").
					WithArgs("run-1", "game_0", "en", true, 5, 2, true, string(agents0)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("INSERT INTO fairgame_games").
					WithArgs("run-1", "game_1", "en", true, 5, 2, false, sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "rolls back on game insert failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO fairgame_runs").WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("INSERT INTO fairgame_games").WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
			},
			errContains: "insert game game_0",
		},
		{
			name: "begin failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(sql.ErrConnDone)
			},
			errContains: "begin",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, store := setupMockDB(t, dialectPostgres)
			tt.setupMock(mock)

			err := store.SaveRun(context.Background(), run, games)
			if tt.errContains == "" && err != nil {
				t.Fatalf("SaveRun() error = %v", err)
			}
			if tt.errContains != "" && (err == nil || !strings.Contains(err.Error(), tt.errContains)) {
				t.Fatalf("SaveRun() error = %v, want %q", err, tt.errContains)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestSQLStore_Games(t *testing.T) {
	mock, store := setupMockDB(t, dialectSQLite)
	agents, _ := json.Marshal(sampleGames(t)[0].Agents)

	rows := sqlmock.NewRows([]string{"game_id", "language", "n_rounds_is_known", "max_rounds", "played_rounds", "agents_communicate", "agents"}).
		AddRow("game_10", "it", false, 3, 3, false, "[]").
		AddRow("game_2", "en", true, 5, 2, true, string(agents))
	mock.ExpectQuery(`SELECT game_id, .* FROM fairgame_games\s+WHERE run_id = \?`).
		WithArgs("run-1").
		WillReturnRows(rows)

	games, err := store.Games(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Games() error = %v", err)
	}
	if len(games) != 2 || games[0].GameID != "game_2" || games[1].GameID != "game_10" {
		t.Fatalf("Games() = %+v", games)
	}
	if len(games[0].Agents) != 2 || games[0].Agents[0].Name != "alice" {
		t.Errorf("decoded agents = %+v", games[0].Agents)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLStore_EnsureSchema(t *testing.T) {
	mock, store := setupMockDB(t, dialectSQLite)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS fairgame_runs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS fairgame_games").WillReturnError(errors.New("locked"))

	if err := store.ensureSchema(context.Background()); err == nil || !strings.Contains(err.Error(), "ensure schema") {
		t.Errorf("ensureSchema() error = %v", err)
	}
}

func TestOpenSQLStoreSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLStore(ctx, "sqlite://"+t.TempDir()+"/results.db", nil)
	if err != nil {
		t.Fatalf("OpenSQLStore() error = %v", err)
	}
	defer store.Close()

	games := sampleGames(t)
	run := RunRecord{ID: "run-1", Name: "pd", LLM: "OpenAIGPT4o", StartedAt: time.Now()}
	if err := store.SaveRun(ctx, run, games); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	got, err := store.Games(ctx, "run-1")
	if err != nil {
		t.Fatalf("Games() error = %v", err)
	}
	if len(got) != 2 || got[1].GameID != "game_1" || got[0].Agents[0].Strategies[1] != "Cooperate" {
		t.Errorf("Games() = %+v", got)
	}
}
