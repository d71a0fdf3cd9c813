package score

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"

	"git.lost.host/meutraa/stepjudge/internal/game"
)

// Store keeps finished runs in sqlite, keyed by the beatmap hash.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

type History struct {
	ID        int64
	Sum       string // Beatmap hash
	Session   string
	Offset    time.Duration
	Score     int
	MaxCombo  int
	Inputs    []game.Input
	CreatedAt time.Time
}

// Open creates the database at path if needed. Runs that cannot be
// decoded on load are reported to logger, which may be nil.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if path != "" && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	create table if not exists runs
	  (
		  id integer not null primary key autoincrement,
		  sum text not null,
		  session text not null,
		  offset_ns integer not null default 0,
		  score integer not null default 0,
		  max_combo integer not null default 0,
		  inputs blob,
		  created_at datetime default current_timestamp
	  );
	create index if not exists idx_runs_sum on runs(sum);
	`)
	return err
}

func (s *Store) Close() error {
	if nil != s.db {
		return s.db.Close()
	}
	return nil
}

// Save records a finished run against the beatmap and returns its id.
func (s *Store) Save(b *game.Beatmap, h History) (int64, error) {
	data, err := json.Marshal(compactInputs(h.Inputs))
	if nil != err {
		return 0, fmt.Errorf("storage: cannot marshal inputs: %w", err)
	}
	res, err := s.db.Exec(
		"insert into runs(sum, session, offset_ns, score, max_combo, inputs) values(?, ?, ?, ?, ?, ?)",
		b.Hash(), h.Session, int64(h.Offset), h.Score, h.MaxCombo, data,
	)
	if nil != err {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}
	id, err := res.LastInsertId()
	if nil != err {
		return 0, fmt.Errorf("storage: cannot read run id: %w", err)
	}
	return id, nil
}

// Load returns the runs of the beatmap, oldest first. Rows whose inputs
// cannot be decoded are skipped.
func (s *Store) Load(b *game.Beatmap) ([]History, error) {
	rows, err := s.db.Query(
		"select id, sum, session, offset_ns, score, max_combo, inputs, created_at from runs where sum = ? order by id",
		b.Hash(),
	)
	if nil != err {
		return nil, fmt.Errorf("storage: cannot load runs: %w", err)
	}
	defer rows.Close()

	histories := []History{}
	for rows.Next() {
		var h History
		var offset int64
		var data []byte
		if err := rows.Scan(&h.ID, &h.Sum, &h.Session, &offset, &h.Score, &h.MaxCombo, &data, &h.CreatedAt); nil != err {
			return nil, fmt.Errorf("storage: cannot scan run: %w", err)
		}
		var compact []InputsCompact
		if err := json.Unmarshal(data, &compact); nil != err {
			s.logger.Warn("unable to unmarshal run inputs", "id", h.ID, "err", err)
			continue
		}
		h.Offset = time.Duration(offset)
		h.Inputs = uncompactInputs(compact)
		histories = append(histories, h)
	}
	return histories, rows.Err()
}
