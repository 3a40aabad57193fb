package register

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/mysociety/appgtrack/internal/model"
	"github.com/mysociety/appgtrack/internal/resolve"
)

// SQLiteStore implements Store using modernc.org/sqlite. Each group is one
// row holding its JSON document, keyed by snapshot date and slug; decisions
// are one row per normalized raw name.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	date       TEXT PRIMARY KEY CHECK (length(date) = 6),
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS snapshot_groups (
	snapshot_date TEXT NOT NULL REFERENCES snapshots(date) ON DELETE CASCADE,
	slug          TEXT NOT NULL,
	doc           TEXT NOT NULL,
	PRIMARY KEY (snapshot_date, slug)
);

CREATE TABLE IF NOT EXISTS decisions (
	key        TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	raw        TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	person_id  TEXT,
	twfy_id    TEXT,
	score      REAL NOT NULL DEFAULT 0,
	decided_by TEXT NOT NULL,
	decided_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshot_groups_slug ON snapshot_groups(slug);
CREATE INDEX IF NOT EXISTS idx_decisions_person_id ON decisions(person_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PutSnapshot writes a full dated snapshot in one transaction, replacing any
// existing snapshot for that date wholesale.
func (s *SQLiteStore) PutSnapshot(ctx context.Context, date string, groups []model.Group) error {
	if !ValidDate(date) {
		return eris.Errorf("sqlite: invalid snapshot date %q, want YYMMDD", date)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin snapshot tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_groups WHERE snapshot_date = ?`, date); err != nil {
		return eris.Wrapf(err, "sqlite: clear snapshot %s", date)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (date) VALUES (?) ON CONFLICT (date) DO NOTHING`, date); err != nil {
		return eris.Wrapf(err, "sqlite: insert snapshot %s", date)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_groups (snapshot_date, slug, doc) VALUES (?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare group insert")
	}
	defer stmt.Close()

	for _, g := range groups {
		doc, err := json.Marshal(g)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal group %s", g.Slug)
		}
		if _, err := stmt.ExecContext(ctx, date, g.Slug, string(doc)); err != nil {
			return eris.Wrapf(err, "sqlite: insert group %s@%s", g.Slug, date)
		}
	}

	return eris.Wrapf(tx.Commit(), "sqlite: commit snapshot %s", date)
}

func (s *SQLiteStore) Snapshot(ctx context.Context, date string) (Snapshot, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM snapshots WHERE date = ?)`, date).Scan(&exists)
	if err != nil {
		return Snapshot{}, eris.Wrapf(err, "sqlite: check snapshot %s", date)
	}
	if !exists {
		return Snapshot{}, eris.Wrapf(ErrNotFound, "snapshot %s", date)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM snapshot_groups WHERE snapshot_date = ? ORDER BY slug`, date)
	if err != nil {
		return Snapshot{}, eris.Wrapf(err, "sqlite: query snapshot %s", date)
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return Snapshot{}, eris.Wrap(err, "sqlite: scan group doc")
		}
		var g model.Group
		if err := json.Unmarshal([]byte(doc), &g); err != nil {
			return Snapshot{}, eris.Wrapf(err, "sqlite: unmarshal group in snapshot %s", date)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, eris.Wrapf(err, "sqlite: iterate snapshot %s", date)
	}

	return Snapshot{Date: date, Groups: groups}, nil
}

func (s *SQLiteStore) Dates(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date FROM snapshots ORDER BY date`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query dates")
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan date")
		}
		dates = append(dates, d)
	}
	return dates, eris.Wrap(rows.Err(), "sqlite: iterate dates")
}

func (s *SQLiteStore) Latest(ctx context.Context) (Snapshot, error) {
	var date string
	err := s.db.QueryRowContext(ctx, `SELECT date FROM snapshots ORDER BY date DESC LIMIT 1`).Scan(&date)
	if err == sql.ErrNoRows {
		return Snapshot{}, eris.Wrap(ErrNotFound, "no snapshots stored")
	}
	if err != nil {
		return Snapshot{}, eris.Wrap(err, "sqlite: query latest date")
	}
	return s.Snapshot(ctx, date)
}

func (s *SQLiteStore) Previous(ctx context.Context, date string) (string, error) {
	dates, err := s.Dates(ctx)
	if err != nil {
		return "", err
	}
	return previousDate(dates, date)
}

func (s *SQLiteStore) SaveDecision(ctx context.Context, d resolve.Decision) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO decisions (key, id, raw, outcome, person_id, twfy_id, score, decided_by, decided_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
	id = excluded.id,
	raw = excluded.raw,
	outcome = excluded.outcome,
	person_id = excluded.person_id,
	twfy_id = excluded.twfy_id,
	score = excluded.score,
	decided_by = excluded.decided_by,
	decided_at = excluded.decided_at`,
		d.Key, d.ID, d.Raw, string(d.Outcome), d.PersonID, d.TWFYID, d.Score, d.DecidedBy, d.DecidedAt)
	return eris.Wrapf(err, "sqlite: save decision %q", d.Key)
}

func (s *SQLiteStore) Decision(ctx context.Context, key string) (resolve.Decision, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT key, id, raw, outcome, person_id, twfy_id, score, decided_by, decided_at
FROM decisions WHERE key = ?`, key)
	d, err := scanDecision(row)
	if err == sql.ErrNoRows {
		return resolve.Decision{}, false, nil
	}
	if err != nil {
		return resolve.Decision{}, false, eris.Wrapf(err, "sqlite: get decision %q", key)
	}
	return d, true, nil
}

func (s *SQLiteStore) Decisions(ctx context.Context) ([]resolve.Decision, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT key, id, raw, outcome, person_id, twfy_id, score, decided_by, decided_at
FROM decisions ORDER BY key`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query decisions")
	}
	defer rows.Close()

	var out []resolve.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan decision")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate decisions")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDecision(row scannable) (resolve.Decision, error) {
	var d resolve.Decision
	var personID, twfyID sql.NullString
	err := row.Scan(&d.Key, &d.ID, &d.Raw, &d.Outcome, &personID, &twfyID, &d.Score, &d.DecidedBy, &d.DecidedAt)
	if err != nil {
		return resolve.Decision{}, err
	}
	d.PersonID = personID.String
	d.TWFYID = twfyID.String
	return d, nil
}
