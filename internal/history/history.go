// Package history records compile sessions in a sqlite database:
// one row per compiled file with outcome, timing, and the diagnostics
// produced, CBOR-encoded.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("jackal.history")

// cborEncMode uses canonical options for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("history: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

const schema = `
CREATE TABLE IF NOT EXISTS compilations (
	session     TEXT NOT NULL,
	file        TEXT NOT NULL,
	ok          INTEGER NOT NULL,
	duration_us INTEGER NOT NULL,
	diagnostics BLOB,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_compilations_session ON compilations(session);
CREATE INDEX IF NOT EXISTS idx_compilations_file ON compilations(file);
`

// Record is one compile-history row.
type Record struct {
	Session     string
	File        string
	OK          bool
	Duration    time.Duration
	Diagnostics []string
}

// Store is a compile-history database. A Store carries the session id
// under which Append records rows.
type Store struct {
	db      *sql.DB
	session string
}

// Open opens (creating if needed) the history database at path and
// begins a new session.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history db %s: %w", path, err)
	}
	s := &Store{db: db, session: uuid.NewString()}
	log.Debugf("history session %s -> %s", s.session, path)
	return s, nil
}

// Session returns the current session id.
func (s *Store) Session() string {
	return s.session
}

// Append records one compiled file under the current session.
func (s *Store) Append(file string, ok bool, d time.Duration, diagnostics []string) error {
	blob, err := cborEncMode.Marshal(diagnostics)
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO compilations (session, file, ok, duration_us, diagnostics, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.session, file, boolInt(ok), d.Microseconds(), blob, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// BySession returns the records of one session in insertion order.
func (s *Store) BySession(session string) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT session, file, ok, duration_us, diagnostics
		 FROM compilations WHERE session = ? ORDER BY rowid`,
		session,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var ok int64
		var us int64
		var blob []byte
		if err := rows.Scan(&r.Session, &r.File, &ok, &us, &blob); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		r.OK = ok != 0
		r.Duration = time.Duration(us) * time.Microsecond
		if len(blob) > 0 {
			if err := cbor.Unmarshal(blob, &r.Diagnostics); err != nil {
				return nil, fmt.Errorf("decode diagnostics: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
