package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/teenjuna/redrain/internal"
)

var (
	// ErrClosed is returned by Storage methods when the storage has been closed.
	ErrClosed = errors.New("storage is closed")
)

const (
	memory = ":memory:"
)

// Storage is a persistent dead-letter storage backed by SQLite.
//
// Records that failed delivery terminally are kept here until they are
// replayed successfully or deleted.
type Storage struct {
	cfg *Config
	db  *sql.DB
}

// New creates a new Storage with the provided configuration functions.
//
// Default configuration:
//   - File: ":memory:" (in-memory database)
//   - Workers: 1
//   - Letters: 1
//   - Cooldown: 0
//
// Returns an error if the SQLite database cannot be opened or initialized.
func New(configFuncs ...ConfigFunc) (*Storage, error) {
	cfg := &Config{}
	cfg.File(memory)
	cfg.Workers(1)
	cfg.Letters(1)
	for _, cf := range configFuncs {
		cf(cfg)
	}

	db, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if err := setup(db); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	storage := Storage{
		cfg: cfg,
		db:  db,
	}

	return &storage, nil
}

// Push inserts a new dead letter into the storage.
//
// The data is the encoded record, kind names the terminal failure that caused
// it ("fatal" or "exhausted") and attempts is how many deliveries were made
// before giving up. Returns a unique LetterID identifying this letter.
//
// Returns [ErrClosed] if the storage has been closed.
func (s *Storage) Push(data []byte, kind string, attempts int) (LetterID, error) {
	id := internal.GenerateID()
	_, err := s.db.Exec(
		`
		insert into letter (
			id,
			data,
			kind,
			attempts,
			failed_at,
			claimed,
			claimed_at,
			claimed_times,
			cooldown_end
		) values (
			:id,
			:data,
			:kind,
			:attempts,
			:failed_at,
			:claimed,
			:claimed_at,
			:claimed_times,
			:cooldown_end
		)
		`,
		sql.Named("id", id),
		sql.Named("data", data),
		sql.Named("kind", kind),
		sql.Named("attempts", attempts),
		sql.Named("failed_at", toTimestamp(time.Now())),
		sql.Named("claimed", 0),
		sql.Named("claimed_at", 0),
		sql.Named("claimed_times", 0),
		sql.Named("cooldown_end", 0),
	)
	if err != nil && err.Error() == "sql: database is closed" {
		return "", ErrClosed
	} else if err != nil {
		return "", err
	}

	return id, nil
}

// Claim atomically claims unclaimed dead letters for replay.
//
// Letters are selected based on the following criteria:
//   - Not already claimed
//   - Cooldown period has elapsed (cooldown_end <= now)
//   - Ordered by failure time (oldest first)
//
// The number of letters returned is limited by [Config.Letters].
//
// Returns an empty slice if no letters are available.
// Returns [ErrClosed] if the storage has been closed.
func (s *Storage) Claim() ([]Letter, error) {
	rows, err := s.db.Query(
		`
		update letter
		set
			claimed = 1,
			claimed_at = :now,
			claimed_times = claimed_times + 1
		where
			id in (
				select id from letter
				where
					claimed = 0 and
					cooldown_end <= :now
				order by
					failed_at asc
				limit :limit
			)
		returning *
		`,
		sql.Named("now", toTimestamp(time.Now())),
		sql.Named("limit", s.cfg.letters),
	)
	if err != nil && err.Error() == "sql: database is closed" {
		return nil, ErrClosed
	} else if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	type rawLetter struct {
		ID           string
		Data         []byte
		Kind         string
		Attempts     int
		FailedAt     int64
		Claimed      int
		ClaimedAt    int64
		ClaimedTimes int
		CooldownEnd  int64
	}

	letters := make([]Letter, 0, s.cfg.letters)

	for rows.Next() {
		var l rawLetter
		if err := rows.Scan(
			&l.ID,
			&l.Data,
			&l.Kind,
			&l.Attempts,
			&l.FailedAt,
			&l.Claimed,
			&l.ClaimedAt,
			&l.ClaimedTimes,
			&l.CooldownEnd,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		letters = append(letters, Letter{
			ID:           l.ID,
			Data:         l.Data,
			Kind:         l.Kind,
			Attempts:     l.Attempts,
			FailedAt:     fromTimestamp(l.FailedAt),
			Claimed:      l.Claimed != 0,
			ClaimedAt:    fromTimestamp(l.ClaimedAt),
			ClaimedTimes: l.ClaimedTimes,
			CooldownEnd:  fromTimestamp(l.CooldownEnd),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	return letters, nil
}

// Release releases one or more claimed dead letters back to the storage.
//
// The letters will be reset to unclaimed state and will have a cooldown
// applied if [Config.Cooldown] was configured. During the cooldown period, the
// letters will not be eligible for re-claiming.
//
// This is typically called when a replay fails.
func (s *Storage) Release(ids ...LetterID) error {
	var cooldownEnd time.Time
	if s.cfg.cooldown != 0 {
		cooldownEnd = time.Now().Add(s.cfg.cooldown)
	}

	_, err := s.db.Exec(
		`
		update letter
		set
			claimed = 0,
			cooldown_end = :cooldown_end
		where
			id in (
				select value from json_each(:ids)
			)
		`,
		sql.Named("ids", jsonIDs(ids)),
		sql.Named("cooldown_end", toTimestamp(cooldownEnd)),
	)
	return err
}

// Delete permanently removes one or more dead letters from the storage.
//
// This should be called after a successful replay to clean up the replayed
// records.
func (s *Storage) Delete(ids ...LetterID) error {
	_, err := s.db.Exec(
		`
		delete from letter
		where
			id in (
				select value from json_each(:ids)
			)
		`,
		sql.Named("ids", jsonIDs(ids)),
	)
	return err
}

// Stats returns current storage statistics.
//
// Returns the total number of stored dead letters and the time when the next
// cooldown will expire (useful for scheduling replays).
func (s *Storage) Stats() (*Stats, error) {
	var (
		letters         int
		nextCooldownEnd int64
	)
	err := s.db.QueryRow(
		`
		select
			coalesce(count(*), 0) as letters,
			coalesce(min(cooldown_end), 0) as next_cooldown_end
		from
			letter
		`,
	).Scan(
		&letters,
		&nextCooldownEnd,
	)
	if err != nil {
		return nil, err
	}

	stats := Stats{
		Letters:         letters,
		NextCooldownEnd: fromTimestamp(nextCooldownEnd),
	}

	return &stats, nil
}

// Close closes the underlying SQLite database.
//
// After closing, all methods on Storage will return [ErrClosed].
func (s *Storage) Close() error {
	return s.db.Close()
}

// Letter represents a stored dead letter.
type Letter struct {
	// ID is the unique identifier of this letter.
	ID LetterID
	// Data is the encoded record content.
	Data []byte
	// Kind names the terminal failure that produced this letter.
	Kind string
	// Attempts is the number of deliveries made before giving up.
	Attempts int
	// FailedAt is the time when the record failed terminally.
	FailedAt time.Time
	// Claimed indicates whether this letter is currently claimed for replay.
	Claimed bool
	// ClaimedAt is the time when the letter was claimed.
	ClaimedAt time.Time
	// ClaimedTimes is the number of times this letter has been claimed.
	ClaimedTimes int
	// CooldownEnd is the earliest time when this letter can be re-claimed.
	CooldownEnd time.Time
}

type LetterID = string

// Stats represents statistics about the storage.
type Stats struct {
	// Letters is the total number of dead letters in storage.
	Letters int
	// NextCooldownEnd is the earliest time when any letter becomes available
	// for re-claiming.
	NextCooldownEnd time.Time
}

func open(cfg *Config) (*sql.DB, error) {
	params := url.Values{}
	params.Add("_txlock", "immediate")
	params.Add("_timeout", "5000") // 5s
	params.Add("_foreign_keys", "on")

	file := cfg.file
	var extra url.Values
	if i := strings.IndexByte(file, '?'); i >= 0 {
		extra, _ = url.ParseQuery(file[i+1:])
		file = file[:i]
	}

	if file == memory {
		file = internal.GenerateID()
		params.Add("mode", "memory")
		params.Add("cache", "shared")
	} else {
		params.Add("_journal", "wal")
		params.Add("_sync", "normal")
		params.Add("_cache_size", "-20000") // 20mb
	}

	for k, v := range extra {
		if len(v) != 0 {
			params.Set(k, v[0])
		}
	}

	db, err := sql.Open("sqlite3", "file:"+file+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)
	if params.Get("mode") == "memory" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(cfg.workers)
		db.SetMaxIdleConns(cfg.workers)
	}

	return db, nil
}

func setup(db *sql.DB) error {
	// Create table for dead letters.
	if _, err := db.Exec(
		`
		create table if not exists letter (
			id            text primary key,
			data          blob not null,
			kind          text not null,
			attempts      int not null,
			failed_at     int not null,
			claimed       int not null,
			claimed_at    int not null,
			claimed_times int not null,
			cooldown_end  int not null
		) strict
		`,
	); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	// Create the index for the claim logic.
	if _, err := db.Exec(
		`
		create index if not exists idx_letter_ready_to_claim
		on letter (failed_at, cooldown_end, id)
		where claimed = 0
		`,
	); err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	// Just in case the database already existed and previous closing didn't release everything.
	if _, err := db.Exec("update letter set claimed = 0"); err != nil {
		return fmt.Errorf("release letters: %w", err)
	}

	return nil
}

func jsonIDs(ids []LetterID) string {
	jsonIDs, _ := json.Marshal(ids)
	return string(jsonIDs)
}

func toTimestamp(time time.Time) int64 {
	return time.UnixNano()
}

func fromTimestamp(timestamp int64) time.Time {
	return time.Unix(0, timestamp)
}
