package db

import (
	"database/sql"
	"fmt"
	"regexp"
)

// IDSequence feeds the friendly IDs of one entity table. Sequences are read
// from the schema's assign-id triggers, so adding an entity needs no change here.
type IDSequence struct {
	Entity   string `json:"entity"`
	SeqTable string `json:"seq_table"`
	Prefix   string `json:"prefix"`
}

// Drift is an entity whose highest friendly ID is ahead of its sequence
// counter. The next trigger-assigned ID would collide with an existing row.
type Drift struct {
	IDSequence
	HighWater int64 `json:"high_water"`
	Counter   int64 `json:"counter"`
}

// NextID is the friendly ID the trigger would hand out next
func (d Drift) NextID() string {
	return fmt.Sprintf("%s%05d", d.Prefix, d.Counter+1)
}

var (
	seqInsertPattern = regexp.MustCompile(`(?i)INSERT\s+INTO\s+(\w+_seq)\b`)
	idFormatPattern  = regexp.MustCompile(`printf\('([A-Z]+-)%0?\d*d'`)
)

// IDSequences lists the friendly-ID sequences declared by assign-id triggers,
// ordered by entity table.
func (db *DB) IDSequences() ([]IDSequence, error) {
	rows, err := db.Query(`SELECT tbl_name, sql FROM sqlite_master
		WHERE type = 'trigger' AND sql LIKE '%_seq%' ORDER BY tbl_name, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to read triggers: %w", err)
	}
	defer rows.Close()

	var out []IDSequence
	for rows.Next() {
		var entity, body string
		if err := rows.Scan(&entity, &body); err != nil {
			return nil, fmt.Errorf("failed to scan trigger: %w", err)
		}
		seq := seqInsertPattern.FindStringSubmatch(body)
		prefix := idFormatPattern.FindStringSubmatch(body)
		if seq == nil || prefix == nil {
			continue
		}
		out = append(out, IDSequence{Entity: entity, SeqTable: seq[1], Prefix: prefix[1]})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating triggers: %w", err)
	}
	return out, nil
}

// CheckDrift reports every sequence trailing the IDs already in use.
func (db *DB) CheckDrift() ([]Drift, error) {
	seqs, err := db.IDSequences()
	if err != nil {
		return nil, err
	}
	return drifts(db.DB, seqs)
}

// RepairDrift advances each trailing counter to its entity's high-water mark
// in one transaction and returns what it changed.
func (db *DB) RepairDrift() ([]Drift, error) {
	seqs, err := db.IDSequences()
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	found, err := drifts(tx, seqs)
	if err != nil {
		return nil, err
	}
	for _, d := range found {
		res, err := tx.Exec(`UPDATE sqlite_sequence SET seq = ? WHERE name = ?`, d.HighWater, d.SeqTable)
		if err != nil {
			return nil, fmt.Errorf("failed to advance %s: %w", d.SeqTable, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			continue
		}
		// A sequence that never fired has no sqlite_sequence row yet.
		if _, err := tx.Exec(`INSERT INTO sqlite_sequence (name, seq) VALUES (?, ?)`, d.SeqTable, d.HighWater); err != nil {
			return nil, fmt.Errorf("failed to seed %s: %w", d.SeqTable, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sequence repair: %w", err)
	}
	return found, nil
}

type rowQuerier interface {
	QueryRow(query string, args ...any) *sql.Row
}

func drifts(q rowQuerier, seqs []IDSequence) ([]Drift, error) {
	out := []Drift{}
	for _, s := range seqs {
		var high int64
		query := fmt.Sprintf(`SELECT COALESCE(MAX(CAST(SUBSTR(id, ?) AS INTEGER)), 0) FROM %q WHERE id LIKE ?`, s.Entity)
		if err := q.QueryRow(query, len(s.Prefix)+1, s.Prefix+"%").Scan(&high); err != nil {
			return nil, fmt.Errorf("failed to read highest %s ID: %w", s.Entity, err)
		}

		var counter sql.NullInt64
		err := q.QueryRow(`SELECT seq FROM sqlite_sequence WHERE name = ?`, s.SeqTable).Scan(&counter)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to read %s counter: %w", s.SeqTable, err)
		}

		if counter.Int64 < high {
			out = append(out, Drift{IDSequence: s, HighWater: high, Counter: counter.Int64})
		}
	}
	return out, nil
}
