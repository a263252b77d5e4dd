package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	// ErrSlotNotFound is returned when no save slot has the requested name.
	ErrSlotNotFound = errors.New("save slot not found")
	// ErrChecksum is returned when stored text no longer matches its checksum.
	ErrChecksum = errors.New("save slot checksum mismatch")
)

// SlotRow represents a row from the save_slots table.
type SlotRow struct {
	Name     string
	Revision uuid.UUID
	Checksum uint64
	ByteLen  int
	Data     string
	SavedAt  time.Time
}

// Checksum hashes encoded store text the way save slots record it.
func Checksum(text string) uint64 {
	return xxhash.Sum64String(text)
}

// SlotRepo stores encoded world saves in named slots.
type SlotRepo struct {
	db *DB
}

func NewSlotRepo(db *DB) *SlotRepo {
	return &SlotRepo{db: db}
}

// Save replaces the slot's contents with text under a new revision and
// appends a history row, in one transaction.
func (r *SlotRepo) Save(ctx context.Context, slot, text string) error {
	rev := uuid.New()
	sum := Checksum(text)

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("slot begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO save_slots (name, revision, checksum, byte_len, data, saved_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (name) DO UPDATE SET
		     revision = EXCLUDED.revision,
		     checksum = EXCLUDED.checksum,
		     byte_len = EXCLUDED.byte_len,
		     data     = EXCLUDED.data,
		     saved_at = EXCLUDED.saved_at`,
		slot, rev.String(), int64(sum), len(text), text,
	); err != nil {
		return fmt.Errorf("slot upsert: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO save_slot_history (name, revision, byte_len) VALUES ($1, $2, $3)`,
		slot, rev.String(), len(text),
	); err != nil {
		return fmt.Errorf("slot history: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("slot commit: %w", err)
	}
	r.db.log.Debug("save slot written", zap.String("slot", slot), zap.String("revision", rev.String()), zap.Int("bytes", len(text)))
	return nil
}

// Load returns the slot's row after verifying its checksum.
func (r *SlotRepo) Load(ctx context.Context, slot string) (*SlotRow, error) {
	var row SlotRow
	var rev string
	var sum int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT name, revision::text, checksum, byte_len, data, saved_at
		 FROM save_slots WHERE name = $1`, slot,
	).Scan(&row.Name, &rev, &sum, &row.ByteLen, &row.Data, &row.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("slot query: %w", err)
	}
	if row.Revision, err = uuid.Parse(rev); err != nil {
		return nil, fmt.Errorf("slot revision: %w", err)
	}
	row.Checksum = uint64(sum)
	if err := row.verify(); err != nil {
		return nil, err
	}
	return &row, nil
}

// verify checks the row's data against its recorded length and checksum.
func (row *SlotRow) verify() error {
	if len(row.Data) != row.ByteLen || Checksum(row.Data) != row.Checksum {
		return fmt.Errorf("%w: %s revision %s", ErrChecksum, row.Name, row.Revision)
	}
	return nil
}

// List returns every slot without its data, newest first.
func (r *SlotRepo) List(ctx context.Context) ([]SlotRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, revision::text, checksum, byte_len, saved_at
		 FROM save_slots ORDER BY saved_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SlotRow
	for rows.Next() {
		var s SlotRow
		var rev string
		var sum int64
		if err := rows.Scan(&s.Name, &rev, &sum, &s.ByteLen, &s.SavedAt); err != nil {
			return nil, err
		}
		if s.Revision, err = uuid.Parse(rev); err != nil {
			return nil, fmt.Errorf("slot revision: %w", err)
		}
		s.Checksum = uint64(sum)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a slot. History rows are kept.
func (r *SlotRepo) Delete(ctx context.Context, slot string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM save_slots WHERE name = $1`, slot)
	if err != nil {
		return err
	}
	return deleted(slot, tag.RowsAffected())
}

func deleted(slot string, rows int64) error {
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrSlotNotFound, slot)
	}
	return nil
}
