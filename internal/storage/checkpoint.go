package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/oklog/ulid/v2"
	"github.com/spaolacci/murmur3"

	"github.com/yndnr/chgrid-go/internal/telemetry/logger"
	"github.com/yndnr/chgrid-go/pkg/grid"
)

// Key layout:
//
//	meta                               JSON Checkpoint
//	rec/<id>/<row u32 BE><col u32 BE>  record bytes ‖ murmur3 sum32 (BE)
//
// Records of a checkpoint live under its own id, so a new image is written
// beside the current one and meta is switched only once it is complete.
var metaKey = []byte("meta")

const checksumSize = 4

// Checkpoint describes a stored grid image.
type Checkpoint struct {
	ID         string    `json:"id" yaml:"id"`
	RunID      string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Rows       int       `json:"rows" yaml:"rows"`
	Columns    int       `json:"columns" yaml:"columns"`
	RecordSize int       `json:"record_size" yaml:"record_size"`
	Keys       int       `json:"keys" yaml:"keys"`
	Records    int       `json:"records" yaml:"records"`
	SavedAt    time.Time `json:"saved_at" yaml:"saved_at"`
}

// Matches reports whether g has the geometry recorded in c.
func (c Checkpoint) Matches(g *grid.Grid) bool {
	return g != nil &&
		c.Rows == g.Rows() &&
		c.Columns == g.Columns() &&
		c.RecordSize == g.RecordSize()
}

func recordPrefix(id string) []byte {
	return []byte("rec/" + id + "/")
}

func recordKey(id string, row, column int) []byte {
	prefix := recordPrefix(id)
	key := make([]byte, len(prefix)+8)
	n := copy(key, prefix)
	binary.BigEndian.PutUint32(key[n:], uint32(row))
	binary.BigEndian.PutUint32(key[n+4:], uint32(column))
	return key
}

func seal(record []byte) []byte {
	v := make([]byte, len(record)+checksumSize)
	n := copy(v, record)
	binary.BigEndian.PutUint32(v[n:], murmur3.Sum32(record))
	return v
}

func unseal(v []byte, recordSize int) ([]byte, error) {
	if len(v) != recordSize+checksumSize {
		return nil, fmt.Errorf("%w: value size %d, want %d", ErrCorrupt, len(v), recordSize+checksumSize)
	}
	record := v[:recordSize]
	if want, got := binary.BigEndian.Uint32(v[recordSize:]), murmur3.Sum32(record); want != got {
		return nil, fmt.Errorf("%w: checksum %08x, want %08x", ErrCorrupt, got, want)
	}
	return record, nil
}

// Save writes every record of g as a new checkpoint, replacing the previous
// one. Records are read one at a time with read-only access, so concurrent
// writers are only blocked for the duration of each copy. The checkpoint is
// visible only after all records are written; if any record fails the
// previous checkpoint stays current.
func (s *Store) Save(ctx context.Context, g *grid.Grid, timeout time.Duration) (Checkpoint, error) {
	if g == nil {
		return Checkpoint{}, grid.ErrInvalidReference
	}
	if s.closed.Load() {
		return Checkpoint{}, ErrClosed
	}

	start := time.Now()
	cp, err := s.save(grid.WithTask(ctx, "checkpoint"), g, timeout)
	if err != nil {
		s.observeFailure()
		return Checkpoint{}, err
	}
	elapsed := time.Since(start)
	s.observeSave(cp.Records, elapsed)

	logger.L(ctx).Debug("checkpoint saved",
		"checkpoint", cp.ID,
		"records", cp.Records,
		"elapsed", elapsed)
	return cp, nil
}

func (s *Store) save(ctx context.Context, g *grid.Grid, timeout time.Duration) (Checkpoint, error) {
	previous, err := s.Latest()
	if err != nil && !errors.Is(err, ErrNoCheckpoint) {
		return Checkpoint{}, fmt.Errorf("read checkpoint meta: %w", err)
	}

	cp := Checkpoint{
		ID:         ulid.Make().String(),
		RunID:      logger.RunIDFromContext(ctx),
		Rows:       g.Rows(),
		Columns:    g.Columns(),
		RecordSize: g.RecordSize(),
		Keys:       int(g.Keys()),
	}

	if err := s.writeRecords(ctx, g, cp.ID, timeout); err != nil {
		if derr := s.db.DropPrefix(recordPrefix(cp.ID)); derr != nil {
			s.logger.Warn("drop partial checkpoint", "checkpoint", cp.ID, "error", derr)
		}
		return Checkpoint{}, err
	}
	cp.Records = g.Rows() * g.Columns()
	cp.SavedAt = time.Now().UTC()

	meta, err := json.Marshal(cp)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("encode checkpoint meta: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey, meta)
	}); err != nil {
		return Checkpoint{}, fmt.Errorf("write checkpoint meta: %w", err)
	}

	if previous.ID != "" {
		if err := s.db.DropPrefix(recordPrefix(previous.ID)); err != nil {
			s.logger.Warn("drop replaced checkpoint", "checkpoint", previous.ID, "error", err)
		}
	}
	return cp, nil
}

// writeRecords stores every record of g under the prefix of checkpoint id.
func (s *Store) writeRecords(ctx context.Context, g *grid.Grid, id string, timeout time.Duration) error {
	wb := s.db.NewWriteBatch()
	for row := 0; row < g.Rows(); row++ {
		for column := 0; column < g.Columns(); column++ {
			err := g.ViewRow(ctx, row, column, timeout, func(record []byte) error {
				return wb.Set(recordKey(id, row, column), seal(record))
			})
			if err != nil {
				wb.Cancel()
				return fmt.Errorf("checkpoint row %d column %d: %w", row, column, err)
			}
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return nil
}

// Latest returns the metadata of the stored checkpoint.
func (s *Store) Latest() (Checkpoint, error) {
	if s.closed.Load() {
		return Checkpoint{}, ErrClosed
	}

	var cp Checkpoint
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNoCheckpoint
			}
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &cp)
		})
	})
	if err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}

// Restore copies the stored checkpoint into g. It uses UnsafeForEach and
// must therefore run before g is shared, typically from the seed passed to
// grid.Init. Nothing is written to g unless every record is present and
// intact.
func (s *Store) Restore(g *grid.Grid) (Checkpoint, error) {
	if g == nil {
		return Checkpoint{}, grid.ErrInvalidReference
	}

	cp, err := s.Latest()
	if err != nil {
		return Checkpoint{}, err
	}
	if !cp.Matches(g) {
		return Checkpoint{}, fmt.Errorf("%w: stored %dx%dx%d, grid %dx%dx%d", ErrGeometryMismatch,
			cp.Rows, cp.Columns, cp.RecordSize, g.Rows(), g.Columns(), g.RecordSize())
	}

	image := make([]byte, 0, g.Size())
	err = s.db.View(func(txn *badger.Txn) error {
		for row := 0; row < g.Rows(); row++ {
			for column := 0; column < g.Columns(); column++ {
				item, err := txn.Get(recordKey(cp.ID, row, column))
				if err != nil {
					if errors.Is(err, badger.ErrKeyNotFound) {
						return fmt.Errorf("%w: row %d column %d missing", ErrCorrupt, row, column)
					}
					return err
				}
				if err := item.Value(func(v []byte) error {
					record, err := unseal(v, g.RecordSize())
					if err != nil {
						return fmt.Errorf("row %d column %d: %w", row, column, err)
					}
					image = append(image, record...)
					return nil
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return Checkpoint{}, err
	}

	g.UnsafeForEach(func(row, column int, record []byte) bool {
		offset, _ := g.Offset(row, column)
		copy(record, image[offset:])
		return true
	})

	s.logger.Info("checkpoint restored",
		"checkpoint", cp.ID,
		"records", cp.Records,
		"saved_at", cp.SavedAt)
	return cp, nil
}

// Verify checks every stored record against its checksum and returns the
// number of intact records.
func (s *Store) Verify() (int, error) {
	cp, err := s.Latest()
	if err != nil {
		return 0, err
	}

	intact := 0
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordPrefix(cp.ID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if err := item.Value(func(v []byte) error {
				_, err := unseal(v, cp.RecordSize)
				return err
			}); err != nil {
				return fmt.Errorf("key %x: %w", item.Key(), err)
			}
			intact++
		}
		return nil
	})
	if err != nil {
		return intact, err
	}
	if intact != cp.Records {
		return intact, fmt.Errorf("%w: %d records stored, meta says %d", ErrCorrupt, intact, cp.Records)
	}
	return intact, nil
}

// Run saves a checkpoint of g every cfg.Interval until ctx is cancelled.
// Failed checkpoints are logged and retried on the next tick.
func (s *Store) Run(ctx context.Context, g *grid.Grid, timeout time.Duration) error {
	if s.cfg.Interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Save(ctx, g, timeout); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.L(ctx).Warn("checkpoint failed", "error", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Stats returns the number of successful and failed checkpoints.
func (s *Store) Stats() (saves, failures uint64) {
	return s.saves.Load(), s.failures.Load()
}
