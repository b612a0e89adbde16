// Package history keeps a bounded, file-backed list of saved calculator
// results, newest first.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/iwvelando/finance-calculators/internal/calculator"
	"github.com/iwvelando/finance-calculators/pkg/constants"
	"github.com/iwvelando/finance-calculators/pkg/expr"
	"go.uber.org/zap"
)

const (
	fileVersion      = 1
	lockTimeout      = 5 * time.Second
	lockPollInterval = 50 * time.Millisecond
)

// Record is one saved result.
type Record struct {
	ID      string                `json:"id"`
	Slug    string                `json:"slug"`
	Inputs  map[string]expr.Value `json:"inputs"`
	Outputs map[string]expr.Value `json:"outputs"`
	SavedAt time.Time             `json:"savedAt"`
}

// NewRecord captures the effective inputs and the outputs of a result.
func NewRecord(result *calculator.Result) Record {
	rec := Record{
		Slug:    result.Slug,
		Inputs:  make(map[string]expr.Value, len(result.Inputs)),
		Outputs: make(map[string]expr.Value, len(result.Outputs)),
	}
	for k, v := range result.Inputs {
		rec.Inputs[k] = v
	}
	for k, v := range result.Outputs {
		rec.Outputs[k] = v
	}
	return rec
}

type document struct {
	Version int      `json:"version"`
	Records []Record `json:"records"`
}

// Store persists records to a JSON file. Concurrent writers, including other
// processes, are serialized through a lock file next to it.
type Store struct {
	logger *zap.Logger
	path   string
	limit  int
	now    func() time.Time
}

// NewStore returns a store backed by path keeping at most limit records.
// A non-positive limit selects the default.
func NewStore(logger *zap.Logger, path string, limit int) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	return &Store{logger: logger, path: path, limit: limit, now: time.Now}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Limit returns the maximum number of kept records.
func (s *Store) Limit() int {
	return s.limit
}

// lock acquires an exclusive lock on the store file. The caller must unlock.
func (s *Store) lock(ctx context.Context) (*flock.Flock, error) {
	lockPath := s.path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	lock := flock.New(lockPath)
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, lockPollInterval)
	if err != nil {
		return nil, fmt.Errorf("acquiring history lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for history lock")
	}
	return lock, nil
}

func (s *Store) read() (document, error) {
	doc := document{Version: fileVersion}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf("failed to read history file %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse history file %s: %w", s.path, err)
	}
	if doc.Version != fileVersion {
		return doc, fmt.Errorf("unsupported history file version %d", doc.Version)
	}
	return doc, nil
}

// write replaces the file atomically.
func (s *Store) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary history file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}

// Append stores rec as the newest record, assigning an ID and timestamp when
// missing, and drops the oldest records beyond the limit.
func (s *Store) Append(ctx context.Context, rec Record) (Record, error) {
	if rec.Slug == "" {
		return rec, fmt.Errorf("record has no calculator slug")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.SavedAt.IsZero() {
		rec.SavedAt = s.now().UTC()
	}

	lock, err := s.lock(ctx)
	if err != nil {
		return rec, err
	}
	defer lock.Unlock()

	doc, err := s.read()
	if err != nil {
		return rec, err
	}
	doc.Records = append([]Record{rec}, doc.Records...)
	dropped := 0
	if len(doc.Records) > s.limit {
		dropped = len(doc.Records) - s.limit
		doc.Records = doc.Records[:s.limit]
	}
	if err := s.write(doc); err != nil {
		return rec, err
	}

	s.logger.Debug("saved calculator result",
		zap.String("op", "history.Store.Append"),
		zap.String("id", rec.ID),
		zap.String("slug", rec.Slug),
		zap.Int("records", len(doc.Records)),
		zap.Int("dropped", dropped),
	)
	return rec, nil
}

// List returns the saved records, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	lock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	if doc.Records == nil {
		return []Record{}, nil
	}
	return doc.Records, nil
}

// Clear removes every record.
func (s *Store) Clear(ctx context.Context) error {
	lock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	if err := s.write(document{Version: fileVersion, Records: []Record{}}); err != nil {
		return err
	}
	s.logger.Info("cleared saved results",
		zap.String("op", "history.Store.Clear"),
		zap.String("file", s.path),
	)
	return nil
}
