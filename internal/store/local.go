package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/aegiswhistle/aegis/pkg/models"
)

// Slot is one persistent key-value cell holding the serialized local collection.
type Slot interface {
	// Get returns the stored bytes; ok is false when the key is unset.
	Get(ctx context.Context) (data []byte, ok bool, err error)
	Put(ctx context.Context, data []byte) error
	Close() error
}

// Local is the local-first backend: a JSON array in a Slot, merged with seed reports on read.
type Local struct {
	Slot    Slot
	Backend string
	Now     func() time.Time // optional; used for local numbering
}

// NewLocal wraps slot as a Store.
func NewLocal(backend string, slot Slot) *Local {
	return &Local{Slot: slot, Backend: backend}
}

func (l *Local) Kind() string { return l.Backend }

func (l *Local) Remote() bool { return false }

func (l *Local) Close() error {
	if l == nil || l.Slot == nil {
		return nil
	}
	return l.Slot.Close()
}

// LoadAll returns seeds plus stored reports. A corrupt slot yields the seeds and the parse error.
func (l *Local) LoadAll(ctx context.Context) ([]models.Report, error) {
	stored, err := l.stored(ctx)
	if err != nil {
		return Seeds(), err
	}
	return MergeSeeds(stored), nil
}

// SaveAll overwrites the slot with c minus unchanged seeds.
func (l *Local) SaveAll(ctx context.Context, c []models.Report) error {
	data, err := json.Marshal(StripSeeds(c))
	if err != nil {
		return err
	}
	return l.Slot.Put(ctx, data)
}

// InsertOne appends r, numbering it locally when it has no id.
func (l *Local) InsertOne(ctx context.Context, r models.Report) (string, error) {
	all, err := l.LoadAll(ctx)
	if err != nil {
		return "", err
	}
	if r.ID == "" {
		r.ID = NextLocalID(all, l.now().Year())
	}
	for _, existing := range all {
		if existing.ID == r.ID {
			return "", fmt.Errorf("report %s already exists", r.ID)
		}
	}
	if err := l.SaveAll(ctx, append(all, r)); err != nil {
		return "", err
	}
	return r.ID, nil
}

// Stored returns only what is persisted in the slot (no seeds).
func (l *Local) Stored(ctx context.Context) ([]models.Report, error) {
	return l.stored(ctx)
}

func (l *Local) stored(ctx context.Context) ([]models.Report, error) {
	data, ok, err := l.Slot.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}
	var out []models.Report
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse stored reports: %w", err)
	}
	return out, nil
}

func (l *Local) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

var idPattern = regexp.MustCompile(`^AW-(\d{4})-(\d+)$`)

// NextLocalID returns AW-<year>-NNN one above the largest sequence already used for year.
func NextLocalID(c []models.Report, year int) string {
	max := 0
	for _, r := range c {
		m := idPattern.FindStringSubmatch(r.ID)
		if m == nil {
			continue
		}
		if y, _ := strconv.Atoi(m[1]); y != year {
			continue
		}
		if n, _ := strconv.Atoi(m[2]); n > max {
			max = n
		}
	}
	return fmt.Sprintf("AW-%04d-%03d", year, max+1)
}
