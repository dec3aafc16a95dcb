// Package desk is the case desk: it owns the report collection, validates each command against the
// current session, applies the pure lifecycle operation, and persists the complete updated collection.
// Every user-visible outcome is also emitted as a notice.
package desk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aegiswhistle/aegis/internal/identity"
	"github.com/aegiswhistle/aegis/internal/intake"
	"github.com/aegiswhistle/aegis/internal/lifecycle"
	"github.com/aegiswhistle/aegis/internal/notify"
	"github.com/aegiswhistle/aegis/internal/otel"
	"github.com/aegiswhistle/aegis/internal/query"
	"github.com/aegiswhistle/aegis/internal/store"
	"github.com/aegiswhistle/aegis/pkg/models"
)

var (
	// ErrNotFound is returned when a command names a report that is not in the collection.
	ErrNotFound = errors.New("report not found")
	// ErrUnavailable is returned when neither backend could persist a change.
	ErrUnavailable = errors.New("report store unavailable")
)

// Desk serializes load-modify-save within one process. Writers in other processes are not
// coordinated: the last SaveAll wins.
type Desk struct {
	Primary   store.Store
	Fallback  store.Store // optional local backend used when Primary is remote and fails
	Directory *identity.Directory
	Notifier  notify.Notifier
	Now       func() time.Time

	mu sync.Mutex
}

// New returns a desk over primary. fallback may be nil.
func New(primary, fallback store.Store, dir *identity.Directory, n notify.Notifier) *Desk {
	return &Desk{Primary: primary, Fallback: fallback, Directory: dir, Notifier: n}
}

func (d *Desk) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Desk) ops() lifecycle.Ops {
	return lifecycle.Ops{Now: d.now}
}

func (d *Desk) notify(ctx context.Context, n models.Notice) {
	if d.Notifier == nil {
		return
	}
	d.Notifier.Notify(ctx, n)
}

// Reports returns the current collection. A failed read is reported as a notice and yields the
// fallback's collection (remote primary) or whatever the backend could recover, never an error.
func (d *Desk) Reports(ctx context.Context) []models.Report {
	c, err := d.Primary.LoadAll(ctx)
	if err == nil {
		return c
	}
	slog.Warn("load reports failed", "backend", d.Primary.Kind(), "err", err)
	otel.RecordStoreError(ctx, d.Primary.Kind(), "load")
	d.notify(ctx, notify.Error("Could not load reports: "+err.Error(), ""))
	if d.Fallback != nil {
		if fc, ferr := d.Fallback.LoadAll(ctx); ferr == nil {
			return fc
		}
	}
	if c == nil {
		return []models.Report{}
	}
	return c
}

// Report returns one report by id.
func (d *Desk) Report(ctx context.Context, id string) (models.Report, error) {
	r, ok := lifecycle.Find(d.Reports(ctx), id)
	if !ok {
		return models.Report{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, nil
}

// Filter, Counts, Recent and AssignedTo are the dashboard views over the current collection.
func (d *Desk) Filter(ctx context.Context, search, status string) []models.Report {
	return query.Filter(d.Reports(ctx), search, status)
}

func (d *Desk) Counts(ctx context.Context) models.StatusCounts {
	return query.CountByStatus(d.Reports(ctx))
}

func (d *Desk) Recent(ctx context.Context, n int) []models.Report {
	return query.Recent(d.Reports(ctx), n)
}

// AssignedTo returns the reports assigned to the user with userID, matched by display name.
func (d *Desk) AssignedTo(ctx context.Context, userID string) ([]models.Report, error) {
	u := d.Directory.Lookup(userID)
	if u == nil {
		return nil, fmt.Errorf("unknown user %q", userID)
	}
	return query.AssignedTo(d.Reports(ctx), u.Name), nil
}

// Assign assigns the report to the investigator named by investigatorRef (user id or display name).
func (d *Desk) Assign(ctx context.Context, s identity.Session, reportID, investigatorRef string) (models.Report, error) {
	if err := d.precheck(ctx, s, reportID); err != nil {
		return models.Report{}, err
	}
	var inv *models.User
	if strings.TrimSpace(investigatorRef) != "" {
		inv = d.Directory.Resolve(investigatorRef)
		if inv == nil {
			err := fmt.Errorf("%w: unknown user %q", lifecycle.ErrNoInvestigator, investigatorRef)
			d.notify(ctx, notify.Error(err.Error(), reportID))
			return models.Report{}, err
		}
	}
	if err := lifecycle.ValidateInvestigator(inv); err != nil {
		d.notify(ctx, notify.Error(err.Error(), reportID))
		return models.Report{}, err
	}
	ops := d.ops()
	return d.apply(ctx, reportID, "assign", "Report assigned to "+inv.Name, func(c []models.Report) []models.Report {
		return ops.Assign(c, reportID, inv.Name)
	})
}

// ChangeStatus moves the report to status. Every status is reachable from every other.
func (d *Desk) ChangeStatus(ctx context.Context, s identity.Session, reportID, status string) (models.Report, error) {
	if err := d.precheck(ctx, s, reportID); err != nil {
		return models.Report{}, err
	}
	st, err := lifecycle.ValidateStatus(status)
	if err != nil {
		d.notify(ctx, notify.Error(err.Error(), reportID))
		return models.Report{}, err
	}
	ops := d.ops()
	msg := "Case status updated to " + strings.ToUpper(st.Label())
	return d.apply(ctx, reportID, "change_status", msg, func(c []models.Report) []models.Report {
		return ops.ChangeStatus(c, reportID, st)
	})
}

// AddNote appends a note authored by the session's actor.
func (d *Desk) AddNote(ctx context.Context, s identity.Session, reportID, note string) (models.Report, error) {
	if err := lifecycle.RequireActor(s.Actor); err != nil {
		d.notify(ctx, notify.Error("You must be logged in to add notes", reportID))
		return models.Report{}, err
	}
	if err := lifecycle.ValidateNote(note); err != nil {
		d.notify(ctx, notify.Error("Please enter a note before submitting", reportID))
		return models.Report{}, err
	}
	if err := d.precheck(ctx, s, reportID); err != nil {
		return models.Report{}, err
	}
	ops := d.ops()
	actor := s.Actor.Name
	text := strings.TrimSpace(note)
	return d.apply(ctx, reportID, "add_note", "Note added to case", func(c []models.Report) []models.Report {
		return ops.AddNote(c, reportID, actor, text)
	})
}

// precheck requires an actor and an existing report before any operation is attempted.
func (d *Desk) precheck(ctx context.Context, s identity.Session, reportID string) error {
	if err := lifecycle.RequireActor(s.Actor); err != nil {
		d.notify(ctx, notify.Error("You must be logged in to update cases", reportID))
		return err
	}
	if _, ok := lifecycle.Find(d.Reports(ctx), reportID); !ok {
		err := fmt.Errorf("%w: %s", ErrNotFound, reportID)
		d.notify(ctx, notify.Error("Report not found", reportID))
		return err
	}
	return nil
}

// apply loads the collection, applies op, and saves the complete result.
func (d *Desk) apply(ctx context.Context, reportID, opName, success string, op func([]models.Report) []models.Report) (models.Report, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, err := d.Primary.LoadAll(ctx)
	if err != nil && d.Fallback != nil {
		c, err = d.Fallback.LoadAll(ctx)
	}
	if err != nil {
		otel.RecordStoreError(ctx, d.Primary.Kind(), "load")
		d.notify(ctx, notify.Error("Could not load reports: "+err.Error(), reportID))
		return models.Report{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if lifecycle.Index(c, reportID) < 0 {
		d.notify(ctx, notify.Error("Report not found", reportID))
		return models.Report{}, fmt.Errorf("%w: %s", ErrNotFound, reportID)
	}
	next := op(c)
	updated, _ := lifecycle.Find(next, reportID)

	if err := d.Primary.SaveAll(ctx, next); err != nil {
		otel.RecordStoreError(ctx, d.Primary.Kind(), "save")
		slog.Warn("save reports failed", "backend", d.Primary.Kind(), "report_id", reportID, "err", err)
		if ferr := d.saveFallback(ctx, updated); ferr != nil {
			d.notify(ctx, notify.Error("Could not save changes: "+err.Error(), reportID))
			return models.Report{}, fmt.Errorf("%w: %v", ErrUnavailable, errors.Join(err, ferr))
		}
		d.notify(ctx, notify.Warn("Remote store unavailable; change saved locally", reportID))
	}
	otel.RecordLifecycleOp(ctx, opName, string(updated.Status))
	d.notify(ctx, notify.Success(success, reportID))
	return updated, nil
}

// saveFallback writes r into the fallback's stored collection, replacing any earlier copy.
func (d *Desk) saveFallback(ctx context.Context, r models.Report) error {
	if d.Fallback == nil {
		return errors.New("no fallback store")
	}
	c, err := d.Fallback.LoadAll(ctx)
	if err != nil {
		return err
	}
	if i := lifecycle.Index(c, r.ID); i >= 0 {
		c[i] = r
	} else {
		c = append(c, r)
	}
	return d.Fallback.SaveAll(ctx, c)
}

// Submit turns an intake payload into a new report. When the primary insert fails and a fallback is
// configured, the report is numbered locally and stored in the fallback, so submission still succeeds.
func (d *Desk) Submit(ctx context.Context, p intake.Payload) (models.Report, error) {
	if err := p.Validate(); err != nil {
		d.notify(ctx, notify.Error(err.Error(), ""))
		return models.Report{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	r := intake.ToReport(p, "", d.now())
	id, err := d.Primary.InsertOne(ctx, r)
	if err == nil {
		r.ID = id
		otel.RecordIntake(ctx, string(p.Type), false)
		d.notify(ctx, notify.Success("Report submitted successfully!", id))
		return r, nil
	}
	otel.RecordStoreError(ctx, d.Primary.Kind(), "insert")
	slog.Warn("insert report failed", "backend", d.Primary.Kind(), "err", err)
	if d.Fallback == nil {
		d.notify(ctx, notify.Error("Could not submit report: "+err.Error(), ""))
		return models.Report{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	id, ferr := d.Fallback.InsertOne(ctx, r)
	if ferr != nil {
		d.notify(ctx, notify.Error("Could not submit report: "+ferr.Error(), ""))
		return models.Report{}, fmt.Errorf("%w: %v", ErrUnavailable, errors.Join(err, ferr))
	}
	r.ID = id
	otel.RecordIntake(ctx, string(p.Type), true)
	d.notify(ctx, notify.Success("Report submitted successfully!", id))
	return r, nil
}

// storedLister is implemented by local backends; it returns only what the slot holds (no seeds).
type storedLister interface {
	Stored(ctx context.Context) ([]models.Report, error)
}

// SyncResult summarizes one Sync pass.
type SyncResult struct {
	Inserted map[string]string `json:"inserted"` // local id -> remote id
	Updated  []string          `json:"updated"`
	Failed   []string          `json:"failed"`
}

// Sync pushes reports that only reached the fallback to the remote primary and removes them from
// the fallback. New reports get a remote identity; changed copies of remote reports overwrite them.
// Seed overrides stay local.
func (d *Desk) Sync(ctx context.Context) (SyncResult, error) {
	res := SyncResult{Inserted: map[string]string{}}
	if d.Fallback == nil || !d.Primary.Remote() {
		return res, nil
	}
	lister, ok := d.Fallback.(storedLister)
	if !ok {
		return res, fmt.Errorf("fallback %s cannot list stored reports", d.Fallback.Kind())
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	pending, err := lister.Stored(ctx)
	if err != nil {
		return res, err
	}
	if len(pending) == 0 {
		return res, nil
	}
	remote, err := d.Primary.LoadAll(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var keep, updates []models.Report
	for _, r := range pending {
		switch {
		case store.IsSeedID(r.ID):
			keep = append(keep, r)
		case lifecycle.Index(remote, r.ID) >= 0:
			updates = append(updates, r)
		default:
			localID := r.ID
			r.ID = ""
			id, err := d.Primary.InsertOne(ctx, r)
			if err != nil {
				slog.Warn("sync insert failed", "report_id", localID, "err", err)
				r.ID = localID
				keep = append(keep, r)
				res.Failed = append(res.Failed, localID)
				continue
			}
			res.Inserted[localID] = id
			d.notify(ctx, notify.Info(fmt.Sprintf("Report %s synced as %s", localID, id), id))
		}
	}
	if len(updates) > 0 {
		if err := d.Primary.SaveAll(ctx, updates); err != nil {
			keep = append(keep, updates...)
			for _, r := range updates {
				res.Failed = append(res.Failed, r.ID)
			}
		} else {
			for _, r := range updates {
				res.Updated = append(res.Updated, r.ID)
			}
		}
	}
	if err := d.Fallback.SaveAll(ctx, keep); err != nil {
		return res, err
	}
	return res, nil
}
