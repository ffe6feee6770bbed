// Package tracker orchestrates one change-detection run: extract, detect,
// stage, archive, commit, persist and log.
package tracker

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/moldtrack/internal/adapter/presenter"
	"github.com/YoshitsuguKoike/moldtrack/internal/app"
	"github.com/YoshitsuguKoike/moldtrack/internal/domain/record"
	"github.com/YoshitsuguKoike/moldtrack/internal/domain/service"
	"github.com/YoshitsuguKoike/moldtrack/internal/domain/snapshot"
	"github.com/YoshitsuguKoike/moldtrack/internal/infra/archive"
	"github.com/YoshitsuguKoike/moldtrack/internal/infra/fs"
	"github.com/YoshitsuguKoike/moldtrack/internal/infra/fs/txn"
	"github.com/YoshitsuguKoike/moldtrack/internal/infra/persistence/file"
)

// Options tune a tracker.
type Options struct {
	// LockTTL bounds how long a crashed run's lock blocks others. Zero uses the default.
	LockTTL time.Duration
	// DisableLock skips the advisory run lock.
	DisableLock bool
	// Now is the clock for run IDs, collision tags and change-log headers.
	Now func() time.Time
}

// Result is the outcome of one run.
type Result[S snapshot.Snapshot] struct {
	RunID     string
	Changed   bool
	Reason    service.Reason
	Detection *service.Detection[S]

	// Entries are the change-log lines written by this run (empty when unchanged).
	Entries []string
	// Written are the artifact paths committed under newest/.
	Written []string
}

// Tracker tracks one configuration kind inside one tracker directory.
type Tracker[S snapshot.Snapshot] struct {
	fs        afero.Fs
	paths     app.Paths
	extractor snapshot.Extractor[S]
	detector  *service.ChangeDetector[S]
	store     *file.HistoryStore[S]
	report    presenter.ReportWriter[S]
	rotator   *archive.Rotator
	staging   *txn.Manager
	changeLog *app.ChangeLog
	lock      *fs.RunLock
	opts      Options
}

// New wires a tracker from its parts.
func New[S snapshot.Snapshot](
	afs afero.Fs,
	paths app.Paths,
	extractor snapshot.Extractor[S],
	report presenter.ReportWriter[S],
	opts Options,
) *Tracker[S] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker[S]{
		fs:        afs,
		paths:     paths,
		extractor: extractor,
		detector:  service.NewChangeDetector[S](extractor),
		store:     file.NewHistoryStore[S](afs),
		report:    report,
		rotator:   archive.NewRotator(afs).WithClock(opts.Now),
		staging:   txn.NewManager(afs, paths.Staging),
		changeLog: app.NewChangeLog(afs, paths.ChangeLog).WithClock(opts.Now),
		lock:      fs.NewRunLock(afs, paths.Lock, opts.LockTTL).WithClock(opts.Now),
		opts:      opts,
	}
}

// NewLayoutTracker tracks machineNo -> machineCode layouts.
func NewLayoutTracker(afs afero.Fs, paths app.Paths, opts Options) *Tracker[snapshot.Layout] {
	return New[snapshot.Layout](afs, paths, snapshot.LayoutExtractor{}, presenter.LayoutReport{}, opts)
}

// NewPairingTracker tracks moldNo -> machineCodes pairings.
func NewPairingTracker(afs afero.Fs, paths app.Paths, opts Options) *Tracker[snapshot.Pairing] {
	return New[snapshot.Pairing](afs, paths, snapshot.PairingExtractor{}, presenter.PairingReport{}, opts)
}

// Paths returns the tracker's directory layout.
func (t *Tracker[S]) Paths() app.Paths { return t.paths }

// History loads the persisted history, nil when absent or unusable.
func (t *Tracker[S]) History() *snapshot.History[S] {
	return t.store.Load(t.paths.History)
}

// Run executes one tracking pass at cutoff (inclusive).
//
// When nothing changed it returns without touching newest/, the history or the
// change log. Otherwise new artifacts are staged first, the previous outputs are
// rotated into historical_db, the staged files are moved into newest/, and only
// then are the history and change log written. The history file is the commit
// point: a crash before it is saved makes the next run redo the whole pass.
func (t *Tracker[S]) Run(ctx context.Context, table *record.Table, cutoff time.Time) (*Result[S], error) {
	if err := table.Require(t.extractor.RequiredColumns()...); err != nil {
		return nil, err
	}
	cutoff = record.Truncate(cutoff)

	runID := t.newRunID()
	log := app.GetLogger()

	if !t.opts.DisableLock {
		release, err := t.lock.Acquire(runID)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := release(); err != nil {
				log.Warn("release lock %s: %v", t.lock.Path(), err)
			}
		}()
	}

	if _, err := t.staging.CleanupStale(); err != nil {
		return nil, err
	}

	history := t.store.Load(t.paths.History)
	current := t.extractor.Extract(table, cutoff)
	det := t.detector.Detect(history, current, table, cutoff)

	res := &Result[S]{RunID: runID, Reason: det.Reason, Detection: det}

	switch det.Reason {
	case service.ReasonStale:
		log.Warn("%s: snapshot at %s differs from latest entry %s but is not newer; history left as is",
			t.extractor.Kind(), det.Key, det.PreviousKey)
	case service.ReasonEmpty:
		log.Warn("%s: no records at or before %s", t.extractor.Kind(), det.Key)
	}
	if !det.Changed {
		log.Info("%s: no change at %s (%s)", t.extractor.Kind(), det.Key, det.Reason)
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	written, rot, err := t.publish(runID, det)
	if err != nil {
		return nil, err
	}

	if err := t.store.Save(t.paths.History, det.History); err != nil {
		return nil, &WriteError{Path: t.paths.History, Err: err}
	}

	entries := append([]string{}, rot.Entries...)
	for _, w := range written {
		entries = append(entries, fmt.Sprintf("Saved new file: %s", path.Join("newest", w)))
	}
	entries = append(entries, fmt.Sprintf("Updated %s with %s (%s)", filepath.Base(t.paths.History), det.Key, det.Reason))

	if err := t.changeLog.Append(entries); err != nil {
		// History is already saved, so no later run will retry this block.
		log.Error("%s: change log not written for version %s: %v", t.extractor.Kind(), det.Key, err)
		for _, e := range entries {
			log.Error("%s: unlogged entry: %s", t.extractor.Kind(), e)
		}
		return nil, &WriteError{Path: t.paths.ChangeLog, Err: err}
	}

	res.Changed = true
	res.Entries = entries
	res.Written = written
	log.Info("%s: saved version %s (%d files, run %s)", t.extractor.Kind(), det.Key, len(written), runID)
	return res, nil
}

// publish stages the new artifacts, archives the old ones and commits.
// Every failure leaves newest/ holding either the old files or, if the
// restore itself fails, nothing that mixes old and new.
func (t *Tracker[S]) publish(runID string, det *service.Detection[S]) ([]string, *archive.Rotation, error) {
	artifacts, err := t.report.Render(det)
	if err != nil {
		return nil, nil, &WriteError{Path: t.paths.Newest, Err: err}
	}

	tx, err := t.staging.Begin(runID)
	if err != nil {
		return nil, nil, &WriteError{Path: t.paths.Staging, Err: err}
	}
	for _, a := range artifacts {
		if err := tx.StageFile(a.Path, a.Data); err != nil {
			t.abort(tx)
			return nil, nil, &WriteError{Path: a.Path, Err: err}
		}
	}

	ledger, err := archive.Scan(t.fs, t.paths.Newest)
	if err != nil {
		t.abort(tx)
		return nil, nil, fmt.Errorf("%w: %w", ErrArchival, err)
	}

	rot, err := t.rotator.Rotate(ledger, t.paths.Historical)
	if err != nil {
		t.abort(tx)
		t.restore(rot.Moves)
		return nil, nil, fmt.Errorf("%w: %w", ErrArchival, err)
	}

	written, err := tx.Commit(t.paths.Newest)
	if err != nil {
		for _, w := range written {
			if rmErr := t.fs.Remove(filepath.Join(t.paths.Newest, filepath.FromSlash(w))); rmErr != nil {
				app.GetLogger().Error("remove partially committed %s: %v", w, rmErr)
			}
		}
		t.abort(tx)
		t.restore(rot.Moves)
		var txErr *txn.TxnError
		if errors.As(err, &txErr) {
			return nil, nil, &WriteError{Path: filepath.Join(t.paths.Newest, txErr.Path), Err: err}
		}
		return nil, nil, &WriteError{Path: t.paths.Newest, Err: err}
	}
	return written, rot, nil
}

func (t *Tracker[S]) abort(tx *txn.Transaction) {
	if err := tx.Abort(); err != nil {
		app.GetLogger().Warn("discard staging %s: %v", tx.RunID, err)
	}
}

func (t *Tracker[S]) restore(moves []archive.Move) {
	if len(moves) == 0 {
		return
	}
	if err := t.rotator.Undo(moves); err != nil {
		app.GetLogger().Error("%v", err)
		return
	}
	app.GetLogger().Warn("restored %d archived files to %s", len(moves), t.paths.Newest)
}

func (t *Tracker[S]) newRunID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t.opts.Now()), entropy).String()
}
