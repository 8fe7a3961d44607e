// Package forecast holds the interactive forecast board: the loaded records, the user's
// selections and the snapshot computed from them.
package forecast

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/forecast/internal/domain"
	"github.com/vadiminshakov/forecast/internal/events"
	"github.com/vadiminshakov/forecast/internal/filter"
	"github.com/vadiminshakov/forecast/internal/ingest"
)

// ErrDealNotFound is returned when a toggle names a deal that is not loaded.
var ErrDealNotFound = errors.New("deal not found")

// Publisher receives a notification for every new board version.
type Publisher interface {
	Publish(u events.BoardUpdate)
}

// Board owns the records and the user's selections. Every mutation bumps the version;
// snapshots are computed lazily and cached per version.
type Board struct {
	source    ingest.Source
	settings  Settings
	publisher Publisher
	l         *zap.Logger
	now       func() time.Time

	mu        sync.RWMutex
	version   uint64
	loadID    string
	filters   domain.FilterState
	sort      Sort
	loadSeq   uint64
	loaded    bool
	loadErr   string
	pending   int
	closedWon []domain.ClosedWonRecord
	deals     []domain.DealRecord

	// the pipeline half loads and fails independently of the forecast half
	comparison     domain.Comparison
	changesSeq     uint64
	changesLoaded  bool
	changesErr     string
	changesPending int
	changes        []domain.ChangeRecord

	cacheMu sync.Mutex
	cache   *Snapshot
}

// NewBoard creates an empty board comparing against the start of the quarter.
// publisher and logger may be nil.
func NewBoard(source ingest.Source, settings Settings, publisher Publisher, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{
		source:     source,
		settings:   settings,
		publisher:  publisher,
		l:          logger.With(zap.String("component", "board")),
		now:        time.Now,
		comparison: domain.ComparisonStartOfQuarter,
		filters:    domain.DefaultFilterState(),
		sort:       DefaultSort(),
	}
}

// Load replaces every record set. The closed-won and pipeline exports are read
// concurrently and the first failure aborts the forecast half. The change set of the
// current comparison is read beside them and fails on its own, so a bad change export
// never hides the bridges. A load superseded by a newer one is discarded.
// Toggles are reset because the deals are rebuilt from the export.
func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	b.loadSeq++
	b.changesSeq++
	seq, changesSeq := b.loadSeq, b.changesSeq
	comparison := b.comparison
	b.pending++
	b.changesPending++
	b.bumpLocked()
	b.mu.Unlock()
	b.publish(events.ReasonLoading)

	var (
		changes    []domain.ChangeRecord
		changesErr error
	)
	changesDone := make(chan struct{})
	go func() {
		defer close(changesDone)
		changes, changesErr = b.source.Changes(ctx, comparison)
	}()

	var (
		closedWon []domain.ClosedWonRecord
		deals     []domain.DealRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		closedWon, err = b.source.ClosedWon(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		deals, err = b.source.Pipeline(gctx)
		return err
	})
	err := g.Wait()
	<-changesDone

	b.mu.Lock()
	b.pending--
	b.changesPending--
	current := seq == b.loadSeq
	changesCurrent := changesSeq == b.changesSeq
	if current {
		if err != nil {
			b.closedWon, b.deals = nil, nil
			b.loaded = false
			b.loadErr = err.Error()
		} else {
			b.loadID = uuid.NewString()
			b.closedWon, b.deals = closedWon, deals
			b.loaded = true
			b.loadErr = ""
		}
	}
	if changesCurrent {
		b.setChangesLocked(changes, changesErr)
	}
	b.bumpLocked()
	loadID := b.loadID
	b.mu.Unlock()

	if changesCurrent && changesErr != nil {
		b.l.Error("changes load failed", zap.String("comparison", comparison.String()), zap.Error(changesErr))
	}
	if !current {
		b.l.Debug("superseded load discarded", zap.Uint64("seq", seq))
		b.publish(events.ReasonLoaded)
		return nil
	}
	if err != nil {
		b.l.Error("load failed", zap.Error(err))
		b.publish(events.ReasonFailed)
		return errors.Wrap(err, "load board")
	}

	b.l.Info("board loaded",
		zap.String("load_id", loadID),
		zap.String("comparison", comparison.String()),
		zap.Int("closed_won", len(closedWon)),
		zap.Int("deals", len(deals)),
		zap.Int("changes", len(changes)),
	)
	b.publish(events.ReasonLoaded)
	return nil
}

// SetComparison switches the snapshot the changes are measured against and replaces the
// change set wholesale. Deals and their toggles are kept. A failed read only fails the
// pipeline half.
func (b *Board) SetComparison(ctx context.Context, comparison domain.Comparison) error {
	if !comparison.IsValid() {
		return errors.Wrapf(domain.ErrUnknownComparison, "%q", comparison)
	}

	b.mu.Lock()
	b.changesSeq++
	seq := b.changesSeq
	b.comparison = comparison
	b.changes = nil
	b.changesPending++
	b.bumpLocked()
	b.mu.Unlock()
	b.publish(events.ReasonComparison)

	changes, err := b.source.Changes(ctx, comparison)

	b.mu.Lock()
	b.changesPending--
	if seq != b.changesSeq {
		b.bumpLocked()
		b.mu.Unlock()
		return nil
	}
	b.setChangesLocked(changes, err)
	b.bumpLocked()
	b.mu.Unlock()

	if err != nil {
		b.l.Error("changes load failed", zap.String("comparison", comparison.String()), zap.Error(err))
		b.publish(events.ReasonFailed)
		return errors.Wrapf(err, "load %s changes", comparison)
	}
	b.l.Info("comparison changed", zap.String("comparison", comparison.String()), zap.Int("changes", len(changes)))
	b.publish(events.ReasonComparison)
	return nil
}

func (b *Board) setChangesLocked(changes []domain.ChangeRecord, err error) {
	if err != nil {
		b.changes = nil
		b.changesLoaded = false
		b.changesErr = err.Error()
		return
	}
	b.changes = changes
	b.changesLoaded = true
	b.changesErr = ""
}

// Toggle flips one deal's bucket. Selecting a bucket clears the other one.
func (b *Board) Toggle(id int, bucket domain.Bucket) (domain.DealRecord, error) {
	b.mu.Lock()
	idx := slices.IndexFunc(b.deals, func(d domain.DealRecord) bool { return d.ID == id })
	if idx < 0 {
		b.mu.Unlock()
		return domain.DealRecord{}, errors.Wrapf(ErrDealNotFound, "id %d", id)
	}

	toggled, err := b.deals[idx].Toggle(bucket)
	if err != nil {
		b.mu.Unlock()
		return domain.DealRecord{}, err
	}

	// snapshots may still reference the old slice
	deals := slices.Clone(b.deals)
	deals[idx] = toggled
	b.deals = deals
	b.bumpLocked()
	b.mu.Unlock()

	b.publish(events.ReasonToggle)
	return toggled, nil
}

// SetFilter applies one filter pick and returns the resulting state.
func (b *Board) SetFilter(dimension filter.Dimension, value string) (domain.FilterState, error) {
	b.mu.Lock()
	next, err := filter.Apply(b.filters, dimension, value, filter.PresentChangeTypes(b.changes))
	if err != nil {
		current := b.filters
		b.mu.Unlock()
		return current, err
	}
	if next.Equal(b.filters) {
		b.mu.Unlock()
		return next, nil
	}
	b.filters = next
	b.bumpLocked()
	b.mu.Unlock()

	b.publish(events.ReasonFilter)
	return next, nil
}

// SetSort changes the deal table ordering.
func (b *Board) SetSort(s Sort) {
	b.mu.Lock()
	if b.sort == s {
		b.mu.Unlock()
		return
	}
	b.sort = s
	b.bumpLocked()
	b.mu.Unlock()

	b.publish(events.ReasonSort)
}

// Filters returns the current filter state.
func (b *Board) Filters() domain.FilterState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filters
}

// Version returns the current board version.
func (b *Board) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Snapshot returns the snapshot of the current version, computing it at most once per version.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.cacheMu.Lock()
	defer b.cacheMu.Unlock()
	if b.cache != nil && b.cache.Version == b.version {
		return *b.cache
	}

	s := Compute(b.inputsLocked(), b.settings)
	b.inspect(s)
	b.cache = &s
	return s
}

func (b *Board) inputsLocked() Inputs {
	return Inputs{
		Version:        b.version,
		LoadID:         b.loadID,
		Status:         status(b.pending, b.loadErr, b.loaded),
		Error:          b.loadErr,
		PipelineStatus: status(b.changesPending, b.changesErr, b.changesLoaded),
		PipelineError:  b.changesErr,
		Comparison:     b.comparison,
		Filters:        b.filters,
		Sort:           b.sort,
		ClosedWon:      b.closedWon,
		Deals:          b.deals,
		Changes:        b.changes,
	}
}

func status(pending int, loadErr string, loaded bool) Status {
	switch {
	case pending > 0:
		return StatusLoading
	case loadErr != "":
		return StatusFailed
	case !loaded:
		return StatusLoading
	default:
		return StatusReady
	}
}

// inspect reports data-quality signals of a freshly computed snapshot.
func (b *Board) inspect(s Snapshot) {
	w := s.Pipeline.Waterfall
	if !w.Consistent() {
		b.l.Warn("waterfall does not reach the ending anchor",
			zap.Uint64("version", s.Version),
			zap.String("comparison", s.Pipeline.Comparison.String()),
			zap.String("start", w.Start.String()),
			zap.String("end", w.End.String()),
			zap.String("chained", w.Chained.String()),
			zap.String("mismatch", w.Mismatch.String()),
		)
	}
	if s.Pipeline.Sankey.IsEmpty() && len(s.Pipeline.Changes) > 0 {
		b.l.Debug("sankey has no flow", zap.Int("changes", len(s.Pipeline.Changes)))
	}
}

func (b *Board) bumpLocked() {
	b.version++
}

func (b *Board) publish(reason events.Reason) {
	if b.publisher == nil {
		return
	}
	b.mu.RLock()
	u := events.BoardUpdate{Version: b.version, LoadID: b.loadID, Reason: reason, At: b.now()}
	b.mu.RUnlock()
	b.publisher.Publish(u)
}
