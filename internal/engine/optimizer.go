// Package engine decides which existing offcuts should be reused for the
// pieces of a new order, forecasts the remnants the order will leave behind
// and summarises the outcome.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/piwi3910/OffcutReuse/internal/features"
	"github.com/piwi3910/OffcutReuse/internal/metrics"
	"github.com/piwi3910/OffcutReuse/internal/model"
	"github.com/piwi3910/OffcutReuse/internal/scoring"
)

var (
	// ErrNilScorer is returned by New when no scorer is supplied.
	ErrNilScorer = errors.New("engine: nil scorer")
	// ErrDuplicatePiece marks an order that reuses a piece id.
	ErrDuplicatePiece = errors.New("duplicate piece id")
	// ErrUnprocessableOrder marks an order none of whose pieces could be normalised.
	ErrUnprocessableOrder = errors.New("no piece of the order could be normalised")
)

// Optimizer runs the offcut reuse engine for one order at a time.
// It keeps no state between runs and may be shared by goroutines.
type Optimizer struct {
	Config model.EngineConfig

	scorer     scoring.Scorer
	normalizer *features.Normalizer
	logger     *zap.Logger
	metrics    *metrics.Recorder
	now        func() time.Time
}

// Option customises an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the telemetry recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *Optimizer) { o.metrics = r }
}

// WithClock overrides the time source used to stamp predicted offcuts.
func WithClock(now func() time.Time) Option {
	return func(o *Optimizer) {
		if now != nil {
			o.now = now
		}
	}
}

// New validates the configuration and returns an Optimizer using scorer for
// every (offcut, piece) evaluation.
func New(cfg model.EngineConfig, scorer scoring.Scorer, opts ...Option) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if scorer == nil {
		return nil, ErrNilScorer
	}
	o := &Optimizer{
		Config:     cfg,
		scorer:     scorer,
		normalizer: features.NewNormalizer(cfg),
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run matches the order's pieces against the inventory snapshot. It always
// returns a well-formed Result; run-level faults produce a failed Result with
// zeroed metrics and no assignments. The snapshot is never modified.
func (o *Optimizer) Run(ctx context.Context, order model.Order, inv model.Inventory) model.Result {
	start := time.Now()
	runID := uuid.New().String()
	log := o.logger.With(zap.String("run_id", runID), zap.String("order_id", order.ID))

	res, err := o.run(ctx, log, order, inv)
	if err != nil {
		log.Error("offcut reuse run failed", zap.Error(err))
		res = model.FailedResult(runID, err)
	}
	res.RunID = runID
	res.Duration = time.Since(start)

	o.metrics.ObserveRun(res, res.Duration)
	if res.OK() {
		log.Info("offcut reuse run finished",
			zap.Int("pieces", res.Metrics.TotalPieces),
			zap.Int("assigned", res.Metrics.PiecesAssigned),
			zap.Int("predicted_offcuts", len(res.PredictedOffcuts)),
			zap.String("strategy", string(res.Strategy)),
			zap.Duration("elapsed", res.Duration),
		)
	}
	return res
}

func (o *Optimizer) run(ctx context.Context, log *zap.Logger, order model.Order, inv model.Inventory) (model.Result, error) {
	if err := checkPieceIDs(order.Pieces); err != nil {
		return model.Result{}, err
	}

	res := model.Result{
		Status:           model.StatusOK,
		Assignments:      []model.Assignment{},
		Unassigned:       []string{},
		Exclusions:       []model.Exclusion{},
		PredictedOffcuts: []model.PredictedOffcut{},
		UsageUpdates:     []model.UsageUpdate{},
	}

	pieces := o.preparePieces(log, order.Pieces, &res)
	if len(order.Pieces) > 0 && len(pieces) == 0 {
		return model.Result{}, ErrUnprocessableOrder
	}
	offcuts := o.prepareOffcuts(log, inv.Offcuts, &res)

	out, err := o.assign(ctx, log, pieces, offcuts)
	if err != nil {
		return model.Result{}, fmt.Errorf("assignment aborted: %w", err)
	}
	res.Assignments = append(res.Assignments, out.assignments...)
	res.Unassigned = append(res.Unassigned, out.unassigned...)
	res.Evaluations = out.evaluations

	pieceByID := make(map[string]model.Piece, len(pieces))
	for _, p := range pieces {
		pieceByID[p.piece.ID] = p.piece
	}
	offcutByID := make(map[string]model.Offcut, len(offcuts))
	for _, c := range offcuts {
		offcutByID[c.offcut.ID] = c.offcut
	}

	res.PredictedOffcuts = append(res.PredictedOffcuts, o.predictOffcutRemainders(res.Assignments, pieceByID, offcutByID)...)
	res.UsageUpdates = usageUpdates(res.Assignments, offcutByID)
	res.Metrics = Evaluate(order.Pieces, res.Assignments, res.PredictedOffcuts)
	res.Strategy = Classify(res.Metrics)
	res.Layout = buildLayout(res.Assignments, pieceByID)
	return res, nil
}

// checkPieceIDs rejects orders that reuse a piece id; assignments could not
// be attributed otherwise.
func checkPieceIDs(pieces []model.Piece) error {
	seen := make(map[string]bool, len(pieces))
	for _, p := range pieces {
		if p.ID == "" {
			continue
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicatePiece, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

func (o *Optimizer) preparePieces(log *zap.Logger, in []model.Piece, res *model.Result) []pieceEntry {
	out := make([]pieceEntry, 0, len(in))
	for i, p := range in {
		vec, err := o.normalizer.Piece(p)
		if err != nil {
			log.Warn("piece excluded", zap.Int("index", i), zap.Error(err))
			res.Exclusions = append(res.Exclusions, model.Exclusion{
				ID:     p.ID,
				Kind:   model.EntityPiece,
				Reason: fmt.Sprintf("piece #%d: %v", i, err),
			})
			continue
		}
		out = append(out, pieceEntry{piece: p, vec: vec})
	}
	return out
}

func (o *Optimizer) prepareOffcuts(log *zap.Logger, in []model.Offcut, res *model.Result) []offcutEntry {
	out := make([]offcutEntry, 0, len(in))
	seen := make(map[string]bool, len(in))
	for i, oc := range in {
		vec, err := o.normalizer.Offcut(oc)
		if err == nil && seen[oc.ID] {
			err = fmt.Errorf("offcut %q listed twice", oc.ID)
		}
		if err != nil {
			log.Warn("offcut excluded", zap.Int("index", i), zap.Error(err))
			res.Exclusions = append(res.Exclusions, model.Exclusion{
				ID:     oc.ID,
				Kind:   model.EntityOffcut,
				Reason: fmt.Sprintf("offcut #%d: %v", i, err),
			})
			continue
		}
		seen[oc.ID] = true
		out = append(out, offcutEntry{offcut: oc, vec: vec})
	}
	return out
}

// usageUpdates reports the incremented usage count of every consumed offcut,
// in order of first use.
func usageUpdates(assignments []model.Assignment, offcuts map[string]model.Offcut) []model.UsageUpdate {
	updates := []model.UsageUpdate{}
	seen := make(map[string]bool)
	for _, a := range assignments {
		if seen[a.OffcutID] {
			continue
		}
		seen[a.OffcutID] = true
		updates = append(updates, model.UsageUpdate{
			OffcutID:   a.OffcutID,
			UsageCount: offcuts[a.OffcutID].UsageCount + 1,
		})
	}
	return updates
}

func buildLayout(assignments []model.Assignment, pieces map[string]model.Piece) model.Layout {
	layout := model.Layout{OffcutsUsed: []string{}, PiecesPlaced: []string{}}
	used := make(map[string]bool)
	for _, a := range assignments {
		layout.TotalAreaUtilized += pieceArea(pieces[a.PieceID]) * a.AreaUtilization
		layout.PiecesPlaced = append(layout.PiecesPlaced, a.PieceID)
		if !used[a.OffcutID] {
			used[a.OffcutID] = true
			layout.OffcutsUsed = append(layout.OffcutsUsed, a.OffcutID)
		}
	}
	sort.Strings(layout.OffcutsUsed)
	sort.Strings(layout.PiecesPlaced)
	return layout
}
