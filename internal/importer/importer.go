// Package importer loads source records into the catalog.
//
// Records are processed one at a time, in file order, on a single
// transaction. Each record goes through duplicate-check, insert-show and the
// link phases; a failure in any phase is per-record and never stops the run.
//
// With the default "batch" isolation a failure rolls back the whole open
// transaction, so the uncommitted successes of that batch are discarded and
// will be imported by a rerun. With "record" isolation each record runs in a
// savepoint and only the failing record is lost.
package importer

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/tvimport/internal/catalog"
	"github.com/JonMunkholm/tvimport/internal/config"
	"github.com/JonMunkholm/tvimport/internal/failure"
	"github.com/JonMunkholm/tvimport/internal/logging"
	"github.com/JonMunkholm/tvimport/internal/source"
)

// DefaultBatchSize is used when the configured batch size is not positive.
const DefaultBatchSize = 100

// Importer runs imports against a catalog session.
type Importer struct {
	session  catalog.Session
	cfg      config.ImportConfig
	resolver *catalog.Resolver
	logger   *slog.Logger
}

// New creates an Importer. A nil logger uses slog.Default().
func New(session catalog.Session, cfg config.ImportConfig, logger *slog.Logger) *Importer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Isolation == "" {
		cfg.Isolation = config.IsolationBatch
	}
	if logger == nil {
		logger = slog.Default()
	}

	policy := catalog.ProfileKeepFirst
	if cfg.OverwriteProfiles {
		policy = catalog.ProfileOverwrite
	}

	return &Importer{
		session:  session,
		cfg:      cfg,
		resolver: catalog.NewResolver(policy),
		logger:   logger,
	}
}

// run is the mutable state of one Run call.
type run struct {
	*Importer
	log *slog.Logger
	res *Result
	tx  catalog.Tx

	// successes counts every imported record of the run, including ones
	// later discarded; a batch is committed at each multiple of BatchSize.
	successes int
	// pending counts imported records in the open transaction.
	pending int
	// pendingSkips counts repeats of shows first inserted in the open
	// transaction; they share its fate.
	pendingSkips int
	openIDs      map[int64]struct{}
}

// Run imports records in order and returns the run summary.
//
// Per-record failures are reported in the Result, not as an error. The only
// error is ctx's, in which case the open batch is rolled back and the
// partial Result is returned alongside it.
func (im *Importer) Run(ctx context.Context, records []source.Record) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = logging.ContextWithRunID(ctx, runID)

	r := &run{
		Importer: im,
		log:      logging.Enrich(ctx, im.logger),
		res:      &Result{RunID: runID, Total: len(records)},
	}

	r.log.Info("import started",
		"records", len(records),
		"batch_size", im.cfg.BatchSize,
		"isolation", im.cfg.Isolation,
	)

	var last source.Record
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			r.rollbackBatch(context.WithoutCancel(ctx))
			r.res.Duration = time.Since(start)
			r.log.Warn("import cancelled",
				"processed", r.res.Processed(),
				"total", r.res.Total,
				"error", err,
			)
			return r.res, err
		}
		r.process(ctx, rec)
		last = rec
	}
	r.flush(ctx, last)

	counts, err := im.session.Counts(ctx)
	if err != nil {
		r.log.Warn("could not read table counts", "error", err)
	} else {
		r.res.Counts = counts
	}

	r.res.Duration = time.Since(start)
	r.log.Info("import finished",
		"total", r.res.Total,
		"imported", r.res.Imported,
		"skipped", r.res.Skipped,
		"failed", r.res.Failed,
		"discarded", r.res.Discarded,
		"commits", r.res.Commits,
		"duration_ms", r.res.Duration.Milliseconds(),
	)
	return r.res, nil
}

func (r *run) process(ctx context.Context, rec source.Record) {
	if r.tx == nil {
		tx, err := r.session.Begin(ctx)
		if err != nil {
			r.fail(rec, PhaseBegin, err)
			return
		}
		r.tx = tx
	}

	if r.cfg.Isolation == config.IsolationRecord {
		r.processIsolated(ctx, rec)
		return
	}

	id, skipped, phase, err := r.importRecord(ctx, r.tx, rec)
	if err != nil {
		r.fail(rec, phase, err)
		r.rollbackBatch(ctx)
		return
	}
	r.settle(ctx, rec, id, skipped)
}

// processIsolated runs one record inside a savepoint of the open batch.
func (r *run) processIsolated(ctx context.Context, rec source.Record) {
	sp, err := r.tx.Begin(ctx)
	if err != nil {
		r.fail(rec, PhaseBegin, err)
		r.rollbackBatch(ctx)
		return
	}

	id, skipped, phase, err := r.importRecord(ctx, sp, rec)
	if err != nil {
		r.fail(rec, phase, err)
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			r.log.Error("rollback to savepoint failed", "line", rec.Line, "error", rbErr)
			r.rollbackBatch(ctx)
		}
		return
	}

	if err := sp.Commit(ctx); err != nil {
		r.fail(rec, PhaseCommit, err)
		r.rollbackBatch(ctx)
		return
	}
	r.settle(ctx, rec, id, skipped)
}

// importRecord runs the phases of one record. skipped reports a show that
// already existed; nothing is written for it.
func (r *run) importRecord(ctx context.Context, repo catalog.Repository, rec source.Record) (id int64, skipped bool, phase Phase, err error) {
	id, err = source.ParseID(rec.String(source.ColID))
	if err != nil {
		return 0, false, PhaseParse, err
	}

	exists, err := repo.ShowExists(ctx, id)
	if err != nil {
		return id, false, PhaseDuplicateCheck, err
	}
	if exists {
		return id, true, "", nil
	}

	params, err := showParams(rec, id)
	if err != nil {
		return id, false, PhaseParse, err
	}
	if err := repo.InsertShow(ctx, params); err != nil {
		return id, false, PhaseInsertShow, err
	}

	for _, l := range listLinks {
		for _, name := range rec.List(l.column) {
			entityID, ok, err := r.resolver.Resolve(ctx, repo, l.kind, name, catalog.Attributes{})
			if err != nil {
				return id, false, l.phase, err
			}
			if !ok {
				continue
			}
			if err := repo.LinkEntity(ctx, l.kind, id, entityID); err != nil {
				return id, false, l.phase, err
			}
		}
	}

	for _, credit := range rec.Actors() {
		attrs := catalog.Attributes{ProfileURL: source.ToPgText(credit.ProfileURL)}
		actorID, ok, err := r.resolver.Resolve(ctx, repo, catalog.Actor, credit.Name, attrs)
		if err != nil {
			return id, false, PhaseLinkCast, err
		}
		if !ok {
			continue
		}
		if err := repo.LinkCast(ctx, id, actorID, source.ToPgText(credit.Character)); err != nil {
			return id, false, PhaseLinkCast, err
		}
	}

	return id, false, "", nil
}

// settle counts a successful record. The open batch is committed whenever
// the run's success count reaches a multiple of BatchSize; a rollback does
// not reset that count.
func (r *run) settle(ctx context.Context, rec source.Record, id int64, skipped bool) {
	if skipped {
		if _, open := r.openIDs[id]; open {
			r.pendingSkips++
		} else {
			r.res.Skipped++
		}
		return
	}

	if r.openIDs == nil {
		r.openIDs = make(map[int64]struct{})
	}
	r.openIDs[id] = struct{}{}
	r.pending++
	r.successes++
	if r.successes%r.cfg.BatchSize == 0 {
		r.commit(ctx, rec)
	}
}

// flush commits the final partial batch. An open transaction with nothing
// imported holds no writes and is rolled back instead.
func (r *run) flush(ctx context.Context, last source.Record) {
	if r.tx == nil {
		return
	}
	if r.pending > 0 {
		r.commit(ctx, last)
		return
	}
	r.rollbackBatch(ctx)
}

// takeBatch detaches the open transaction and its pending counts.
func (r *run) takeBatch() (tx catalog.Tx, imported, skips int) {
	tx, imported, skips = r.tx, r.pending, r.pendingSkips
	r.tx, r.pending, r.pendingSkips, r.openIDs = nil, 0, 0, nil
	return tx, imported, skips
}

func (r *run) commit(ctx context.Context, rec source.Record) {
	tx, n, skips := r.takeBatch()

	if err := tx.Commit(ctx); err != nil {
		r.res.Discarded += n + skips
		r.record(rec, PhaseCommit, err)
		r.log.Error("batch commit failed",
			"discarded", n+skips,
			"line", rec.Line,
			"error", err,
		)
		return
	}

	r.res.Imported += n
	r.res.Skipped += skips
	r.res.Commits++
	r.log.Info("batch committed",
		"batch", r.res.Commits,
		"imported", r.res.Imported,
		"skipped", r.res.Skipped,
		"failed", r.res.Failed,
		"discarded", r.res.Discarded,
		"processed", r.res.Processed(),
		"total", r.res.Total,
	)
}

// rollbackBatch abandons the open transaction and everything pending in it.
func (r *run) rollbackBatch(ctx context.Context) {
	tx, n, skips := r.takeBatch()

	if n+skips > 0 {
		r.res.Discarded += n + skips
		r.log.Warn("batch rolled back", "discarded", n+skips)
	}
	if tx == nil {
		return
	}
	if err := tx.Rollback(ctx); err != nil {
		r.log.Error("rollback failed", "error", err)
	}
}

// fail counts rec as failed and records why.
func (r *run) fail(rec source.Record, phase Phase, err error) {
	r.res.Failed++
	r.record(rec, phase, err)
}

func (r *run) record(rec source.Record, phase Phase, err error) {
	msg := failure.Map(err)
	r.res.Failures = append(r.res.Failures, FailedRecord{
		Line:   rec.Line,
		Key:    rec.Key(),
		Phase:  phase,
		Code:   msg.Code,
		Reason: err.Error(),
	})
	r.log.Warn("record failed",
		"line", rec.Line,
		"show_id", rec.Key(),
		"phase", phase,
		"code", msg.Code,
		"error", err,
	)
}
