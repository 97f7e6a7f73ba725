package engine

import (
	"context"
	"sync"
	"time"

	"mse-harvester/src/helpers"
	"mse-harvester/src/interfaces"
	"mse-harvester/src/logger"
	"mse-harvester/src/models"
	"mse-harvester/src/utils"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Engine drives the per-publisher decide -> fetch -> normalize ->
// filter -> merge -> advance-watermark cycle. Publishers are
// independent units of work: one failure never aborts the batch, and a
// publisher's whole cycle runs on a single worker so its store writes
// never interleave.
// -----------------------------------------------------------------------------

type Engine struct {
	Config     *models.MConfig
	DB         interfaces.IDatabase
	Source     interfaces.IDataSource
	Watermarks interfaces.IWatermarkStore
	Logger     *logger.Logger

	// Now is the clock used for the "today" range end; injectable for tests.
	Now func() time.Time

	statusMu   sync.RWMutex
	status     map[string]models.MSyncStatus
	lastReport *models.MRunReport
}

// -----------------------------------------------------------------------------

func NewEngine(cfg *models.MConfig, db interfaces.IDatabase, source interfaces.IDataSource, watermarks interfaces.IWatermarkStore, log *logger.Logger) *Engine {
	return &Engine{
		Config:     cfg,
		DB:         db,
		Source:     source,
		Watermarks: watermarks,
		Logger:     log,
		Now:        time.Now,
		status:     make(map[string]models.MSyncStatus),
	}
}

// -----------------------------------------------------------------------------

// Run executes one sync pass over the given publisher codes and
// returns a summary report. Cancelling ctx aborts the batch between
// publishers: already-committed publishers keep their merged records
// and advanced watermark.
func (e *Engine) Run(ctx context.Context, codes []string) models.MRunReport {
	report := models.MRunReport{
		RunID:      uuid.NewString(),
		StartedAt:  e.Now(),
		Publishers: len(codes),
	}
	e.Logger.Info("Sync run %s started: %d publishers", report.RunID, len(codes))

	for _, code := range codes {
		e.setStatus(code, models.MSyncStatus{PublisherCode: code, Status: models.SyncPending})
	}

	// Start from the existing snapshot so publishers outside this run
	// keep their entries.
	snapshot := e.Watermarks.LoadAll()
	var snapMu sync.Mutex
	var reportMu sync.Mutex

	sem := make(chan struct{}, e.Config.Network.ConcurrentRequests)
	var wg sync.WaitGroup

	for _, code := range codes {
		if ctx.Err() != nil {
			e.Logger.Warning("Sync run %s aborted before publisher %s", report.RunID, code)
			break
		}

		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			merged, watermark, err := e.syncPublisher(ctx, code)

			reportMu.Lock()
			if err != nil {
				report.Failed++
			} else {
				report.Completed++
				report.Merged += merged
			}
			reportMu.Unlock()

			if err != nil {
				e.Logger.Error("Publisher %s failed: %v", code, err)
				e.setStatus(code, models.MSyncStatus{
					PublisherCode: code,
					Status:        models.SyncFailed,
					Error:         err.Error(),
				})
				return
			}

			e.Logger.Info("Publisher %s: %d records merged, watermark %s", code, merged, watermark)
			e.setStatus(code, models.MSyncStatus{
				PublisherCode: code,
				Status:        models.SyncCompleted,
				RecordsMerged: merged,
				Watermark:     watermark,
			})

			// Persist the snapshot after every committed publisher so a
			// mid-run crash loses at most the in-flight ones.
			snapMu.Lock()
			snapshot[code] = watermark
			saveErr := e.Watermarks.SaveAll(snapshot)
			snapMu.Unlock()
			if saveErr != nil {
				// Cache only: the store already holds the records and
				// MaxDate stays authoritative on the next run.
				e.Logger.Warning("Failed to persist watermark snapshot after %s: %v", code, saveErr)
			}
		}(code)
	}

	wg.Wait()

	report.FinishedAt = e.Now()
	e.statusMu.Lock()
	e.lastReport = &report
	e.statusMu.Unlock()

	e.Logger.Info("Sync run %s finished: %d completed, %d failed, %d records merged",
		report.RunID, report.Completed, report.Failed, report.Merged)
	return report
}

// -----------------------------------------------------------------------------

// syncPublisher runs one publisher's full cycle. The returned watermark
// is the requested range end ("data requested through this date"), not
// the max session date observed: a publisher with no sessions in range
// still advances.
func (e *Engine) syncPublisher(ctx context.Context, code string) (merged int, watermark string, err error) {
	e.setStatus(code, models.MSyncStatus{PublisherCode: code, Status: models.SyncRunning})

	toDate := utils.FormatSessionDate(e.Now())
	// Round-trip through the canonical form so range comparisons happen
	// between like-for-like midnights.
	todayDate, _ := utils.ParseSessionDate(toDate)

	// Decide the fetch range from the authoritative aggregate.
	prior, hasPrior, err := e.DB.MaxDate(code)
	if err != nil {
		return 0, "", helpers.NewDatabaseError("watermark query failed for "+code, err)
	}

	var fromDate string
	var priorTime time.Time
	if hasPrior {
		priorTime, err = utils.ParseSessionDate(prior)
		if err != nil {
			// MaxDate only returns parsable dates; treat anything else
			// as never-synchronized.
			hasPrior = false
		}
	}

	if hasPrior {
		if !priorTime.Before(todayDate) {
			// Already requested through today; nothing to fetch.
			return 0, prior, nil
		}
		fromDate = utils.FormatSessionDate(priorTime.AddDate(0, 0, 1))
	} else {
		// Full backfill from the configured epoch floor.
		fromDate = e.Config.Source.EpochFloor
	}

	records, err := e.Source.FetchHistory(ctx, code, fromDate, toDate)
	if err != nil {
		return 0, "", err
	}

	kept := make([]models.MHistoryRecord, 0, len(records))
	for _, r := range records {
		r = utils.NormalizeRecord(r)
		r.PublisherCode = code

		if hasPrior {
			// Defensive filter regardless of the requested bounds: the
			// source is not trusted to honor them. Calendar comparison,
			// never string comparison. A date that kept its raw-text
			// fallback cannot be proven new, so it is dropped here;
			// full backfill stores it untouched.
			t, perr := utils.ParseSessionDate(r.Date)
			if perr != nil || !t.After(priorTime) {
				continue
			}
		}
		kept = append(kept, r)
	}

	if len(kept) > 0 {
		if err := e.DB.UpsertRecords(code, kept); err != nil {
			// Nothing is considered committed: the watermark is not
			// advanced and the next run re-requests the same range.
			return 0, "", helpers.NewDatabaseError("upsert failed for "+code, err)
		}
	}

	return len(kept), toDate, nil
}

// -----------------------------------------------------------------------------

func (e *Engine) setStatus(code string, s models.MSyncStatus) {
	s.UpdatedAt = e.Now()
	e.statusMu.Lock()
	e.status[code] = s
	e.statusMu.Unlock()
}

// -----------------------------------------------------------------------------

// Statuses returns a copy of the per-publisher sync states.
func (e *Engine) Statuses() []models.MSyncStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()

	out := make([]models.MSyncStatus, 0, len(e.status))
	for _, s := range e.status {
		out = append(out, s)
	}
	return out
}

// -----------------------------------------------------------------------------

// LastReport returns the summary of the most recent completed run.
func (e *Engine) LastReport() *models.MRunReport {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()

	if e.lastReport == nil {
		return nil
	}
	report := *e.lastReport
	return &report
}
