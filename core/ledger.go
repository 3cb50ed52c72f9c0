package core

import (
	"context"
	"time"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
)

// Ledger failures never abort a command; they are logged as warnings.

func ledgerStore(mgr contract.StoreManager) contract.LedgerStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetLedgerStore()
}

func cacheStore(mgr contract.StoreManager) contract.CacheStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetCacheStore()
}

// beginRun opens a ledger run and stores its ID in the returned context.
func beginRun(ctx context.Context, mgr contract.StoreManager, command string, params map[string]any, log *contract.Logger) context.Context {
	ledger := ledgerStore(mgr)
	if ledger == nil {
		return ctx
	}
	runID, err := ledger.BeginRun(command, time.Now(), params)
	if err != nil {
		log.Warnf("Ledger run initialization failed: %v", err)
		return ctx
	}
	if runID <= 0 {
		return ctx
	}
	log.Debugf("Ledger run %d started", runID)
	return withRunID(ctx, runID)
}

// endRun closes the ledger run of the context, if any.
func endRun(ctx context.Context, mgr contract.StoreManager, totalRecords int, log *contract.Logger) {
	ledger, runID := ledgerStore(mgr), runIDFrom(ctx)
	if ledger == nil || runID == 0 {
		return
	}
	if err := ledger.EndRun(runID, time.Now(), totalRecords); err != nil {
		log.Warnf("Failed to finalize ledger run %d: %v", runID, err)
	}
}

func recordCutoffs(ctx context.Context, mgr contract.StoreManager, results []schema.ThresholdResult, log *contract.Logger) {
	ledger, runID := ledgerStore(mgr), runIDFrom(ctx)
	if ledger == nil || runID == 0 {
		return
	}
	for _, r := range results {
		if err := ledger.RecordCutoff(runID, r); err != nil {
			log.Warnf("Failed to record cutoff %s: %v", r.Label, err)
		}
	}
}

func recordOralGrade(ctx context.Context, mgr contract.StoreManager, grade schema.OralGrade, log *contract.Logger) {
	ledger, runID := ledgerStore(mgr), runIDFrom(ctx)
	if ledger == nil || runID == 0 {
		return
	}
	if err := ledger.RecordOralGrade(runID, grade); err != nil {
		log.Warnf("Failed to record grade of %s: %v", grade.Students, err)
	}
}

// RecordThresholdRun stores the cutoffs of a thresholds computation as a single ledger run.
func RecordThresholdRun(ctx context.Context, mgr contract.StoreManager, command string, params map[string]any, results []schema.ThresholdResult, log *contract.Logger) {
	ctx = beginRun(ctx, mgr, command, params, log)
	recordCutoffs(ctx, mgr, results, log)
	endRun(ctx, mgr, len(results), log)
}
