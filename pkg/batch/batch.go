package batch

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/timeout"

	"github.com/docveil/docveil/internal"
	"github.com/docveil/docveil/pkg/models"
	"github.com/docveil/docveil/pkg/pipeline"
)

var log = internal.GetLogger()

const defaultConcurrency = 4

type Runner struct {
	appState  *models.AppState
	processor *pipeline.Processor
}

func NewRunner(appState *models.AppState) *Runner {
	return &Runner{
		appState:  appState,
		processor: pipeline.NewProcessor(appState),
	}
}

// Run processes every eligible PDF in the folder. Documents run concurrently
// up to the configured worker count; each document's consistency scope is
// private to its task, so workers share nothing mutable. A document failure
// or timeout is recorded in its result and never aborts the batch.
func (r *Runner) Run(
	ctx context.Context,
	folderPath string,
	fields []models.FieldDefinition,
) (*models.BatchResult, error) {
	cfg := r.appState.Config.Batch

	scan, err := ScanFolder(folderPath, cfg.OutputPrefix)
	if err != nil {
		return nil, err
	}

	results := make([]models.BatchDocumentResult, len(scan.Files))

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, file := range scan.Files {
		wg.Add(1)
		go func(i int, file models.ScanFile) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = r.processOne(ctx, folderPath, file.Name, fields)
		}(i, file)
	}
	wg.Wait()

	result := aggregate(folderPath, results)
	log.Infof("batch complete: %d/%d documents succeeded, batch score %d%%",
		result.SuccessfulDocuments, result.TotalDocuments, result.BatchScore)
	return result, nil
}

func (r *Runner) processOne(
	ctx context.Context,
	folderPath string,
	filename string,
	fields []models.FieldDefinition,
) (docResult models.BatchDocumentResult) {
	cfg := r.appState.Config.Batch
	docResult = models.BatchDocumentResult{Filename: filename, Status: models.BatchStatusError}

	// A panic in one document's pipeline must not take down its siblings.
	defer func() {
		if rec := recover(); rec != nil {
			docResult.Error = fmt.Sprintf("panic: %v", rec)
			log.Errorf("batch: document %s panicked: %v", filename, rec)
		}
	}()

	pdf, err := os.ReadFile(filepath.Join(folderPath, filename))
	if err != nil {
		docResult.Error = err.Error()
		return docResult
	}

	run := func(runCtx context.Context) (*pipeline.Result, error) {
		return r.processor.ProcessDocument(runCtx, pdf, fields)
	}

	var result *pipeline.Result
	if cfg.DocumentTimeoutSec > 0 {
		timeoutPolicy := timeout.With[*pipeline.Result](
			time.Duration(cfg.DocumentTimeoutSec) * time.Second,
		)
		result, err = failsafe.NewExecutor[*pipeline.Result](timeoutPolicy).
			WithContext(ctx).
			GetWithExecution(func(exec failsafe.Execution[*pipeline.Result]) (*pipeline.Result, error) {
				return run(exec.Context())
			})
	} else {
		result, err = run(ctx)
	}
	if err != nil {
		docResult.Error = err.Error()
		log.Warnf("batch: document %s failed: %v", filename, err)
		return docResult
	}

	maskedName := cfg.OutputPrefix + filename
	outPath := filepath.Join(folderPath, maskedName)
	if err := os.WriteFile(outPath, result.MaskedPDF, 0o644); err != nil {
		docResult.Error = fmt.Sprintf("failed to write masked output: %v", err)
		return docResult
	}

	return models.BatchDocumentResult{
		Filename:       filename,
		MaskedFilename: maskedName,
		Status:         models.BatchStatusSuccess,
		EntitiesToMask: result.EntitiesToMask,
		EntitiesMasked: result.EntitiesMasked,
		Score:          result.Score(),
	}
}

func aggregate(folderPath string, results []models.BatchDocumentResult) *models.BatchResult {
	successes := 0
	sumMasked, sumToMask := 0, 0
	for _, r := range results {
		if r.Status == models.BatchStatusSuccess {
			successes++
			sumMasked += r.EntitiesMasked
			sumToMask += r.EntitiesToMask
		}
	}

	return &models.BatchResult{
		OutputFolder:        folderPath,
		TotalDocuments:      len(results),
		SuccessfulDocuments: successes,
		BatchScore:          batchScore(len(results), successes, sumMasked, sumToMask),
		Results:             results,
	}
}

// documentScore is the per-document completeness percentage. Nothing to mask
// counts as fully masked.
func documentScore(masked, toMask int) int {
	if toMask == 0 {
		return 100
	}
	return int(math.Round(100 * float64(masked) / float64(toMask)))
}

// batchScore rolls masked/to-mask sums over successful documents only. All
// documents failing scores zero; successes with no entities score 100.
func batchScore(total, successes, sumMasked, sumToMask int) int {
	if total > 0 && successes == 0 {
		return 0
	}
	return documentScore(sumMasked, sumToMask)
}
