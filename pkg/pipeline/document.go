// Package pipeline orchestrates the per-document de-identification flow:
// rasterize, OCR, extract, resolve to consistent replacements, mask, and
// reassemble the output PDF.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/docveil/docveil/internal"
	"github.com/docveil/docveil/pkg/deid"
	"github.com/docveil/docveil/pkg/masking"
	"github.com/docveil/docveil/pkg/models"
	"github.com/docveil/docveil/pkg/renderer"
)

var log = internal.GetLogger()

type Processor struct {
	appState *models.AppState
	masker   *masking.Masker
}

func NewProcessor(appState *models.AppState) *Processor {
	return &Processor{
		appState: appState,
		masker:   masking.NewMasker(appState.Config),
	}
}

// Result is the outcome of one document run.
type Result struct {
	MaskedPDF       []byte
	Entities        []models.ResolvedEntity
	Mappings        map[string]string
	Report          deid.ConsistencyReport
	PagesProcessed  int
	EntitiesToMask  int
	EntitiesMasked  int
	SkippedGeometry int
	Verification    *VerificationResult
}

// Score is the completeness percentage for this run: the share of approved
// entities actually drawn. Nothing to mask counts as fully masked.
func (r *Result) Score() int {
	if r.EntitiesToMask == 0 {
		return 100
	}
	return int(math.Round(100 * float64(r.EntitiesMasked) / float64(r.EntitiesToMask)))
}

// ProcessDocument runs the full flow over one PDF. Collaborator failures on a
// page fail the document; geometry failures on an entity only skip that
// entity. The consistency scope lives and dies with this call.
func (p *Processor) ProcessDocument(
	ctx context.Context,
	pdf []byte,
	fields []models.FieldDefinition,
) (*Result, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	pages, err := p.appState.Renderer.RenderPages(ctx, pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}

	session := deid.NewSession(p.appState.Config.Masking.Seed)
	fieldsByName := indexFields(fields)

	var entities []models.ResolvedEntity
	for _, page := range pages {
		resolved, err := p.processPage(ctx, session, page, fields, fieldsByName)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page.Number, err)
		}
		entities = append(entities, resolved...)
	}

	report, err := deid.CheckConsistency(entities)
	if err != nil {
		return nil, err
	}

	result, err := p.mask(pages, entities)
	if err != nil {
		return nil, err
	}
	result.Mappings = session.Mappings()
	result.Report = report

	if p.appState.Config.Batch.Verify {
		verification, err := p.VerifyMasking(ctx, result.MaskedPDF, entities)
		if err != nil {
			// Verification is advisory; the masked output already exists.
			log.Warnf("masking verification failed to run: %v", err)
		} else {
			result.Verification = verification
		}
	}

	return result, nil
}

// MaskDocument draws already-resolved entities onto the PDF without running
// extraction. This is the reviewer path: entities arrive with approval flags
// and possibly edited replacements.
func (p *Processor) MaskDocument(
	ctx context.Context,
	pdf []byte,
	entities []models.ResolvedEntity,
) (*Result, error) {
	pages, err := p.appState.Renderer.RenderPages(ctx, pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	return p.mask(pages, entities)
}

func (p *Processor) processPage(
	ctx context.Context,
	session *deid.Session,
	page models.Page,
	fields []models.FieldDefinition,
	fieldsByName map[string]models.FieldDefinition,
) ([]models.ResolvedEntity, error) {
	imagePNG, err := renderer.EncodePNG(page.Image)
	if err != nil {
		return nil, err
	}

	ocr, err := p.appState.OCR.AnalyzeImage(ctx, imagePNG, page.Number)
	if err != nil {
		return nil, fmt.Errorf("ocr failed: %w", err)
	}

	candidates, err := p.appState.Extractor.ExtractEntities(ctx, imagePNG, ocr, fields, page.Number)
	if err != nil {
		return nil, fmt.Errorf("entity extraction failed: %w", err)
	}

	resolved := make([]models.ResolvedEntity, 0, len(candidates))
	for _, candidate := range candidates {
		field, ok := fieldsByName[strings.ToLower(candidate.Type)]
		if !ok {
			log.Warnf("page %d: dropping candidate with unconfigured type %q", page.Number, candidate.Type)
			continue
		}
		entity, err := session.Resolve(candidate, field)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, entity)
	}

	return resolved, nil
}

func (p *Processor) mask(pages []models.Page, entities []models.ResolvedEntity) (*Result, error) {
	builder := p.appState.Renderer.NewMaskedDocument()
	drawn, skipped := p.masker.MaskDocument(builder, pages, entities)

	var buf bytes.Buffer
	if err := builder.Assemble(&buf); err != nil {
		return nil, fmt.Errorf("failed to assemble masked document: %w", err)
	}

	toMask := 0
	for _, e := range entities {
		if e.Approved {
			toMask++
		}
	}

	return &Result{
		MaskedPDF:       buf.Bytes(),
		Entities:        entities,
		PagesProcessed:  len(pages),
		EntitiesToMask:  toMask,
		EntitiesMasked:  drawn,
		SkippedGeometry: skipped,
	}, nil
}

// VerificationResult reports original texts still readable in the masked
// output. Residual text means a mask was skipped or mis-placed.
type VerificationResult struct {
	Clean    bool     `json:"clean"`
	Residual []string `json:"residual,omitempty"`
}

// VerifyMasking re-OCRs the masked document and checks that no approved
// entity's original text survives.
func (p *Processor) VerifyMasking(
	ctx context.Context,
	maskedPDF []byte,
	entities []models.ResolvedEntity,
) (*VerificationResult, error) {
	pages, err := p.appState.Renderer.RenderPages(ctx, maskedPDF)
	if err != nil {
		return nil, err
	}

	textByPage := make(map[int]string, len(pages))
	for _, page := range pages {
		imagePNG, err := renderer.EncodePNG(page.Image)
		if err != nil {
			return nil, err
		}
		ocr, err := p.appState.OCR.AnalyzeImage(ctx, imagePNG, page.Number)
		if err != nil {
			return nil, err
		}
		textByPage[page.Number] = strings.ToLower(ocr.Text)
	}

	result := &VerificationResult{Clean: true}
	seen := make(map[string]struct{})
	for _, e := range entities {
		if !e.Approved || strings.TrimSpace(e.Text) == "" {
			continue
		}
		needle := strings.ToLower(strings.TrimSpace(e.Text))
		if strings.Contains(textByPage[e.PageNumber], needle) {
			if _, dup := seen[needle]; dup {
				continue
			}
			seen[needle] = struct{}{}
			result.Clean = false
			result.Residual = append(result.Residual, e.Text)
		}
	}

	return result, nil
}

func validateFields(fields []models.FieldDefinition) error {
	if len(fields) == 0 {
		return models.NewConfigurationError("no field definitions provided", nil)
	}
	for _, f := range fields {
		if f.Name == "" {
			return models.NewConfigurationError("field definition missing name", nil)
		}
		if err := f.Strategy.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func indexFields(fields []models.FieldDefinition) map[string]models.FieldDefinition {
	out := make(map[string]models.FieldDefinition, len(fields))
	for _, f := range fields {
		out[strings.ToLower(f.Name)] = f
	}
	return out
}
