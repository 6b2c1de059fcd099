package server

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/docveil/docveil/internal"
	"github.com/docveil/docveil/pkg/batch"
	"github.com/docveil/docveil/pkg/deid"
	"github.com/docveil/docveil/pkg/models"
	"github.com/docveil/docveil/pkg/pipeline"
	"github.com/docveil/docveil/pkg/server/handlertools"
)

var log = internal.GetLogger()

var validate = validator.New()

type fieldDTO struct {
	Name        string `json:"name"        validate:"required"`
	Description string `json:"description" validate:"required"`
	Strategy    string `json:"strategy"    validate:"required"`
}

type entityDTO struct {
	ID              uuid.UUID          `json:"id"`
	Type            string             `json:"entity_type"`
	Text            string             `json:"original_text"`
	ReplacementText string             `json:"replacement_text"`
	Box             models.BoundingBox `json:"bounding_box"`
	PageNumber      int                `json:"page_number"`
	Confidence      float64            `json:"confidence"`
	Approved        bool               `json:"approved"`
	Strategy        models.Strategy    `json:"strategy"`
}

type processRequest struct {
	// PDF is base64 in the JSON body, decoded by encoding/json.
	PDF    []byte     `json:"pdf"    validate:"required"`
	Fields []fieldDTO `json:"fields" validate:"required,min=1,dive"`
}

type mappingDTO struct {
	EntityType      string `json:"entity_type"`
	CanonicalKey    string `json:"canonical_key"`
	ReplacementText string `json:"replacement_text"`
}

type processResponse struct {
	MaskedPDF       []byte                       `json:"masked_pdf"`
	Entities        []entityDTO                  `json:"entities"`
	Mappings        []mappingDTO                 `json:"mappings"`
	Consistency     deid.ConsistencyReport       `json:"consistency"`
	PagesProcessed  int                          `json:"pages_processed"`
	EntitiesToMask  int                          `json:"entities_to_mask"`
	EntitiesMasked  int                          `json:"entities_masked"`
	SkippedGeometry int                          `json:"skipped_geometry"`
	Score           int                          `json:"score"`
	Verification    *pipeline.VerificationResult `json:"verification,omitempty"`
}

// ProcessDocumentHandler godoc
//
//	@Summary	Runs the full de-identification flow over one PDF
//	@Tags		documents
//	@Accept		json
//	@Produce	json
//	@Router		/api/v1/documents/process [post]
func ProcessDocumentHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req processRequest
		if err := handlertools.DecodeJSON(r, &req); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		fields, err := fieldsFromDTO(req.Fields)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		result, err := pipeline.NewProcessor(appState).
			ProcessDocument(r.Context(), req.PDF, fields)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		var entities []entityDTO
		if err := copier.Copy(&entities, &result.Entities); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		resp := processResponse{
			MaskedPDF:       result.MaskedPDF,
			Entities:        entities,
			Mappings:        mappingsFromSnapshot(result.Mappings),
			Consistency:     result.Report,
			PagesProcessed:  result.PagesProcessed,
			EntitiesToMask:  result.EntitiesToMask,
			EntitiesMasked:  result.EntitiesMasked,
			SkippedGeometry: result.SkippedGeometry,
			Score:           result.Score(),
			Verification:    result.Verification,
		}
		if err := handlertools.EncodeJSON(w, resp); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

type maskRequest struct {
	PDF      []byte      `json:"pdf"      validate:"required"`
	Entities []entityDTO `json:"entities" validate:"required,min=1,dive"`
}

// MaskDocumentHandler godoc
//
//	@Summary	Draws already-reviewed entities onto a PDF and returns the masked copy
//	@Tags		documents
//	@Accept		json
//	@Produce	application/pdf
//	@Router		/api/v1/documents/mask [post]
func MaskDocumentHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req maskRequest
		if err := handlertools.DecodeJSON(r, &req); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		var entities []models.ResolvedEntity
		if err := copier.Copy(&entities, &req.Entities); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		result, err := pipeline.NewProcessor(appState).
			MaskDocument(r.Context(), req.PDF, entities)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		if _, err := w.Write(result.MaskedPDF); err != nil {
			log.Errorf("failed to write masked document: %v", err)
		}
	}
}

type scanRequest struct {
	FolderPath string `json:"folder_path" validate:"required"`
}

// ScanFolderHandler godoc
//
//	@Summary	Lists the PDFs a batch run would process, without processing anything
//	@Tags		batch
//	@Accept		json
//	@Produce	json
//	@Router		/api/v1/batch/scan [post]
func ScanFolderHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scanRequest
		if err := handlertools.DecodeJSON(r, &req); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		scan, err := batch.ScanFolder(req.FolderPath, appState.Config.Batch.OutputPrefix)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
		if err := handlertools.EncodeJSON(w, scan); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

type batchRequest struct {
	FolderPath string     `json:"folder_path" validate:"required"`
	Fields     []fieldDTO `json:"fields"      validate:"required,min=1,dive"`
}

// RunBatchHandler godoc
//
//	@Summary	Processes every eligible PDF in a folder and returns the batch report
//	@Tags		batch
//	@Accept		json
//	@Produce	json
//	@Router		/api/v1/batch [post]
func RunBatchHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		if err := handlertools.DecodeJSON(r, &req); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		fields, err := fieldsFromDTO(req.Fields)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		result, err := batch.NewRunner(appState).Run(r.Context(), req.FolderPath, fields)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
		if err := handlertools.EncodeJSON(w, result); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// mappingsFromSnapshot unpacks the session's "type\x00canonical" snapshot keys
// into a sorted, wire-friendly list.
func mappingsFromSnapshot(snapshot map[string]string) []mappingDTO {
	mappings := make([]mappingDTO, 0, len(snapshot))
	for key, replacement := range snapshot {
		entityType, canonical, _ := strings.Cut(key, "\x00")
		mappings = append(mappings, mappingDTO{
			EntityType:      entityType,
			CanonicalKey:    canonical,
			ReplacementText: replacement,
		})
	}
	sort.Slice(mappings, func(i, j int) bool {
		if mappings[i].EntityType != mappings[j].EntityType {
			return mappings[i].EntityType < mappings[j].EntityType
		}
		return mappings[i].CanonicalKey < mappings[j].CanonicalKey
	})
	return mappings
}

func fieldsFromDTO(dtos []fieldDTO) ([]models.FieldDefinition, error) {
	fields := make([]models.FieldDefinition, 0, len(dtos))
	for _, dto := range dtos {
		strategy, err := models.ParseStrategy(dto.Strategy)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", dto.Name, err)
		}
		fields = append(fields, models.FieldDefinition{
			Name:        dto.Name,
			Description: dto.Description,
			Strategy:    strategy,
		})
	}
	return fields, nil
}
