package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"fjacquet/case-categorizer/internal/aggregator"
	"fjacquet/case-categorizer/internal/caseerror"
	"fjacquet/case-categorizer/internal/exporter"
	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
	"fjacquet/case-categorizer/internal/pipeline"
	"fjacquet/case-categorizer/internal/tabular"
)

// categorizeRequest is the body of POST /categorize-cases. Absent taxonomy
// lists fall back to the stored ones; explicitly empty lists are rejected.
type categorizeRequest struct {
	Cases                []models.Fields         `json:"cases"`
	AvailableCategories  *[]models.TaxonomyEntry `json:"availableCategories"`
	AvailableResolutions *[]models.TaxonomyEntry `json:"availableResolutions"`
	SelectedModel        string                  `json:"selectedModel"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Case categorizer API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleListTaxonomy(kind models.TaxonomyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		entries, err := s.taxonomies.List(kind)
		if err != nil {
			s.logger.WithError(err).Error("Failed to load taxonomy",
				logging.Field{Key: logging.FieldOperation, Value: string(kind)})
			s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("could not load %s", kind))
			return
		}
		s.writeJSON(w, http.StatusOK, entries)
	}
}

func (s *Server) handleReplaceTaxonomy(kind models.TaxonomyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entries []models.TaxonomyEntry
		if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
			s.writeValidation(w, bodyError(err))
			return
		}
		if entries == nil {
			entries = []models.TaxonomyEntry{}
		}

		if err := s.taxonomies.Replace(kind, entries); err != nil {
			s.logger.WithError(err).Error("Failed to save taxonomy",
				logging.Field{Key: logging.FieldOperation, Value: string(kind)})
			s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("could not save %s", kind))
			return
		}

		saved, err := s.taxonomies.List(kind)
		if err != nil {
			saved = entries
		}
		s.writeJSON(w, http.StatusOK, saved)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "uploaded file is too large")
			return
		}
		s.writeValidation(w, fieldRequired("file"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeValidation(w, fieldRequired("file"))
		return
	}
	defer func() { _ = file.Close() }()

	upload, err := s.service.ReadCases(file, header.Filename)
	if err != nil {
		if caseerror.IsValidation(err) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.WithError(err).Error("Failed to read uploaded cases",
			logging.Field{Key: logging.FieldInputFile, Value: header.Filename})
		s.writeError(w, http.StatusInternalServerError, "could not read uploaded file")
		return
	}

	s.logger.Info("Parsed uploaded cases",
		logging.Field{Key: logging.FieldInputFile, Value: header.Filename},
		logging.Field{Key: logging.FieldCount, Value: len(upload.Cases)},
		logging.Field{Key: logging.FieldSkipped, Value: upload.Skipped})
	s.writeJSON(w, http.StatusOK, upload)
}

func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var body categorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeValidation(w, bodyError(err))
		return
	}
	if body.Cases == nil {
		s.writeValidation(w, fieldRequired("cases"))
		return
	}

	req := pipeline.Request{Cases: body.Cases, SelectedModel: body.SelectedModel}
	if body.AvailableCategories == nil || body.AvailableResolutions == nil {
		stored, err := s.taxonomies.Snapshot()
		if err != nil {
			s.logger.WithError(err).Error("Failed to load taxonomy")
			s.writeError(w, http.StatusInternalServerError, "could not load taxonomy")
			return
		}
		req.Categories = stored.Categories
		req.Resolutions = stored.Resolutions
	}
	if body.AvailableCategories != nil {
		req.Categories = *body.AvailableCategories
	}
	if body.AvailableResolutions != nil {
		req.Resolutions = *body.AvailableResolutions
	}

	result, err := s.service.Categorize(r.Context(), req)
	switch {
	case err == nil:
		w.Header().Set(HeaderSkippedRows, strconv.Itoa(result.Stats.Skipped))
		s.writeJSON(w, http.StatusOK, pipeline.ResponseCases(req.Cases, result))
	case caseerror.IsConfiguration(err):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pipeline.ErrAllRequestsFailed):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.WithError(err).Error("Categorization failed")
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var results []models.CategorizedCase
	if err := json.NewDecoder(r.Body).Decode(&results); err != nil {
		s.writeValidation(w, bodyError(err))
		return
	}

	format := tabular.FormatCSV
	if strings.EqualFold(r.URL.Query().Get("format"), string(tabular.FormatXLSX)) {
		format = tabular.FormatXLSX
	}

	rows := aggregator.FromCategorized(results)
	var buf bytes.Buffer
	if err := s.exporter.Write(&buf, rows, format); err != nil {
		if errors.Is(err, exporter.ErrNoResults) {
			s.logger.Info("Nothing to export: no categorized results")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.logger.WithError(err).Error("Export failed")
		s.writeError(w, http.StatusInternalServerError, "could not export results")
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == tabular.FormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="categorized_cases.%s"`, format))
	_, _ = w.Write(buf.Bytes())
}
