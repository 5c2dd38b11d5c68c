// Package httpapi exposes the analysis pipelines over HTTP. Every
// document endpoint shares the same multipart upload contract and the
// {success, filename, result} response envelope.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/procurelens/procurelens/internal/criteria"
	"github.com/procurelens/procurelens/internal/extract"
	"github.com/procurelens/procurelens/internal/gapscan"
	"github.com/procurelens/procurelens/internal/reportpdf"
	"github.com/procurelens/procurelens/internal/schemafix"
	"github.com/procurelens/procurelens/internal/store"
	"github.com/procurelens/procurelens/internal/telemetry"
	"github.com/procurelens/procurelens/internal/textnorm"
)

const maxUploadBytes = 50 << 20

// History persists finished runs; nil disables persistence.
type History interface {
	SaveAnalysis(filename, kind string, score int, payload any) (int64, error)
	Recent(limit int) ([]store.AnalysisRecord, error)
}

// PDFRenderer prints a markdown report to PDF; nil disables the endpoint.
type PDFRenderer interface {
	Render(ctx context.Context, markdown string, meta reportpdf.Meta) ([]byte, error)
}

type Config struct {
	Rules     []gapscan.Rule
	Completer schemafix.Completer // nil disables generative features
	History   History
	Renderer  PDFRenderer
	UploadDir string
}

type Server struct {
	rules     []gapscan.Rule
	pipeline  *criteria.Pipeline
	enhancer  gapscan.Enhancer
	history   History
	renderer  PDFRenderer
	uploadDir string
}

func NewServer(cfg Config) http.Handler {
	s := &Server{
		rules:     cfg.Rules,
		pipeline:  criteria.NewPipeline(cfg.Completer),
		history:   cfg.History,
		renderer:  cfg.Renderer,
		uploadDir: cfg.UploadDir,
	}
	if cfg.Completer != nil {
		s.enhancer = criteria.NewRecommendationEnhancer(cfg.Completer)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("/v1/criteria", s.handleCriteria)
	mux.HandleFunc("/v1/queries", s.handleQueries)
	mux.HandleFunc("/v1/rules/categories", s.handleRuleCategories)
	mux.HandleFunc("/v1/rules", s.handleRules)
	mux.HandleFunc("/v1/analyses", s.handleAnalyses)
	mux.HandleFunc("/v1/report-pdf", s.handleReportPDF)
	mux.HandleFunc("/v1/health", s.handleHealth)
	return traced(mux)
}

// traced opens one span per request. With no exporter configured the
// global tracer is a no-op and this adds nothing.
func traced(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := telemetry.Tracer().Start(r.Context(), r.Method+" "+r.URL.Path)
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func writeResult(w http.ResponseWriter, filename string, result any) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"filename": filename,
		"result":   result,
	})
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// receiveDocument saves the multipart upload to a temp file, extracts and
// normalizes its text, and removes the file before returning. A false
// second return means the error response was already written.
func (s *Server) receiveDocument(w http.ResponseWriter, r *http.Request) (text, filename string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload or file larger than 50MB")
		return "", "", false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return "", "", false
	}
	defer file.Close()

	if !extract.Supported(header.Filename) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported file type %q; accepted: %s",
				filepath.Ext(header.Filename), strings.Join(extract.SupportedExtensions, ", ")))
		return "", "", false
	}

	tmp, err := os.CreateTemp(s.uploadDir, "upload-*"+strings.ToLower(filepath.Ext(header.Filename)))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not store the upload")
		return "", "", false
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, "could not store the upload")
		return "", "", false
	}
	tmp.Close()

	raw, err := extract.File(tmp.Name())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	text = textnorm.Clean(raw)
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "document contains no extractable text")
		return "", "", false
	}
	return text, header.Filename, true
}

func (s *Server) saveHistory(filename, kind string, score int, payload any) {
	if s.history == nil {
		return
	}
	if _, err := s.history.SaveAnalysis(filename, kind, score, payload); err != nil {
		log.Printf("history: save %s for %s: %v", kind, filename, err)
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	text, filename, ok := s.receiveDocument(w, r)
	if !ok {
		return
	}

	result := gapscan.Analyze(r.Context(), text, s.rules, gapscan.Options{
		Department:     strings.TrimSpace(r.FormValue("department")),
		CategoryFilter: strings.TrimSpace(r.FormValue("category")),
		Enhancer:       s.enhancer,
	})
	s.saveHistory(filename, store.KindAnalysis, result.CompletenessAssessment.OverallScore, result)
	writeResult(w, filename, result)
}

func (s *Server) handleCriteria(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	text, filename, ok := s.receiveDocument(w, r)
	if !ok {
		return
	}

	result, err := s.pipeline.ExtractCriteria(r.Context(), text)
	if err != nil {
		if errors.Is(err, criteria.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.saveHistory(filename, store.KindCriteria, 0, result)
	writeResult(w, filename, result)
}

func (s *Server) handleQueries(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	text, filename, ok := s.receiveDocument(w, r)
	if !ok {
		return
	}

	groups := s.pipeline.GroupQueries(r.Context(), text)
	s.saveHistory(filename, store.KindQueries, 0, groups)
	writeResult(w, filename, groups)
}

func (s *Server) handleRuleCategories(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	seen := map[string]bool{}
	var categories []string
	for _, rule := range s.rules {
		c := string(rule.Category)
		if !seen[c] {
			seen[c] = true
			categories = append(categories, c)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
		"total":      len(s.rules),
	})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	rules := s.rules
	if category != "" {
		rules = gapscan.RulesForCategory(s.rules, category)
	}
	if rules == nil {
		rules = []gapscan.Rule{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	if s.history == nil {
		writeError(w, http.StatusNotFound, "analysis history is disabled")
		return
	}
	limit := 50
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	records, err := s.history.Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []store.AnalysisRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": records})
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	if s.renderer == nil {
		writeError(w, http.StatusNotFound, "pdf rendering is disabled")
		return
	}
	var req struct {
		Filename string                 `json:"filename"`
		Result   gapscan.AnalysisResult `json:"result"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 4<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Result.ReportMarkdown) == "" {
		writeError(w, http.StatusBadRequest, "result.report_markdown is required")
		return
	}

	pdf, err := s.renderer.Render(r.Context(), req.Result.ReportMarkdown, reportpdf.Meta{
		Filename:   req.Filename,
		Title:      req.Result.DocumentInfo.Title,
		Department: req.Result.DocumentInfo.Department,
		Score:      req.Result.CompletenessAssessment.OverallScore,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("render pdf: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="tender-analysis.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
