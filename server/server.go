// Package server exposes the generation pipeline over HTTP: a multipart
// generate endpoint that streams back the assembled deck, plus health,
// metrics, and an embedded form page.
package server

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"presentify/config"
	"presentify/deck"
	"presentify/outline"
)

//go:embed web/index.html
var webFS embed.FS

const (
	outputFilename  = "presentify_output.pptx"
	pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

	// in-memory budget for multipart parsing; bigger uploads spill to disk
	formMemoryLimit = 4 << 20
)

// Error kinds of the structured error document.
const (
	kindInvalidRequest     = "InvalidRequest"
	kindTemplateUnreadable = "TemplateUnreadable"
	kindAssemblyFailed     = "AssemblyFailed"
)

type errorDoc struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Server handles generation requests. It is stateless between requests;
// everything a request needs arrives with the request or from the immutable
// configuration.
type Server struct {
	cfg     config.Config
	gen     *outline.Generator
	logger  *zap.Logger
	metrics *metrics
}

func New(cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		gen:     outline.NewGenerator(cfg),
		logger:  logger,
		metrics: newMetrics(),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	r.Post("/api/generate", s.handleGenerate)
	return enableCORS(requestLog(s.logger, r))
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}` + "\n"))
}

// handleGenerate runs the whole pipeline for one request: form validation,
// template gate, inventory, outline, assembly. The template gate runs before
// any provider work so a bad upload never costs a model call.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Limits.MaxTemplateBytes+formMemoryLimit)
	if err := r.ParseMultipartForm(formMemoryLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusBadRequest, kindTemplateUnreadable,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, http.StatusBadRequest, kindInvalidRequest, "could not parse multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	text := strings.TrimSpace(r.FormValue("text"))
	if text == "" {
		s.writeError(w, http.StatusBadRequest, kindInvalidRequest, "text is required")
		return
	}

	provider := strings.ToLower(strings.TrimSpace(r.FormValue("provider")))
	switch provider {
	case "", "none", "openai", "anthropic", "gemini":
	default:
		s.writeError(w, http.StatusBadRequest, kindInvalidRequest, fmt.Sprintf("unknown provider %q", provider))
		return
	}

	template, err := s.readTemplate(r)
	if err != nil {
		s.metrics.generated.WithLabelValues("none", "template_error").Inc()
		s.writeError(w, http.StatusBadRequest, kindTemplateUnreadable, err.Error())
		return
	}

	inspectStart := time.Now()
	inventory, err := deck.Inspect(template, s.cfg.Limits.MaxTemplateBytes)
	s.metrics.stageTime.WithLabelValues("inspect").Observe(time.Since(inspectStart).Seconds())
	if err != nil {
		s.metrics.generated.WithLabelValues("none", "template_error").Inc()
		s.writeError(w, http.StatusBadRequest, kindTemplateUnreadable, err.Error())
		return
	}

	settings := s.resolveSettings(r, provider)

	outlineStart := time.Now()
	slides, source, genErr := s.gen.Generate(r.Context(), outline.Request{
		Text:      text,
		Guidance:  strings.TrimSpace(r.FormValue("guidance")),
		Settings:  settings,
		WithNotes: parseBool(r.FormValue("notes")),
	})
	s.metrics.stageTime.WithLabelValues("outline").Observe(time.Since(outlineStart).Seconds())
	if genErr != nil {
		s.logger.Warn("provider failed, outline built by fallback",
			zap.String("provider", settings.Provider),
			zap.Error(genErr),
		)
	}

	assembleStart := time.Now()
	data, err := deck.Assemble(slides, inventory, template)
	s.metrics.stageTime.WithLabelValues("assemble").Observe(time.Since(assembleStart).Seconds())
	if err != nil {
		s.metrics.generated.WithLabelValues(source, "assembly_error").Inc()
		s.writeError(w, http.StatusInternalServerError, kindAssemblyFailed, err.Error())
		return
	}
	s.metrics.generated.WithLabelValues(source, "ok").Inc()

	w.Header().Set("Content-Type", pptxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+outputFilename+`"`)
	w.Header().Set("X-Outline-Source", source)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// readTemplate pulls the optional upload out of the form. A missing file is
// fine; a present file must carry a pptx/potx extension and fit the cap.
func (s *Server) readTemplate(r *http.Request) ([]byte, error) {
	file, header, err := r.FormFile("template")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("template upload: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pptx" && ext != ".potx" {
		return nil, fmt.Errorf("template must be a .pptx or .potx file, got %q", header.Filename)
	}
	if header.Size > s.cfg.Limits.MaxTemplateBytes {
		return nil, fmt.Errorf("template is %d bytes, cap is %d", header.Size, s.cfg.Limits.MaxTemplateBytes)
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.Limits.MaxTemplateBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	if int64(len(data)) > s.cfg.Limits.MaxTemplateBytes {
		return nil, fmt.Errorf("template exceeds the %d byte cap", s.cfg.Limits.MaxTemplateBytes)
	}
	return data, nil
}

// resolveSettings merges the request's provider fields over the configured
// defaults. Config model, base URL, and env key apply only when the request
// targets the configured provider; a key sent with the request always wins.
// The resolved key lives only in the returned value for this request.
func (s *Server) resolveSettings(r *http.Request, provider string) outline.Settings {
	cfgLLM := s.cfg.LLM
	if provider == "" {
		provider = cfgLLM.Provider
	}
	settings := outline.Settings{
		Provider: provider,
		Model:    strings.TrimSpace(r.FormValue("model")),
		APIKey:   strings.TrimSpace(r.FormValue("api_key")),
	}
	if provider == cfgLLM.Provider {
		if settings.Model == "" {
			settings.Model = cfgLLM.Model
		}
		if settings.APIKey == "" {
			settings.APIKey = cfgLLM.APIKey()
		}
		settings.BaseURL = cfgLLM.BaseURL
	}
	return settings
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorDoc{Error: errorBody{Kind: kind, Message: message}})
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
