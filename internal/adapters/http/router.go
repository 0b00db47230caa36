package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-classifier/internal/config"
	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
	"github.com/kirillkom/document-classifier/internal/observability/metrics"
)

const (
	serviceName     = "classifier-api"
	uploadFieldName = "file"
	multipartMemory = 32 << 20
)

type Router struct {
	cfg        config.Config
	classifier ports.DocumentClassifier
	readiness  ports.ReadinessProbe
	metrics    *metrics.HTTPServerMetrics
	openAPI    []byte
}

func NewRouter(
	cfg config.Config,
	classifier ports.DocumentClassifier,
	readiness ports.ReadinessProbe,
	httpMetrics *metrics.HTTPServerMetrics,
	openAPI []byte,
) *Router {
	return &Router{
		cfg:        cfg,
		classifier: classifier,
		readiness:  readiness,
		metrics:    httpMetrics,
		openAPI:    openAPI,
	}
}

func (rt *Router) Handler() http.Handler {
	classify := recoverMiddleware(http.HandlerFunc(rt.classifyFile))
	classify = backpressureMiddleware(
		classify,
		rt.cfg.APIBackpressureMaxInFlight,
		time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond,
	)
	classify = rateLimitMiddleware(classify, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/readyz", rt.readyz)
	mux.HandleFunc("/openapi.json", rt.openAPIDocument)
	mux.Handle("/classify-file", classify)

	var handler http.Handler = mux
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) readyz(w http.ResponseWriter, r *http.Request) {
	if rt.readiness == nil || !rt.readiness.Refresh(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (rt *Router) openAPIDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if len(rt.openAPI) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "api description not loaded"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rt.openAPI)
}

func (rt *Router) classifyFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.cfg.APIMaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.APIMaxUploadBytes)
	}

	file, err := readUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}

	outcome, err := rt.classifier.Classify(r.Context(), file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// readUpload returns nil when the request carries no file part and an
// UploadedFile with an empty Filename when the part was sent without one.
func readUpload(r *http.Request) (*domain.UploadedFile, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	part, header, err := r.FormFile(uploadFieldName)
	if errors.Is(err, http.ErrMissingFile) {
		// multipart parses a part without a filename as a plain value.
		if _, ok := r.MultipartForm.Value[uploadFieldName]; ok {
			return &domain.UploadedFile{}, nil
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer part.Close()

	payload, err := io.ReadAll(part)
	if err != nil {
		return nil, err
	}

	return &domain.UploadedFile{
		Filename: header.Filename,
		MimeType: mediaType(header.Header.Get("Content-Type")),
		Payload:  payload,
	}, nil
}

// mediaType drops parameters but keeps the case the client sent, since the
// MIME comparison is exact.
func mediaType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(base)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
