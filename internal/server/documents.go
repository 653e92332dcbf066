package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/knowhub/knowhub-go/internal/docindex"
	"github.com/knowhub/knowhub-go/internal/logging"
)

// maxUploadBytes caps multipart uploads at 32 MiB.
const maxUploadBytes = 32 << 20

// handleUpload handles POST /documents/upload. The multipart "file" part is
// stored under its base filename; identical content is detected by sha256.
// Ingestion runs after the store succeeds and is best-effort: an embedding
// or vector-store failure is logged but the upload still reports success.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file part is required", http.StatusBadRequest)
		return
	}
	defer part.Close()

	data, err := io.ReadAll(io.LimitReader(part, maxUploadBytes))
	if err != nil {
		http.Error(w, "could not read file", http.StatusBadRequest)
		return
	}

	status, meta, err := s.deps.Docs.Save(header.Filename, data)
	if err != nil {
		log.Error("upload failed", slog.String("filename", header.Filename), slog.Any("error", err))
		http.Error(w, "could not store file", http.StatusInternalServerError)
		return
	}

	s.ingestStored(r, meta.Filename)

	writeJSON(w, r, http.StatusOK, uploadResponse{Status: status, File: meta})
}

// handleUploadURL handles POST /documents/upload-url. The URL content is not
// fetched; a placeholder noting the origin is stored instead. Fetching is
// tracked as a followup once outbound network policy for the service is
// settled.
func (s *Server) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req uploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	name := docindex.FilenameFromURL(req.URL)
	content := fmt.Sprintf("Imported from URL: %s\n", req.URL)

	status, meta, err := s.deps.Docs.Save(name, []byte(content))
	if err != nil {
		log.Error("upload-url failed", slog.String("url", req.URL), slog.Any("error", err))
		http.Error(w, "could not store file", http.StatusInternalServerError)
		return
	}

	s.ingestStored(r, meta.Filename)

	writeJSON(w, r, http.StatusOK, uploadResponse{Status: status, File: meta})
}

// handleList handles GET /documents.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Docs.List()
	if err != nil {
		logging.FromContext(r.Context()).Error("document listing failed", slog.Any("error", err))
		http.Error(w, "could not list documents", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []docindex.ListItem{}
	}
	writeJSON(w, r, http.StatusOK, listResponse{Items: items})
}

// handleCheck handles GET /documents/check?name=.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, r, http.StatusOK, checkResponse{Exists: s.deps.Docs.Exists(name)})
}

// handleReingest handles POST /documents/reingest: every stored document is
// re-chunked, re-embedded, and upserted. Per-file failures are logged and
// skipped so one bad file never blocks the rest.
func (s *Server) handleReingest(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	paths, err := s.deps.Docs.Files()
	if err != nil {
		log.Error("reingest listing failed", slog.Any("error", err))
		http.Error(w, "could not list documents", http.StatusInternalServerError)
		return
	}

	owner := identityFromContext(r.Context())
	ingested := 0
	for _, path := range paths {
		chunks, err := s.deps.Ingester.IngestFile(r.Context(), path, owner)
		if err != nil {
			log.Warn("reingest failed for file", slog.String("path", path), slog.Any("error", err))
			continue
		}
		s.metrics.ingestedChunksTotal.Add(float64(chunks))
		ingested++
	}

	log.Info("reingest complete", slog.Int("files", ingested))
	writeJSON(w, r, http.StatusOK, reingestResponse{Ingested: ingested})
}

// handleDelete handles DELETE /documents/{filename}. Vector cleanup and the
// file removal are best-effort; only a failure to persist the updated index
// is reported, since that would leave a phantom listing.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	filename := r.PathValue("filename")
	if filename == "" {
		http.Error(w, "filename is required", http.StatusBadRequest)
		return
	}

	if s.deps.Vectors != nil {
		if err := s.deps.Vectors.DeleteBySource(r.Context(), s.deps.Docs.Path(filename)); err != nil {
			log.Warn("vector cleanup failed", slog.String("filename", filename), slog.Any("error", err))
		}
	}

	if err := s.deps.Docs.Delete(filename); err != nil {
		log.Error("index update failed", slog.String("filename", filename), slog.Any("error", err))
		http.Error(w, "could not update index", http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, okResponse{OK: true})
}

// ingestStored runs ingestion for a freshly stored document. Failures are
// logged and swallowed so the upload itself still reports success.
func (s *Server) ingestStored(r *http.Request, filename string) {
	if s.deps.Ingester == nil {
		return
	}
	log := logging.FromContext(r.Context())
	path := s.deps.Docs.Path(filename)
	chunks, err := s.deps.Ingester.IngestFile(r.Context(), path, identityFromContext(r.Context()))
	if err != nil {
		log.Warn("ingest after upload failed", slog.String("path", path), slog.Any("error", err))
		return
	}
	s.metrics.ingestedChunksTotal.Add(float64(chunks))
	log.Info("document ingested", slog.String("path", path), slog.Int("chunks", chunks))
}
