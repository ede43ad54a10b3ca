package handlers

import (
	"net/http"
	"path"
	"strconv"
	"strings"

	"jirai-backend/internal/interfaces/http/dto"
	"jirai-backend/internal/service/attachment"
	"jirai-backend/internal/service/session"
	"jirai-backend/pkg/api"
	appErrors "jirai-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
)

// uploadFile takes the raw file as the request body. The name comes from
// ?name= and the type from Content-Type.
func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	if h.deps.Attachments == nil {
		h.handleServiceError(w, r, appErrors.NewUnavailable("attachments are disabled", nil))
		return
	}
	if r.ContentLength <= 0 {
		api.Error(w, http.StatusLengthRequired, "Content-Length is required")
		return
	}
	if limit := h.deps.MaxUploadSize; limit > 0 && r.ContentLength > limit {
		api.Error(w, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "file"
	}
	body := http.MaxBytesReader(w, r.Body, r.ContentLength)

	h.withSession(w, r, func(s *session.Session) error {
		n, err := h.deps.Attachments.Attach(r.Context(), s.UserID, s.Graph, attachment.Upload{
			NodeID:      chi.URLParam(r, "nodeID"),
			FileName:    path.Base(name),
			ContentType: r.Header.Get("Content-Type"),
			Size:        r.ContentLength,
			Body:        body,
		})
		if err != nil {
			return err
		}
		api.Success(w, http.StatusOK, dto.MutationResponse{Applied: true, Node: &n})
		return nil
	})
}

// objectReader is implemented by the in-memory attachment store.
type objectReader interface {
	Object(key string) ([]byte, string, bool)
}

// ServeObjects serves attachments kept in process memory under the path
// prefix the store's URLs point at.
func ServeObjects(store objectReader, prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, prefix+"/")
		data, contentType, ok := store.Object(key)
		if !ok {
			api.Error(w, http.StatusNotFound, "attachment not found")
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, _ = w.Write(data)
	}
}
