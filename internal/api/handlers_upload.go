package api

import (
	"encoding/json"
	"net/http"

	"github.com/terandy/canvas-print-shop-sub000/internal/httpkit"
)

// CreateUpload handles POST /api/upload with body {"content_type": ...}.
// It returns a presigned PUT target, the public URL the object will have,
// and the upload sequence number the client echoes back on completion.
func (h *Handler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	var req struct {
		ContentType string `json:"content_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpkit.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ContentType == "" {
		httpkit.Error(w, http.StatusUnprocessableEntity, "content_type is required")
		return
	}

	target, err := h.blobs.CreateUploadTarget(r.Context(), req.ContentType)
	if err != nil {
		h.logger.Error("creating upload target", "err", err)
		httpkit.Error(w, http.StatusBadGateway, "object storage unavailable")
		return
	}

	seq := sess.Config.BeginUpload()
	httpkit.JSON(w, http.StatusOK, map[string]any{
		"upload_url": target.UploadURL,
		"public_url": target.PublicURL,
		"sequence":   seq,
	})
}

// CompleteUpload handles POST /api/upload/complete with body
// {"sequence": ..., "image_url": ...}. Only the most recently initiated
// upload may set the configuration's image; stale completions are discarded
// so a slow first upload cannot clobber a faster second one.
func (h *Handler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	var req struct {
		Sequence uint64 `json:"sequence"`
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpkit.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ImageURL == "" {
		httpkit.Error(w, http.StatusUnprocessableEntity, "image_url is required")
		return
	}

	if _, ok := sess.Config.CompleteUpload(r.Context(), req.Sequence, req.ImageURL); !ok {
		httpkit.Error(w, http.StatusConflict, "upload superseded by a newer one")
		return
	}

	httpkit.JSON(w, http.StatusOK, h.configResponse(sess))
}
