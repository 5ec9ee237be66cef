package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/strongholdapp/docsync/internal/api"
	"github.com/strongholdapp/docsync/internal/logging"
	"github.com/strongholdapp/docsync/internal/server/services"
)

type handler struct {
	users       *services.UserService
	documents   *services.DocumentService
	attachments *services.AttachmentService
	logger      logging.Logger
}

func decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func (h *handler) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.PingResponse{Status: "ok"})
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !decode(r, &req) || req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}
	if _, err := h.users.Register(r.Context(), req.Username, req.Password); err != nil {
		h.logger.Warn(r.Context(), "registration failed", "username", req.Username, "error", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !decode(r, &req) || req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}
	pair, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn(r.Context(), "login failed", "username", req.Username, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req api.RefreshRequest
	if !decode(r, &req) || req.RefreshToken == "" {
		writeBadRequest(w, "refresh_token is required")
		return
	}
	pair, err := h.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *handler) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *handler) upsertDocument(w http.ResponseWriter, r *http.Request) {
	var doc api.Document
	if !decode(r, &doc) {
		writeBadRequest(w, "malformed document")
		return
	}
	doc.ID = r.PathValue("id")
	if err := h.documents.Upsert(r.Context(), userID(r), doc); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) query(w http.ResponseWriter, r *http.Request) {
	var req api.QueryRequest
	if !decode(r, &req) {
		writeBadRequest(w, "malformed query")
		return
	}
	resp, err := h.documents.Query(r.Context(), userID(r), req)
	if err != nil {
		h.logger.Warn(r.Context(), "query failed", "source", req.Source, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) upsertDevice(w http.ResponseWriter, r *http.Request) {
	var dev api.Device
	if !decode(r, &dev) {
		writeBadRequest(w, "malformed device")
		return
	}
	dev.DeviceID = r.PathValue("id")
	if err := h.documents.UpsertDevice(r.Context(), userID(r), dev); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) referencePack(w http.ResponseWriter, r *http.Request) {
	jurisdiction := r.URL.Query().Get("jurisdiction")
	if jurisdiction == "" {
		writeBadRequest(w, "jurisdiction is required")
		return
	}
	pack, err := h.documents.ReferencePack(r.Context(), jurisdiction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pack)
}

func (h *handler) presignPut(w http.ResponseWriter, r *http.Request) {
	key, url, err := h.attachments.GetPresignedPutUrl(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "presign put failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.PresignPutResponse{Key: key, URL: url})
}

func (h *handler) presignGet(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeBadRequest(w, "key is required")
		return
	}
	url, err := h.attachments.GetPresignedGetUrl(r.Context(), key)
	if err != nil {
		h.logger.Error(r.Context(), "presign get failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.PresignGetResponse{URL: url})
}
