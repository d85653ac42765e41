// Package kujo serves a workspace over HTTP for a browser front end.
//
// State changes are pushed on the SSE stream "snapshot" at /events?stream=snapshot.
package kujo

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/r3labs/sse/v2"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/persist"
	"nyiyui.ca/hato/senro/piece"
	"nyiyui.ca/hato/senro/store"
	"nyiyui.ca/hato/senro/workspace"
)

const snapshotStream = "snapshot"

type Server struct {
	w       *workspace.Workspace
	st      *store.Store
	s       *sse.Server
	handler http.Handler
	done    chan struct{}
}

func NewServer(w *workspace.Workspace, st *store.Store, allowedOrigins []string) *Server {
	s := &Server{
		w:    w,
		st:   st,
		s:    sse.New(),
		done: make(chan struct{}),
	}
	s.s.AutoReplay = false
	s.s.CreateStream(snapshotStream)
	r := chi.NewRouter()
	r.Get("/events", s.s.ServeHTTP)
	r.Get("/pieces", s.handlePieces)
	r.Get("/snapshot", s.handleSnapshot)
	r.Post("/tool", s.handleSetTool)
	r.Delete("/tool", s.handleClearTool)
	r.Post("/tool/{action}", s.handleToolAction)
	r.Post("/hover", s.handleHover)
	r.Post("/place", s.handlePlace)
	r.Post("/reset", s.handleReset)
	r.Delete("/tracks/{id}", s.handleDeleteTrack)
	r.Get("/layout", s.handleGetLayout)
	r.Put("/layout", s.handlePutLayout)
	r.Get("/layouts", s.handleListLayouts)
	r.Post("/layouts", s.handleCreateLayout)
	r.Put("/layouts/{id}", s.handleSaveLayout)
	r.Delete("/layouts/{id}", s.handleDeleteLayout)
	r.Post("/layouts/{id}/open", s.handleOpenLayout)
	s.handler = cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}).Handler(r)
	go s.forward()
	return s
}

// Close stops forwarding snapshots and closes the event stream.
func (s *Server) Close() {
	close(s.done)
}

func (s *Server) forward() {
	defer s.s.Close()
	ch := make(chan workspace.Snapshot)
	s.w.SnapshotMux.Subscribe("kujo", ch)
	defer s.w.SnapshotMux.Unsubscribe(ch)
	var last uint64
	for {
		select {
		case <-s.done:
			return
		case snapshot := <-ch:
			if snapshot.Version <= last {
				continue
			}
			last = snapshot.Version
			data, err := json.Marshal(snapshotView(snapshot))
			if err != nil {
				zap.S().Errorw("marshal snapshot", "err", err)
				continue
			}
			s.s.TryPublish(snapshotStream, &sse.Event{
				Data: data,
			})
		}
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Debugw("write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handlePieces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pieceViews())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, snapshotView(s.w.Snapshot()))
}

type toolRequest struct {
	Type   string `json:"type"`
	Mirror bool   `json:"mirror"`
}

func (s *Server) handleSetTool(w http.ResponseWriter, r *http.Request) {
	var req toolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind, err := piece.ParseKind(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.w.SetTool(kind, req.Mirror)
	writeJSON(w, http.StatusOK, snapshotView(s.w.Snapshot()))
}

func (s *Server) handleClearTool(w http.ResponseWriter, r *http.Request) {
	s.w.ClearTool()
	writeJSON(w, http.StatusOK, snapshotView(s.w.Snapshot()))
}

func (s *Server) handleToolAction(w http.ResponseWriter, r *http.Request) {
	var ok bool
	switch action := chi.URLParam(r, "action"); action {
	case "mirror":
		ok = s.w.ToggleMirror()
	case "anchor":
		ok = s.w.CycleAnchor()
	case "alternate":
		ok = s.w.Alternate()
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown tool action %q", action))
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, errors.New("tool unchanged"))
		return
	}
	writeJSON(w, http.StatusOK, snapshotView(s.w.Snapshot()))
}

type hoverRequest struct {
	Position point `json:"position"`
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req hoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	snapshot := s.w.Hover(req.Position.vec())
	if snapshot.Ghost == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ghost": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ghost": ghostView(snapshot.Layout, *snapshot.Ghost)})
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	id, ok := s.w.Place()
	if !ok {
		writeError(w, http.StatusConflict, errors.New("placement rejected"))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]layout.TrackID{"id": id})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.w.Reset()
	writeJSON(w, http.StatusOK, snapshotView(s.w.Snapshot()))
}

func (s *Server) handleDeleteTrack(w http.ResponseWriter, r *http.Request) {
	id := layout.TrackID(chi.URLParam(r, "id"))
	if !s.w.Delete(id) {
		writeError(w, http.StatusNotFound, fmt.Errorf("track %s not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetLayout returns the whole layout in saved form.
func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	y := s.w.Snapshot().Layout
	etag := fmt.Sprintf(`"%x"`, persist.Fingerprint(y))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	writeJSON(w, http.StatusOK, persist.Serialize(y))
}

// handlePutLayout replaces the whole layout. A layout that doesn't load leaves the current one.
func (s *Server) handlePutLayout(w http.ResponseWriter, r *http.Request) {
	var islands []persist.Island
	if err := json.NewDecoder(r.Body).Decode(&islands); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.w.Load(islands); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotView(s.w.Snapshot()))
}

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	entries, err := s.st.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleCreateLayout saves the current layout under a new ID.
func (s *Server) handleCreateLayout(w http.ResponseWriter, r *http.Request) {
	id, err := s.st.Create(s.w.Snapshot().Layout)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": id})
}

func layoutID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("layout ID: %w", err))
		return uuid.UUID{}, false
	}
	return id, true
}

// handleSaveLayout saves the current layout under an existing or chosen ID.
func (s *Server) handleSaveLayout(w http.ResponseWriter, r *http.Request) {
	id, ok := layoutID(w, r)
	if !ok {
		return
	}
	sum, err := s.st.Save(id, s.w.Snapshot().Layout)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Entry{ID: id, Sum: sum})
}

func (s *Server) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	id, ok := layoutID(w, r)
	if !ok {
		return
	}
	if err := s.st.Delete(id); errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOpenLayout loads a saved layout into the workspace.
func (s *Server) handleOpenLayout(w http.ResponseWriter, r *http.Request) {
	id, ok := layoutID(w, r)
	if !ok {
		return
	}
	y, _, err := s.st.Load(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	} else if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.w.SetLayout(y)
	writeJSON(w, http.StatusOK, snapshotView(s.w.Snapshot()))
}
