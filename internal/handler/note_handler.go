package handler

import (
	"log"
	"net/http"
	"strings"

	"keep-gateway/internal/service"
	"keep-gateway/pkg/response"
)

type NoteHandler struct {
	notes *service.NoteService
}

func NewNoteHandler(notes *service.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// List handles GET /api/notes. Query parameters: sync, trashed, archived
// (all default false).
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := service.ListOptions{
		Sync:            boolParam(r, "sync"),
		IncludeTrashed:  boolParam(r, "trashed"),
		IncludeArchived: boolParam(r, "archived"),
	}

	notes, err := h.notes.List(r.Context(), opts)
	if err != nil {
		log.Printf("list notes failed: %v", err)
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, map[string]interface{}{"notes": notes})
}

// Sync handles POST /api/notes/sync, the frontend's manual refresh button.
func (h *NoteHandler) Sync(w http.ResponseWriter, r *http.Request) {
	log.Printf("manual sync requested")
	if err := h.notes.ForceSync(r.Context()); err != nil {
		log.Printf("manual sync failed: %v", err)
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, map[string]string{"status": "synced"})
}

func boolParam(r *http.Request, name string) bool {
	return strings.EqualFold(r.URL.Query().Get(name), "true")
}
