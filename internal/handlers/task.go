package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"kanban/internal/models"
	"kanban/internal/store"
)

const maxBodyBytes = 1 << 20

func decodeRecord(r *http.Request) (*models.Record, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	var rec models.Record
	if err := sonic.Unmarshal(body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListTasks returns the live tasks of a user.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	token, err := parseID(r, "token")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user token")
		return
	}

	records, err := h.store.ListTasksByUser(r.Context(), token)
	if err != nil {
		h.respondServerError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, records)
}

// CreateTask stores a new task. A zero index lets the service pick one.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := rec.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.CreateTask(r.Context(), rec); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		h.respondServerError(w, r, err)
		return
	}

	h.log.WithField("index", rec.Index).Debug("task created")
	h.respondJSON(w, r, http.StatusCreated, rec)
}

// UpdateTask replaces the task with the index given in the body.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if rec.Index == 0 {
		respondError(w, http.StatusBadRequest, "index is required")
		return
	}

	if err := rec.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateTask(r.Context(), rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "task not found")
			return
		}
		h.respondServerError(w, r, err)
		return
	}

	stored, err := h.store.GetTask(r.Context(), rec.Index)
	if err != nil {
		h.respondServerError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, stored)
}

// DeleteTask deletes a task.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	index, err := parseID(r, "index")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task index")
		return
	}

	if err := h.store.DeleteTask(r.Context(), index); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "task not found")
			return
		}
		h.respondServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Task deleted"))
}

// Health reports that the service is up.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
