package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"spendcraft/internal/core"
	applog "spendcraft/internal/log"
)

// recordPayload is the wire form of a spending record.
type recordPayload struct {
	ID          int64  `json:"id,omitempty"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

func (p recordPayload) toRecord() (core.Record, error) {
	date, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Record{}, &core.ValidationError{Field: "date", Err: err}
	}
	amount, err := core.ParseAmount(p.Amount)
	if err != nil {
		return core.Record{}, &core.ValidationError{Field: "amount", Err: err}
	}
	return core.Record{
		Date:        date,
		Amount:      amount,
		Category:    p.Category,
		Description: p.Description,
		Priority:    core.Priority(p.Priority),
	}, nil
}

func payloadFrom(rec core.Record) recordPayload {
	return recordPayload{
		ID:          rec.ID,
		Date:        rec.Date.String(),
		Amount:      core.FormatAmount(rec.Amount),
		Category:    rec.Category,
		Description: rec.Description,
		Priority:    string(rec.Priority),
	}
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var payload recordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	rec, err := payload.toRecord()
	if err != nil {
		writeError(w, err)
		return
	}

	created, anomaly, err := s.ledger.CreateRecord(r.Context(), rec)
	if err != nil {
		writeError(w, err)
		return
	}
	s.summaryCache.Clear()

	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogRecordCreated(
		r.Context(), created.ID, created.Description, core.FormatAmount(created.Amount),
		created.Category, string(created.Priority))

	resp := struct {
		ID      int64             `json:"id"`
		Anomaly *core.AnomalyFlag `json:"anomaly,omitempty"`
	}{ID: created.ID, Anomaly: anomaly}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	records, err := s.ledger.ListRecords(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	payloads := make([]recordPayload, 0, len(records))
	for _, rec := range records {
		payloads = append(payloads, payloadFrom(rec))
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rec, err := s.ledger.GetRecord(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payloadFrom(rec))
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var payload recordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	rec, err := payload.toRecord()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.ledger.UpdateRecord(r.Context(), id, rec); err != nil {
		writeError(w, err)
		return
	}
	s.summaryCache.Clear()

	rec.ID = id
	writeJSON(w, http.StatusOK, payloadFrom(rec))
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := s.ledger.DeleteRecord(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.summaryCache.Clear()

	w.WriteHeader(http.StatusNoContent)
}

// handleCategories lists the default category labels with the priority tag
// each one carries. Clients use it to offer a label picker; records may
// still carry labels outside this set.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	type categoryPayload struct {
		Name     string `json:"name"`
		Priority string `json:"priority"`
	}

	payloads := make([]categoryPayload, 0, len(core.Categories))
	for _, name := range core.Categories {
		payloads = append(payloads, categoryPayload{
			Name:     name,
			Priority: string(core.DefaultPriority(name)),
		})
	}
	writeJSON(w, http.StatusOK, payloads)
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid record id %q", raw)
	}
	return id, nil
}
