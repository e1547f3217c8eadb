package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"spendcraft/internal/core"
)

// bucketPayload is the wire form of a summary bucket.
type bucketPayload struct {
	Label string `json:"label"`
	Total string `json:"total"`
	Count int    `json:"count"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	groupBy, err := parseGroupBy(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	key := fmt.Sprintf("%s|%s|%s", from, to, groupBy)
	buckets, found := s.summaryCache.Get(key)
	if !found {
		buckets, err = s.reports.Summarize(r.Context(), from, to, groupBy)
		if err != nil {
			writeError(w, err)
			return
		}
		s.summaryCache.Set(key, buckets)
	}

	payloads := make([]bucketPayload, 0, len(buckets))
	for _, b := range buckets {
		payloads = append(payloads, bucketPayload{
			Label: b.Label,
			Total: core.FormatAmount(b.Total),
			Count: b.Count,
		})
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	horizon := 0
	if v := strings.TrimSpace(r.URL.Query().Get("months")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid months %q", v)})
			return
		}
		horizon = n
	}

	points, err := s.reports.Forecast(r.Context(), horizon)
	if err != nil {
		writeError(w, err)
		return
	}

	type point struct {
		Month     string `json:"month"`
		Predicted string `json:"predicted"`
	}
	payloads := make([]point, 0, len(points))
	for _, p := range points {
		payloads = append(payloads, point{
			Month:     p.Date.Format("2006-01"),
			Predicted: core.FormatAmount(p.Predicted),
		})
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.reports.SuggestBudgets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	type budget struct {
		Category string `json:"category"`
		Limit    string `json:"limit"`
	}
	payloads := make([]budget, 0, len(suggestions))
	for _, sg := range suggestions {
		payloads = append(payloads, budget{
			Category: sg.Category,
			Limit:    core.FormatAmount(sg.Limit),
		})
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	cmp, err := s.reports.CompareMonths(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Current       string  `json:"current"`
		Previous      string  `json:"previous"`
		ChangePercent float64 `json:"change_percent"`
	}{
		Current:       core.FormatAmount(cmp.Current),
		Previous:      core.FormatAmount(cmp.Previous),
		ChangePercent: cmp.ChangePercent,
	})
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	points, err := s.reports.Trend(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	payloads := make([]bucketPayload, 0, len(points))
	for _, p := range points {
		payloads = append(payloads, bucketPayload{
			Label: p.Label,
			Total: core.FormatAmount(p.Total),
			Count: p.Count,
		})
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	flags, err := s.reports.Anomalies(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	type anomaly struct {
		RecordID int64   `json:"record_id"`
		Score    float64 `json:"score"`
	}
	payloads := make([]anomaly, 0, len(flags))
	for _, f := range flags {
		payloads = append(payloads, anomaly{RecordID: f.RecordID, Score: f.Score})
	}
	writeJSON(w, http.StatusOK, payloads)
}
