package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"spendcraft/internal/export"
	applog "spendcraft/internal/log"
	"spendcraft/internal/report"
)

func (s *Server) handleBuildReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	document, err := s.reports.BuildReport(r.Context(), from, to, format)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("spending-report-%s.%s", time.Now().Format("2006-01-02"), format)
	switch format {
	case report.FormatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
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

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="spending.csv"`)
	if err := export.WriteCSV(w, records); err != nil {
		// Headers are already out; the client gets a truncated file.
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(
			r.Context(), "CSV export failed mid-stream", err,
			applog.ComponentHTTP, applog.OpExport, applog.NewFields())
	}
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
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

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="spending.xlsx"`)
	if err := export.WriteXLSX(w, records); err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(
			r.Context(), "XLSX export failed mid-stream", err,
			applog.ComponentHTTP, applog.OpExport, applog.NewFields())
	}
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	count, err := s.ledger.ImportCSV(r.Context(), r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	s.summaryCache.Clear()

	writeJSON(w, http.StatusCreated, map[string]int{"imported": count})
}

// handleBackup downloads a consistent snapshot of the database file. The
// snapshot is buffered so a failed one still gets a proper error status.
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.ledger.BackupDatabase(r.Context(), &buf); err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("spendcraft-backup-%s.db", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.sqlite3")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleRestore replaces the ledger with an uploaded backup snapshot.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	count, err := s.ledger.RestoreDatabase(r.Context(), r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	s.summaryCache.Clear()

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Ledger restored from backup",
		applog.FieldOperation, applog.OpRestore,
		"records", count)
	writeJSON(w, http.StatusOK, map[string]int{"restored": count})
}

func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Retrain(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "retrained"})
}
