package httpapi

import (
	"net/http"
	"strings"
)

// SetupRouter sets up HTTP routes
func SetupRouter(handler *Handler) http.Handler {
	mux := http.NewServeMux()

	// GET /version
	mux.HandleFunc("/version", handler.GetVersion)

	// GET /status
	mux.HandleFunc("/status", handler.GetStatus)

	// POST /batches
	mux.HandleFunc("/batches", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			handler.CreateBatch(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// GET /batches/{batchId}/rows
	// POST /batches/{batchId}/stop
	mux.HandleFunc("/batches/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if strings.HasSuffix(path, "/rows") {
			handler.GetBatchRows(w, r)
		} else if strings.HasSuffix(path, "/stop") {
			handler.StopBatch(w, r)
		} else {
			http.Error(w, "Not found", http.StatusNotFound)
		}
	})

	// GET /reports/{fileId}
	// GET /reports/{fileId}/export
	mux.HandleFunc("/reports/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/export") {
			handler.ExportGroup(w, r)
		} else {
			handler.GetReport(w, r)
		}
	})

	return mux
}
