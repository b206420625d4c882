// Package api exposes the serving surface: daily predictions, per-user
// history, cycle statistics and data-deletion endpoints.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/lunaria-health/innerweather/internal/history"
	"github.com/lunaria-health/innerweather/internal/httputil"
	"github.com/lunaria-health/innerweather/internal/predict"
	"github.com/lunaria-health/innerweather/internal/security"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	hist      *history.DB
	predictor *predict.Predictor

	// DefaultHistoryDays is how many days /api/history returns when the
	// request does not say.
	DefaultHistoryDays int
}

func NewServer(hist *history.DB, predictor *predict.Predictor) *Server {
	return &Server{
		hist:               hist,
		predictor:          predictor,
		DefaultHistoryDays: 21,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/predict", s.predictDay)
	mux.HandleFunc("/api/history", s.userHistory)
	mux.HandleFunc("/api/history/stats", s.cycleStats)
	mux.HandleFunc("/api/users", s.listUsers)
	mux.HandleFunc("/api/users/delete", s.deleteUser)
	mux.HandleFunc("/api/users/export", s.exportUser)
	mux.HandleFunc("/healthz", s.health)
	return mux
}

// predictRequest is the wire form of one day's submitted features. LH may be
// omitted; it is then estimated.
type predictRequest struct {
	UserID          string    `json:"user_id"`
	Date            string    `json:"date"`
	RMSSDMean       float64   `json:"rmssd_mean"`
	WristTempMean   float64   `json:"wrist_temp_mean"`
	Estrogen        float64   `json:"estrogen"`
	PDG             float64   `json:"pdg"`
	LH              *float64  `json:"lh,omitempty"`
	StressScoreMean float64   `json:"stress_score_mean"`
	OxygenRatioMean float64   `json:"oxygen_ratio_mean"`
	DayInStudy      float64   `json:"day_in_study"`
	Coverage        []float64 `json:"coverage,omitempty"`
}

func (s *Server) predictDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.UserID == "" || req.Date == "" {
		httputil.BadRequest(w, "user_id and date are required")
		return
	}

	pred, err := s.predictor.Predict(predict.Input{
		UserID:          req.UserID,
		Date:            req.Date,
		RMSSDMean:       req.RMSSDMean,
		WristTempMean:   req.WristTempMean,
		Estrogen:        req.Estrogen,
		PDG:             req.PDG,
		LH:              req.LH,
		StressScoreMean: req.StressScoreMean,
		OxygenRatioMean: req.OxygenRatioMean,
		DayInStudy:      req.DayInStudy,
	}, req.Coverage)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Prediction failed: %v", err))
		return
	}

	httputil.WriteJSONOK(w, pred)
}

func (s *Server) userHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	userID := r.URL.Query().Get("user")
	if userID == "" {
		httputil.BadRequest(w, "Missing 'user' parameter")
		return
	}

	days := s.DefaultHistoryDays
	if d := r.URL.Query().Get("days"); d != "" {
		parsedDays, err := strconv.Atoi(d)
		if err != nil || parsedDays < 1 {
			httputil.BadRequest(w, "Invalid 'days' parameter")
			return
		}
		days = parsedDays
	}

	entries, err := s.hist.History(userID, days)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve history: %v", err))
		return
	}

	httputil.WriteJSONOK(w, entries)
}

func (s *Server) cycleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	userID := r.URL.Query().Get("user")
	if userID == "" {
		httputil.BadRequest(w, "Missing 'user' parameter")
		return
	}

	stats, err := s.hist.Stats(userID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to compute cycle stats: %v", err))
		return
	}

	httputil.WriteJSONOK(w, stats)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	users, err := s.hist.AllUsers()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list users: %v", err))
		return
	}

	httputil.WriteJSONOK(w, users)
}

// deleteUser removes all stored days for a user. POST rather than DELETE so
// plain form submissions from the consent flow can call it.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	userID := r.FormValue("user")
	if userID == "" {
		httputil.BadRequest(w, "Missing 'user' parameter")
		return
	}

	removed, err := s.hist.DeleteUser(userID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to delete user: %v", err))
		return
	}

	httputil.WriteJSONOK(w, map[string]int{"deleted_days": removed})
}

// exportUser hands the user their stored data as a JSON download. The export
// goes through a temp file the user ID never touches; the ID is sanitized
// before it appears in the download filename.
func (s *Server) exportUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	userID := r.URL.Query().Get("user")
	if userID == "" {
		httputil.BadRequest(w, "Missing 'user' parameter")
		return
	}

	// Per-request temp file: concurrent exports for the same user must not
	// share a path, or one request's cleanup races another's download.
	tmp, err := os.CreateTemp("", "export-*.json")
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to create export file: %v", err))
		return
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := security.ValidateExportPath(path); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("Invalid export path: %v", err))
		return
	}

	if err := s.hist.ExportUser(userID, path); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to export user data: %v", err))
		return
	}

	name := security.SanitizeFilename(userID) + "-export.json"
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	http.ServeFile(w, r, path)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}
