package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/monitoring"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server exposes one editing engine over JSON endpoints. Handlers stay
// thin: they decode the request, call the engine, and encode the reply.
// Every interaction rule lives in the engine itself.
type Server struct {
	engine *mep.Engine

	// rev is the fallback item-list revision for gateways that do not
	// version their own writes. It may advance without an item change.
	rev atomic.Int64
}

func NewServer(e *mep.Engine) *Server {
	return &Server{engine: e}
}

// revisioner is satisfied by gateways that version their writes.
type revisioner interface{ Revision() int64 }

func (s *Server) revision() int64 {
	if r, ok := s.engine.Gateway().(revisioner); ok {
		return r.Revision()
	}
	return s.rev.Load()
}

func (s *Server) bumpRevision() {
	if _, ok := s.engine.Gateway().(revisioner); !ok {
		s.rev.Add(1)
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
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
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
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/mep/items", s.listItems)
	mux.HandleFunc("/api/mep/selection", s.showSelection)
	mux.HandleFunc("/api/mep/pointer", s.handlePointer)
	mux.HandleFunc("/api/mep/key", s.handleKey)
	mux.HandleFunc("/api/mep/wheel", s.handleWheel)
	mux.HandleFunc("/api/mep/orbit", s.handleOrbit)
	mux.HandleFunc("/api/mep/drag", s.handleDrag)
	mux.HandleFunc("/api/mep/frame", s.handleFrame)
	mux.HandleFunc("/api/mep/dimensions", s.updateDimensions)
	mux.HandleFunc("/api/mep/copy", s.copySelection)
	mux.HandleFunc("/api/mep/delete", s.deleteSelection)
	mux.HandleFunc("/api/mep/rack", s.handleRack)
	mux.HandleFunc("/api/mep/arrange", s.runArrange)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
