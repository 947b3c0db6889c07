// Package httpapi exposes the engine to the platform event layer as JSON over
// HTTP. Every engine call takes the context id and player uuid as query
// parameters.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xtding233/offwork-lock/internal/errutil"
	"github.com/xtding233/offwork-lock/internal/offwork"
	"github.com/xtding233/offwork-lock/internal/wire"
)

// Server serves the engine routes plus /metrics and /healthz.
type Server struct {
	core     *offwork.Core
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	mux      *http.ServeMux
}

// New builds the route table. gatherer may be nil, in which case /metrics is
// not mounted.
func New(core *offwork.Core, logger *slog.Logger, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{core: core, logger: logger, gatherer: gatherer, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("GET /healthz", "healthz", s.handleHealth)
	s.handle("POST /v1/session/start", "session_start", s.handleSessionStart)
	s.handle("POST /v1/session/exit", "session_exit", s.handleSessionExit)
	s.handle("POST /v1/roll", "roll", s.handleRoll)
	s.handle("GET /v1/can_roll", "can_roll", s.handleCanRoll)
	s.handle("POST /v1/action", "action", s.handleAction)
	s.handle("POST /v1/exchange", "exchange", s.handleExchange)
	s.handle("GET /v1/status", "status", s.handleStatus)
	s.handle("GET /v1/hud", "hud", s.handleHUD)
	s.handle("GET /v1/screen", "screen", s.handleScreen)
	s.handle("GET /v1/exit_decision", "exit_decision", s.handleExitDecision)
	s.handle("GET /v1/rewards", "rewards", s.handleRewards)
	s.handle("POST /v1/config/reload", "config_reload", s.handleReload)
	if s.gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handle mounts h and counts its responses by status code.
func (s *Server) handle(pattern, name string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.core.Metrics().RecordRequest("http", name, strconv.Itoa(rec.status))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// playerParams reads context and player from the query string. context may
// be omitted; the store maps a blank context to its default file.
func playerParams(r *http.Request) (contextID string, id uuid.UUID, msg string) {
	q := r.URL.Query()
	s := q.Get("player")
	if s == "" {
		return "", uuid.Nil, "missing param player"
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", uuid.Nil, "invalid player"
	}
	return q.Get("context"), id, ""
}

// fail logs an engine error and answers 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	errutil.LogError(r.Context(), s.logger, op+" failed", err)
	writeJSON(w, http.StatusInternalServerError, wire.ErrResp{Err: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	ctxID, id, msg := playerParams(r)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	res, err := s.core.OnPlayerJoin(r.Context(), ctxID, id)
	if err != nil {
		s.fail(w, r, "session start", err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromStart(res))
}

func (s *Server) handleSessionExit(w http.ResponseWriter, r *http.Request) {
	ctxID, id, msg := playerParams(r)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if err := s.core.OnPlayerGracefulExit(r.Context(), ctxID, id); err != nil {
		s.fail(w, r, "session exit", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	ctxID, id, msg := playerParams(r)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	out, err := s.core.Rolls().Roll(r.Context(), ctxID, id)
	if err != nil {
		s.fail(w, r, "roll", err)
		return
	}
	// A refused roll is a normal answer, not a transport error.
	writeJSON(w, http.StatusOK, wire.FromOutcome(out))
}

func (s *Server) handleCanRoll(w http.ResponseWriter, r *http.Request) {
	ctxID, id, msg := playerParams(r)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	ok, err := s.core.Rolls().CanRoll(r.Context(), ctxID, id)
	if err != nil {
		s.fail(w, r, "can roll", err)
		return
	}
	writeJSON(w, http.StatusOK, wire.CanRollResp{CanRoll: ok})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	ctxID, id, msg := playerParams(r)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "missing param key", http.StatusBadRequest)
		return
	}
	res, err := s.core.Economy().HandleAction(r.Context(), ctxID, id, key)
	if err != nil {
		s.fail(w, r, "action", err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromAward(res))
}

func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	ctxID, id, msg := playerParams(r)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	var req wire.ExchangeReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	res, err := s.core.Economy().Exchange(r.Context(), ctxID, id, req.Counts)
	if err != nil {
		s.fail(w, r, "exchange", err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromExchange(res))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctxID, id, msg := playerParams(r)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	st, err := s.core.PlayerStatus(r.Context(), ctxID, id)
	if err != nil {
		s.fail(w, r, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleHUD(w http.ResponseWriter, r *http.Request) {
	ctxID, id, msg := playerParams(r)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	hud, err := s.core.Views().HUD(r.Context(), ctxID, id)
	if err != nil {
		s.fail(w, r, "hud", err)
		return
	}
	writeJSON(w, http.StatusOK, hud)
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	ctxID, id, msg := playerParams(r)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	scr, err := s.core.Views().Screen(r.Context(), ctxID, id)
	if err != nil {
		s.fail(w, r, "screen", err)
		return
	}
	writeJSON(w, http.StatusOK, scr)
}

func (s *Server) handleExitDecision(w http.ResponseWriter, r *http.Request) {
	ctxID, id, msg := playerParams(r)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	zone := r.URL.Query().Get("zone")
	if zone == "" {
		http.Error(w, "missing param zone", http.StatusBadRequest)
		return
	}
	d, err := s.core.ExitDecision(r.Context(), ctxID, id, zone)
	if err != nil {
		s.fail(w, r, "exit decision", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleRewards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, wire.FromDisplays(s.core.Rolls().RewardDisplays()))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.core.ReloadConfig(); err != nil {
		errutil.LogError(r.Context(), s.logger, "config reload failed", err)
		writeJSON(w, http.StatusUnprocessableEntity, wire.ErrResp{Err: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
