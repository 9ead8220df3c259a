package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/mission-orbit-sim/internal/intent"
	"github.com/signalsfoundry/mission-orbit-sim/internal/logging"
	"github.com/signalsfoundry/mission-orbit-sim/internal/observability"
	"github.com/signalsfoundry/mission-orbit-sim/model"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 64 << 10
	streamBuffer    = 8
	writeTimeout    = 5 * time.Second
)

// HTTPHandler serves the JSON and websocket surface.
type HTTPHandler struct {
	svc      *MissionService
	metrics  *observability.APICollector
	log      logging.Logger
	upgrader websocket.Upgrader
}

// NewRouter builds the HTTP routes. metrics may be nil, in which case
// /metrics serves the default registry.
func NewRouter(svc *MissionService, metrics *observability.APICollector, log logging.Logger) *mux.Router {
	if log == nil {
		log = logging.Noop()
	}
	h := &HTTPHandler{
		svc:     svc,
		metrics: metrics,
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	router := mux.NewRouter()
	router.Use(h.requestMiddleware)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	v1 := router.PathPrefix("/v1/missions").Subrouter()
	v1.HandleFunc("", h.listMissions).Methods(http.MethodGet)
	v1.HandleFunc("/{id}/snapshot", h.snapshot).Methods(http.MethodGet)
	v1.HandleFunc("/{id}/intent", h.applyIntent).Methods(http.MethodPost)
	v1.HandleFunc("/{id}/timescale", h.setTimeScale).Methods(http.MethodPost)
	v1.HandleFunc("/{id}/pause", h.pause).Methods(http.MethodPost)
	v1.HandleFunc("/{id}/resume", h.resume).Methods(http.MethodPost)
	v1.HandleFunc("/{id}/reset", h.reset).Methods(http.MethodPost)
	v1.HandleFunc("/{id}/stream", h.stream).Methods(http.MethodGet)
	return router
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.code = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// requestMiddleware attaches a request-scoped logger and counts responses
// by route template.
func (h *HTTPHandler) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get(requestIDHeader); id != "" {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		ctx, _ = logging.WithRequestLogger(ctx, h.log.With(
			logging.String("http_method", r.Method),
			logging.String("path", r.URL.Path),
		))
		w.Header().Set(requestIDHeader, logging.RequestIDFromContext(ctx))

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		h.metrics.ObserveHTTP(route, r.Method, rec.code)
	})
}

func (h *HTTPHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) listMissions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"missions": h.svc.Missions()})
}

func (h *HTTPHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *HTTPHandler) applyIntent(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(r.Context(), w, fmt.Errorf("%w: read body: %v", ErrInvalidRequest, err))
		return
	}
	cmd, err := intent.Decode(raw)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	res, err := h.svc.Apply(r.Context(), mux.Vars(r)["id"], cmd)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type timeScaleRequest struct {
	Multiplier *float64 `json:"multiplier"`
}

func (h *HTTPHandler) setTimeScale(w http.ResponseWriter, r *http.Request) {
	var req timeScaleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(r.Context(), w, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	if req.Multiplier == nil {
		h.writeError(r.Context(), w, fmt.Errorf("%w: multiplier is required", ErrInvalidRequest))
		return
	}
	ts, err := h.svc.SetTimeScale(mux.Vars(r)["id"], *req.Multiplier)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (h *HTTPHandler) pause(w http.ResponseWriter, r *http.Request) {
	h.writeTimeScale(w, r, h.svc.Pause)
}

func (h *HTTPHandler) resume(w http.ResponseWriter, r *http.Request) {
	h.writeTimeScale(w, r, h.svc.Resume)
}

func (h *HTTPHandler) writeTimeScale(w http.ResponseWriter, r *http.Request, op func(string) (model.TimeScale, error)) {
	ts, err := op(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (h *HTTPHandler) reset(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Reset(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// stream upgrades to a websocket and pushes one JSON snapshot per session
// update. Slow readers miss frames rather than stall the frame loop.
func (h *HTTPHandler) stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := h.svc.Session(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	log := logging.FromContext(ctx, h.log)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(ctx, "websocket upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()

	frames := make(chan model.Snapshot, streamBuffer)
	unsubscribe := sess.Subscribe(func(s model.Snapshot) {
		select {
		case frames <- s:
		default:
		}
	})
	defer unsubscribe()

	// Reading is required to notice the client closing the socket.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeFrame(conn, sess.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case snap := <-frames:
			if err := writeFrame(conn, snap); err != nil {
				log.Debug(ctx, "websocket write failed", logging.Err(err))
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, snap model.Snapshot) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(snap)
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		logging.FromContext(ctx, h.log).Error(ctx, "request failed", logging.Err(err))
	}
	writeJSON(w, code, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
