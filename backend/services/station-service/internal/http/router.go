package httpserver

import (
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"cdm/backend/services/station-service/internal/auth"
	"cdm/backend/services/station-service/internal/http/handlers"
	"cdm/backend/services/station-service/internal/http/middleware"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	AuthHandlers        *handlers.AuthHandlers
	StationsHandlers    *handlers.StationsHandlers
	FaultCausesHandlers *handlers.FaultCausesHandlers
	HistoryHandlers     *handlers.HistoryHandlers
	HealthHandler       http.HandlerFunc
	MetricsHandler      http.Handler
	Resolver            middleware.ActorResolver
	Logger              *zap.Logger
}

// NewRouter wires HTTP routes with per-operation access checks.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	guard := func(op auth.Operation, handler http.HandlerFunc) http.Handler {
		return middleware.Authorize(deps.Resolver, op, deps.Logger)(handler)
	}

	mux.Handle("/health", method(http.MethodGet, deps.HealthHandler))
	if deps.MetricsHandler != nil {
		mux.Handle("/metrics", method(http.MethodGet, deps.MetricsHandler))
	}

	mux.Handle("/api/auth/login", method(http.MethodPost, http.HandlerFunc(deps.AuthHandlers.Login)))
	mux.Handle("/api/auth/logout", method(http.MethodPost, http.HandlerFunc(deps.AuthHandlers.Logout)))
	mux.Handle("/api/auth/me", method(http.MethodGet, guard(auth.OpMe, deps.AuthHandlers.Me)))

	stations := deps.StationsHandlers
	mux.Handle("/api/stations", methods(map[string]http.Handler{
		http.MethodGet:  guard(auth.OpListStations, stations.List),
		http.MethodPost: guard(auth.OpCreateStation, stations.Create),
	}))
	mux.Handle("/api/stations/{id}", methods(map[string]http.Handler{
		http.MethodPut:    guard(auth.OpTransitionStation, stations.Transition),
		http.MethodPatch:  guard(auth.OpTransitionStation, stations.Transition),
		http.MethodDelete: guard(auth.OpDeleteStation, stations.Delete),
	}))
	mux.Handle("/api/stations/{id}/history", method(http.MethodGet, guard(auth.OpStationHistory, stations.History)))

	causes := deps.FaultCausesHandlers
	mux.Handle("/api/fault-causes", methods(map[string]http.Handler{
		http.MethodGet:  guard(auth.OpListFaultCauses, causes.List),
		http.MethodPost: guard(auth.OpCreateFaultCause, causes.Create),
	}))

	history := deps.HistoryHandlers
	mux.Handle("/api/history/me", method(http.MethodGet, guard(auth.OpOwnHistory, history.Me)))
	mux.Handle("/api/history/actors/{id}", method(http.MethodGet, guard(auth.OpActorHistory, history.Actor)))

	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return methods(map[string]http.Handler{expected: handler})
}

func methods(byMethod map[string]http.Handler) http.Handler {
	allowed := make([]string, 0, len(byMethod))
	for m := range byMethod {
		allowed = append(allowed, m)
	}
	slices.Sort(allowed)
	allow := strings.Join(allowed, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := byMethod[r.Method]
		if !ok {
			w.Header().Set("Allow", allow)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
