package sky

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/saaga0h/jeeves-sky/internal/theme"
	"github.com/saaga0h/jeeves-sky/pkg/redis"
)

const (
	defaultListLimit = 20
	maxListLimit     = 500
)

// API serves sky theme state over HTTP
type API struct {
	agent  *Agent
	logger *slog.Logger
}

// NewAPI creates the HTTP API for an agent
func NewAPI(agent *Agent, logger *slog.Logger) *API {
	return &API{
		agent:  agent,
		logger: logger,
	}
}

// currentResponse is the body of GET /api/sky/{location}
type currentResponse struct {
	*ThemeState
	Style Style `json:"style"`
}

// resolveResponse is the body of GET /api/resolve
type resolveResponse struct {
	theme.Result
	Minutes int   `json:"minutes"`
	Style   Style `json:"style"`
}

// RegisterRoutes adds the sky routes to mux
func (api *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sky/{location}", api.handleCurrent)
	mux.HandleFunc("GET /api/sky/{location}/history", api.handleHistory)
	mux.HandleFunc("GET /api/sky/{location}/transitions", api.handleTransitions)
	mux.HandleFunc("GET /api/resolve", api.handleResolve)
}

func (api *API) handleCurrent(w http.ResponseWriter, r *http.Request) {
	location := r.PathValue("location")

	state, err := api.agent.Storage().LoadState(r.Context(), location)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			api.writeError(w, http.StatusNotFound, "no theme for location")
			return
		}
		api.logger.Error("Failed to load theme state", "location", location, "error", err)
		api.writeError(w, http.StatusInternalServerError, "failed to load theme state")
		return
	}

	api.writeJSON(w, http.StatusOK, currentResponse{
		ThemeState: state,
		Style:      api.agent.Styles().Lookup(state.Theme),
	})
}

func (api *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	location := r.PathValue("location")

	limit, ok := parseLimit(r)
	if !ok {
		api.writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	states, err := api.agent.Storage().RecentStates(r.Context(), location, limit)
	if err != nil {
		api.logger.Error("Failed to read theme history", "location", location, "error", err)
		api.writeError(w, http.StatusInternalServerError, "failed to read theme history")
		return
	}

	api.writeJSON(w, http.StatusOK, map[string]interface{}{
		"location": location,
		"states":   states,
	})
}

func (api *API) handleTransitions(w http.ResponseWriter, r *http.Request) {
	history := api.agent.History()
	if history == nil {
		api.writeError(w, http.StatusNotFound, "theme history disabled")
		return
	}

	location := r.PathValue("location")

	limit, ok := parseLimit(r)
	if !ok {
		api.writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	transitions, err := history.Transitions(r.Context(), location, limit)
	if err != nil {
		api.logger.Error("Failed to read theme transitions", "location", location, "error", err)
		api.writeError(w, http.StatusInternalServerError, "failed to read theme transitions")
		return
	}
	if transitions == nil {
		transitions = []Transition{}
	}

	api.writeJSON(w, http.StatusOK, map[string]interface{}{
		"location":    location,
		"transitions": transitions,
	})
}

// handleResolve resolves a theme from query parameters without touching state.
// minutes defaults to the agent clock and must lie in [0,1440); code defaults
// to NoCode. mode=fixed classifies with the fixed hour ranges instead of sun
// times.
func (api *API) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	minutes := theme.MinutesOf(api.agent.clock.Now().In(api.agent.loc))
	if v := q.Get("minutes"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			api.writeError(w, http.StatusBadRequest, "invalid minutes")
			return
		}
		if m < 0 || m >= theme.MinutesPerDay {
			api.writeError(w, http.StatusBadRequest, "minutes must be in [0,1440)")
			return
		}
		minutes = m
	}

	code := theme.NoCode
	if v := q.Get("code"); v != "" {
		c, err := strconv.Atoi(v)
		if err != nil {
			api.writeError(w, http.StatusBadRequest, "invalid code")
			return
		}
		code = c
	}

	in := theme.Input{
		Minutes: minutes,
		Text:    q.Get("condition"),
		Code:    code,
		Sunrise: q.Get("sunrise"),
		Sunset:  q.Get("sunset"),
	}

	var result theme.Result
	switch q.Get("mode") {
	case "", "solar":
		result = theme.Resolve(in, api.agent.Solar().Fallback())
	case "fixed":
		result = theme.ResolveFixed(in)
	default:
		api.writeError(w, http.StatusBadRequest, "mode must be solar or fixed")
		return
	}

	api.writeJSON(w, http.StatusOK, resolveResponse{
		Result:  result,
		Minutes: minutes,
		Style:   api.agent.Styles().Lookup(result.Theme),
	})
}

func parseLimit(r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultListLimit, true
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit <= 0 {
		return 0, false
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, true
}

func (api *API) writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		api.logger.Error("Failed to encode response", "error", err)
	}
}

func (api *API) writeError(w http.ResponseWriter, statusCode int, message string) {
	api.writeJSON(w, statusCode, map[string]string{"error": message})
}
