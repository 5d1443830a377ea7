package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/catalog-client/pkg/catalog"
	"github.com/Sternrassler/catalog-client/pkg/graphql"
	"github.com/Sternrassler/catalog-client/pkg/metrics"
	"github.com/Sternrassler/catalog-client/pkg/pagination"
)

// listController is the part of pagination.Controller the handlers drive.
type listController interface {
	LoadInitial() bool
	LoadMore() bool
	Refresh() bool
	State() pagination.ListState
}

// server exposes one collection list. creator is set only for the books
// collection; without it no create route is registered.
type server struct {
	list    listController
	view    collectionView
	creator *catalog.BookCreator
	redis   *redis.Client
	logger  zerolog.Logger
}

// listResponse is the JSON form of a list snapshot.
type listResponse struct {
	Items   any              `json:"items"`
	Phase   pagination.Phase `json:"phase"`
	HasMore bool             `json:"hasMore"`
	Error   *errorResponse   `json:"error,omitempty"`
}

type errorResponse struct {
	Class   graphql.ErrorClass `json:"class"`
	Message string             `json:"message"`
	Op      pagination.Command `json:"op,omitempty"`
}

// commandResponse reports whether a list command issued a fetch.
type commandResponse struct {
	Issued bool         `json:"issued"`
	State  listResponse `json:"state"`
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.readyHandler).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	list := r.PathPrefix(s.view.path()).Subrouter()
	list.HandleFunc("", s.listItems).Methods(http.MethodGet)
	if s.creator != nil {
		list.HandleFunc("", s.createBook).Methods(http.MethodPost)
	}
	list.HandleFunc("/load-initial", s.command(s.list.LoadInitial)).Methods(http.MethodPost)
	list.HandleFunc("/load-more", s.command(s.list.LoadMore)).Methods(http.MethodPost)
	list.HandleFunc("/refresh", s.command(s.list.Refresh)).Methods(http.MethodPost)
	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// readyHandler reports not ready while Redis is configured but unreachable.
func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *server) listItems(w http.ResponseWriter, _ *http.Request) {
	resp, err := s.toResponse(s.list.State())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *server) command(run func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		issued := run()
		state, err := s.toResponse(s.list.State())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		status := http.StatusAccepted
		if !issued {
			status = http.StatusOK
		}
		s.writeJSON(w, status, commandResponse{Issued: issued, State: state})
	}
}

func (s *server) createBook(w http.ResponseWriter, r *http.Request) {
	var input catalog.NewBook
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	book, err := s.creator.Create(r.Context(), input)
	switch {
	case errors.Is(err, catalog.ErrNameRequired), errors.Is(err, catalog.ErrAuthorRequired):
		s.writeError(w, http.StatusBadRequest, err)
	case err != nil:
		s.writeError(w, http.StatusBadGateway, err)
	default:
		s.writeJSON(w, http.StatusCreated, book)
	}
}

func (s *server) toResponse(state pagination.ListState) (listResponse, error) {
	items, err := s.view.decode(state)
	if err != nil {
		return listResponse{}, err
	}
	resp := listResponse{
		Items:   items,
		Phase:   state.Phase,
		HasMore: state.HasMore,
	}
	if state.Error != nil {
		resp.Error = &errorResponse{
			Class:   state.Error.Class,
			Message: state.Error.Message,
			Op:      state.Error.Op,
		}
	}
	return resp, nil
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
