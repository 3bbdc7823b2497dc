package host

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Southclaws/fault/fmsg"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"chordviz/args"
	"chordviz/debug"
)

const maxBody = 1 << 20

type ErrorResponse struct {
	Error string `json:"detail"`
}

type SubmitResponse struct {
	Session  string `json:"session"`
	Revision int    `json:"revision"`
}

// Server exposes a hub over HTTP
type Server struct {
	hub     *Hub
	addr    string
	handler http.Handler
}

// NewServer builds the routes for hub. Browsers on any origin may call it.
func NewServer(hub *Hub, addr string) *Server {
	s := &Server{hub: hub, addr: addr}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/component/{name}/args", s.handleArgs).Methods(http.MethodPost)
	router.HandleFunc("/component/{name}/args", s.handleGetArgs).Methods(http.MethodGet)
	router.HandleFunc("/component/{name}/frame", s.handleFrame).Methods(http.MethodGet)

	s.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		debug.Log("host", "listening on %s", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) mounted(w http.ResponseWriter, r *http.Request) bool {
	if mux.Vars(r)["name"] != s.hub.Mount() {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no component mounted as " + mux.Vars(r)["name"]})
		return false
	}
	return true
}

func (s *Server) handleArgs(w http.ResponseWriter, r *http.Request) {
	if !s.mounted(w, r) {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "could not read request body"})
		return
	}

	a, err := args.DecodeJSON(body)
	if err != nil {
		status := http.StatusInternalServerError
		if args.IsInvalid(err) {
			status = http.StatusBadRequest
		}
		msg := fmsg.GetIssue(err)
		if msg == "" {
			msg = err.Error()
		}
		debug.Log("host", "rejected args: %v", err)
		writeJSON(w, status, ErrorResponse{Error: msg})
		return
	}

	rev := s.hub.Submit(a)
	writeJSON(w, http.StatusAccepted, SubmitResponse{Session: s.hub.Session(), Revision: rev})
}

func (s *Server) handleGetArgs(w http.ResponseWriter, r *http.Request) {
	if !s.mounted(w, r) {
		return
	}
	a, _ := s.hub.Latest()
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if !s.mounted(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.hub.Frame())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "session": s.hub.Session()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
