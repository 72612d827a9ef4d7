// Package web provides the adboard JSON API server.
package web

import (
	"fmt"
	"net/http"

	"github.com/ptrcarlson/adboard/internal/credit"
	"github.com/ptrcarlson/adboard/internal/enquiry"
	"github.com/ptrcarlson/adboard/internal/listing"
	"github.com/ptrcarlson/adboard/internal/logging"
	"github.com/ptrcarlson/adboard/internal/viewlog"
)

// Server is the HTTP API server.
type Server struct {
	listings  listing.Store
	credits   credit.Service
	enquiries enquiry.Store
	views     viewlog.Recorder
	mux       *http.ServeMux
}

// NewServer creates an API server over the given stores.
func NewServer(listings listing.Store, credits credit.Service, enquiries enquiry.Store, views viewlog.Recorder) *Server {
	s := &Server{
		listings:  listings,
		credits:   credits,
		enquiries: enquiries,
		views:     views,
		mux:       http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/listings", s.handleListings)
	s.mux.HandleFunc("/api/listings/", s.handleListings)
	s.mux.HandleFunc("/api/credits", s.handleCredits)
	s.mux.HandleFunc("/api/credits/", s.handleCredits)
	s.mux.HandleFunc("/api/store/listings", s.handleStore)
	s.mux.HandleFunc("/api/store/listings/", s.handleStore)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server with request logging.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	fmt.Printf("Starting adboard API on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, logging.RequestLogger(s))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// serviceFor builds a refreshed per-owner orchestrator.
func (s *Server) serviceFor(ownerID string) (*listing.Service, error) {
	svc := listing.NewService(s.listings, s.credits, ownerID)
	if err := svc.Refresh(); err != nil {
		return nil, err
	}
	return svc, nil
}
