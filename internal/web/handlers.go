package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/tvimport/internal/catalog"
)

// Envelope wraps every successful API response.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func respondData(w http.ResponseWriter, data any, p *Pagination) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: p})
}

// handleHealth reports liveness without touching the database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports whether the database answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Ping(r.Context()); err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleListShows returns shows ordered by id.
// GET /api/tvshows?page=&limit=
func (s *Server) handleListShows(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	shows, err := s.catalog.ListShows(r.Context(), limit, (page-1)*limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	total, err := s.catalog.CountShows(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	respondData(w, shows, paginate(page, limit, total))
}

// handleShowsByYear returns shows first aired within a year range.
// GET /api/tvshows/filter/year?start_year=&end_year=&page=&limit=
func (s *Server) handleShowsByYear(w http.ResponseWriter, r *http.Request) {
	start, err := requiredIntParam(r, "start_year")
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	end, err := requiredIntParam(r, "end_year")
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if start > end {
		s.respondError(w, r, paramError("start_year must be <= end_year"), http.StatusBadRequest)
		return
	}
	page, limit, err := pageParams(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	shows, err := s.catalog.ShowsByAirYear(r.Context(), start, end, limit, (page-1)*limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	total, err := s.catalog.CountShowsByAirYear(r.Context(), start, end)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	respondData(w, shows, paginate(page, limit, total))
}

// handleSearchShows returns shows matching the filter that build makes
// from the named path parameter.
// GET /api/tvshows/by-genre/{genre}?page=&limit=
// GET /api/tvshows/by-name/{name}?page=&limit=
// GET /api/tvshows/by-status/{status}?page=&limit=
func (s *Server) handleSearchShows(param string, build func(string) catalog.ShowFilter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		term, err := searchTerm(r, param)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		page, limit, err := pageParams(r)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}

		filter := build(term)
		shows, err := s.catalog.SearchShows(r.Context(), filter, limit, (page-1)*limit)
		if err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		total, err := s.catalog.CountSearchShows(r.Context(), filter)
		if err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}

		respondData(w, shows, paginate(page, limit, total))
	}
}

// handleRandomShows returns a random sample.
// GET /api/tvshows/random?limit=
func (s *Server) handleRandomShows(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", DefaultRandomLimit, 1, MaxRandomLimit)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	shows, err := s.catalog.RandomShows(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondData(w, shows, nil)
}

// handleGetShow returns one show with its genres, creators, networks,
// studios and cast.
// GET /api/tvshows/{id}
func (s *Server) handleGetShow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, r, paramError("id must be an integer"), http.StatusBadRequest)
		return
	}

	detail, err := s.catalog.GetShow(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	respondData(w, detail, nil)
}

// handleStats returns row counts of every catalog table.
// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.catalog.Counts(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondData(w, counts, nil)
}
