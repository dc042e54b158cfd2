package http

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/couchcryptid/climate-match-service/internal/domain"
)

func (s *Server) handleCities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cities": s.catalog.Cities()})
}

func (s *Server) handleGrid(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Grid())
}

type filtersResponse struct {
	Ranges   domain.Ranges `json:"ranges"`
	Defaults domain.Ranges `json:"defaults"`
}

func (s *Server) handleGetFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, filtersResponse{Ranges: s.state.Ranges(), Defaults: domain.DefaultRanges()})
}

func (s *Server) handlePutFilters(w http.ResponseWriter, r *http.Request) {
	var req filtersRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.state.SetRanges(req.toDomain()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, filtersResponse{Ranges: s.state.Ranges(), Defaults: domain.DefaultRanges()})
}

func (s *Server) handlePutFilter(w http.ResponseWriter, r *http.Request) {
	dim, err := domain.ParseDimension(r.PathValue("dimension"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req rangeRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.state.SetRange(dim, req.toDomain()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, filtersResponse{Ranges: s.state.Ranges(), Defaults: domain.DefaultRanges()})
}

func (s *Server) handleResetFilters(w http.ResponseWriter, _ *http.Request) {
	s.state.Reset()
	writeJSON(w, http.StatusAccepted, filtersResponse{Ranges: s.state.Ranges(), Defaults: domain.DefaultRanges()})
}

func (s *Server) handleGetViewport(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Viewport())
}

func (s *Server) handlePutViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.state.SetViewport(req.toDomain()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.state.Viewport())
}

func (s *Server) handleLayers(w http.ResponseWriter, r *http.Request) {
	if flush, _ := strconv.ParseBool(r.URL.Query().Get("flush")); flush {
		if err := s.state.Flush(r.Context()); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, newLayersResponse(s.state.Layers()))
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ranges, err := rangesFromQuery(q, domain.DefaultRanges())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	viewport, err := viewportFromQuery(q, domain.DefaultViewport())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	layers, err := s.eval.Evaluate(r.Context(), ranges, viewport)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLayersResponse(layers))
}

type scoreResponse struct {
	domain.ScoredPoint
	MatchPercentage int  `json:"match_percentage"`
	InRange         bool `json:"in_range"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") == "" || q.Get("lon") == "" {
		s.writeError(w, r, fmt.Errorf("lat and lon query parameters are required: %w", errBadRequest))
		return
	}
	var c domain.Coordinate
	if err := parseFloatParam(q, "lat", &c.Lat); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := parseFloatParam(q, "lon", &c.Lon); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !(math.Abs(c.Lat) <= 90) || !(math.Abs(c.Lon) <= 180) {
		s.writeError(w, r, fmt.Errorf("coordinate %v is out of range: %w", c, domain.ErrInvalidInput))
		return
	}

	ranges := s.state.Ranges()
	sp, err := s.catalog.ScoreAt(c, ranges)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{
		ScoredPoint:     sp,
		MatchPercentage: domain.MatchPercentage(sp.Score),
		InRange:         domain.InRange(sp.Metrics, ranges),
	})
}
