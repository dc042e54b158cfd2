package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/couchcryptid/climate-match-service/internal/domain"
	"github.com/goccy/go-json"
)

var errBadRequest = errors.New("bad request")

type rangeRequest struct {
	Min float64 `json:"min"`
	Max float64 `json:"max" validate:"gtefield=Min"`
}

func (r rangeRequest) toDomain() domain.FilterRange {
	return domain.FilterRange{Min: r.Min, Max: r.Max}
}

// filtersRequest replaces every range at once.
type filtersRequest struct {
	HighTemp    *rangeRequest `json:"high_temp" validate:"required"`
	LowTemp     *rangeRequest `json:"low_temp" validate:"required"`
	OverallTemp *rangeRequest `json:"overall_temp" validate:"required"`
	Sunlight    *rangeRequest `json:"sunlight" validate:"required"`
	Cloudy      *rangeRequest `json:"cloudy" validate:"required"`
}

func (f filtersRequest) toDomain() domain.Ranges {
	return domain.Ranges{
		domain.HighTemp:    f.HighTemp.toDomain(),
		domain.LowTemp:     f.LowTemp.toDomain(),
		domain.OverallTemp: f.OverallTemp.toDomain(),
		domain.Sunlight:    f.Sunlight.toDomain(),
		domain.Cloudy:      f.Cloudy.toDomain(),
	}
}

type viewportRequest struct {
	South *float64 `json:"south" validate:"required,gte=-720,lte=720"`
	West  *float64 `json:"west" validate:"required,gte=-720,lte=720"`
	North *float64 `json:"north" validate:"required,gte=-720,lte=720"`
	East  *float64 `json:"east" validate:"required,gte=-720,lte=720"`
	Zoom  *float64 `json:"zoom" validate:"required,gte=0,lte=30"`
}

func (v viewportRequest) toDomain() domain.Viewport {
	return domain.Viewport{
		Bounds: domain.Bounds{South: *v.South, West: *v.West, North: *v.North, East: *v.East},
		Zoom:   *v.Zoom,
	}
}

// decodeBody reads a JSON body into dst and runs struct validation on it.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %v: %w", err, errBadRequest)
	}
	return s.validate.Struct(dst)
}

// rangesFromQuery overlays <dimension>_min / <dimension>_max parameters on base.
func rangesFromQuery(q url.Values, base domain.Ranges) (domain.Ranges, error) {
	r := base
	for _, d := range domain.Dimensions() {
		if err := parseFloatParam(q, d.String()+"_min", &r[d].Min); err != nil {
			return r, err
		}
		if err := parseFloatParam(q, d.String()+"_max", &r[d].Max); err != nil {
			return r, err
		}
	}
	return r, r.Validate()
}

// viewportFromQuery overlays south/west/north/east/zoom parameters on base.
func viewportFromQuery(q url.Values, base domain.Viewport) (domain.Viewport, error) {
	v := base
	params := []struct {
		name string
		dst  *float64
	}{
		{"south", &v.Bounds.South},
		{"west", &v.Bounds.West},
		{"north", &v.Bounds.North},
		{"east", &v.Bounds.East},
		{"zoom", &v.Zoom},
	}
	for _, p := range params {
		if err := parseFloatParam(q, p.name, p.dst); err != nil {
			return v, err
		}
	}
	return v, v.Validate()
}

func parseFloatParam(q url.Values, name string, dst *float64) error {
	raw := q.Get(name)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("query parameter %s=%q is not a number: %w", name, raw, errBadRequest)
	}
	*dst = f
	return nil
}
