package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mchmarny/molweight/pkg/averages"
	"github.com/mchmarny/molweight/pkg/chart"
	"github.com/mchmarny/molweight/pkg/config"
	"github.com/mchmarny/molweight/pkg/data"
	"github.com/mchmarny/molweight/pkg/distribution"
)

const (
	maxBodyBytes = 10 << 20
	svgMediaType = "image/svg+xml"

	paramDist    = "dist"
	paramA       = "a"
	paramKMax    = "k_max"
	paramMu      = "mu"
	paramSigma   = "sigma"
	paramP       = "p"
	paramName    = "name"
	paramAverage = "average"
	paramAll     = "all"
	paramYTick   = "y_tick"
	paramTitle   = "title"
	paramAlpha   = "alpha"
	paramZ       = "z"
)

// writeJSON encodes v before any header goes out, so an encoding failure can
// still be reported as a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryParamInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return i, nil
}

func queryParamFloat(r *http.Request, key string, def float64) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return f, nil
}

func queryParamFloats(r *http.Request, key string) ([]float64, error) {
	vals := r.URL.Query()[key]
	list := make([]float64, 0, len(vals))
	for _, v := range vals {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q", key, v)
		}
		list = append(list, f)
	}
	return list, nil
}

// populationFromRequest reads a population from a POST body, or builds the
// synthetic distribution described by the query of a GET.
func populationFromRequest(w http.ResponseWriter, r *http.Request) (*data.Population, error) {
	if r.Method == http.MethodPost {
		p, err := data.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), data.FormatJSON)
		if err != nil {
			return nil, err
		}
		if p.Name == "" {
			p.Name = "request"
		}
		return p, nil
	}

	s := config.Source{Type: r.URL.Query().Get(paramDist)}
	if s.Type == "" {
		s.Type = config.SourceFlorySchulz
	}

	var err error
	switch s.Type {
	case config.SourceFlorySchulz:
		if s.A, err = queryParamFloat(r, paramA, distribution.DefaultFloryA); err != nil {
			return nil, err
		}
		if s.KMax, err = queryParamInt(r, paramKMax, distribution.DefaultFloryKMax); err != nil {
			return nil, err
		}
		return distribution.FlorySchulzPopulation(s.A, s.KMax)
	case config.SourceGaussian, config.SourceGeneralGaussian:
		if s.Mu, err = queryParamFloat(r, paramMu, 0); err != nil {
			return nil, err
		}
		if s.Sigma, err = queryParamFloat(r, paramSigma, 0); err != nil {
			return nil, err
		}
		if s.P, err = queryParamFloat(r, paramP, 1); err != nil {
			return nil, err
		}
		return distribution.GeneralGaussianPopulation(s.Mu, s.Sigma, s.P)
	default:
		return nil, fmt.Errorf("unsupported dist %q (supported: %s, %s, %s)", s.Type,
			config.SourceFlorySchulz, config.SourceGaussian, config.SourceGeneralGaussian)
	}
}

// registryFromRequest applies alpha and z query overrides to base.
func registryFromRequest(r *http.Request, base *averages.Registry) (*averages.Registry, error) {
	alpha, err := queryParamFloat(r, paramAlpha, base.Alpha())
	if err != nil {
		return nil, err
	}
	z, err := queryParamFloat(r, paramZ, base.Z())
	if err != nil {
		return nil, err
	}
	if alpha == base.Alpha() && z == base.Z() {
		return base, nil
	}
	return averages.NewRegistry(alpha, z), nil
}

func averagesAPIHandler(base *averages.Registry, m *metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pop, err := populationFromRequest(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		reg, err := registryFromRequest(r, base)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := computeAverages(pop, reg, r.URL.Query()[paramName]...)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		for _, a := range res.Averages {
			m.averages.WithLabelValues(a.Name).Inc()
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func fractionsAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pop, err := populationFromRequest(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := computeFractions(pop)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func chartAPIHandler(base *averages.Registry, size config.ChartConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pop, err := populationFromRequest(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		reg, err := registryFromRequest(r, base)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ticks, err := queryParamFloats(r, paramYTick)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		q := r.URL.Query()
		opts := chart.Options{
			Title:       q.Get(paramTitle),
			Averages:    q[paramAverage],
			AllAverages: q.Get(paramAll) == "true",
			YTicks:      ticks,
			Width:       size.Width,
			Height:      size.Height,
			Registry:    reg,
		}
		if len(opts.Averages) == 0 {
			opts.Averages = config.DefaultPlotAverages
		}

		p, err := chart.New(pop, opts)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var buf bytes.Buffer
		if err := chart.Write(&buf, p, opts, chart.DefaultFormat); err != nil {
			slog.Error("chart render failed", "error", err)
			writeError(w, http.StatusInternalServerError, "chart render failed")
			return
		}

		w.Header().Set("Content-Type", svgMediaType)
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			slog.Error("failed to write chart response", "error", err)
		}
	}
}

func healthAPIHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version,
	})
}
