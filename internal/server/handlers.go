package server

import (
	"bytes"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sugawarayuuta/sonnet"

	"github.com/matzehuels/exorcism/pkg/cover"
	"github.com/matzehuels/exorcism/pkg/errors"
	"github.com/matzehuels/exorcism/pkg/esop"
	"github.com/matzehuels/exorcism/pkg/pipeline"
	"github.com/matzehuels/exorcism/pkg/render"
	"github.com/matzehuels/exorcism/pkg/verify"
)

// =============================================================================
// Request Types
// =============================================================================

// coverInput decodes a cover given either as a PLA string or as a JSON
// cover object.
type coverInput struct {
	c *cover.Cover
}

func (ci *coverInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := sonnet.Unmarshal(data, &text); err != nil {
			return err
		}
		c, err := cover.Decode([]byte(text), "pla")
		if err != nil {
			return err
		}
		ci.c = c
		return nil
	}
	c := new(cover.Cover)
	if err := c.UnmarshalJSON(data); err != nil {
		return err
	}
	ci.c = c
	return nil
}

// minimizeRequest is the JSON envelope of POST /v1/minimize.
type minimizeRequest struct {
	Cover   *coverInput      `json:"cover"`
	Options pipeline.Options `json:"options"`
}

// verifyRequest is the body of POST /v1/verify.
type verifyRequest struct {
	A      *coverInput `json:"a"`
	B      *coverInput `json:"b"`
	Method string      `json:"method"`
}

// =============================================================================
// Response Types
// =============================================================================

type minimizeResponse struct {
	RequestID  string    `json:"request_id"`
	InputHash  string    `json:"input_hash"`
	Format     string    `json:"format"`
	Output     string    `json:"output"`
	Before     esop.Size `json:"before"`
	After      esop.Size `json:"after"`
	Iterations int       `json:"iterations"`
	Verified   string    `json:"verified,omitempty"`
	Cached     cacheInfo `json:"cached"`
	DurationMS int64     `json:"duration_ms"`
}

type cacheInfo struct {
	Result bool `json:"result"`
	Verify bool `json:"verify"`
}

type verifyResponse struct {
	Equivalent bool         `json:"equivalent"`
	Method     string       `json:"method"`
	Cached     bool         `json:"cached"`
	Mismatch   *mismatchDoc `json:"mismatch,omitempty"`
}

type mismatchDoc struct {
	Output     int    `json:"output"`
	Assignment string `json:"assignment"`
}

type statsResponse struct {
	Inputs  int         `json:"inputs"`
	Outputs int         `json:"outputs"`
	Stats   cover.Stats `json:"stats"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMinimize accepts either a raw cover body with options in the query
// string, or a JSON envelope {"cover": ..., "options": {...}}. Query
// options override envelope options.
func (s *Server) handleMinimize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := pipeline.DefaultOptions()
	req, err := decodeEnvelope(body)
	switch {
	case err != nil:
		s.writeError(w, r, err)
		return
	case req != nil:
		opts = req.Options
		opts.Cover = req.Cover.c
	default:
		opts.Input = body
	}
	if err := applyQuery(&opts, r); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Logger = s.logger.With("request_id", RequestIDFromContext(r.Context()))

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, minimizeResponse{
		RequestID:  RequestIDFromContext(r.Context()),
		InputHash:  res.InputHash,
		Format:     opts.Format,
		Output:     string(res.Output),
		Before:     res.Stats.Before,
		After:      res.Stats.After,
		Iterations: res.Stats.Iterations,
		Verified:   string(res.Verified),
		Cached:     cacheInfo{Result: res.CacheInfo.ResultHit, Verify: res.CacheInfo.VerifyHit},
		DurationMS: time.Since(start).Milliseconds(),
	})
}

// decodeEnvelope decodes body as a minimize envelope. It returns nil for
// bodies that are raw covers: PLA text, or a JSON cover object, which is
// told apart by its "inputs" field.
func decodeEnvelope(body []byte) (*minimizeRequest, error) {
	t := bytes.TrimSpace(body)
	if len(t) == 0 || t[0] != '{' {
		return nil, nil
	}
	var shape struct {
		Inputs *int `json:"inputs"`
	}
	if err := sonnet.Unmarshal(t, &shape); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decoding request")
	}
	if shape.Inputs != nil {
		return nil, nil
	}
	req := minimizeRequest{Options: pipeline.DefaultOptions()}
	if err := sonnet.Unmarshal(t, &req); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decoding request")
	}
	if req.Cover == nil || req.Cover.c == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "request has no cover")
	}
	return &req, nil
}

// applyQuery copies minimize options from the query string onto opts.
func applyQuery(opts *pipeline.Options, r *http.Request) error {
	q := r.URL.Query()
	if v := q.Get("input_format"); v != "" {
		opts.InputFormat = v
	}
	if v := q.Get("format"); v != "" {
		opts.Format = v
	}
	if v := q.Get("verify"); v != "" {
		opts.Verify = v
	}
	if v := q.Get("order"); v != "" {
		opts.Order = strings.Split(v, ",")
	}
	var err error
	if v := q.Get("quality"); v != "" {
		if opts.Quality, err = strconv.Atoi(v); err != nil {
			return errors.New(errors.ErrCodeInvalidConfig, "quality must be an integer, got %q", v)
		}
	}
	if v := q.Get("max_cubes"); v != "" {
		if opts.MaxCubes, err = strconv.Atoi(v); err != nil {
			return errors.New(errors.ErrCodeInvalidConfig, "max_cubes must be an integer, got %q", v)
		}
	}
	if v := q.Get("alt_cost"); v != "" {
		if opts.AlternateCost, err = strconv.ParseBool(v); err != nil {
			return errors.New(errors.ErrCodeInvalidConfig, "alt_cost must be a boolean, got %q", v)
		}
	}
	if v := q.Get("refresh"); v != "" {
		if opts.Refresh, err = strconv.ParseBool(v); err != nil {
			return errors.New(errors.ErrCodeInvalidConfig, "refresh must be a boolean, got %q", v)
		}
	}
	return nil
}

// handleVerify reports a mismatch as a successful response with
// "equivalent": false; only malformed requests fail.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req verifyRequest
	if err := sonnet.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decoding verify request"))
		return
	}
	if req.A == nil || req.A.c == nil || req.B == nil || req.B.c == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "both covers a and b are required"))
		return
	}
	for _, c := range []*cover.Cover{req.A.c, req.B.c} {
		if err := c.Validate(); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	m, err := verify.ParseMethod(req.Method)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if m == verify.None {
		m = verify.Auto
	}

	cached, err := s.runner.Verify(r.Context(), req.A.c, req.B.c, m)
	resp := verifyResponse{Method: string(m.Resolve(req.A.c.Inputs)), Cached: cached}
	var mm *verify.Mismatch
	switch {
	case err == nil:
		resp.Equivalent = true
	case stderrors.As(err, &mm):
		resp.Mismatch = &mismatchDoc{Output: mm.Output, Assignment: assignment(mm.Assignment)}
	default:
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func assignment(x []bool) string {
	b := make([]byte, len(x))
	for i, v := range x {
		b[i] = '0'
		if v {
			b[i] = '1'
		}
	}
	return string(b)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	c, err := readCover(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Inputs: c.Inputs, Outputs: c.Outputs, Stats: c.Stats()})
}

// graphContentTypes maps render formats to response content types.
var graphContentTypes = map[string]string{
	render.FormatDOT: "text/vnd.graphviz",
	render.FormatSVG: "image/svg+xml",
	render.FormatPNG: "image/png",
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = render.FormatSVG
	}
	opts := render.Options{MaxDistance: render.DefaultMaxDistance}
	if v := q.Get("max_distance"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidConfig, "max_distance must be an integer, got %q", v))
			return
		}
		opts.MaxDistance = d
	}
	opts.Detailed, _ = strconv.ParseBool(q.Get("detailed"))
	if err := render.ValidateOptions(format, opts); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := readCover(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, cached, err := s.runner.Graph(r.Context(), c, format, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", graphContentTypes[format])
	if cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	_, _ = w.Write(data)
}

// readCover decodes and validates a raw cover request body.
func readCover(r *http.Request) (*cover.Cover, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	format := r.URL.Query().Get("input_format")
	if format != "" {
		if err := errors.ValidateFormat(format); err != nil {
			return nil, err
		}
	}
	c, err := cover.Decode(body, format)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing cover")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
