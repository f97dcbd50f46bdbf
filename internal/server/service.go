package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wethinkt/go-colorgorical/internal/applog"
	"github.com/wethinkt/go-colorgorical/internal/colorspace"
	"github.com/wethinkt/go-colorgorical/internal/config"
	"github.com/wethinkt/go-colorgorical/internal/hue"
	"github.com/wethinkt/go-colorgorical/internal/palette"
	"github.com/wethinkt/go-colorgorical/internal/reference"
	"github.com/wethinkt/go-colorgorical/internal/store"
)

var (
	// ErrHistoryDisabled is returned by history queries when no store is
	// attached.
	ErrHistoryDisabled = errors.New("palette history is disabled")
	// ErrNoReference is returned when reference palettes are unavailable or
	// not scored at the requested size.
	ErrNoReference = errors.New("reference palettes not available")
)

// Service implements the palette operations shared by the REST API and the
// MCP tools.
type Service struct {
	engine   *palette.Engine
	defaults config.PaletteConfig
	refs     *reference.Registry
	history  *store.Store
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithReferences attaches the reference palette registry.
func WithReferences(r *reference.Registry) ServiceOption {
	return func(s *Service) { s.refs = r }
}

// WithHistory records made and scored palettes in st.
func WithHistory(st *store.Store) ServiceOption {
	return func(s *Service) { s.history = st }
}

// NewService returns a service building palettes with e. defaults supply
// the mark size, gamut restriction and run count of make requests.
func NewService(e *palette.Engine, defaults config.PaletteConfig, opts ...ServiceOption) *Service {
	s := &Service{engine: e, defaults: defaults}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MakeRequest asks for a new palette. Omitted fields take the web client's
// defaults: one color, pair preference only, lightness [25,85].
type MakeRequest struct {
	PaletteSize    *int               `json:"paletteSize,omitempty"`
	Weights        map[string]float64 `json:"weights,omitempty"`
	HueFilters     [][]float64        `json:"hueFilters,omitempty"`
	LightnessRange []float64          `json:"lightnessRange,omitempty"`
	StartPalette   [][]float64        `json:"startPalette,omitempty"`
	OnlyRGB        *bool              `json:"onlyRGB,omitempty"`
	MarkSize       float64            `json:"markSize,omitempty"`
	NumPalettes    int                `json:"numPalettes,omitempty"`
}

// ColorInfo describes one palette color in every format the client shows.
type ColorInfo struct {
	Lab       colorspace.Lab `json:"lab"`
	LabString string         `json:"labString"`
	RGB       colorspace.RGB `json:"rgb"`
	RGBString string         `json:"rgbString"`
	Hex       string         `json:"hex"`
}

// MakeResponse is a built palette.
type MakeResponse struct {
	ID           string             `json:"id,omitempty"`
	Palette      [][]float64        `json:"palette"`
	Colors       []ColorInfo        `json:"colors"`
	PaletteSize  int                `json:"paletteSize"`
	AchievedSize int                `json:"achievedSize"`
	Weights      map[string]float64 `json:"weights"`
}

// preferenceOnly is the weighting used when a request names none.
var preferenceOnly = palette.Weights{PairPreference: 1}

// Make builds the most preferable of several palettes for in.
func (s *Service) Make(ctx context.Context, in MakeRequest) (MakeResponse, error) {
	req, runs, err := s.makeRequest(in)
	if err != nil {
		return MakeResponse{}, err
	}

	start := time.Now()
	p, err := s.engine.BuildPreferable(req, runs)
	paletteBuildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		palettesMadeTotal.WithLabelValues("error").Inc()
		return MakeResponse{}, err
	}
	palettesMadeTotal.WithLabelValues("ok").Inc()
	if len(p) < req.Size {
		palettesShortTotal.Inc()
	}

	out := MakeResponse{
		Palette:      labRows(p),
		Colors:       describe(p),
		PaletteSize:  req.Size,
		AchievedSize: len(p),
		Weights:      req.Weights.Map(),
	}
	out.ID = s.record(ctx, store.Record{Kind: store.KindMade, RequestedSize: req.Size, Colors: p, Weights: req.Weights})
	return out, nil
}

func (s *Service) makeRequest(in MakeRequest) (palette.Request, int, error) {
	size := 1
	if in.PaletteSize != nil {
		size = *in.PaletteSize
	}
	req := s.defaults.Request(size)

	req.Weights = preferenceOnly
	if in.Weights != nil {
		w, err := palette.WeightsFromMap(in.Weights)
		if err != nil {
			return palette.Request{}, 0, err
		}
		req.Weights = w
	}

	hues, err := hue.FromPairs(in.HueFilters)
	if err != nil {
		return palette.Request{}, 0, fmt.Errorf("%w: %w", palette.ErrInvalidInput, err)
	}
	req.Hues = hues

	if req.Lightness, err = clampLightness(in.LightnessRange, s.defaults.Lightness); err != nil {
		return palette.Request{}, 0, err
	}
	if req.Seed, err = labsFrom(in.StartPalette, "start palette"); err != nil {
		return palette.Request{}, 0, err
	}
	if in.OnlyRGB != nil {
		req.OnlyRGB = *in.OnlyRGB
	}
	if in.MarkSize != 0 {
		req.MarkSize = in.MarkSize
	}

	runs := s.defaults.NumPalettes
	if in.NumPalettes != 0 {
		runs = in.NumPalettes
	}
	if runs <= 0 {
		return palette.Request{}, 0, fmt.Errorf("%w: numPalettes %d must be positive", palette.ErrInvalidInput, runs)
	}
	return req, runs, nil
}

// clampLightness truncates the bounds to integers, clamps them to [0,100]
// and rounds them to the catalog grid. An absent range takes def; empty or
// inverted ranges fall back to [25,85].
func clampLightness(lr []float64, def palette.LightnessRange) (palette.LightnessRange, error) {
	if len(lr) == 0 {
		return def, nil
	}
	if len(lr) != 2 || !finite(lr[0]) || !finite(lr[1]) {
		return palette.LightnessRange{}, fmt.Errorf("%w: lightnessRange must be two numbers", palette.ErrInvalidInput)
	}
	lo, hi := math.Trunc(lr[0]), math.Trunc(lr[1])
	lo, hi = math.Max(lo, 0), math.Min(hi, 100)
	if lo >= hi {
		return palette.DefaultLightness(), nil
	}
	lo, hi = 5*math.Round(lo/5), 5*math.Round(hi/5)
	if lo >= hi {
		return palette.DefaultLightness(), nil
	}
	return palette.LightnessRange{Min: lo, Max: hi}, nil
}

// ScoreRequest asks for the scores of an existing palette.
type ScoreRequest struct {
	Palette [][]float64        `json:"palette"`
	Name    string             `json:"name,omitempty"`
	Weights map[string]float64 `json:"weights,omitempty"`
}

// ScoreResponse reports a palette's scores. Matrix cell [j][i] holds the
// score of colors i<j; other cells are "-". A palette with fewer than two
// colors only carries Scorable=false.
type ScoreResponse struct {
	Scorable         bool               `json:"scorable"`
	UniqID           string             `json:"uniqId,omitempty"`
	Name             string             `json:"name,omitempty"`
	OriginalPalette  [][]float64        `json:"originalPalette,omitempty"`
	ConvertedPalette [][]float64        `json:"convertedPalette,omitempty"`
	MinScores        *palette.MinScores `json:"minScores,omitempty"`
	DEMatrix         [][]any            `json:"deMtx,omitempty"`
	NDMatrix         [][]any            `json:"ndMtx,omitempty"`
	PPMatrix         [][]any            `json:"ppMtx,omitempty"`
	NUScores         []float64          `json:"nuScores,omitempty"`
}

// Score snaps in.Palette to the catalog grid and scores it.
func (s *Service) Score(ctx context.Context, in ScoreRequest) (ScoreResponse, error) {
	labs, err := labsFrom(in.Palette, "palette")
	if err != nil {
		return ScoreResponse{}, err
	}
	w := palette.DefaultWeights()
	if in.Weights != nil {
		if w, err = palette.WeightsFromMap(in.Weights); err != nil {
			return ScoreResponse{}, err
		}
	}
	p := make(palette.Palette, len(labs))
	for i, c := range labs {
		p[i] = colorspace.Snap(c)
	}

	outcome, err := s.engine.ScorePalette(p, w)
	if err != nil {
		palettesScoredTotal.WithLabelValues("error").Inc()
		return ScoreResponse{}, err
	}
	rep, ok := outcome.(*palette.Report)
	if !ok {
		palettesScoredTotal.WithLabelValues("not_scorable").Inc()
		return ScoreResponse{Scorable: false}, nil
	}
	palettesScoredTotal.WithLabelValues("ok").Inc()

	name := in.Name
	if name == "" {
		name = "???"
	}
	out := ScoreResponse{
		Scorable:         true,
		Name:             name,
		OriginalPalette:  in.Palette,
		ConvertedPalette: labRows(p),
		MinScores:        &rep.MinScores,
		DEMatrix:         lowerTriangle(len(p), rep, func(sc scoringRow) any { return math.Round(sc.de) }),
		NDMatrix:         lowerTriangle(len(p), rep, func(sc scoringRow) any { return round2(sc.nd) }),
		PPMatrix:         lowerTriangle(len(p), rep, func(sc scoringRow) any { return math.Round(sc.pp) }),
		NUScores:         make([]float64, len(rep.Uniqueness)),
	}
	for i, nu := range rep.Uniqueness {
		out.NUScores[i] = round2(nu)
	}
	low := rep.MinScores
	out.UniqID = s.record(ctx, store.Record{Kind: store.KindScored, RequestedSize: len(p), Colors: p, Weights: w, MinScores: &low})
	return out, nil
}

type scoringRow struct{ de, nd, pp float64 }

func lowerTriangle(n int, rep *palette.Report, cell func(scoringRow) any) [][]any {
	m := make([][]any, n)
	for i := range m {
		m[i] = make([]any, n)
		for j := range m[i] {
			m[i][j] = "-"
		}
	}
	for k, idx := range rep.PairIndexes {
		sc := rep.Scores[k]
		m[idx[1]][idx[0]] = cell(scoringRow{de: sc.DE, nd: sc.ND, pp: sc.PP})
	}
	return m
}

// record stores rec in the history when enabled and returns its ID. Without
// a store a fresh ID is still issued.
func (s *Service) record(ctx context.Context, rec store.Record) string {
	if s.history == nil {
		return uuid.NewString()
	}
	saved, err := s.history.Enqueue(ctx, rec)
	if err != nil {
		historyErrorsTotal.Inc()
		applog.Log.Warn("Palette history write failed", "kind", rec.Kind, "error", err)
		return uuid.NewString()
	}
	return saved.ID
}

// ConvertRequest names one color by Lab triple, RGB triple or hex string.
type ConvertRequest struct {
	Lab []float64 `json:"lab,omitempty"`
	RGB []int     `json:"rgb,omitempty"`
	Hex string    `json:"hex,omitempty"`
}

// ConvertResponse describes a color in both spaces.
type ConvertResponse struct {
	Lab     colorspace.Lab `json:"lab"`
	Snapped colorspace.Lab `json:"snapped"`
	RGB     colorspace.RGB `json:"rgb"`
	Hex     string         `json:"hex"`
	InGamut bool           `json:"inGamut"`
	Chroma  float64        `json:"chroma"`
	Hue     float64        `json:"hue"`
}

// Convert converts a color between CIE Lab and sRGB.
func (s *Service) Convert(in ConvertRequest) (ConvertResponse, error) { return Convert(in) }

// Convert converts a color between CIE Lab and sRGB. It needs no engine.
func Convert(in ConvertRequest) (ConvertResponse, error) {
	given := 0
	for _, set := range []bool{len(in.Lab) > 0, len(in.RGB) > 0, in.Hex != ""} {
		if set {
			given++
		}
	}
	if given != 1 {
		return ConvertResponse{}, fmt.Errorf("%w: give exactly one of lab, rgb or hex", palette.ErrInvalidInput)
	}

	var lab colorspace.Lab
	switch {
	case len(in.Lab) > 0:
		labs, err := labsFrom([][]float64{in.Lab}, "lab")
		if err != nil {
			return ConvertResponse{}, err
		}
		lab = labs[0]
	case len(in.RGB) > 0:
		if len(in.RGB) != 3 {
			return ConvertResponse{}, fmt.Errorf("%w: rgb needs three channels", palette.ErrInvalidInput)
		}
		rgb := colorspace.RGB{R: in.RGB[0], G: in.RGB[1], B: in.RGB[2]}
		if !rgb.InGamut() {
			return ConvertResponse{}, fmt.Errorf("%w: rgb channels must be in [0,255]", palette.ErrInvalidInput)
		}
		lab = colorspace.RGBToLab(rgb)
	default:
		rgb, err := colorspace.ParseHex(in.Hex)
		if err != nil {
			return ConvertResponse{}, fmt.Errorf("%w: %w", palette.ErrInvalidInput, err)
		}
		lab = colorspace.RGBToLab(rgb)
	}

	rgb := colorspace.LabToRGB(lab)
	_, chroma, h := lab.LCh()
	return ConvertResponse{
		Lab:     lab,
		Snapped: colorspace.Snap(lab),
		RGB:     rgb,
		Hex:     rgb.Hex(),
		InGamut: colorspace.LabToRGBUnclamped(lab).InGamut(),
		Chroma:  chroma,
		Hue:     h,
	}, nil
}

// NormalizeRequest carries raw hue ranges as [low, high] pairs in degrees.
type NormalizeRequest struct {
	Ranges [][]float64 `json:"ranges"`
}

// NormalizeResponse holds disjoint sorted ranges within [0,360]. An empty
// list means hue is unrestricted.
type NormalizeResponse struct {
	Ranges       [][]float64 `json:"ranges"`
	Unrestricted bool        `json:"unrestricted"`
}

// NormalizeHues merges, wraps and sorts hue ranges.
func (s *Service) NormalizeHues(in NormalizeRequest) (NormalizeResponse, error) {
	return NormalizeHues(in)
}

// NormalizeHues merges, wraps and sorts hue ranges. It needs no engine.
func NormalizeHues(in NormalizeRequest) (NormalizeResponse, error) {
	ranges, err := hue.FromPairs(in.Ranges)
	if err != nil {
		return NormalizeResponse{}, err
	}
	norm := hue.Normalize(ranges)
	pairs := hue.Pairs(norm)
	if pairs == nil {
		pairs = [][]float64{}
	}
	return NormalizeResponse{Ranges: pairs, Unrestricted: len(norm) == 0}, nil
}

// ReferenceResponse lists reference palette comparisons by size.
type ReferenceResponse struct {
	Source      string                        `json:"source"`
	Comparisons map[int]*reference.Comparison `json:"comparisons"`
}

// References returns the comparisons at size, or at every size when size
// is zero.
func (s *Service) References(size int) (ReferenceResponse, error) {
	if s.refs == nil {
		return ReferenceResponse{}, ErrNoReference
	}
	out := ReferenceResponse{Source: s.refs.Source(), Comparisons: map[int]*reference.Comparison{}}
	sizes := s.refs.Sizes()
	if size != 0 {
		sizes = []int{size}
	}
	for _, n := range sizes {
		c, ok := s.refs.Comparison(n)
		if !ok {
			return ReferenceResponse{}, fmt.Errorf("%w at size %d", ErrNoReference, n)
		}
		out.Comparisons[n] = c
	}
	return out, nil
}

// History returns up to limit recent palettes, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]store.Record, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.Recent(ctx, limit)
}

func labsFrom(rows [][]float64, what string) ([]colorspace.Lab, error) {
	out := make([]colorspace.Lab, len(rows))
	for i, row := range rows {
		if len(row) != 3 {
			return nil, fmt.Errorf("%w: %s color %d needs three Lab values, got %d", palette.ErrInvalidInput, what, i, len(row))
		}
		for _, v := range row {
			if !finite(v) {
				return nil, fmt.Errorf("%w: %s color %d is not finite", palette.ErrInvalidInput, what, i)
			}
		}
		out[i] = colorspace.Lab{L: row[0], A: row[1], B: row[2]}
	}
	return out, nil
}

func labRows(p palette.Palette) [][]float64 {
	rows := make([][]float64, len(p))
	for i, c := range p {
		rows[i] = []float64{c.L, c.A, c.B}
	}
	return rows
}

func describe(p palette.Palette) []ColorInfo {
	out := make([]ColorInfo, len(p))
	for i, c := range p {
		rgb := colorspace.LabToRGB(c)
		out[i] = ColorInfo{Lab: c, LabString: c.String(), RGB: rgb, RGBString: rgb.String(), Hex: rgb.Hex()}
	}
	return out
}

// parseTriple reads "a,b,c" query values.
func parseTriple(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %q is not three comma-separated numbers", palette.ErrInvalidInput, s)
	}
	out := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", palette.ErrInvalidInput, s, err)
		}
		out[i] = v
	}
	return out, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
