package reference

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/aclements/go-moremath/stats"

	"github.com/wethinkt/go-colorgorical/internal/palette"
)

// Metric names one of the four palette scores.
type Metric string

const (
	MetricDE Metric = "de"
	MetricND Metric = "nd"
	MetricNU Metric = "nu"
	MetricPP Metric = "pp"
)

// Metrics lists every metric in report order.
var Metrics = []Metric{MetricDE, MetricND, MetricNU, MetricPP}

// Round applies the display precision of m: perceptual distance and pair
// preference are whole numbers, the name metrics keep two decimals.
func (m Metric) Round(v float64) float64 {
	switch m {
	case MetricDE, MetricPP:
		return math.Round(v)
	default:
		return round2(v)
	}
}

func (m Metric) of(s palette.MinScores) float64 {
	switch m {
	case MetricDE:
		return s.DE
	case MetricND:
		return s.ND
	case MetricNU:
		return s.NU
	default:
		return s.PP
	}
}

// Named is a reference palette truncated to a comparison size.
type Named struct {
	Collection string            `json:"collection"`
	Name       string            `json:"name"`
	Colors     palette.Palette   `json:"colors"`
	Scores     palette.MinScores `json:"scores"`
}

// Entry is one palette's rounded score on a metric.
type Entry struct {
	Collection string  `json:"collection"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
}

// Average summarizes a collection on a metric. SD is the population
// standard deviation and SE is SD/√N.
type Average struct {
	Collection string  `json:"collection"`
	Mean       float64 `json:"mean"`
	SD         float64 `json:"sd"`
	SE         float64 `json:"se"`
	N          int     `json:"n"`
}

// Comparison holds every reference palette scored at one size.
type Comparison struct {
	Size     int                  `json:"size"`
	Palettes []Named              `json:"palettes"`
	Rankings map[Metric][]Entry   `json:"scores"`
	Averages map[Metric][]Average `json:"averages"`
}

// unitWeights keeps every metric in the comparison.
var unitWeights = palette.Weights{CIEDE2000: 1, NameDifference: 1, NameUniqueness: 1, PairPreference: 1}

// Compare scores every set of f at each of its sizes.
func Compare(e *palette.Engine, f File) (map[int]*Comparison, error) {
	out := make(map[int]*Comparison, len(f.Sizes))
	for _, n := range f.Sizes {
		c, err := compareSize(e, f.Sets, n)
		if err != nil {
			return nil, err
		}
		out[n] = c
	}
	return out, nil
}

func compareSize(e *palette.Engine, sets []Set, n int) (*Comparison, error) {
	c := &Comparison{
		Size:     n,
		Rankings: make(map[Metric][]Entry, len(Metrics)),
		Averages: make(map[Metric][]Average, len(Metrics)),
	}
	for _, s := range sets {
		p, ok := s.Palette(n)
		if !ok {
			continue
		}
		outcome, err := e.ScorePalette(p, unitWeights)
		if err != nil {
			return nil, fmt.Errorf("score %s/%s at size %d: %w", s.Collection, s.Name, n, err)
		}
		rep, ok := outcome.(*palette.Report)
		if !ok {
			continue
		}
		c.Palettes = append(c.Palettes, Named{Collection: s.Collection, Name: s.Name, Colors: p, Scores: rep.MinScores})
	}

	for _, m := range Metrics {
		entries := make([]Entry, len(c.Palettes))
		byCollection := map[string][]float64{}
		var order []string
		for i, p := range c.Palettes {
			v := m.Round(m.of(p.Scores))
			entries[i] = Entry{Collection: p.Collection, Name: p.Name, Score: v}
			if _, seen := byCollection[p.Collection]; !seen {
				order = append(order, p.Collection)
			}
			byCollection[p.Collection] = append(byCollection[p.Collection], v)
		}
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return cmp.Compare(b.Score, a.Score)
		})
		c.Rankings[m] = entries

		avgs := make([]Average, 0, len(order))
		for _, name := range order {
			avgs = append(avgs, average(name, byCollection[name]))
		}
		slices.SortStableFunc(avgs, func(a, b Average) int {
			return cmp.Compare(b.Mean, a.Mean)
		})
		c.Averages[m] = avgs
	}
	return c, nil
}

func average(collection string, xs []float64) Average {
	n := float64(len(xs))
	sd := 0.0
	if len(xs) > 1 {
		sd = stats.StdDev(xs) * math.Sqrt((n-1)/n)
	}
	return Average{
		Collection: collection,
		Mean:       round2(stats.Mean(xs)),
		SD:         sd,
		SE:         sd / math.Sqrt(n),
		N:          len(xs),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
