package scoring

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
)

// basicTerms are the most frequent color names of the XKCD survey with their
// modal sRGB values.
var basicTerms = []struct {
	Name string
	Hex  string
}{
	{"black", "#000000"},
	{"white", "#ffffff"},
	{"grey", "#929591"},
	{"red", "#e50000"},
	{"orange", "#f97306"},
	{"yellow", "#ffff14"},
	{"green", "#15b01a"},
	{"blue", "#0343df"},
	{"purple", "#7e1e9c"},
	{"pink", "#ff81c0"},
	{"brown", "#653700"},
	{"teal", "#029386"},
	{"light blue", "#95d0fc"},
	{"magenta", "#c20078"},
	{"olive", "#6e750e"},
}

// termSigma is the Lab distance at which a term's naming weight falls to
// e^-0.5 of its peak.
const termSigma = 20.0

// Entropy bounds used to scale name uniqueness to [0,1].
const (
	entropyMin = -4.5
	entropyMax = 0.0
)

type termModel struct {
	names  []string
	protos []colorspace.Lab
	sigma2 float64
}

func newTermModel(terms []struct{ Name, Hex string }, sigma float64) *termModel {
	m := &termModel{sigma2: 2 * sigma * sigma}
	for _, t := range terms {
		c, err := colorful.Hex(t.Hex)
		if err != nil {
			panic("scoring: bad term color " + t.Hex)
		}
		m.names = append(m.names, t.Name)
		m.protos = append(m.protos, fromColorful(c))
	}
	return m
}

// distribution returns the probability of each term being used to name c.
func (m *termModel) distribution(c colorspace.Lab) []float64 {
	d2 := make([]float64, len(m.protos))
	nearest := math.Inf(1)
	for i, p := range m.protos {
		dl, da, db := c.L-p.L, c.A-p.A, c.B-p.B
		d2[i] = dl*dl + da*da + db*db
		nearest = math.Min(nearest, d2[i])
	}
	// Shift by the nearest term so the largest weight is exactly 1.
	var sum float64
	for i := range d2 {
		d2[i] = math.Exp(-(d2[i] - nearest) / m.sigma2)
		sum += d2[i]
	}
	for i := range d2 {
		d2[i] /= sum
	}
	return d2
}

// Name returns the most probable term for c.
func (m *termModel) name(c colorspace.Lab) string {
	p := m.distribution(c)
	best := 0
	for i := range p {
		if p[i] > p[best] {
			best = i
		}
	}
	return m.names[best]
}

// nameDifference is the Hellinger distance between two term distributions.
func nameDifference(p, q []float64) float64 {
	var bc float64
	for i := range p {
		bc += math.Sqrt(p[i] * q[i])
	}
	return math.Sqrt(math.Max(0, 1-bc))
}

// nameUniqueness rescales the negative entropy of a term distribution to
// [0,1] using the survey's entropy bounds.
func nameUniqueness(p []float64) float64 {
	var h float64
	for _, v := range p {
		if v > 0 {
			h += v * math.Log2(v)
		}
	}
	return 1 - (h-entropyMin)/(entropyMax-entropyMin)
}

// Name returns the most likely basic color term for c.
func (s *Analytic) Name(c colorspace.Lab) string {
	return s.terms.name(c)
}
