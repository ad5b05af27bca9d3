package analysis

import "math"

// Difference compares a render against a reference render.
type Difference struct {
	Lag     int     `json:"lag"` // samples by which the candidate leads the reference
	MaxAbs  float64 `json:"max_abs"`
	RMSE    float64 `json:"rmse"`
	RefLen  int     `json:"ref_len"`
	CandLen int     `json:"cand_len"`
}

// Identical reports whether both signals have the same length and match
// sample for sample without a shift.
func (d Difference) Identical() bool {
	return d.RefLen == d.CandLen && d.Lag == 0 && d.MaxAbs == 0
}

// Diff aligns cand to ref by cross-correlation within maxLag samples and
// measures the residual over the overlap.
func Diff(ref, cand []float64, maxLag int) Difference {
	lag := estimateLag(ref, cand, maxLag)
	a, b := alignByLag(ref, cand, lag)
	n := min(len(a), len(b))
	d := Difference{Lag: lag, RefLen: len(ref), CandLen: len(cand)}
	if n == 0 {
		return d
	}
	var sum float64
	for i := 0; i < n; i++ {
		e := math.Abs(a[i] - b[i])
		d.MaxAbs = math.Max(d.MaxAbs, e)
		sum += e * e
	}
	d.RMSE = math.Sqrt(sum / float64(n))
	return d
}

func estimateLag(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 || maxLag <= 0 {
		return 0
	}
	bestLag := 0
	best := dotAtLag(ref, cand, 0)
	for lag := 1; lag <= maxLag; lag++ {
		for _, l := range [2]int{lag, -lag} {
			if s := dotAtLag(ref, cand, l); s > best {
				best = s
				bestLag = l
			}
		}
	}
	return bestLag
}

func dotAtLag(a []float64, b []float64, lag int) float64 {
	ai, bi := 0, 0
	if lag >= 0 {
		ai = lag
	} else {
		bi = -lag
	}
	n := min(len(a)-ai, len(b)-bi)
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[ai+i] * b[bi+i]
	}
	return sum
}

func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	o := -lag
	if o >= len(cand) {
		return nil, nil
	}
	return ref, cand[o:]
}
