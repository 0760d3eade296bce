package holtwinters

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// DefaultMaxEvaluations is the per-stage objective evaluation budget.
const DefaultMaxEvaluations = 2000

var (
	gridAlpha = []float64{0.1, 0.3, 0.5, 0.7, 0.9}
	gridBeta  = []float64{0.01, 0.05, 0.1, 0.2}
	gridGamma = []float64{0.01, 0.1, 0.3, 0.5}
)

// tracker wraps the smoothing objective and remembers the best point ever
// evaluated. Only a strictly lower objective replaces the incumbent, so among
// equal candidates the first one found wins.
type tracker struct {
	y         []float64
	frequency int
	kind      SeasonalKind
	ring      []float64

	evals int
	best  float64
	bestP Params
	bestS State
}

func newTracker(y []float64, frequency int, kind SeasonalKind) *tracker {
	return &tracker{
		y:         y,
		frequency: frequency,
		kind:      kind,
		ring:      make([]float64, max(frequency, 1)),
		best:      math.Inf(1),
	}
}

func (tr *tracker) eval(p Params, s State) float64 {
	tr.evals++
	if tr.frequency > 1 {
		copy(tr.ring, s.Season0)
	} else {
		tr.ring[0] = tr.kind.neutral()
	}

	sse := smooth(tr.y, tr.frequency, tr.kind, p, s, tr.ring, nil)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return math.MaxFloat64
	}
	if sse < tr.best {
		tr.best = sse
		tr.bestP = p
		tr.bestS = State{
			Level0:  s.Level0,
			Trend0:  s.Trend0,
			Season0: append([]float64(nil), s.Season0...),
		}
	}
	return sse
}

func sigmoid(u float64) float64 {
	return 1 / (1 + math.Exp(-u))
}

func logit(p float64) float64 {
	p = math.Min(math.Max(p, 1e-4), 1-1e-4)
	return math.Log(p / (1 - p))
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

// searchSpace maps unconstrained optimizer coordinates onto bounded
// coefficients and scaled initial state offsets.
type searchSpace struct {
	seasonal bool
	kind     SeasonalKind
	base     State
	scale    float64
	buf      []float64
}

func (sp *searchSpace) numCoefs() int {
	if sp.seasonal {
		return 3
	}
	return 2
}

func (sp *searchSpace) coefs(x []float64) Params {
	p := Params{
		Alpha: clamp01(sigmoid(x[0])),
		Beta:  clamp01(sigmoid(x[1])),
	}
	if sp.seasonal {
		p.Gamma = clamp01(sigmoid(x[2]))
	}
	return p
}

func (sp *searchSpace) encode(p Params) []float64 {
	x := []float64{logit(p.Alpha), logit(p.Beta)}
	if sp.seasonal {
		x = append(x, logit(p.Gamma))
	}
	return x
}

// state decodes the joint coordinates that follow the coefficients:
// level offset, trend offset, then one offset per seasonal phase.
func (sp *searchSpace) state(x []float64) State {
	off := x[sp.numCoefs():]
	s := State{
		Level0: sp.base.Level0 + off[0]*sp.scale,
		Trend0: sp.base.Trend0 + off[1]*sp.scale*0.1,
	}
	if !sp.seasonal {
		return s
	}
	for j, v := range sp.base.Season0 {
		if sp.kind == Multiplicative {
			sp.buf[j] = v * math.Exp(off[2+j])
		} else {
			sp.buf[j] = v + off[2+j]*sp.scale
		}
	}
	s.Season0 = sp.buf
	return s
}

// fitSeries searches coefficients and initial state minimising the sum of
// squared one-step-ahead errors:
//  1. coarse grid over (α, β, γ) with the heuristic initial state
//  2. Nelder-Mead over the coefficients alone
//  3. Nelder-Mead over coefficients and initial state jointly
//
// Each Nelder-Mead stage is capped at maxEval objective evaluations; hitting
// the cap is not an error, the best point found so far is returned. An
// optimizer error in either stage is logged and the incumbent is kept.
func fitSeries(y []float64, frequency, startPeriods int, kind SeasonalKind, maxEval int, logger *slog.Logger) (Params, State, int, error) {
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Params{}, State{}, 0, ErrNonFinite
		}
		if kind == Multiplicative && v <= 0 {
			return Params{}, State{}, 0, ErrNonPositive
		}
	}
	if maxEval <= 0 {
		maxEval = DefaultMaxEvaluations
	}

	seasonal := frequency > 1
	init := initialState(y, frequency, startPeriods, kind)
	tr := newTracker(y, frequency, kind)

	scale := stat.StdDev(y, nil)
	if scale == 0 || math.IsNaN(scale) {
		scale = 1
	}
	sp := &searchSpace{
		seasonal: seasonal,
		kind:     kind,
		base:     init,
		scale:    scale,
		buf:      make([]float64, len(init.Season0)),
	}

	gammas := gridGamma
	if !seasonal {
		gammas = []float64{0}
	}
	for _, a := range gridAlpha {
		for _, b := range gridBeta {
			for _, g := range gammas {
				tr.eval(Params{Alpha: a, Beta: b, Gamma: g}, init)
			}
		}
	}
	if math.IsInf(tr.best, 1) {
		return Params{}, State{}, tr.evals, ErrNonFinite
	}

	coefProblem := optimize.Problem{
		Func: func(x []float64) float64 {
			return tr.eval(sp.coefs(x), init)
		},
	}
	if err := runNelderMead(coefProblem, sp.encode(tr.bestP), maxEval, 0.5); err != nil {
		logger.Debug("optimizer stage failed", "stage", "coefficients", "evaluations", tr.evals, "error", err)
	}

	// Joint stage starts from the incumbent coefficients and the heuristic state.
	x0 := sp.encode(tr.bestP)
	x0 = append(x0, make([]float64, 2+len(init.Season0))...)
	jointProblem := optimize.Problem{
		Func: func(x []float64) float64 {
			return tr.eval(sp.coefs(x), sp.state(x))
		},
	}
	if err := runNelderMead(jointProblem, x0, maxEval, 0.1); err != nil {
		logger.Debug("optimizer stage failed", "stage", "joint", "evaluations", tr.evals, "error", err)
	}

	return tr.bestP, tr.bestS, tr.evals, nil
}

// runNelderMead minimises p from x0. The best point is read from the
// tracker behind p.Func, not from gonum's result. Evaluation and iteration
// limits end the run with a nil error.
func runNelderMead(p optimize.Problem, x0 []float64, maxEval int, simplex float64) error {
	settings := &optimize.Settings{
		FuncEvaluations: maxEval,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 100,
		},
		Concurrent: 1,
	}
	_, err := optimize.Minimize(p, x0, settings, &optimize.NelderMead{SimplexSize: simplex})
	return err
}
