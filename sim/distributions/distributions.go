// Package distributions implements the sample() contract over eleven named
// probability distributions, as time.Duration delays. Parameters are
// expressed in microseconds by convention; Sample rounds to the nearest
// nanosecond and clamps negative draws to zero (a negative delay has no
// meaning on the simulated clock).
package distributions

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

func toDuration(microseconds float64) time.Duration {
	if microseconds < 0 {
		return 0
	}
	return time.Duration(math.Round(microseconds * float64(time.Microsecond)))
}

// Normal samples from a Gaussian distribution, backed by distuv.Normal.
type Normal struct{ Mu, Sigma float64 }

func (d Normal) Sample(rng *rand.Rand) time.Duration {
	dist := distuv.Normal{Mu: d.Mu, Sigma: d.Sigma, Src: rng}
	return toDuration(dist.Rand())
}

// LogNormal samples from a log-normal distribution, backed by
// distuv.LogNormal.
type LogNormal struct{ Mu, Sigma float64 }

func (d LogNormal) Sample(rng *rand.Rand) time.Duration {
	dist := distuv.LogNormal{Mu: d.Mu, Sigma: d.Sigma, Src: rng}
	return toDuration(dist.Rand())
}

// Pareto samples from a Pareto distribution, backed by distuv.Pareto.
type Pareto struct{ Xm, Alpha float64 }

func (d Pareto) Sample(rng *rand.Rand) time.Duration {
	dist := distuv.Pareto{Xm: d.Xm, Alpha: d.Alpha, Src: rng}
	return toDuration(dist.Rand())
}

// Weibull samples from a Weibull distribution, backed by distuv.Weibull.
type Weibull struct{ K, Lambda float64 }

func (d Weibull) Sample(rng *rand.Rand) time.Duration {
	dist := distuv.Weibull{K: d.K, Lambda: d.Lambda, Src: rng}
	return toDuration(dist.Rand())
}

// Gamma samples from a Gamma distribution, backed by distuv.Gamma.
type Gamma struct{ Alpha, Beta float64 }

func (d Gamma) Sample(rng *rand.Rand) time.Duration {
	dist := distuv.Gamma{Alpha: d.Alpha, Beta: d.Beta, Src: rng}
	return toDuration(dist.Rand())
}

// Beta samples from a Beta distribution, backed by distuv.Beta, scaled by
// Scale (Beta is supported on [0,1]; Scale maps that onto a microsecond
// range).
type Beta struct{ Alpha, Lambda, Scale float64 }

func (d Beta) Sample(rng *rand.Rand) time.Duration {
	dist := distuv.Beta{Alpha: d.Alpha, Beta: d.Lambda, Src: rng}
	scale := d.Scale
	if scale == 0 {
		scale = 1
	}
	return toDuration(dist.Rand() * scale)
}

// Binomial samples a count from a Binomial(N, P) distribution, backed by
// distuv.Binomial.
type Binomial struct {
	N int
	P float64
}

func (d Binomial) Sample(rng *rand.Rand) time.Duration {
	dist := distuv.Binomial{N: float64(d.N), P: d.P, Src: rng}
	return toDuration(dist.Rand())
}

// Poisson samples a count from a Poisson(Lambda) distribution, backed by
// distuv.Poisson.
type Poisson struct{ Lambda float64 }

func (d Poisson) Sample(rng *rand.Rand) time.Duration {
	dist := distuv.Poisson{Lambda: d.Lambda, Src: rng}
	return toDuration(dist.Rand())
}

// Uniform samples from a continuous Uniform(Min, Max) distribution, backed
// by distuv.Uniform.
type Uniform struct{ Min, Max float64 }

func (d Uniform) Sample(rng *rand.Rand) time.Duration {
	dist := distuv.Uniform{Min: d.Min, Max: d.Max, Src: rng}
	return toDuration(dist.Rand())
}

// Geometric samples the number of Bernoulli(P) trials before the first
// success. gonum's stat/distuv package has no Geometric type, so this is
// hand-rolled on math/rand's uniform draw via inverse CDF.
type Geometric struct{ P float64 }

func (d Geometric) Sample(rng *rand.Rand) time.Duration {
	p := d.P
	if p <= 0 || p >= 1 {
		return 0
	}
	u := rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64
	}
	count := math.Floor(math.Log(u) / math.Log(1-p))
	return toDuration(count)
}

// SkewNormal samples from Azzalini's skew-normal distribution with location
// Loc, scale Scale, and shape Alpha. Also absent from distuv; hand-rolled
// via the standard two-correlated-normals construction.
type SkewNormal struct{ Loc, Scale, Alpha float64 }

func (d SkewNormal) Sample(rng *rand.Rand) time.Duration {
	delta := d.Alpha / math.Sqrt(1+d.Alpha*d.Alpha)
	u0 := rng.NormFloat64()
	v := rng.NormFloat64()
	u1 := delta*u0 + math.Sqrt(1-delta*delta)*v
	z := u1
	if u0 < 0 {
		z = -u1
	}
	return toDuration(d.Loc + d.Scale*z)
}

// Constant always samples the same value, useful for a fixed one-way
// network delay, and for deterministic tests.
type Constant time.Duration

func (d Constant) Sample(*rand.Rand) time.Duration { return time.Duration(d) }
