package analyzer

import (
	"math"

	"github.com/montanaflynn/stats"
)

// welchTTest computes Welch's two-sample t statistic and two-sided p-value
// for unequal variances. It returns ok=false only for degenerate inputs
// where the statistic is undefined (both samples constant with equal means).
func welchTTest(a, b []float64) (t, p float64, ok bool) {
	meanA, _ := stats.Mean(a)
	meanB, _ := stats.Mean(b)
	varA, _ := stats.SampleVariance(a)
	varB, _ := stats.SampleVariance(b)

	nA := float64(len(a))
	nB := float64(len(b))

	se2 := varA/nA + varB/nB
	if se2 == 0 {
		if meanA == meanB {
			return 0, 1, false
		}
		// Constant samples with different means: maximally significant.
		return math.Inf(signOf(meanB - meanA)), 0, true
	}

	t = (meanB - meanA) / math.Sqrt(se2)

	// Welch–Satterthwaite degrees of freedom.
	df := se2 * se2 / ((varA*varA)/(nA*nA*(nA-1)) + (varB*varB)/(nB*nB*(nB-1)))

	p = 2 * studentTTail(math.Abs(t), df)
	if p > 1 {
		p = 1
	}
	return t, p, true
}

func signOf(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}

// studentTTail returns P(T > t) for Student's t distribution with df degrees
// of freedom, via the regularized incomplete beta function:
// P(|T| > t) = I_{df/(df+t^2)}(df/2, 1/2).
func studentTTail(t, df float64) float64 {
	if t <= 0 {
		return 0.5
	}
	x := df / (df + t*t)
	return 0.5 * regIncBeta(df/2, 0.5, x)
}

// regIncBeta computes the regularized incomplete beta function I_x(a, b)
// using the continued-fraction expansion (Numerical Recipes betacf form).
func regIncBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lnFront := lgamma(a+b) - lgamma(a) - lgamma(b) + a*math.Log(x) + b*math.Log(1-x)
	front := math.Exp(lnFront)

	if x < (a+1)/(a+b+2) {
		return front * betaCF(a, b, x) / a
	}
	return 1 - front*betaCF(b, a, 1-x)/b
}

// betaCF evaluates the continued fraction for the incomplete beta function
// by the modified Lentz method.
func betaCF(a, b, x float64) float64 {
	const (
		maxIter = 200
		eps     = 3e-14
		fpmin   = 1e-300
	)

	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < fpmin {
		d = fpmin
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIter; m++ {
		m2 := float64(2 * m)
		mf := float64(m)

		aa := mf * (b - mf) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < fpmin {
			d = fpmin
		}
		c = 1 + aa/c
		if math.Abs(c) < fpmin {
			c = fpmin
		}
		d = 1 / d
		h *= d * c

		aa = -(a + mf) * (qab + mf) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < fpmin {
			d = fpmin
		}
		c = 1 + aa/c
		if math.Abs(c) < fpmin {
			c = fpmin
		}
		d = 1 / d
		del := d * c
		h *= del

		if math.Abs(del-1) < eps {
			break
		}
	}
	return h
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
