package formulas

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// observations lays out equally long series as columns of an N×k matrix.
func observations(series [][]float64) *mat.Dense {
	k := len(series)
	n := len(series[0])
	x := mat.NewDense(n, k, nil)
	for j, s := range series {
		for i := 0; i < n; i++ {
			x.Set(i, j, s[i])
		}
	}
	return x
}

// CovarianceMatrix returns the k×k population covariance matrix of k equally long series.
func CovarianceMatrix(series [][]float64) [][]float64 {
	k := len(series)
	if k == 0 || len(series[0]) < 2 {
		out := make([][]float64, k)
		for i := range out {
			out[i] = make([]float64, k)
		}
		return out
	}
	n := float64(len(series[0]))
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, observations(series), nil)
	cov.ScaleSym((n-1)/n, &cov)
	return toRows(&cov)
}

// CorrelationMatrix returns the k×k Pearson correlation matrix of k equally long series.
// Entries involving a flat series are 0 off the diagonal.
func CorrelationMatrix(series [][]float64) [][]float64 {
	k := len(series)
	out := make([][]float64, k)
	for i := range out {
		out[i] = make([]float64, k)
	}
	if k == 0 || len(series[0]) < 2 {
		for i := range out {
			out[i][i] = 1
		}
		return out
	}

	cov := CovarianceMatrix(series)
	for i := 0; i < k; i++ {
		out[i][i] = 1
		for j := i + 1; j < k; j++ {
			denom := cov[i][i] * cov[j][j]
			if denom <= 0 {
				continue
			}
			rho := cov[i][j] / math.Sqrt(denom)
			out[i][j] = rho
			out[j][i] = rho
		}
	}
	return out
}

// PortfolioVariance returns w'Σw.
func PortfolioVariance(weights []float64, cov [][]float64) float64 {
	if len(weights) == 0 || len(weights) != len(cov) {
		return 0
	}
	w := mat.NewVecDense(len(weights), append([]float64(nil), weights...))
	sigma := mat.NewDense(len(cov), len(cov), nil)
	for i := range cov {
		sigma.SetRow(i, cov[i])
	}
	var tmp mat.VecDense
	tmp.MulVec(sigma, w)
	return mat.Dot(w, &tmp)
}

func toRows(m mat.Symmetric) [][]float64 {
	k := m.SymmetricDim()
	out := make([][]float64, k)
	for i := 0; i < k; i++ {
		out[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
