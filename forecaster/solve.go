package forecaster

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	irlsMaxIter = 100
	irlsTol     = 1e-10
	irlsFloor   = 1e-8
)

var machEps = math.Nextafter(1, 2) - 1

// penalty regularizes the scaled objective
//
//	(1/2n)||y - X beta||^2 + l1 * sum_{j in l1Cols} |beta_j| + (1/2) sum_j ridge_j beta_j^2
type penalty struct {
	l1     float64
	l1Cols []int
	ridge  []float64
}

func (p penalty) active() bool {
	if p.l1 > 0 && len(p.l1Cols) > 0 {
		return true
	}
	for _, r := range p.ridge {
		if r > 0 {
			return true
		}
	}
	return false
}

// solution is a fitted coefficient vector with the inverse of the
// (regularized) normal matrix. ainv is nil when it could not be formed.
type solution struct {
	beta []float64
	ainv *mat.SymDense
}

// designRank returns the numerical rank of x.
func designRank(x *mat.Dense) (int, bool) {
	n, p := x.Dims()
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDNone) {
		return 0, false
	}
	sv := svd.Values(nil)
	if len(sv) == 0 {
		return 0, true
	}
	tol := sv[0] * float64(max(n, p)) * machEps
	rank := 0
	for _, s := range sv {
		if s > tol {
			rank++
		}
	}
	return rank, true
}

// solveLeastSquares solves the unregularized problem by QR. A rank
// deficient design is rejected.
func solveLeastSquares(x *mat.Dense, y *mat.VecDense) (*solution, error) {
	_, p := x.Dims()
	rank, ok := designRank(x)
	if !ok {
		return nil, &DegenerateDesignError{Columns: p, Reason: "singular value decomposition did not converge"}
	}
	if rank < p {
		return nil, &DegenerateDesignError{Rank: rank, Columns: p, Reason: "no regularization configured"}
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil && !isCondition(err) {
		return nil, &DegenerateDesignError{Rank: rank, Columns: p, Reason: err.Error()}
	}

	sol := &solution{beta: mat.Col(nil, 0, &beta)}
	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	var chol mat.Cholesky
	if chol.Factorize(&xtx) {
		var inv mat.SymDense
		if err := chol.InverseTo(&inv); err == nil || isCondition(err) {
			sol.ainv = &inv
		}
	}
	return sol, nil
}

// solvePenalized minimizes the penalized objective. The L1 term is handled
// by iteratively reweighted ridge steps starting from a plain ridge solve.
func solvePenalized(x *mat.Dense, y *mat.VecDense, pen penalty) (*solution, error) {
	n, p := x.Dims()
	nf := float64(n)

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	d := make([]float64, p)
	for j, r := range pen.ridge {
		d[j] = nf * r
	}
	for _, j := range pen.l1Cols {
		d[j] = nf * pen.l1
	}
	reweight := pen.l1 > 0 && len(pen.l1Cols) > 0

	// Penalties cannot separate collinear columns that carry none.
	if err := checkUnpenalized(x, d); err != nil {
		return nil, err
	}

	var beta []float64
	var chol *mat.Cholesky
	for iter := 0; iter < irlsMaxIter; iter++ {
		next, c, err := ridgeSolve(&xtx, &xty, d)
		if err != nil {
			rank, _ := designRank(x)
			return nil, &DegenerateDesignError{Rank: rank, Columns: p, Reason: err.Error()}
		}
		converged := beta != nil && floats.Distance(beta, next, math.Inf(1)) < irlsTol
		beta, chol = next, c
		if converged || !reweight {
			break
		}
		for _, j := range pen.l1Cols {
			d[j] = nf * pen.l1 / math.Max(math.Abs(beta[j]), irlsFloor)
		}
	}

	sol := &solution{beta: beta}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err == nil || isCondition(err) {
		sol.ainv = &inv
	}
	return sol, nil
}

// checkUnpenalized rejects a design whose columns with a zero penalty
// weight are rank deficient on their own.
func checkUnpenalized(x *mat.Dense, d []float64) error {
	var free []int
	for j, v := range d {
		if v == 0 {
			free = append(free, j)
		}
	}
	if len(free) == 0 {
		return nil
	}

	n, p := x.Dims()
	sub := mat.NewDense(n, len(free), nil)
	for k, j := range free {
		sub.SetCol(k, mat.Col(nil, j, x))
	}
	rank, ok := designRank(sub)
	if !ok {
		return &DegenerateDesignError{Columns: p, Reason: "singular value decomposition did not converge"}
	}
	if rank < len(free) {
		return &DegenerateDesignError{
			Rank:    rank,
			Columns: p,
			Reason:  fmt.Sprintf("%d unregularized columns are collinear", len(free)),
		}
	}
	return nil
}

// ridgeSolve solves (X'X + diag(d)) beta = X'y by Cholesky. A tiny diagonal
// floor is added once if the system is not positive definite.
func ridgeSolve(xtx *mat.SymDense, xty *mat.VecDense, d []float64) ([]float64, *mat.Cholesky, error) {
	p := xtx.SymmetricDim()
	a := mat.NewSymDense(p, nil)
	a.CopySym(xtx)
	maxDiag := 0.0
	for j, v := range d {
		a.SetSym(j, j, a.At(j, j)+v)
		maxDiag = math.Max(maxDiag, a.At(j, j))
	}

	var chol mat.Cholesky
	if !chol.Factorize(a) {
		floor := 1e-9 * (1 + maxDiag)
		for j := 0; j < p; j++ {
			a.SetSym(j, j, a.At(j, j)+floor)
		}
		if !chol.Factorize(a) {
			return nil, nil, errors.New("regularized normal matrix is not positive definite")
		}
	}

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, xty); err != nil && !isCondition(err) {
		return nil, nil, err
	}
	return mat.Col(nil, 0, &beta), &chol, nil
}

func isCondition(err error) bool {
	var c mat.Condition
	return errors.As(err, &c)
}
