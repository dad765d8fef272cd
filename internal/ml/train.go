package ml

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"StockStats/internal/domain/models"
	domsvc "StockStats/internal/domain/service"
	"StockStats/internal/services/features"

	"gonum.org/v1/gonum/mat"
)

// TrainOptions controls the offline fit.
type TrainOptions struct {
	TestSize float64
	Seed     int64
	Trees    int // random forest only
	MaxDepth int // random forest only; 0 grows until leaves are pure
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{TestSize: 0.2, Seed: 42, Trees: 200}
}

// MinTrainingRows is the fewest complete feature rows a fit accepts.
const MinTrainingRows = 10

type sample struct {
	x []float64
	y float64
}

// dataset pairs each complete feature row with the next bar's close and
// splits the shuffled pairs into train and test.
func dataset(series models.Series, opts TrainOptions) (train, test []sample, err error) {
	frame := features.Build(series)

	var samples []sample
	// the last bar has no next close
	for i := 0; i < len(frame.Rows)-1; i++ {
		row := frame.Rows[i]
		if hasNaN(row.Values) || math.IsNaN(series[i+1].Close) {
			continue
		}
		samples = append(samples, sample{x: row.Values, y: series[i+1].Close})
	}
	if len(samples) < MinTrainingRows {
		return nil, nil, fmt.Errorf("need at least %d complete rows, got %d", MinTrainingRows, len(samples))
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(samples), func(i, j int) { samples[i], samples[j] = samples[j], samples[i] })

	nTest := int(math.Ceil(float64(len(samples)) * opts.TestSize))
	if nTest < 1 {
		nTest = 1
	}
	return samples[nTest:], samples[:nTest], nil
}

// TrainLinear fits an OLS model predicting the next bar's close from the
// standard feature columns and scores it on a shuffled hold-out split.
func TrainLinear(series models.Series, opts TrainOptions) (*Artifact, error) {
	train, test, err := dataset(series, opts)
	if err != nil {
		return nil, err
	}

	p := len(features.FeatureColumns)
	if len(train) <= p {
		return nil, fmt.Errorf("need more than %d training rows, got %d", p, len(train))
	}

	X := mat.NewDense(len(train), p+1, nil)
	y := mat.NewVecDense(len(train), nil)
	for i, s := range train {
		X.Set(i, 0, 1)
		for j, v := range s.x {
			X.Set(i, j+1, v)
		}
		y.SetVec(i, s.y)
	}

	var beta mat.VecDense
	if err := beta.SolveVec(X, y); err != nil {
		return nil, fmt.Errorf("least squares: %w", err)
	}

	model := &LinearModel{Intercept: beta.AtVec(0), Coefficients: make([]float64, p)}
	for j := 0; j < p; j++ {
		model.Coefficients[j] = beta.AtVec(j + 1)
	}
	return scored(KindLinear, model, test)
}

// TrainForest fits a bootstrap-aggregated set of regression trees on the same
// data and split as TrainLinear. Every split considers every feature.
func TrainForest(series models.Series, opts TrainOptions) (*Artifact, error) {
	if opts.Trees < 1 {
		return nil, fmt.Errorf("forest needs at least one tree, got %d", opts.Trees)
	}
	train, test, err := dataset(series, opts)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	forest := &ForestModel{Trees: make([]Tree, opts.Trees)}
	boot := make([]sample, len(train))
	for t := range forest.Trees {
		for i := range boot {
			boot[i] = train[rng.Intn(len(train))]
		}
		b := &treeBuilder{maxDepth: opts.MaxDepth}
		b.grow(append([]sample(nil), boot...), 0)
		forest.Trees[t] = Tree{Nodes: b.nodes}
	}
	return scored(KindRandomForest, forest, test)
}

func scored(kind string, est domsvc.Estimator, test []sample) (*Artifact, error) {
	Xt := make([][]float64, len(test))
	yt := make([]float64, len(test))
	for i, s := range test {
		Xt[i] = s.x
		yt[i] = s.y
	}
	preds, err := est.Predict(Xt)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(features.FeatureColumns))
	copy(names, features.FeatureColumns)
	return &Artifact{
		Kind:      kind,
		Features:  names,
		Metrics:   score(yt, preds),
		TrainedAt: time.Now().UTC(),
		Estimator: est,
	}, nil
}

type treeBuilder struct {
	nodes    []TreeNode
	maxDepth int
}

// grow appends the subtree for rows and returns its root index. Children are
// appended after their parent, so child indices are always larger.
func (b *treeBuilder) grow(rows []sample, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Feature: -1, Left: -1, Right: -1, Value: meanTarget(rows)})

	if len(rows) < 2 || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return idx
	}
	feature, threshold, ok := bestSplit(rows)
	if !ok {
		return idx
	}

	var left, right []sample
	for _, r := range rows {
		if r.x[feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx] = TreeNode{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return idx
}

// bestSplit minimises the summed squared error of the two children. Thresholds
// sit midway between adjacent distinct values.
func bestSplit(rows []sample) (feature int, threshold float64, ok bool) {
	n := len(rows)
	total, totalSq := 0.0, 0.0
	for _, r := range rows {
		total += r.y
		totalSq += r.y * r.y
	}
	best := totalSq - total*total/float64(n)
	if best <= 1e-12 {
		return 0, 0, false
	}

	order := make([]int, n)
	for f := range rows[0].x {
		for i := range order {
			order[i] = i
		}
		sortByFeature(order, rows, f)

		sum, sumSq := 0.0, 0.0
		for k := 0; k < n-1; k++ {
			y := rows[order[k]].y
			sum += y
			sumSq += y * y
			lo, hi := rows[order[k]].x[f], rows[order[k+1]].x[f]
			if lo == hi {
				continue
			}
			nl, nr := float64(k+1), float64(n-k-1)
			sse := (sumSq - sum*sum/nl) + ((totalSq - sumSq) - (total-sum)*(total-sum)/nr)
			if sse < best-1e-12 {
				best, feature, threshold, ok = sse, f, lo+(hi-lo)/2, true
			}
		}
	}
	return feature, threshold, ok
}

func sortByFeature(order []int, rows []sample, f int) {
	// insertion sort keeps equal values in input order, which keeps fits reproducible
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && rows[order[j]].x[f] < rows[order[j-1]].x[f]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
}

func meanTarget(rows []sample) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rows {
		sum += r.y
	}
	return sum / float64(len(rows))
}

func score(y, pred []float64) Metrics {
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i := range y {
		ssRes += (y[i] - pred[i]) * (y[i] - pred[i])
		ssTot += (y[i] - mean) * (y[i] - mean)
	}
	m := Metrics{MSE: ssRes / float64(len(y))}
	if ssTot > 0 {
		m.R2 = 1 - ssRes/ssTot
	}
	return m
}

func hasNaN(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
