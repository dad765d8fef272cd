package ml

import "fmt"

// TreeNode is one node of a flattened regression tree. A node with a
// negative Feature is a leaf and carries the prediction in Value.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// ForestModel averages the outputs of its trees (random forest regression).
type ForestModel struct {
	Trees []Tree `json:"trees"`
}

func (m *ForestModel) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		sum := 0.0
		for t := range m.Trees {
			v, err := m.Trees[t].eval(row)
			if err != nil {
				return nil, fmt.Errorf("tree %d row %d: %w", t, i, err)
			}
			sum += v
		}
		out[i] = sum / float64(len(m.Trees))
	}
	return out, nil
}

// left branch when x[feature] <= threshold
func (t *Tree) eval(x []float64) (float64, error) {
	i := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value, nil
		}
		if n.Feature >= len(x) {
			return 0, fmt.Errorf("feature index %d out of range", n.Feature)
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0, fmt.Errorf("tree does not terminate")
}

func (m *ForestModel) validate(nFeatures int) error {
	if len(m.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for ti, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature < 0 {
				continue
			}
			if n.Feature >= nFeatures {
				return fmt.Errorf("tree %d node %d: feature %d of %d", ti, ni, n.Feature, nFeatures)
			}
			if n.Left <= ni || n.Left >= len(t.Nodes) || n.Right <= ni || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: bad child index", ti, ni)
			}
		}
	}
	return nil
}
