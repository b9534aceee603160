package model

import (
	"errors"
	"sort"

	"procodus.dev/river-monitor/internal/pipeline"
)

// DecisionTree is a CART classifier over the four-field feature vector.
// It is the Go counterpart of the decision tree the deployment previously
// trained offline, small enough to serialize as JSON.
type DecisionTree struct {
	Root *Node `json:"root"`
}

// Node is one tree node. Interior nodes split on Feature <= Threshold
// (left) vs > Threshold (right); leaves carry the class distribution of
// the training samples that reached them.
type Node struct {
	// Feature is the split feature index into FeatureVector.Values(),
	// or -1 for a leaf.
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      *Node   `json:"left,omitempty"`
	Right     *Node   `json:"right,omitempty"`

	Label         pipeline.Label             `json:"label,omitempty"`
	Probabilities map[pipeline.Label]float64 `json:"probabilities,omitempty"`
}

const leafFeature = -1

var errEmptyTree = errors.New("decision tree has no root")

// Predict walks the tree to a leaf and returns its majority label.
func (t *DecisionTree) Predict(f pipeline.FeatureVector) (pipeline.Label, error) {
	leaf, err := t.leaf(f)
	if err != nil {
		return "", err
	}
	return leaf.Label, nil
}

// PredictProba walks the tree to a leaf and returns its class
// distribution.
func (t *DecisionTree) PredictProba(f pipeline.FeatureVector) (map[pipeline.Label]float64, error) {
	leaf, err := t.leaf(f)
	if err != nil {
		return nil, err
	}
	return leaf.Probabilities, nil
}

func (t *DecisionTree) leaf(f pipeline.FeatureVector) (*Node, error) {
	if t == nil || t.Root == nil {
		return nil, errEmptyTree
	}

	values := f.Values()
	node := t.Root
	for node.Feature != leafFeature {
		if values[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node, nil
}

var (
	_ Classifier              = (*DecisionTree)(nil)
	_ ProbabilisticClassifier = (*DecisionTree)(nil)
)

// TreeParams bounds tree growth.
type TreeParams struct {
	MaxDepth        int
	MinSamplesSplit int
}

// DefaultTreeParams returns the growth bounds used by the trainer.
func DefaultTreeParams() TreeParams {
	return TreeParams{MaxDepth: 8, MinSamplesSplit: 2}
}

// FitTree grows a CART tree with Gini impurity. Fitting is deterministic:
// features are scanned in order and only strictly better splits replace
// the current best, so the same samples always produce the same tree.
func FitTree(samples []pipeline.FeatureVector, labels []pipeline.Label, params TreeParams) (*DecisionTree, error) {
	if len(samples) == 0 {
		return nil, errors.New("no training samples")
	}
	if len(samples) != len(labels) {
		return nil, errors.New("samples and labels length mismatch")
	}
	if params.MaxDepth <= 0 {
		params.MaxDepth = DefaultTreeParams().MaxDepth
	}
	if params.MinSamplesSplit < 2 {
		params.MinSamplesSplit = 2
	}

	rows := make([][4]float64, len(samples))
	for i, s := range samples {
		rows[i] = s.Values()
	}

	indices := make([]int, len(rows))
	for i := range indices {
		indices[i] = i
	}

	return &DecisionTree{Root: grow(rows, labels, indices, 0, params)}, nil
}

func grow(rows [][4]float64, labels []pipeline.Label, indices []int, depth int, params TreeParams) *Node {
	counts := classCounts(labels, indices)

	if depth >= params.MaxDepth || len(indices) < params.MinSamplesSplit || len(counts) == 1 {
		return leaf(counts, len(indices))
	}

	feature, threshold, ok := bestSplit(rows, labels, indices, counts)
	if !ok {
		return leaf(counts, len(indices))
	}

	var left, right []int
	for _, i := range indices {
		if rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      grow(rows, labels, left, depth+1, params),
		Right:     grow(rows, labels, right, depth+1, params),
	}
}

func leaf(counts map[pipeline.Label]int, total int) *Node {
	probs := make(map[pipeline.Label]float64, len(counts))
	best := pipeline.LabelAman
	bestCount := -1
	for _, label := range pipeline.Labels {
		c, ok := counts[label]
		if !ok {
			continue
		}
		probs[label] = float64(c) / float64(total)
		if c > bestCount {
			best, bestCount = label, c
		}
	}
	return &Node{Feature: leafFeature, Label: best, Probabilities: probs}
}

// bestSplit scans every feature and every midpoint between consecutive
// distinct values for the split with the lowest weighted Gini impurity.
func bestSplit(rows [][4]float64, labels []pipeline.Label, indices []int, counts map[pipeline.Label]int) (feature int, threshold float64, ok bool) {
	parent := gini(counts, len(indices))
	bestImpurity := parent

	for f := range 4 {
		sorted := make([]int, len(indices))
		copy(sorted, indices)
		sort.SliceStable(sorted, func(a, b int) bool {
			return rows[sorted[a]][f] < rows[sorted[b]][f]
		})

		leftCounts := make(map[pipeline.Label]int)
		rightCounts := make(map[pipeline.Label]int, len(counts))
		for l, c := range counts {
			rightCounts[l] = c
		}

		for i := 0; i < len(sorted)-1; i++ {
			idx := sorted[i]
			leftCounts[labels[idx]]++
			rightCounts[labels[idx]]--

			cur, next := rows[idx][f], rows[sorted[i+1]][f]
			if cur == next {
				continue
			}

			nLeft, nRight := i+1, len(sorted)-i-1
			impurity := (float64(nLeft)*gini(leftCounts, nLeft) +
				float64(nRight)*gini(rightCounts, nRight)) / float64(len(sorted))

			if impurity < bestImpurity {
				bestImpurity = impurity
				feature = f
				threshold = (cur + next) / 2
				ok = true
			}
		}
	}

	return feature, threshold, ok
}

func gini(counts map[pipeline.Label]int, total int) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		impurity -= p * p
	}
	return impurity
}

func classCounts(labels []pipeline.Label, indices []int) map[pipeline.Label]int {
	counts := make(map[pipeline.Label]int)
	for _, i := range indices {
		counts[labels[i]]++
	}
	return counts
}
