// Package classify trains the probabilistic risk classifiers and derives
// calibrated confidence from their output distributions.
package classify

import (
	"sort"

	"golang.org/x/exp/rand"
)

// treeParams bound a single CART tree.
type treeParams struct {
	maxDepth    int
	minLeaf     int
	maxFeatures int
	numClasses  int
}

// treeNode is either an internal split or a leaf holding a class
// distribution (the class proportions of the training rows that reached it).
type treeNode struct {
	left       *treeNode
	right      *treeNode
	classProbs []float64
	threshold  float64
	featureIdx int
}

func (n *treeNode) isLeaf() bool {
	return n.left == nil
}

// predictProba walks the tree and returns the leaf distribution.
func (n *treeNode) predictProba(row []float64) []float64 {
	node := n
	for !node.isLeaf() {
		if row[node.featureIdx] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.classProbs
}

// buildTree grows a tree on the given row indices, accumulating impurity
// decrease per feature into importances (weighted by node size, CART style).
func buildTree(x [][]float64, y []int, indices []int, depth int, p treeParams, rng *rand.Rand, importances []float64, nTotal int) *treeNode {
	counts := classCounts(y, indices, p.numClasses)
	impurity := gini(counts, len(indices))

	if depth >= p.maxDepth || len(indices) < 2*p.minLeaf || impurity == 0 {
		return leaf(counts, len(indices))
	}

	feature, threshold, gain, left, right := bestSplit(x, y, indices, p, rng, impurity)
	if feature < 0 {
		return leaf(counts, len(indices))
	}

	importances[feature] += float64(len(indices)) / float64(nTotal) * gain

	return &treeNode{
		featureIdx: feature,
		threshold:  threshold,
		left:       buildTree(x, y, left, depth+1, p, rng, importances, nTotal),
		right:      buildTree(x, y, right, depth+1, p, rng, importances, nTotal),
	}
}

func leaf(counts []int, n int) *treeNode {
	probs := make([]float64, len(counts))
	if n > 0 {
		for c, cnt := range counts {
			probs[c] = float64(cnt) / float64(n)
		}
	}
	return &treeNode{classProbs: probs}
}

// bestSplit scans a random feature subset for the threshold with the largest
// Gini gain that keeps both children at or above the minimum leaf size.
func bestSplit(x [][]float64, y []int, indices []int, p treeParams, rng *rand.Rand, parentImpurity float64) (feature int, threshold, gain float64, left, right []int) {
	feature = -1
	numFeatures := len(x[0])

	candidates := rng.Perm(numFeatures)[:p.maxFeatures]

	order := make([]int, len(indices))
	for _, f := range candidates {
		copy(order, indices)
		sort.Slice(order, func(i, j int) bool { return x[order[i]][f] < x[order[j]][f] })

		leftCounts := make([]int, p.numClasses)
		rightCounts := classCounts(y, indices, p.numClasses)
		n := len(order)

		for i := 0; i < n-1; i++ {
			cls := y[order[i]]
			leftCounts[cls]++
			rightCounts[cls]--

			nLeft := i + 1
			nRight := n - nLeft
			if nLeft < p.minLeaf || nRight < p.minLeaf {
				continue
			}
			// Only split between distinct values.
			if x[order[i]][f] == x[order[i+1]][f] {
				continue
			}

			weighted := (float64(nLeft)*gini(leftCounts, nLeft) + float64(nRight)*gini(rightCounts, nRight)) / float64(n)
			if g := parentImpurity - weighted; g > gain {
				gain = g
				feature = f
				threshold = (x[order[i]][f] + x[order[i+1]][f]) / 2
				left = append(left[:0], order[:nLeft]...)
				right = append(right[:0], order[nLeft:]...)
			}
		}
	}
	if feature < 0 {
		return -1, 0, 0, nil, nil
	}
	return feature, threshold, gain, left, right
}

func classCounts(y []int, indices []int, numClasses int) []int {
	counts := make([]int, numClasses)
	for _, idx := range indices {
		counts[y[idx]]++
	}
	return counts
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sumSquares += p * p
	}
	return 1 - sumSquares
}
