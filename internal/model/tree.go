package model

import "math"

// Node is one tree node. Leaves carry Value; inner nodes send a sample left
// when its feature value is <= Border, and NaN goes left iff MissingLeft.
type Node struct {
	Leaf        bool
	Feature     int
	Border      float64
	MissingLeft bool
	Left        int
	Right       int
	Value       float64
	Gain        float64
}

// Tree is a binary regression tree stored as a flat node slice rooted at 0.
type Tree struct {
	Nodes []Node
}

func (t Tree) predict(cols [][]float64, row int) float64 {
	n := 0
	for {
		node := t.Nodes[n]
		if node.Leaf {
			return node.Value
		}
		v := cols[node.Feature][row]
		switch {
		case math.IsNaN(v):
			if node.MissingLeft {
				n = node.Left
			} else {
				n = node.Right
			}
		case v <= node.Border:
			n = node.Left
		default:
			n = node.Right
		}
	}
}

// Depth is the number of edges on the longest root-to-leaf path.
func (t Tree) Depth() int {
	var walk func(n int) int
	walk = func(n int) int {
		node := t.Nodes[n]
		if node.Leaf {
			return 0
		}
		return 1 + max(walk(node.Left), walk(node.Right))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0)
}

type split struct {
	ok          bool
	feature     int
	bin         int
	border      float64
	missingLeft bool
	gain        float64
}

// grower builds one tree on pre-binned features with squared loss, so every
// sample has hessian 1.
type grower struct {
	bins    [][]int
	borders [][]float64
	grad    []float64
	params  Params
	nodes   []Node
}

func (g *grower) grow(idx []int) Tree {
	g.nodes = g.nodes[:0]
	g.node(idx, 0)
	return Tree{Nodes: append([]Node(nil), g.nodes...)}
}

func (g *grower) node(idx []int, depth int) int {
	self := len(g.nodes)
	g.nodes = append(g.nodes, Node{})

	var sum float64
	for _, i := range idx {
		sum += g.grad[i]
	}
	count := float64(len(idx))
	leaf := Node{Leaf: true, Value: -sum / (count + g.params.L2Reg) * g.params.LearningRate}

	if depth >= g.params.MaxDepth || len(idx) < 2*g.params.MinLeafRows {
		g.nodes[self] = leaf
		return self
	}
	best := g.bestSplit(idx, sum, count)
	if !best.ok {
		g.nodes[self] = leaf
		return self
	}

	var left, right []int
	for _, i := range idx {
		b := g.bins[best.feature][i]
		if (b < 0 && best.missingLeft) || (b >= 0 && b <= best.bin) {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := g.node(left, depth+1)
	r := g.node(right, depth+1)
	g.nodes[self] = Node{
		Feature:     best.feature,
		Border:      best.border,
		MissingLeft: best.missingLeft,
		Left:        l,
		Right:       r,
		Gain:        best.gain,
	}
	return self
}

func (g *grower) bestSplit(idx []int, sum, count float64) split {
	lambda := g.params.L2Reg
	minRows := float64(g.params.MinLeafRows)
	parent := sum * sum / (count + lambda)

	var best split
	for f, borders := range g.borders {
		nb := len(borders)
		if nb == 0 {
			continue
		}
		histG := make([]float64, nb+1)
		histH := make([]float64, nb+1)
		var nanG, nanH float64
		for _, i := range idx {
			b := g.bins[f][i]
			if b < 0 {
				nanG += g.grad[i]
				nanH++
				continue
			}
			histG[b] += g.grad[i]
			histH[b]++
		}

		var lG, lH float64
		for s := 0; s < nb; s++ {
			lG += histG[s]
			lH += histH[s]
			for _, missingLeft := range []bool{false, true} {
				if missingLeft && nanH == 0 {
					continue
				}
				gl, hl := lG, lH
				if missingLeft {
					gl += nanG
					hl += nanH
				}
				gr, hr := sum-gl, count-hl
				if hl < minRows || hr < minRows {
					continue
				}
				gain := gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parent
				if gain > best.gain+1e-12 {
					best = split{ok: true, feature: f, bin: s, border: borders[s], missingLeft: missingLeft, gain: gain}
				}
			}
		}
	}
	return best
}
