package repomap

import (
	"math"
	"sort"
)

const (
	pageRankAlpha   = 0.85
	pageRankMaxIter = 100
	pageRankTol     = 1.0e-6
)

type edge struct {
	src    string
	dst    string
	weight float64
	ident  string
}

// graph is a weighted directed multigraph of files
type graph struct {
	nodes map[string]struct{}
	edges []edge
}

func newGraph() *graph {
	return &graph{nodes: make(map[string]struct{})}
}

func (g *graph) addEdge(src string, dst string, weight float64, ident string) {
	g.nodes[src] = struct{}{}
	g.nodes[dst] = struct{}{}
	g.edges = append(g.edges, edge{src: src, dst: dst, weight: weight, ident: ident})
}

func (g *graph) sortedNodes() []string {
	ret := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		ret = append(ret, n)
	}
	sort.Strings(ret)
	return ret
}

// pageRank computes the weighted PageRank of every node. personalization biases
// both the teleport and the dangling node distribution; a nil or zero
// personalization is uniform.
func (g *graph) pageRank(personalization map[string]float64) map[string]float64 {
	nodes := g.sortedNodes()
	n := len(nodes)
	if n == 0 {
		return map[string]float64{}
	}
	index := make(map[string]int, n)
	for i, v := range nodes {
		index[v] = i
	}
	outWeight := make([]float64, n)
	for _, e := range g.edges {
		outWeight[index[e.src]] += e.weight
	}

	p := make([]float64, n)
	var psum float64
	for i, v := range nodes {
		p[i] = personalization[v]
		psum += p[i]
	}
	if psum <= 0 {
		for i := range p {
			p[i] = 1
		}
		psum = float64(n)
	}
	for i := range p {
		p[i] /= psum
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}
	for iter := 0; iter < pageRankMaxIter; iter++ {
		next := make([]float64, n)
		var danglingSum float64
		for i, w := range outWeight {
			if w == 0 {
				danglingSum += x[i]
			}
		}
		for _, e := range g.edges {
			s := index[e.src]
			next[index[e.dst]] += pageRankAlpha * x[s] * e.weight / outWeight[s]
		}
		var diff float64
		for i := range next {
			next[i] += pageRankAlpha*danglingSum*p[i] + (1-pageRankAlpha)*p[i]
			diff += math.Abs(next[i] - x[i])
		}
		x = next
		if diff < float64(n)*pageRankTol {
			break
		}
	}
	ret := make(map[string]float64, n)
	for i, v := range nodes {
		ret[v] = x[i]
	}
	return ret
}
