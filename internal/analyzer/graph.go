package analyzer

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/dominikbraun/graph"
)

// importGraph is the directed graph of documents and the documents they
// import. Import cycles are allowed.
type importGraph struct {
	g graph.Graph[string, string]
	// order is the position at which each document was first loaded.
	order map[string]int
}

func newImportGraph() *importGraph {
	return &importGraph{
		g:     graph.New(graph.StringHash, graph.Directed()),
		order: make(map[string]int),
	}
}

func (ig *importGraph) addDocument(url string) error {
	if _, ok := ig.order[url]; ok {
		return nil
	}
	if err := ig.g.AddVertex(url); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return fmt.Errorf("failed to add document %s: %w", url, err)
	}
	ig.order[url] = len(ig.order)
	return nil
}

func (ig *importGraph) addImport(from, to string) error {
	if err := ig.addDocument(from); err != nil {
		return err
	}
	if err := ig.addDocument(to); err != nil {
		return err
	}
	if err := ig.g.AddEdge(from, to); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return fmt.Errorf("failed to add import %s -> %s: %w", from, to, err)
	}
	return nil
}

// reachable returns every document transitively imported by url, excluding
// url itself, in the order the documents were loaded.
func (ig *importGraph) reachable(url string) []string {
	if _, ok := ig.order[url]; !ok {
		return nil
	}
	var out []string
	_ = graph.BFS(ig.g, url, func(v string) bool {
		if v != url {
			out = append(out, v)
		}
		return false
	})
	slices.SortFunc(out, func(a, b string) int {
		return cmp.Compare(ig.order[a], ig.order[b])
	})
	return out
}
