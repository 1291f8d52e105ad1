// Package thread turns the flat comment list of a post into a reply forest and
// keeps a client-side working set of comments in sync with new submissions.
package thread

import "minifeed/internal/model"

// Stats describes the anomalies BuildTree had to resolve. Every slice holds
// comment ids in input order.
type Stats struct {
	Total int
	Roots int

	// Orphans reference a parent that is not part of the input.
	Orphans []string
	// SelfReferences name themselves as parent.
	SelfReferences []string
	// Cycles are members of a parent cycle; they were demoted to roots.
	Cycles []string
	// Duplicates repeat an id seen earlier in the input and were dropped.
	Duplicates []string
}

// Demoted returns how many comments became roots although they declared a parent.
func (s Stats) Demoted() int {
	return len(s.Orphans) + len(s.SelfReferences) + len(s.Cycles)
}

// Clean reports whether the input resolved without any anomaly.
func (s Stats) Clean() bool {
	return s.Demoted() == 0 && len(s.Duplicates) == 0
}

// BuildTree builds the reply forest for comments. See Build.
func BuildTree(comments []model.Comment) []*model.CommentNode {
	roots, _ := Build(comments)
	return roots
}

// Build links comments into a forest in two passes and never fails.
//
// Roots keep the relative input order of top-level comments and of comments
// demoted to roots; children keep the input order of their siblings. A comment
// whose parent cannot be resolved, that names itself as parent, or that sits on
// a parent cycle becomes a root. When two comments share an id the first one
// wins and the later one is reported in Stats.Duplicates.
func Build(comments []model.Comment) ([]*model.CommentNode, Stats) {
	stats := Stats{}

	byID := make(map[string]*model.CommentNode, len(comments))
	nodes := make([]*model.CommentNode, 0, len(comments))
	for _, c := range comments {
		if c.ID != "" {
			if _, dup := byID[c.ID]; dup {
				stats.Duplicates = append(stats.Duplicates, c.ID)
				continue
			}
		}
		n := &model.CommentNode{Comment: c, Children: []*model.CommentNode{}}
		if c.ID != "" {
			byID[c.ID] = n
		}
		nodes = append(nodes, n)
	}
	stats.Total = len(nodes)

	parentOf := make(map[*model.CommentNode]*model.CommentNode, len(nodes))
	for _, n := range nodes {
		if n.IsTopLevel() {
			continue
		}
		pid := *n.ParentID
		if pid == n.ID {
			stats.SelfReferences = append(stats.SelfReferences, n.ID)
			continue
		}
		p, ok := byID[pid]
		if !ok {
			stats.Orphans = append(stats.Orphans, n.ID)
			continue
		}
		parentOf[n] = p
	}

	inCycle := findCycles(nodes, parentOf)

	roots := make([]*model.CommentNode, 0)
	for _, n := range nodes {
		p, ok := parentOf[n]
		if !ok || inCycle[n] {
			if inCycle[n] {
				stats.Cycles = append(stats.Cycles, n.ID)
			}
			roots = append(roots, n)
			continue
		}
		p.Children = append(p.Children, n)
	}
	stats.Roots = len(roots)

	return roots, stats
}

// findCycles marks every node that lies on a parent cycle. Each node is walked
// at most once, so the pass is linear in the number of nodes.
func findCycles(nodes []*model.CommentNode, parentOf map[*model.CommentNode]*model.CommentNode) map[*model.CommentNode]bool {
	const (
		unvisited = iota
		onPath
		done
	)

	state := make(map[*model.CommentNode]uint8, len(nodes))
	inCycle := make(map[*model.CommentNode]bool)
	path := make([]*model.CommentNode, 0)

	for _, start := range nodes {
		if state[start] != unvisited {
			continue
		}

		path = path[:0]
		cur := start
		for cur != nil && state[cur] == unvisited {
			state[cur] = onPath
			path = append(path, cur)
			cur = parentOf[cur]
		}

		if cur != nil && state[cur] == onPath {
			for i := len(path) - 1; i >= 0; i-- {
				inCycle[path[i]] = true
				if path[i] == cur {
					break
				}
			}
		}

		for _, n := range path {
			state[n] = done
		}
	}

	return inCycle
}

// Count returns the number of nodes in the forest, descendants included.
func Count(forest []*model.CommentNode) int {
	total := 0
	Walk(forest, func(*model.CommentNode, int) { total++ })
	return total
}

// Walk visits the forest depth-first in display order. Roots have depth 0.
func Walk(forest []*model.CommentNode, fn func(n *model.CommentNode, depth int)) {
	type frame struct {
		node  *model.CommentNode
		depth int
	}

	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: forest[i]})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fn(f.node, f.depth)

		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], depth: f.depth + 1})
		}
	}
}
