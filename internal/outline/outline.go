package outline

// Record is one entry of a flat table of contents as returned by a PDF
// reader, in document (pre-order) order.
type Record struct {
	Level     int    `json:"level" yaml:"level"`
	Title     string `json:"title" yaml:"title"`
	PageIndex int    `json:"pageIndex" yaml:"pageIndex"`
}

// Node is a bookmark in the reconstructed tree.
type Node struct {
	Title      string  `json:"title" yaml:"title"`
	PageNumber int     `json:"pageNumber" yaml:"pageNumber"`
	Children   []*Node `json:"children" yaml:"children"`
}

type stackEntry struct {
	level int
	node  *Node
}

// Build turns a flat list of records into a forest.
// A record becomes a child of the nearest preceding record with a strictly
// smaller level; records without one are roots. Level jumps are allowed.
func Build(records []Record) []*Node {
	roots := []*Node{}
	var stack []stackEntry

	for _, rec := range records {
		node := &Node{
			Title:      rec.Title,
			PageNumber: rec.PageIndex + 1,
			Children:   []*Node{},
		}

		for len(stack) > 0 && stack[len(stack)-1].level >= rec.Level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, node)
		}

		stack = append(stack, stackEntry{level: rec.Level, node: node})
	}

	return roots
}

// Flatten walks the forest in pre-order and returns one record per node,
// with roots at level 1. Build(Flatten(f)) reproduces f.
func Flatten(forest []*Node) []Record {
	records := make([]Record, 0, Count(forest))
	var walk func(nodes []*Node, level int)
	walk = func(nodes []*Node, level int) {
		for _, n := range nodes {
			if n == nil {
				continue
			}
			records = append(records, Record{
				Level:     level,
				Title:     n.Title,
				PageIndex: n.PageNumber - 1,
			})
			walk(n.Children, level+1)
		}
	}
	walk(forest, 1)
	return records
}

// Count returns the number of nodes in the forest, counting recursively.
func Count(forest []*Node) int {
	total := 0
	for _, n := range forest {
		if n == nil {
			continue
		}
		total += 1 + Count(n.Children)
	}
	return total
}

// Depth returns the maximum nesting depth (0 for an empty forest).
func Depth(forest []*Node) int {
	max := 0
	for _, n := range forest {
		if n == nil {
			continue
		}
		if d := 1 + Depth(n.Children); d > max {
			max = d
		}
	}
	return max
}
