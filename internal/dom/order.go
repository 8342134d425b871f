package dom

import (
	"sort"

	"golang.org/x/net/html"
)

// Compare orders two nodes by document (pre-order traversal) position. It
// returns -1 when a precedes b, 1 when a follows b, and 0 when they are the
// same node or belong to different trees. An ancestor precedes its descendants.
func Compare(a, b *html.Node) int {
	if a == b {
		return 0
	}
	pa, pb := ancestry(a), ancestry(b)
	if pa[0] != pb[0] {
		return 0
	}

	i := 0
	for i < len(pa) && i < len(pb) && pa[i] == pb[i] {
		i++
	}
	switch {
	case i == len(pa):
		return -1
	case i == len(pb):
		return 1
	}

	// pa[i] and pb[i] are distinct siblings under pa[i-1]
	for s := pa[i].NextSibling; s != nil; s = s.NextSibling {
		if s == pb[i] {
			return -1
		}
	}
	return 1
}

// SortInDocumentOrder sorts nodes in place by Compare.
func SortInDocumentOrder(nodes []*html.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return Compare(nodes[i], nodes[j]) < 0
	})
}

// ancestry returns the path from the tree root down to n.
func ancestry(n *html.Node) []*html.Node {
	var path []*html.Node
	for p := n; p != nil; p = p.Parent {
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
