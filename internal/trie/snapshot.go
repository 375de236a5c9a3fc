package trie

// NodeSnapshot is a detached copy of a node and everything below it
type NodeSnapshot struct {
	Terminal bool                     `json:"terminal"`
	Score    float64                  `json:"score"`
	Children map[string]*NodeSnapshot `json:"children"`
}

// Snapshot copies the whole tree for display. It walks every node, so keep
// it off the classification path.
func (t *Trie) Snapshot() *NodeSnapshot {
	return snapshotNode(t.root)
}

func snapshotNode(n *Node) *NodeSnapshot {
	snap := &NodeSnapshot{
		Terminal: n.terminal,
		Score:    n.score,
		Children: make(map[string]*NodeSnapshot, len(n.children)),
	}
	for char, child := range n.children {
		snap.Children[string(char)] = snapshotNode(child)
	}
	return snap
}

// Words lists every stored word reachable from this snapshot, in no
// particular order
func (s *NodeSnapshot) Words() []string {
	var words []string
	s.collect("", &words)
	return words
}

func (s *NodeSnapshot) collect(prefix string, words *[]string) {
	if s.Terminal {
		*words = append(*words, prefix)
	}
	for char, child := range s.Children {
		child.collect(prefix+char, words)
	}
}
