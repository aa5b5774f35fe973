package model

import "time"

// Node is one entry of a Tree snapshot.
type Node struct {
	ID        string
	Title     string
	URL       string // empty for folders
	CreatedAt time.Time
	IsFolder  bool
	Protected bool
	Parent    int   // index into Tree.Nodes, -1 for top-level nodes
	Children  []int // indices into Tree.Nodes, folders first
}

// Tree is an arena snapshot of the store. Nodes reference each other by
// index so traversals never recurse.
type Tree struct {
	Nodes []Node
	Roots []int
}

func folderNode(f Folder) Node {
	return Node{ID: f.ID, Title: f.Name, IsFolder: true, Protected: f.Protected, Parent: -1}
}

func bookmarkNode(b Bookmark) Node {
	return Node{ID: b.ID, Title: b.Title, URL: b.URL, CreatedAt: b.CreatedAt, Parent: -1}
}

// buildTree snapshots folders and bookmarks. With rootID set, only the
// subtree under that folder (inclusive) is kept.
func buildTree(folders []Folder, bookmarks []Bookmark, rootID *string) *Tree {
	t := &Tree{}
	byID := make(map[string]int, len(folders))

	for _, f := range folders {
		byID[f.ID] = len(t.Nodes)
		t.Nodes = append(t.Nodes, folderNode(f))
	}

	link := func(child int, parentID *string) {
		if parentID == nil {
			t.Roots = append(t.Roots, child)
			return
		}
		p, ok := byID[*parentID]
		if !ok {
			// Orphans surface at the top level.
			t.Roots = append(t.Roots, child)
			return
		}
		t.Nodes[child].Parent = p
		t.Nodes[p].Children = append(t.Nodes[p].Children, child)
	}

	for i, f := range folders {
		link(i, f.ParentID)
	}
	for _, b := range bookmarks {
		idx := len(t.Nodes)
		t.Nodes = append(t.Nodes, bookmarkNode(b))
		link(idx, b.FolderID)
	}

	if rootID == nil {
		return t
	}
	return t.extract(byID[*rootID])
}

// extract copies the subtree rooted at idx into a fresh arena.
func (t *Tree) extract(idx int) *Tree {
	sub := &Tree{}
	type frame struct{ src, parent int }
	stack := []frame{{src: idx, parent: -1}}

	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.Nodes[fr.src]
		n.Parent = fr.parent
		n.Children = nil
		dst := len(sub.Nodes)
		sub.Nodes = append(sub.Nodes, n)
		if fr.parent < 0 {
			sub.Roots = append(sub.Roots, dst)
		} else {
			sub.Nodes[fr.parent].Children = append(sub.Nodes[fr.parent].Children, dst)
		}

		children := t.Nodes[fr.src].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{src: children[i], parent: dst})
		}
	}
	return sub
}

// PreOrder returns node indices in document order.
func (t *Tree) PreOrder() []int {
	order := make([]int, 0, len(t.Nodes))
	stack := make([]int, 0, len(t.Roots))
	for i := len(t.Roots) - 1; i >= 0; i-- {
		stack = append(stack, t.Roots[i])
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, n)

		children := t.Nodes[n].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return order
}

// PostOrder returns node indices with every child before its parent.
func (t *Tree) PostOrder() []int {
	order := make([]int, 0, len(t.Nodes))

	// Each frame remembers which child to descend into next.
	type frame struct {
		node int
		next int
	}
	stack := make([]frame, 0)
	for i := len(t.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: t.Roots[i]})
	}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		children := t.Nodes[top.node].Children
		if top.next < len(children) {
			child := children[top.next]
			top.next++
			stack = append(stack, frame{node: child})
			continue
		}
		order = append(order, top.node)
		stack = stack[:len(stack)-1]
	}
	return order
}

// Bookmarks returns every bookmark node in document order.
func (t *Tree) Bookmarks() []Node {
	var result []Node
	for _, i := range t.PreOrder() {
		if !t.Nodes[i].IsFolder {
			result = append(result, t.Nodes[i])
		}
	}
	return result
}
