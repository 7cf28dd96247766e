package engine

import (
	"sort"
	"strings"
)

// node is one entry in the in-memory directory tree.
type node struct {
	name     string
	id       uint32
	dir      bool
	content  []byte
	attrs    map[uint8][]byte
	children map[string]*node
	parent   *node
}

func (e *Engine) newNode(name string, dir bool) *node {
	e.nextID++
	n := &node{
		name:  name,
		id:    e.nextID,
		dir:   dir,
		attrs: make(map[uint8][]byte),
	}
	if dir {
		n.children = make(map[string]*node)
	}
	return n
}

// splitPath breaks a path into components, treating "" and "/" as the
// root and collapsing repeated separators.
func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// lookup resolves a path to its node.
func (e *Engine) lookup(path string) (*node, Error) {
	n := e.root
	for _, part := range splitPath(path) {
		if !n.dir {
			return nil, ErrNotDir
		}
		child, ok := n.children[part]
		if !ok {
			return nil, ErrNoEnt
		}
		n = child
	}
	return n, 0
}

// lookupParent resolves the directory containing the path's final
// component and returns both. The final component need not exist.
func (e *Engine) lookupParent(path string) (*node, string, Error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, "", ErrInval
	}
	name := parts[len(parts)-1]
	if len(name) > NameMax {
		return nil, "", ErrNameTooLong
	}

	n := e.root
	for _, part := range parts[:len(parts)-1] {
		if !n.dir {
			return nil, "", ErrNotDir
		}
		child, ok := n.children[part]
		if !ok {
			return nil, "", ErrNoEnt
		}
		n = child
	}
	if !n.dir {
		return nil, "", ErrNotDir
	}
	return n, name, 0
}

// sortedChildNames returns the directory's entry names in iteration
// order. Snapshot serialization and directory cursors share this so
// enumeration order is stable.
func sortedChildNames(n *node) []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
