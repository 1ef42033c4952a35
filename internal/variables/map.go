package variables

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ErrListAssign is returned when a value is assigned to a "::*" name.
// List names may only be deleted.
var ErrListAssign = errors.New("cannot assign a value to a whole list")

// VariableMap is a concurrency-safe hierarchical map of variables.
//
// Keys are "::"-separated paths. A node can hold a value and children at the
// same time: "a" and "a::b" are independent variables, and "a::*" lists the
// children of "a".
type VariableMap struct {
	mu   sync.RWMutex
	root *node
}

type node struct {
	value    any
	set      bool
	children map[string]*node
}

// NewVariableMap creates an empty map.
func NewVariableMap() *VariableMap {
	return &VariableMap{root: &node{}}
}

// Get returns the value stored under key. For a "::*" key it returns a
// map[string]any of the direct children; a child holding no value of its
// own is represented by the map of its children. An empty list is absent.
func (m *VariableMap) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.lookup(splitKey(key))
	if n == nil {
		return nil, false
	}
	if strings.HasSuffix(key, ListAll) {
		if len(n.children) == 0 {
			return nil, false
		}
		return n.list(), true
	}
	if !n.set {
		return nil, false
	}
	return n.value, true
}

// Set stores value under key. A nil value deletes the key; a nil value on a
// "::*" key deletes every entry of the list.
func (m *VariableMap) Set(key string, value any) error {
	_, err := m.Update(key, value)
	return err
}

// Update is Set that also reports the keys whose stored value went away or
// changed. Deleting a list reports every value removed from its subtree,
// in sorted order.
func (m *VariableMap) Update(key string, value any) ([]string, error) {
	isList := strings.HasSuffix(key, ListAll)
	if isList && value != nil {
		return nil, ErrListAssign
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	segs := splitKey(key)
	if value == nil {
		if !isList {
			m.delete(segs, false)
			return []string{key}, nil
		}
		var removed []string
		if n := m.lookup(segs); n != nil {
			n.walk(strings.Join(segs, ListSeparator), func(k string, _ any) {
				removed = append(removed, k)
			})
		}
		m.delete(segs, true)
		return removed, nil
	}

	n := m.root
	for _, s := range segs {
		child, ok := n.children[s]
		if !ok {
			if n.children == nil {
				n.children = make(map[string]*node)
			}
			child = &node{}
			n.children[s] = child
		}
		n = child
	}
	n.value, n.set = value, true
	return []string{key}, nil
}

func (m *VariableMap) delete(segs []string, list bool) {
	path := make([]*node, 0, len(segs)+1)
	path = append(path, m.root)
	n := m.root
	for _, s := range segs {
		child, ok := n.children[s]
		if !ok {
			return
		}
		path = append(path, child)
		n = child
	}
	if list {
		n.children = nil
	} else {
		n.value, n.set = nil, false
	}

	// Prune nodes left with neither a value nor children.
	for i := len(path) - 1; i > 0; i-- {
		cur := path[i]
		if cur.set || len(cur.children) > 0 {
			break
		}
		delete(path[i-1].children, segs[i-1])
	}
}

func (m *VariableMap) lookup(segs []string) *node {
	n := m.root
	for _, s := range segs {
		child, ok := n.children[s]
		if !ok {
			return nil
		}
		n = child
	}
	return n
}

func (n *node) list() map[string]any {
	out := make(map[string]any, len(n.children))
	for k, c := range n.children {
		if c.set {
			out[k] = c.value
		} else {
			out[k] = c.list()
		}
	}
	return out
}

// Walk calls fn for every stored value in sorted key order. fn must not
// modify the map.
func (m *VariableMap) Walk(fn func(key string, value any)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.root.walk("", fn)
}

func (n *node) walk(prefix string, fn func(string, any)) {
	for _, k := range slices.Sorted(maps.Keys(n.children)) {
		key := k
		if prefix != "" {
			key = prefix + ListSeparator + k
		}
		c := n.children[k]
		if c.set {
			fn(key, c.value)
		}
		c.walk(key, fn)
	}
}

// Len returns the number of stored values.
func (m *VariableMap) Len() int {
	count := 0
	m.Walk(func(string, any) { count++ })
	return count
}

// Clear removes every variable.
func (m *VariableMap) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.root = &node{}
}

// Copy returns an independent copy. Values are shared; the tree is not.
func (m *VariableMap) Copy() *VariableMap {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &VariableMap{root: m.root.clone()}
}

func (n *node) clone() *node {
	c := &node{value: n.value, set: n.set}
	if len(n.children) > 0 {
		c.children = make(map[string]*node, len(n.children))
		for k, child := range n.children {
			c.children[k] = child.clone()
		}
	}
	return c
}
