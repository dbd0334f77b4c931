package sim

import "fmt"

// GuardViolationError reports component access that the active node never
// declared. It is a programmer-usage fault: the fix is always to declare the
// missing lock on the node before registration.
type GuardViolationError struct {
	Node      string
	Key       string
	Component string
	Write     bool
}

func (e *GuardViolationError) Error() string {
	op, list := "read", "Reads"
	if e.Write {
		op, list = "write", "Writes"
	}
	what := fmt.Sprintf("resource %q", e.Key)
	if e.Component != "" {
		what = fmt.Sprintf("component %q of resource %q", e.Component, e.Key)
	}
	return fmt.Sprintf("node %q performed an undeclared %s of %s; add %q to the node's %s list in its NodeSpec",
		e.Node, op, what, e.Key, list)
}

// AccessGuard checks, on every component access, that the active node
// declared the matching lock. A violation panics: undeclared access would
// race other nodes, and silent corruption is worse than a hard stop.
type AccessGuard struct {
	node   string
	reads  map[string]struct{}
	writes map[string]struct{}
}

// NewAccessGuard captures the declared locks of a node for one dispatch.
func NewAccessGuard(n *Node) *AccessGuard {
	g := &AccessGuard{
		node:   n.Name(),
		reads:  make(map[string]struct{}, len(n.reads)),
		writes: make(map[string]struct{}, len(n.writes)),
	}
	for _, key := range n.reads {
		g.reads[key] = struct{}{}
	}
	for _, key := range n.writes {
		g.writes[key] = struct{}{}
	}
	return g
}

// AssertRead validates a read of component comp under key. A write lock
// implies read access.
func (g *AccessGuard) AssertRead(key, comp string) {
	if _, ok := g.reads[key]; ok {
		return
	}
	if _, ok := g.writes[key]; ok {
		return
	}
	panic(&GuardViolationError{Node: g.node, Key: key, Component: comp})
}

// AssertWrite validates a write of component comp under key.
func (g *AccessGuard) AssertWrite(key, comp string) {
	if _, ok := g.writes[key]; ok {
		return
	}
	panic(&GuardViolationError{Node: g.node, Key: key, Component: comp, Write: true})
}
