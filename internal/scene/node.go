// Package scene provides the headless scene graph the editing engine
// works against: translation-only nodes with axis-aligned extents, an
// orbit camera, and ray-versus-box intersection for pointer picking.
//
// Nodes never carry meshes or materials, only the extents and
// appearance state the interaction core needs. The engine serializes
// all access; Node methods are not safe for concurrent use.
package scene

// Appearance is the visual state of a node.
type Appearance string

const (
	AppearanceNormal   Appearance = "normal"
	AppearanceHover    Appearance = "hover"
	AppearanceSelected Appearance = "selected"
)

// Node is one element of the scene tree. Position is local to the
// parent; the tree applies translations only, no rotation or scale.
// Extents is the node's own full size per axis; a zero Extents makes
// the node a pure grouping container that is not directly pickable.
type Node struct {
	// Type tags the node for ancestor lookups, e.g. "duct", "conduit",
	// "multiConduit", or a grouping name like "ductGroup".
	Type string

	// Position is the local translation relative to the parent.
	Position Vec3

	// Extents is the node's own full size per axis (Z width, Y height,
	// X depth along the rack).
	Extents Vec3

	// Appearance is the current visual state.
	Appearance Appearance

	// Data carries auxiliary payload, typically the canonical item
	// record for a kind's root node.
	Data any

	parent   *Node
	children []*Node
	disposed bool
}

// NewNode creates a detached node of the given type.
func NewNode(typ string) *Node {
	return &Node{Type: typ, Appearance: AppearanceNormal}
}

// Parent returns the node's parent, or nil for a root or detached node.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the node's children.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// AddChild attaches child to n, detaching it from any previous parent.
func (n *Node) AddChild(child *Node) {
	if child == nil || child == n {
		return
	}
	child.Detach()
	child.parent = n
	n.children = append(n.children, child)
}

// RemoveChild detaches child from n. It is a no-op when child is not a
// direct child of n.
func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Detach removes the node from its parent, leaving its own subtree
// intact.
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// Root returns the topmost ancestor of the node.
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Ancestor walks from the node up through its parents and returns the
// first node for which pred returns true, or nil.
func (n *Node) Ancestor(pred func(*Node) bool) *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if pred(cur) {
			return cur
		}
	}
	return nil
}

// WorldPosition returns the node's position in world space.
func (n *Node) WorldPosition() Vec3 {
	pos := n.Position
	for cur := n.parent; cur != nil; cur = cur.parent {
		pos = pos.Add(cur.Position)
	}
	return pos
}

// OwnBounds returns the world-space box of the node's own extents,
// ignoring children. Empty when Extents is zero.
func (n *Node) OwnBounds() Box {
	if n.Extents == (Vec3{}) {
		return EmptyBox()
	}
	return BoxAt(n.WorldPosition(), n.Extents)
}

// Bounds returns the world-space box containing the node's own extents
// and all descendant bounds.
func (n *Node) Bounds() Box {
	b := n.OwnBounds()
	for _, c := range n.children {
		b = b.Union(c.Bounds())
	}
	return b
}

// Walk visits the node and every descendant in depth-first order. A
// false return from visit prunes that subtree.
func (n *Node) Walk(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(visit)
	}
}

// Dispose marks the node and its whole subtree as disposed, standing in
// for geometry and material release in the rendering layer.
func (n *Node) Dispose() {
	n.Walk(func(c *Node) bool {
		c.disposed = true
		return true
	})
}

// Disposed reports whether Dispose has been called on the node or one
// of its ancestors at call time.
func (n *Node) Disposed() bool {
	return n.disposed
}

// ClearChildren detaches and disposes all children.
func (n *Node) ClearChildren() {
	for _, c := range n.Children() {
		c.Detach()
		c.Dispose()
	}
}
