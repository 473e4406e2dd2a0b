package canvas

import "math"

// transform holds a node's local transform properties and its cached local
// and world matrices.
type transform struct {
	x, y           float64
	scaleX, scaleY float64
	rotation       float64
	skewX, skewY   float64
	pivotX, pivotY float64

	localVersion uint64
	local        Affine
	localSeen    uint64

	world           Affine
	worldVersion    uint64 // stamp of the last world recompute
	worldLocalSeen  uint64
	worldParentSeen uint64
	worldValid      bool
}

// localMatrix builds the local affine matrix. The pivot moves to the
// origin first, then scale, skew and rotation apply, and the result is
// translated to (x, y).
func localMatrix(t *transform) Affine {
	var kx, ky float64
	if t.skewX != 0 {
		kx = math.Tan(t.skewX)
	}
	if t.skewY != 0 {
		ky = math.Tan(t.skewY)
	}
	// Scaled and skewed basis vectors.
	ux, uy := t.scaleX, ky*t.scaleX
	vx, vy := kx*t.scaleY, t.scaleY
	// Pivot offset in that basis.
	ox := -(ux*t.pivotX + vx*t.pivotY)
	oy := -(uy*t.pivotX + vy*t.pivotY)

	sin, cos := math.Sincos(t.rotation)
	return Affine{
		cos*ux - sin*uy, sin*ux + cos*uy,
		cos*vx - sin*vy, sin*vx + cos*vy,
		cos*ox - sin*oy + t.x, sin*ox + cos*oy + t.y,
	}
}

// LocalTransform returns the node's local matrix, recomputing it only when a
// transform property changed since the last call.
func (n *Node) LocalTransform() Affine {
	t := &n.tf
	if t.localSeen != t.localVersion {
		t.local = localMatrix(t)
		t.localSeen = t.localVersion
	}
	return t.local
}

// refreshWorld brings n's world matrix and opacity up to date assuming its
// parent's are already current. The matrix is recomputed only when the local
// matrix or the parent's world stamp changed.
func (n *Node) refreshWorld() {
	n.worldOpacity = n.attrs.Opacity
	if n.parent != nil {
		n.worldOpacity *= n.parent.worldOpacity
	}
	t := &n.tf
	local := n.LocalTransform()
	var parentStamp uint64
	if n.parent != nil {
		parentStamp = n.parent.tf.worldVersion
	}
	if t.worldValid && t.worldLocalSeen == t.localVersion && t.worldParentSeen == parentStamp {
		return
	}
	if n.parent != nil {
		t.world = n.parent.tf.world.Mul(local)
	} else {
		t.world = local
	}
	t.worldLocalSeen = t.localVersion
	t.worldParentSeen = parentStamp
	t.worldValid = true
	t.worldVersion = nextVersion()
}

// WorldTransform returns parent.WorldTransform() * LocalTransform(), composed
// up to the root. Ancestors are refreshed top-down with an explicit stack, and
// each one recomputes only if something above it actually changed.
func (n *Node) WorldTransform() Affine {
	var buf [32]*Node
	chain := buf[:0]
	for p := n; p != nil; p = p.parent {
		chain = append(chain, p)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		chain[i].refreshWorld()
	}
	return n.tf.world
}

// WorldVersion returns the stamp of the node's last world matrix recompute.
func (n *Node) WorldVersion() uint64 { return n.tf.worldVersion }

func (n *Node) touchTransform() {
	n.tf.localVersion = nextVersion()
}

// --- Transform property accessors ---

// Position returns the node's local X and Y.
func (n *Node) Position() (x, y float64) { return n.tf.x, n.tf.y }

// SetPosition sets the node's local X and Y.
func (n *Node) SetPosition(x, y float64) {
	if n.tf.x == x && n.tf.y == y {
		return
	}
	n.tf.x = x
	n.tf.y = y
	n.touchTransform()
}

// Scale returns the node's ScaleX and ScaleY.
func (n *Node) Scale() (sx, sy float64) { return n.tf.scaleX, n.tf.scaleY }

// SetScale sets the horizontal and vertical scale factors.
func (n *Node) SetScale(sx, sy float64) {
	if n.tf.scaleX == sx && n.tf.scaleY == sy {
		return
	}
	n.tf.scaleX = sx
	n.tf.scaleY = sy
	n.touchTransform()
}

// Rotation returns the node's rotation in radians.
func (n *Node) Rotation() float64 { return n.tf.rotation }

// SetRotation sets the rotation in radians, clockwise on screen.
func (n *Node) SetRotation(r float64) {
	if n.tf.rotation == r {
		return
	}
	n.tf.rotation = r
	n.touchTransform()
}

// Skew returns the node's SkewX and SkewY in radians.
func (n *Node) Skew() (sx, sy float64) { return n.tf.skewX, n.tf.skewY }

// SetSkew sets the skew angles in radians.
func (n *Node) SetSkew(sx, sy float64) {
	if n.tf.skewX == sx && n.tf.skewY == sy {
		return
	}
	n.tf.skewX = sx
	n.tf.skewY = sy
	n.touchTransform()
}

// Pivot returns the node's PivotX and PivotY.
func (n *Node) Pivot() (px, py float64) { return n.tf.pivotX, n.tf.pivotY }

// SetPivot sets the local point that scale, skew and rotation happen around.
func (n *Node) SetPivot(px, py float64) {
	if n.tf.pivotX == px && n.tf.pivotY == py {
		return
	}
	n.tf.pivotX = px
	n.tf.pivotY = py
	n.touchTransform()
}

// --- Spaces ---

// WorldToLocal maps a canvas point into n's local space.
func (n *Node) WorldToLocal(wx, wy float64) (lx, ly float64) {
	return n.WorldTransform().Invert().Apply(wx, wy)
}

// LocalToWorld maps a point in n's local space to canvas space.
func (n *Node) LocalToWorld(lx, ly float64) (wx, wy float64) {
	return n.WorldTransform().Apply(lx, ly)
}
