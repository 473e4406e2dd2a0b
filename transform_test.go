package canvas

import (
	"math"
	"testing"
)

func assertAffine(t *testing.T, label string, got, want Affine) {
	t.Helper()
	if !got.ApproxEqual(want, 1e-9) {
		t.Errorf("%s = %v, want %v", label, got, want)
	}
}

// --- Affine ---

func TestAffineMulOrder(t *testing.T) {
	// Scale first, then translate.
	m := TranslateAffine(10, 0).Mul(ScaleAffine(2, 2))
	x, y := m.Apply(1, 1)
	if x != 12 || y != 2 {
		t.Errorf("Apply(1, 1) = (%v, %v), want (12, 2)", x, y)
	}
}

func TestAffineInvert(t *testing.T) {
	m := TranslateAffine(5, -3).Mul(RotateAffine(0.7)).Mul(ScaleAffine(2, 3))
	assertAffine(t, "m * m^-1", m.Mul(m.Invert()), IdentityAffine)
	assertAffine(t, "m^-1 * m", m.Invert().Mul(m), IdentityAffine)
}

func TestAffineInvertSingular(t *testing.T) {
	assertAffine(t, "singular inverse", ScaleAffine(0, 1).Invert(), IdentityAffine)
}

func TestAffineApplyLinearIgnoresTranslation(t *testing.T) {
	m := TranslateAffine(100, 100).Mul(ScaleAffine(2, 2))
	x, y := m.ApplyLinear(1, 1)
	if x != 2 || y != 2 {
		t.Errorf("ApplyLinear = (%v, %v), want (2, 2)", x, y)
	}
}

func TestAffineScaleFactor(t *testing.T) {
	m := RotateAffine(1).Mul(ScaleAffine(4, 1))
	if got := m.ScaleFactor(); !approxEqual(got, 2, epsilon) {
		t.Errorf("ScaleFactor = %v, want 2", got)
	}
}

func TestAffineMat3Layout(t *testing.T) {
	m := Affine{1, 2, 3, 4, 5, 6}.Mat3()
	want := [12]float32{1, 2, 0, 0, 3, 4, 0, 0, 5, 6, 1, 0}
	if m != want {
		t.Errorf("Mat3 = %v, want %v", m, want)
	}
}

// --- Local transform ---

func TestLocalTransformComposition(t *testing.T) {
	tests := []struct {
		name  string
		setup func(n *Node)
		in    [2]float64
		want  [2]float64
	}{
		{"identity", func(n *Node) {}, [2]float64{3, 4}, [2]float64{3, 4}},
		{"translate", func(n *Node) { n.SetPosition(10, 20) }, [2]float64{1, 1}, [2]float64{11, 21}},
		{"scale", func(n *Node) { n.SetScale(2, 3) }, [2]float64{1, 1}, [2]float64{2, 3}},
		{"rotate 90", func(n *Node) { n.SetRotation(math.Pi / 2) }, [2]float64{1, 0}, [2]float64{0, 1}},
		{"pivot", func(n *Node) {
			n.SetPivot(5, 5)
			n.SetScale(2, 2)
		}, [2]float64{5, 5}, [2]float64{0, 0}},
		{"pivot rotate translate", func(n *Node) {
			n.SetPivot(1, 0)
			n.SetRotation(math.Pi)
			n.SetPosition(10, 10)
		}, [2]float64{2, 0}, [2]float64{9, 10}},
		{"skew x", func(n *Node) { n.SetSkew(math.Pi/4, 0) }, [2]float64{0, 1}, [2]float64{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewGroup("n")
			tt.setup(n)
			x, y := n.LocalTransform().Apply(tt.in[0], tt.in[1])
			if !approxEqual(x, tt.want[0], 1e-9) || !approxEqual(y, tt.want[1], 1e-9) {
				t.Errorf("Apply%v = (%v, %v), want %v", tt.in, x, y, tt.want)
			}
		})
	}
}

func TestLocalTransformCached(t *testing.T) {
	n := NewGroup("n")
	n.SetPosition(1, 2)
	a := n.LocalTransform()
	seen := n.tf.localSeen
	b := n.LocalTransform()
	if a != b || n.tf.localSeen != seen {
		t.Error("second call should reuse the cached matrix")
	}
	n.SetPosition(1, 2) // unchanged value
	if n.tf.localVersion != seen {
		t.Error("setting the same position should not bump the version")
	}
}

// --- World transform ---

func TestWorldTransformChain(t *testing.T) {
	root := NewGroup("root")
	mid := NewGroup("mid")
	leaf := NewGroup("leaf")
	_ = root.AddChild(mid)
	_ = mid.AddChild(leaf)
	root.SetPosition(100, 0)
	mid.SetScale(2, 2)
	leaf.SetPosition(5, 5)

	x, y := leaf.LocalToWorld(1, 1)
	// leaf: (6,6) -> mid scale: (12,12) -> root: (112,12)
	if !approxEqual(x, 112, epsilon) || !approxEqual(y, 12, epsilon) {
		t.Errorf("LocalToWorld = (%v, %v), want (112, 12)", x, y)
	}
	lx, ly := leaf.WorldToLocal(x, y)
	if !approxEqual(lx, 1, epsilon) || !approxEqual(ly, 1, epsilon) {
		t.Errorf("WorldToLocal round trip = (%v, %v), want (1, 1)", lx, ly)
	}
}

func TestWorldTransformRecomputesOnlyOnChange(t *testing.T) {
	parent := NewGroup("p")
	child := NewGroup("c")
	_ = parent.AddChild(child)
	child.WorldTransform()
	v := child.WorldVersion()

	child.WorldTransform()
	if child.WorldVersion() != v {
		t.Error("world matrix recomputed without a change")
	}

	parent.SetPosition(3, 0)
	w := child.WorldTransform()
	if child.WorldVersion() == v {
		t.Error("parent move should recompute the child's world matrix")
	}
	if w[4] != 3 {
		t.Errorf("child world tx = %v, want 3", w[4])
	}
}

func TestWorldTransformAfterReparent(t *testing.T) {
	a := NewGroup("a")
	b := NewGroup("b")
	c := NewGroup("c")
	a.SetPosition(10, 0)
	b.SetPosition(0, 10)
	_ = a.AddChild(c)
	if w := c.WorldTransform(); w[4] != 10 || w[5] != 0 {
		t.Fatalf("under a: %v", w)
	}
	_ = b.AddChild(c)
	if w := c.WorldTransform(); w[4] != 0 || w[5] != 10 {
		t.Errorf("under b: %v, want translation (0, 10)", w)
	}
}
