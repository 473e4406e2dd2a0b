package canvas

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/phanxgames/canvas/gpu"
	"github.com/phanxgames/canvas/gpu/headless"
)

// setupBenchScene creates a headless scene with n shapes cycling through
// circles, rectangles and ellipses, 100 per row.
func setupBenchScene(n int) *Scene {
	s := NewScene(DefaultConfig(), Platform{Device: headless.New(), Compiler: gpu.NopCompiler{}, Now: newFakeClock().Now})
	s.Camera().SetViewport(1280, 720)
	root := s.Root()
	for i := 0; i < n; i++ {
		x, y := float64(i%100)*40, float64(i/100)*40
		var c *Node
		switch {
		case i%3 == 0:
			c = NewCircle("c", x, y, 15)
		case i%3 == 1:
			c = NewRect("r", x, y, 30, 30)
		default:
			c = NewEllipse("e", x, y, 15, 10)
		}
		c.SetFill(Color{R: 0.2, G: 0.4, B: 0.8, A: 1})
		_ = root.AddChild(c)
	}
	return s
}

func benchFrame(b *testing.B, s *Scene) {
	s.Update(s.Platform().Now())
	if err := s.Render(); err != nil {
		b.Fatal(err)
	}
}

// --- Frame benchmarks ---

func BenchmarkFrame_10000Shapes_Static(b *testing.B) {
	s := setupBenchScene(10000)
	benchFrame(b, s)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		benchFrame(b, s)
	}
}

func BenchmarkFrame_10000Shapes_Moving(b *testing.B) {
	s := setupBenchScene(10000)
	children := s.Root().Children()
	benchFrame(b, s)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for j, c := range children {
			c.SetPosition(math.Sin(float64(i+j)*0.01)*5, 0)
		}
		benchFrame(b, s)
	}
}

func BenchmarkFrame_10000Shapes_FillVarying(b *testing.B) {
	s := setupBenchScene(10000)
	children := s.Root().Children()
	benchFrame(b, s)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		// Touch one shape in a hundred.
		for j := i % 100; j < len(children); j += 100 {
			children[j].SetFill(Color{R: float64(i%255) / 255, A: 1})
		}
		benchFrame(b, s)
	}
}

func BenchmarkFrame_CameraPan(b *testing.B) {
	s := setupBenchScene(10000)
	benchFrame(b, s)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.Camera().PanBy(1, 0)
		benchFrame(b, s)
	}
}

// --- Spatial index ---

func BenchmarkSpatialSearch(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 2))
	idx := NewSpatialIndex(0.25)
	for i := 0; i < 10000; i++ {
		idx.Update(NewCircle("n", 0, 0, 1), randomBox(rng))
	}
	idx.Rebuild()
	q := NewAABB(400, 400, 600, 600)
	var buf []*Node

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf = idx.Search(q, buf[:0])
	}
}

func BenchmarkSpatialRebuild(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 2))
	idx := NewSpatialIndex(0.25)
	for i := 0; i < 10000; i++ {
		idx.Update(NewCircle("n", 0, 0, 1), randomBox(rng))
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		idx.Rebuild()
	}
}

// --- Geometry ---

func BenchmarkFlattenAndFill(b *testing.B) {
	d, err := ParsePathData("M0 0 C50 -40 100 40 150 0 S250 40 300 0 Q300 100 150 150 T0 150 Z")
	if err != nil {
		b.Fatal(err)
	}
	m := &meshBuilder{}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m.reset()
		m.fill(FlattenPath(d, DefaultFlattenTolerance))
	}
}

func BenchmarkStroke(b *testing.B) {
	pts := make([]Vec2, 200)
	for i := range pts {
		pts[i] = Vec2{X: float64(i) * 5, Y: math.Sin(float64(i)*0.3) * 20}
	}
	sps := []Subpath{{Points: pts}}
	m := &meshBuilder{}
	st := strokeStyle{width: 3, cap: CapRound, join: JoinRound}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m.reset()
		m.stroke(sps, st)
	}
}

func BenchmarkLayoutText(b *testing.B) {
	f := newFakeGlyphs()
	g := &TextGeometry{
		Content:  "The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs.",
		FontSize: 16, WrapWidth: 200, Supplier: f,
	}
	var l *TextLayout

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		f.calls = f.calls[:0]
		l = layoutText(g, DefaultGraphemeSplitter, l)
	}
}
