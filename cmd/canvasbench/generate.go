package main

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/phanxgames/canvas"
)

const (
	defaultShapes = 1000
	defaultSeed   = 42
	cellSize      = 40.0
)

type generateOpts struct {
	output string
	shapes int
	seed   uint64
	paths  bool
}

func newGenerateCmd() *cobra.Command {
	opts := generateOpts{shapes: defaultShapes, seed: defaultSeed}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a random scene as JSON records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := generateScene(opts.shapes, opts.seed, opts.paths)
			data, err := canvas.MarshalJSON(root)
			if err != nil {
				return err
			}
			if opts.output == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(opts.output, data, 0o644); err != nil {
				return fmt.Errorf("write scene: %w", err)
			}
			loggerFromContext(cmd.Context()).Info("Wrote scene", "shapes", opts.shapes, "file", opts.output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVarP(&opts.shapes, "shapes", "n", opts.shapes, "number of shapes")
	cmd.Flags().Uint64Var(&opts.seed, "seed", opts.seed, "random seed")
	cmd.Flags().BoolVar(&opts.paths, "paths", false, "mix in paths and polylines")
	return cmd
}

// generateScene lays n shapes out on a square grid. Runs of one kind are
// kept long so the result exercises instancing; with paths set every
// seventh shape is a mesh-drawn path or polyline that splits the run.
func generateScene(n int, seed uint64, paths bool) *canvas.Node {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	root := canvas.NewGroup("generated")
	cols := max(1, int(math.Ceil(math.Sqrt(float64(n)))))

	for i := range n {
		x := float64(i%cols)*cellSize + cellSize/2
		y := float64(i/cols)*cellSize + cellSize/2
		r := 6 + rng.Float64()*12

		var node *canvas.Node
		switch {
		case paths && i%7 == 6:
			node = randomPath(rng, i, x, y, r)
		default:
			switch (i / 64) % 3 {
			case 0:
				node = canvas.NewCircle(fmt.Sprintf("circle-%d", i), x, y, r)
			case 1:
				node = canvas.NewEllipse(fmt.Sprintf("ellipse-%d", i), x, y, r, r*0.6)
			default:
				node = canvas.NewRect(fmt.Sprintf("rect-%d", i), x-r, y-r, 2*r, 2*r)
				node.Geometry().(*canvas.RectGeometry).CornerRadius = r / 4
			}
		}
		node.SetFill(canvas.Color{R: rng.Float64(), G: rng.Float64(), B: rng.Float64(), A: 1})
		if rng.IntN(3) == 0 {
			node.SetStroke(canvas.ColorBlack)
			node.SetStrokeWidth(1 + rng.Float64()*2)
		}
		_ = root.AddChild(node)
	}
	return root
}

func randomPath(rng *rand.Rand, i int, x, y, r float64) *canvas.Node {
	if rng.IntN(2) == 0 {
		pts := make([]canvas.Vec2, 5)
		for k := range pts {
			a := float64(k) / float64(len(pts)) * 2 * math.Pi
			pts[k] = canvas.Vec2{X: x + r*math.Cos(a), Y: y + r*math.Sin(a)}
		}
		n := canvas.NewPolyline(fmt.Sprintf("polyline-%d", i), pts)
		n.SetFill(canvas.ColorNone)
		return n
	}
	d := fmt.Sprintf("M%g %gQ%g %g %g %gL%g %gZ", x-r, y+r, x, y-2*r, x+r, y+r, x, y+r/2)
	data, err := canvas.ParsePathData(d)
	if err != nil {
		panic(err)
	}
	return canvas.NewPath(fmt.Sprintf("path-%d", i), &canvas.PathGeometry{Data: data})
}
