package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/phanxgames/canvas"
	"github.com/phanxgames/canvas/gpu"
	"github.com/phanxgames/canvas/gpu/headless"
)

const (
	defaultFrames = 120
	defaultWidth  = 1280
	defaultHeight = 720
	frameInterval = 16 * time.Millisecond
)

type runOpts struct {
	frames   int
	width    float64
	height   float64
	script   string
	config   string
	shapes   int
	seed     uint64
	fit      bool
	compile  bool
	keepIDs  bool
	animate  bool
	perFrame bool
}

func newRunCmd() *cobra.Command {
	opts := runOpts{
		frames: defaultFrames,
		width:  defaultWidth,
		height: defaultHeight,
		shapes: defaultShapes,
		seed:   defaultSeed,
		fit:    true,
	}

	cmd := &cobra.Command{
		Use:   "run [scene.json]",
		Short: "Render a scene on the headless device and report statistics",
		Long: `Run loads a scene from JSON records (or generates one when no file is
given), renders it for a number of frames on the recording device and prints
draw, batch and upload counts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return runBench(cmd.Context(), cmd.OutOrStdout(), file, &opts)
		},
	}

	cmd.Flags().IntVarP(&opts.frames, "frames", "f", opts.frames, "frames to render")
	cmd.Flags().Float64Var(&opts.width, "width", opts.width, "viewport width")
	cmd.Flags().Float64Var(&opts.height, "height", opts.height, "viewport height")
	cmd.Flags().StringVarP(&opts.script, "script", "s", "", "JSON input script to play")
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "TOML config file")
	cmd.Flags().IntVarP(&opts.shapes, "shapes", "n", opts.shapes, "shapes to generate when no scene file is given")
	cmd.Flags().Uint64Var(&opts.seed, "seed", opts.seed, "random seed for generated scenes")
	cmd.Flags().BoolVar(&opts.fit, "fit", opts.fit, "zoom the camera to fit the scene first")
	cmd.Flags().BoolVar(&opts.compile, "compile", false, "compile WGSL with naga instead of skipping compilation")
	cmd.Flags().BoolVar(&opts.keepIDs, "keep-ids", false, "accept record ids that are not typeids")
	cmd.Flags().BoolVar(&opts.animate, "animate", false, "move one shape per frame to measure partial uploads")
	cmd.Flags().BoolVar(&opts.perFrame, "per-frame", false, "print statistics for every frame")
	return cmd
}

// fakeClock advances by frameInterval per frame so runs are reproducible.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance() { c.now = c.now.Add(frameInterval) }

func loadScene(file string, opts *runOpts) (*canvas.Node, error) {
	if file == "" {
		return generateScene(opts.shapes, opts.seed, true), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return canvas.UnmarshalJSON(data, canvas.DecodeOptions{KeepIDs: opts.keepIDs})
}

// totals accumulates per-frame statistics.
type totals struct {
	drawCalls, batches, instances, uploaded, bytes, commands int
}

func (t *totals) add(s canvas.FrameStats) {
	t.drawCalls += s.DrawCalls
	t.batches += s.Batches
	t.instances += s.Instances
	t.uploaded += s.InstancesUploaded
	t.bytes += s.BytesUploaded
	t.commands += s.Commands
}

func runBench(ctx context.Context, out io.Writer, file string, opts *runOpts) error {
	logger := loggerFromContext(ctx)
	if opts.frames < 1 {
		return errors.New("frames must be positive")
	}

	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	root, err := loadScene(file, opts)
	if root == nil {
		return err
	}
	if err != nil {
		logger.Warn("Scene loaded with skipped records", "err", err)
	}
	prog.done("Loaded scene")

	clock := &fakeClock{now: time.Unix(0, 0)}
	dev := headless.New()
	var compiler gpu.ShaderCompiler = gpu.NopCompiler{}
	if opts.compile {
		compiler = gpu.NagaCompiler{}
	}
	scene := canvas.NewScene(cfg, canvas.Platform{Device: dev, Compiler: compiler, Now: clock.Now})
	defer scene.Close()
	scene.SetErrorHandler(func(err error) { logger.Warn("Frame error", "err", err) })
	scene.Camera().SetViewport(opts.width, opts.height)
	if err := scene.Root().AddChild(root); err != nil {
		return err
	}

	if opts.fit {
		scene.Update(clock.Now())
		scene.Camera().ZoomToFit(root.WorldBounds(true), 20)
	}

	if opts.script != "" {
		data, err := os.ReadFile(opts.script)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		runner, err := canvas.LoadScript(data)
		if err != nil {
			return err
		}
		scene.SetScriptRunner(runner)
	}

	var clicks int
	scene.AddEventListener(canvas.EventClick, func(e *canvas.Event) {
		clicks++
		logger.Debug("click", "target", targetName(e.Target), "x", e.CanvasX, "y", e.CanvasY)
	})

	var sum totals
	prog = newProgress(logger)
	start := time.Now()
	for f := range opts.frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if opts.animate && root.NumChildren() > 0 {
			c := root.ChildAt(f % root.NumChildren())
			x, y := c.Position()
			c.SetPosition(x+1, y)
		}
		scene.Update(clock.Now())
		if err := scene.Render(); err != nil {
			return err
		}
		st := scene.Stats()
		sum.add(st)
		if opts.perFrame {
			fmt.Fprintf(out, "frame %4d  commands %6d  draws %5d  batches %4d  uploaded %6d  bytes %8d\n",
				st.Frame, st.Commands, st.DrawCalls, st.Batches, st.InstancesUploaded, st.BytesUploaded)
		}
		clock.advance()
	}
	elapsed := time.Since(start)
	prog.done(fmt.Sprintf("Rendered %d frames", opts.frames))

	rs := scene.Renderer().Stats()
	n := float64(opts.frames)
	fmt.Fprintf(out, "nodes           %d\n", scene.NumNodes())
	fmt.Fprintf(out, "indexed         %d\n", scene.Index().Len())
	fmt.Fprintf(out, "frames          %d\n", opts.frames)
	fmt.Fprintf(out, "cpu per frame   %s\n", (elapsed / time.Duration(opts.frames)).Round(time.Microsecond))
	fmt.Fprintf(out, "commands/frame  %.1f\n", float64(sum.commands)/n)
	fmt.Fprintf(out, "draws/frame     %.1f\n", float64(sum.drawCalls)/n)
	fmt.Fprintf(out, "batches/frame   %.1f\n", float64(sum.batches)/n)
	fmt.Fprintf(out, "instances/frame %.1f\n", float64(sum.instances)/n)
	fmt.Fprintf(out, "records uploaded %d\n", sum.uploaded)
	fmt.Fprintf(out, "bytes uploaded  %d\n", sum.bytes)
	fmt.Fprintf(out, "live buffers    %d\n", len(dev.LiveBuffers()))
	fmt.Fprintf(out, "pipelines       %d\n", rs.Pipelines)
	fmt.Fprintf(out, "batches held    %d\n", rs.Batches)
	fmt.Fprintf(out, "shape draws     %d\n", rs.NodeDraws)
	if opts.script != "" {
		fmt.Fprintf(out, "clicks          %d\n", clicks)
	}
	return nil
}

func targetName(n *canvas.Node) string {
	if n == nil {
		return "<canvas>"
	}
	return n.Name
}
