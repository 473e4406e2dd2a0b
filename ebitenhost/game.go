package ebitenhost

import (
	"errors"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/canvas"
	"github.com/phanxgames/canvas/gpu"
)

// Scheduler is a canvas.FrameScheduler serviced by Game.Draw. Requests made
// between two draws are merged into the next one.
type Scheduler struct {
	pending []func(now time.Time)
}

var _ canvas.FrameScheduler = (*Scheduler)(nil)

// RequestFrame implements canvas.FrameScheduler.
func (s *Scheduler) RequestFrame(fn func(now time.Time)) {
	s.pending = append(s.pending, fn)
}

// Pending reports whether a frame has been requested.
func (s *Scheduler) Pending() bool { return len(s.pending) > 0 }

// run calls and clears the pending requests.
func (s *Scheduler) run(now time.Time) {
	fns := s.pending
	s.pending = nil
	for _, fn := range fns {
		fn(now)
	}
}

// NewPlatform returns a canvas.Platform drawing through a new Device. The
// Kage backend does not consume SPIR-V, so WGSL compilation is skipped.
func NewPlatform(opts Options) canvas.Platform {
	return canvas.Platform{
		Device:    NewDevice(opts),
		Compiler:  gpu.NopCompiler{},
		Scheduler: &Scheduler{},
	}
}

// RunConfig configures Run.
type RunConfig struct {
	Title     string
	Width     int
	Height    int
	Resizable bool
	ShowFPS   bool
	// OnDemand redraws only when the scene requests a frame or input
	// arrives, instead of every tick.
	OnDemand bool
	// Update, if set, runs once per tick before the scene updates.
	Update func() error
}

// Game adapts a canvas.Scene to ebiten.Game.
type Game struct {
	scene *canvas.Scene
	dev   *Device
	sched *Scheduler
	cfg   RunConfig
	input Input
	fps   *fpsOverlay
	w, h  int
}

var _ ebiten.Game = (*Game)(nil)

// NewGame wraps scene, which must have been built with a Platform from
// NewPlatform.
func NewGame(scene *canvas.Scene, cfg RunConfig) (*Game, error) {
	p := scene.Platform()
	dev, ok := p.Device.(*Device)
	if !ok {
		return nil, errors.New("ebitenhost: scene device is not an ebitenhost.Device")
	}
	g := &Game{scene: scene, dev: dev, cfg: cfg}
	g.sched, _ = p.Scheduler.(*Scheduler)
	if cfg.OnDemand && g.sched == nil {
		return nil, errors.New("ebitenhost: on-demand mode needs an ebitenhost.Scheduler")
	}
	if cfg.ShowFPS {
		g.fps = newFPSOverlay()
	}
	return g, nil
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.cfg.Update != nil {
		if err := g.cfg.Update(); err != nil {
			return err
		}
	}
	now := time.Now()
	samples := g.input.Poll()
	if !g.cfg.OnDemand {
		g.scene.Update(now)
	}
	for _, s := range samples {
		g.scene.HandlePointer(s, now)
	}
	if g.cfg.OnDemand && len(samples) > 0 {
		g.scene.RequestFrame()
	}
	if g.fps != nil {
		g.fps.update(now)
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.dev.SetTarget(screen)
	defer g.dev.SetTarget(nil)
	switch {
	case !g.cfg.OnDemand:
		if err := g.scene.Render(); err != nil {
			canvas.Logger().Warn("ebitenhost: render failed", "err", err)
		}
	case g.sched.Pending():
		g.sched.run(time.Now())
	}
	if g.fps != nil {
		g.fps.draw(screen)
	}
}

// Layout implements ebiten.Game. The canvas viewport follows the window.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.w || outsideHeight != g.h {
		g.w, g.h = outsideWidth, outsideHeight
		g.scene.Camera().SetViewport(float64(outsideWidth), float64(outsideHeight))
		g.scene.RequestFrame()
	}
	return outsideWidth, outsideHeight
}

// Run opens a window and runs scene until the window closes.
func Run(scene *canvas.Scene, cfg RunConfig) error {
	g, err := NewGame(scene, cfg)
	if err != nil {
		return err
	}
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
		scene.Camera().SetViewport(float64(cfg.Width), float64(cfg.Height))
	}
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if cfg.OnDemand {
		ebiten.SetScreenClearedEveryFrame(false)
		scene.RequestFrame()
	}
	return ebiten.RunGame(g)
}
