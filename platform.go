package canvas

import (
	"time"

	"github.com/phanxgames/canvas/gpu"
	"github.com/rivo/uniseg"
)

// GraphemeSplitter splits text into user-perceived characters.
type GraphemeSplitter func(s string) []string

// DefaultGraphemeSplitter splits s into extended grapheme clusters.
func DefaultGraphemeSplitter(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, len(s))
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// FrameScheduler requests that fn run on the next display refresh. Hosts with
// their own game loop (ebitenhost) call Scene.Update/Render directly and can
// leave the scheduler nil.
type FrameScheduler interface {
	RequestFrame(fn func(now time.Time))
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// Platform bundles the host strategies a Scene is constructed with. There is
// no process-wide platform; each scene carries its own.
type Platform struct {
	// Device creates GPU resources. Nil disables rendering; the scene still
	// updates and answers picking queries.
	Device gpu.Device
	// Compiler turns WGSL into the device's shader format. Defaults to
	// gpu.NagaCompiler.
	Compiler gpu.ShaderCompiler
	// Graphemes splits text for layout. Defaults to DefaultGraphemeSplitter.
	Graphemes GraphemeSplitter
	// Scheduler drives RequestFrame. Optional.
	Scheduler FrameScheduler
	// Now defaults to time.Now.
	Now Clock
}

// withDefaults fills unset strategies.
func (p Platform) withDefaults() Platform {
	if p.Compiler == nil {
		p.Compiler = gpu.NagaCompiler{}
	}
	if p.Graphemes == nil {
		p.Graphemes = DefaultGraphemeSplitter
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return p
}
