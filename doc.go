// Package canvas is a retained-mode 2D vector canvas: a scene graph of
// shapes drawn with signed distance functions on the GPU.
//
// The package owns the shape tree, transforms, bounds, the camera, a spatial
// index for culling and picking, the batch compiler, and pointer input. It
// never talks to a window or a graphics API directly: the host provides a
// [Platform] carrying a [gpu.Device], a shader compiler, a frame scheduler
// and a clock. The ebitenhost package provides one for [Ebitengine]; the
// gpu/headless package records draws in memory for tests and tools.
//
// # Quick start
//
//	scene := canvas.NewScene(canvas.DefaultConfig(), canvas.Platform{
//		Device:   headless.New(),
//		Compiler: gpu.NopCompiler{},
//	})
//	scene.Camera().SetViewport(800, 600)
//
//	c := canvas.NewCircle("sun", 0, 0, 40)
//	c.SetFill(canvas.Color{R: 1, G: 0.8, B: 0.2, A: 1})
//	scene.Root().AddChild(c)
//
//	scene.Update(time.Now())
//	if err := scene.Render(); err != nil { ... }
//
// # Scene graph
//
// Every element is a [Node]. Groups carry no geometry; circles, ellipses,
// rectangles, paths, polylines and text carry a [Geometry]. Children inherit
// their parent's transform. Paint order is child order, overridden by
// [Node.SetZIndex] among siblings.
//
// Bounds come in two flavors: geometry bounds cover the outline, render
// bounds add the outer stroke extent and the drop shadow reach. Both are
// cached behind version stamps and recomputed only after a change.
//
// # Camera
//
// The [Camera] maps viewport pixels to canvas coordinates. Zoom steps
// through a fixed table with [Camera.ZoomIn] and [Camera.ZoomOut], zooms
// about an anchor with [Camera.ZoomAt], and animates to a [Landmark] with
// [Camera.GotoLandmark]. Easing comes from [gween].
//
// # Rendering
//
// [Scene.Render] culls against the camera, sorts by paint order and hands
// the commands to the [Renderer]. Runs of circles, ellipses or rectangles
// long enough to pass Config.InstancingThreshold become one instanced draw;
// everything else is drawn per shape with a uniform buffer. Instance data is
// re-uploaded only for shapes whose stamps changed.
//
// # Input
//
// Hosts feed normalized [PointerSample] values to [Scene.HandlePointer].
// Events are dispatched in a capture phase from the root down and a bubble
// phase back up, like the DOM. A press becomes a drag only after the pointer
// has moved more than Config.DragDistance and been held for Config.DragDelay.
//
// # Serialization
//
// [Serialize] and [Deserialize] convert subtrees to and from [Record]
// values; [MarshalJSON] and [UnmarshalJSON] wrap them for JSON.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package canvas
