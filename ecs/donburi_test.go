package ecs

import (
	"testing"
	"time"

	"github.com/phanxgames/canvas"

	"github.com/yohamta/donburi"
)

func TestNewDonburiStore(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)
	if store == nil {
		t.Fatal("NewDonburiStore returned nil")
	}
}

func TestDonburiStore_EmitEvent(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var received []canvas.InteractionEvent
	InteractionEventType.Subscribe(world, func(w donburi.World, e canvas.InteractionEvent) {
		received = append(received, e)
	})

	store.EmitEvent(canvas.InteractionEvent{
		Type:     canvas.EventPointerDown,
		EntityID: 42,
		CanvasX:  100,
		CanvasY:  200,
		Button:   canvas.MouseButtonLeft,
	})
	store.EmitEvent(canvas.InteractionEvent{
		Type:   canvas.EventWheel,
		WheelY: -120,
	})

	// Events are queued until processed.
	InteractionEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	e0 := received[0]
	if e0.Type != canvas.EventPointerDown || e0.EntityID != 42 {
		t.Errorf("event 0: %+v", e0)
	}
	if e0.CanvasX != 100 || e0.CanvasY != 200 {
		t.Errorf("event 0 position: (%v,%v)", e0.CanvasX, e0.CanvasY)
	}
	if e1 := received[1]; e1.Type != canvas.EventWheel || e1.WheelY != -120 {
		t.Errorf("event 1: %+v", e1)
	}
}

func TestDonburiStore_ImplementsEventSink(t *testing.T) {
	var sink canvas.EventSink = NewDonburiStore(donburi.NewWorld())
	_ = sink
}

func TestDonburiStore_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var count1, count2 int
	InteractionEventType.Subscribe(world, func(w donburi.World, e canvas.InteractionEvent) {
		count1++
	})
	InteractionEventType.Subscribe(world, func(w donburi.World, e canvas.InteractionEvent) {
		count2++
	})

	store.EmitEvent(canvas.InteractionEvent{Type: canvas.EventClick, EntityID: 1})
	InteractionEventType.ProcessEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("subscribers called %d and %d times, want 1 and 1", count1, count2)
	}
}

func TestDonburiStore_BindPublishesEntityEvents(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)
	entity := world.Create()

	node := canvas.NewRect("box", 0, 0, 10, 10)
	store.Bind(node, entity)
	if node.EntityID == 0 {
		t.Fatal("Bind did not assign an EntityID")
	}
	if got, ok := store.Entity(node.EntityID); !ok || got != entity {
		t.Errorf("Entity(%d) = %v, %v; want %v, true", node.EntityID, got, ok, entity)
	}

	var got []EntityEvent
	EntityEventType.Subscribe(world, func(w donburi.World, e EntityEvent) {
		got = append(got, e)
	})
	store.EmitEvent(canvas.InteractionEvent{Type: canvas.EventClick, EntityID: node.EntityID})
	store.EmitEvent(canvas.InteractionEvent{Type: canvas.EventClick, EntityID: 999})
	EntityEventType.ProcessEvents(world)

	if len(got) != 1 {
		t.Fatalf("expected 1 entity event, got %d", len(got))
	}
	if got[0].Entity != entity || got[0].Event.Type != canvas.EventClick {
		t.Errorf("entity event = %+v", got[0])
	}

	id := node.EntityID
	store.Unbind(node)
	if node.EntityID != 0 {
		t.Errorf("EntityID after Unbind = %d, want 0", node.EntityID)
	}
	if _, ok := store.Entity(id); ok {
		t.Error("entity still resolvable after Unbind")
	}
}

func TestDonburiStore_SceneClick(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	scene := canvas.NewScene(canvas.DefaultConfig(), canvas.Platform{})
	scene.Camera().SetViewport(800, 600)
	scene.SetEventSink(store)

	box := canvas.NewRect("box", 100, 100, 50, 50)
	box.EntityID = 7
	if err := scene.Root().AddChild(box); err != nil {
		t.Fatal(err)
	}

	var types []canvas.EventType
	InteractionEventType.Subscribe(world, func(w donburi.World, e canvas.InteractionEvent) {
		if e.EntityID != 7 {
			t.Errorf("EntityID = %d, want 7", e.EntityID)
		}
		types = append(types, e.Type)
	})

	now := time.Unix(0, 0)
	scene.InjectClick(120, 120)
	for range 3 {
		scene.Update(now)
		now = now.Add(16 * time.Millisecond)
	}
	InteractionEventType.ProcessEvents(world)

	var clicks int
	for _, typ := range types {
		if typ == canvas.EventClick {
			clicks++
		}
	}
	if clicks != 1 {
		t.Errorf("click events = %d, want 1 (all: %v)", clicks, types)
	}
}
