package ecs

import (
	"github.com/phanxgames/canvas"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// InteractionEventType is the Donburi event type for canvas interaction events.
// Subscribe to this in your ECS systems to receive pointer, drag and wheel events.
var InteractionEventType = events.NewEventType[canvas.InteractionEvent]()

// EntityEvent is an interaction event whose target is bound to an entity.
type EntityEvent struct {
	Entity donburi.Entity
	Event  canvas.InteractionEvent
}

// EntityEventType carries events for nodes bound with Store.Bind.
var EntityEventType = events.NewEventType[EntityEvent]()

// Store is a canvas.EventSink backed by a Donburi world.
type Store struct {
	world    donburi.World
	nextID   uint32
	entities map[uint32]donburi.Entity
}

var _ canvas.EventSink = (*Store)(nil)

// NewDonburiStore creates an EventSink backed by a Donburi world.
// Interaction events are published to InteractionEventType and can be
// consumed with events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) *Store {
	return &Store{world: world, entities: make(map[uint32]donburi.Entity)}
}

// Bind links node to entity. The node's EntityID is replaced with a
// store-assigned ID.
func (s *Store) Bind(node *canvas.Node, entity donburi.Entity) {
	if node.EntityID != 0 {
		delete(s.entities, node.EntityID)
	}
	s.nextID++
	node.EntityID = s.nextID
	s.entities[s.nextID] = entity
}

// Unbind removes the node's entity link and clears its EntityID.
func (s *Store) Unbind(node *canvas.Node) {
	delete(s.entities, node.EntityID)
	node.EntityID = 0
}

// Entity returns the entity bound to an EntityID.
func (s *Store) Entity(id uint32) (donburi.Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// EmitEvent implements canvas.EventSink.
func (s *Store) EmitEvent(event canvas.InteractionEvent) {
	InteractionEventType.Publish(s.world, event)
	if e, ok := s.entities[event.EntityID]; ok {
		EntityEventType.Publish(s.world, EntityEvent{Entity: e, Event: event})
	}
}
