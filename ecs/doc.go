// Package ecs bridges canvas interaction events into a [Donburi] world.
//
// [NewDonburiStore] returns a canvas.EventSink. Every event whose target
// carries an EntityID is published to [InteractionEventType]; targets bound
// to a Donburi entity with [Store.Bind] are also published to
// [EntityEventType] with the entity attached.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	scene.SetEventSink(store)
//	store.Bind(node, entity)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
