// Package events carries advisory invalidation signals to other
// subsystems.
//
// Every committed permission mutation may publish an Invalidation naming
// the affected entity, so UI layers or external caches can refresh their
// own state. The signal is strictly advisory: the engine's own resolution
// cache is purged synchronously by store mutation hooks and never depends
// on this bus. Slow subscribers are dropped rather than blocking a
// publisher.
package events
