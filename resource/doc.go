// Package resource provides handle tables for host-owned graphics objects.
//
// A guest module cannot hold native object references across the sandbox
// boundary. Instead it is given small integer handles that the host resolves
// through a Table:
//
//	buffers := resource.NewTable[gl.Buffer]("buffer")
//
//	h := buffers.Add(native)      // never fails, never 0
//	native, err := buffers.Get(h) // not_found for 0, stale or unknown handles
//	native, err = buffers.Remove(h)
//	// caller deletes native
//
// # No Reuse
//
// Handles come from a monotonic counter. A removed handle is never issued
// again, so a guest that keeps a stale handle gets a not_found error instead
// of silently reaching a newer object. Generation counters would be needed
// to get the same guarantee from a freelist.
//
// # Observers
//
// Register observers to track lifecycle events:
//
//	table.Subscribe(obs) // obs.OnResourceEvent(Event{Type: EventCreated, ...})
//
// # Teardown
//
// Drain removes every live entry in handle order and hands each value to a
// release function, which is how a session deletes native objects on stop.
package resource
