// Package core implements the console's synchronization core.
//
// A Core owns the authorization state, the readiness flag, the loaded
// configuration and the current section, and drives every backend call:
// resource loads, updates, batch deletes, configuration load and save,
// status transitions and log retrieval. Results are classified, turned into
// notifications and, for loads, committed to the resource cache.
//
// Architecture:
//   - Operations (LoadConfig, LoadResources, Update, DeleteMany, ...) block
//     until their network calls finish and are safe to call from any goroutine.
//   - Run is a single-writer event loop. SetToken and SelectSection enqueue
//     events; Run fires the startup sequence exactly once and loads newly
//     selected sections.
//   - State is guarded by a mutex that is never held across a network call.
//     Listeners run synchronously after each change, outside the lock.
//
// Stale loads: every call is stamped with a seq from the logical Clock. A
// resource load commits only if its section is still current when it
// resolves and no newer load of that section has already committed.
package core
