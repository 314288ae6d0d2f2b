// Package watch observes a directory of annotation records and triggers
// overlay regeneration when a record changes. Rapid edits to the same
// record are debounced per file, so a burst of saves produces a single
// regeneration reflecting the last content. A lifecycle manager owns
// start/stop of the loop and guarantees clean teardown on termination.
package watch
