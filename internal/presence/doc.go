// Package presence derives online/offline events from registry transitions.
//
// Presence is never stored: the registry derives it from connection counts
// and fires the Tracker on each transition. The Tracker broadcasts the
// delta through the gateway and forgets about it; there is no
// acknowledgment, retry, or history.
package presence
