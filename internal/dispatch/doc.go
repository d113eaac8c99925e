// Package dispatch is the notification dispatcher.
//
// # Overview
//
// The Dispatcher is the orchestrating component of the realtime core. Given
// a notification intent (receiver, optional sender, title, message, type,
// optional deep link and entity reference) it:
//
//  1. Validates the intent synchronously (missing receiver or unknown type
//     is rejected before any store call)
//  2. Persists the record through the store with isRead=false
//  3. Re-reads the receiver's live connections and pushes the payload to
//     each, swallowing per-connection failures
//  4. Returns the persisted record regardless of push outcome
//
// Durability always precedes push: a store failure suppresses the push and
// propagates to the caller, who treats it as non-fatal to their own
// primary action. A receiver with zero connections is an expected outcome,
// not an error; they discover the record on their next list query.
//
// # Convenience Builders
//
// The per-event builders (project addition, activity addition/update, task
// assignment, document share, chat message) resolve the human-readable
// text, the type, and the deep link for common application events.
// NotifyNewChatMessage intentionally creates a second CHAT_MENTION
// notification for mentioned users on top of their CHAT_MESSAGE one.
package dispatch
