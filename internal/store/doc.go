// Package store provides persistent storage for notifications using SQLite.
//
// # Architecture
//
// The Store interface covers notification persistence plus the user-summary
// lookup the dispatcher needs to shape push payloads. SQLiteStore implements
// it on modernc.org/sqlite; MockStore implements it in memory for tests.
//
// # Data Models
//
//   - Notification: durable record with receiver ownership, an enumerated
//     type, optional sender/deep-link/entity references, and monotonic read
//     state (false -> true, never back)
//   - UserSummary: sender display info (name, email, avatar) mirrored from
//     the platform's user service
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Timestamps are stored as fixed-width UTC strings with nanosecond
// precision, so the TEXT column sorts lexicographically in timestamp order
// and records created within the same second still list in call order.
//
// # Pagination
//
// ListNotifications pages newest-first with an opaque base64 cursor of
// (created_at, id); the id breaks timestamp ties deterministically.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: requested record does not exist
//   - ErrNotReceiver: caller is not the record's receiver
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewMockStore() for unit tests; it supports failure injection via
// FailCreate. Use NewSQLiteStore(":memory:") for integration tests with
// real SQLite.
package store
