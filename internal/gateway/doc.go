// Package gateway is the public surface of the service. It exposes a
// push facade (Service) that application code calls to reach live
// connections, the WebSocket transport that clients connect to, and the
// HTTP API for notification history, presence and health.
//
// Service methods never touch the store; they deliver to whoever is
// connected right now. Durable notifications are created through
// dispatch.Dispatcher, which persists first and then pushes through the
// same registry.
package gateway
