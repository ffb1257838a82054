// Package notifier delivers alert messages to registered chats.
//
// A Registry tracks the destination set: seeded from config, mutated at
// runtime by owner commands, and pruned automatically when a chat revokes
// access. When the registry is empty, a broadcast falls back to discovery
// over the chats the transport has seen and caches the pick.
//
// Delivery is asynchronous: broadcasts fan out onto a bounded queue drained
// by a worker pool behind a shared rate limiter, with bounded exponential
// retry for transient send failures. A forbidden response is terminal for
// that destination and deregisters it instead of retrying.
package notifier
