// Package changes serializes structural mutations of the directory
// registry. A single long-lived consumer applies requests in strict
// submission order with at most one in flight, so the store and watcher are
// never observed mid-mutation. Enqueue never fails; validation happens at
// application time and the outcome is delivered on the request's reply
// channel.
package changes
