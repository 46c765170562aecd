// Package uplink drains the pending upload queue to the backend.
//
// The queue manager persists new uploads before acknowledging them, the
// processor replays persisted uploads through registered handlers in
// priority order, and the service schedules processor passes on startup,
// on an interval, and on connectivity regain.
package uplink
