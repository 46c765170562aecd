// Package netmon tracks backend reachability for the upload pipeline.
//
// The prober polls the backend health endpoint on an interval and reports
// offline-to-online transitions to subscribers. A netlink watcher listens
// for kernel network interface events and forces an immediate probe so
// reconnects are noticed without waiting for the next poll.
package netmon
