// Package handlers contains the delivery handlers for each upload type.
// Every handler is written to be replay-safe: retried deliveries land on
// the same backend object or row instead of creating duplicates.
package handlers
