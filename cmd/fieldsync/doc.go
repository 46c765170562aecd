// Command fieldsync is the operator CLI for the offline upload queue:
// it inspects queue state, queues captured files, flushes the queue on
// demand, and manages configuration.
package main
