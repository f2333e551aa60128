// Package consumers implements progress.Consumer for the places progress ends
// up: structured logs, an interactive terminal bar, legacy two-argument
// callbacks, Prometheus gauges, completion notices on a message bus, and an
// in-memory snapshot served over HTTP.
//
// Every consumer keeps its bookkeeping on the instance. Attach one value to
// one emitter.
package consumers
