// Package progress provides the snapshot model, the emitter tree, and the
// consumer contract that the conversion pipelines use to report progress. An
// Emitter owns mutable progress state, folds weighted child contributions into
// its own counter, and fans every observable change out to registered
// Consumers such as log sinks, terminal bars, or legacy callbacks.
//
// Emitters are not safe for concurrent use. Callers that drive a tree from
// several goroutines must serialize access, for example through
// pipeline.Mediator.
package progress
