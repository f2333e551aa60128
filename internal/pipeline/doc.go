// Package pipeline is the glue between conversion pipelines and the progress
// core. It turns command-line options into a root emitter with the right
// consumers attached, drives emitters through batches and weighted phases,
// and serializes emitter access for pipelines that fan work out to
// goroutines.
package pipeline
