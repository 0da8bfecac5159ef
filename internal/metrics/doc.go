// Package metrics records deckbuilder pack, render and serve metrics.
//
// Components take a Recorder and default to NoopRecorder, so metrics never
// need nil checks at call sites. The live server swaps in a
// PrometheusRecorder and exposes its registry through HTTPHandler.
package metrics
