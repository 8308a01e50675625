/*
Package dsl provides a Go DSL for programmatically constructing LAO workflow graphs.

It lets developers define workflows with a fluent builder instead of YAML or JSON
files. This is particularly useful for dynamic graph generation, unit testing, and
leveraging IDE autocompletion/type-checking.

Example usage:

	package main

	import (
		"github.com/aretw0/lao/pkg/dsl"
	)

	func main() {
		b := dsl.New("podcast")

		b.Add("transcribe").
			Run("Whisper").
			Input("episode.wav")

		b.Add("summarize").
			Run("Summarizer").
			After("transcribe")

		// Build validates the graph and returns a *domain.WorkflowGraph
		g, err := b.Build()
		// ... pass g to (*lao.Orchestrator).Run(...)
	}
*/
package dsl
