/*
Package lao is a local plugin workflow orchestrator.

Workflows are directed acyclic graphs whose nodes each invoke one plugin, a
unit that turns a text input into a text output (speech-to-text,
summarization, tagging). LAO loads plugins once, validates a graph before every
run, executes nodes in dependency order (sequentially or wave by wave in
parallel), retries failed calls, reuses identical calls within a run and skips
the dependents of failed nodes. Progress is streamed as events.

# Concept

The Orchestrator owns a working copy of the graph for the duration of a run and
refuses a second run while one is active. Callers observe a run through its
event channel and read the final graph once it completes. Plugins are opaque:
the orchestrator never interprets their output, and an error message a plugin
returns as text is still a successful result.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/lao"
		"github.com/aretw0/lao/pkg/dsl"
	)

	func main() {
		ctx := context.Background()

		// Load every plugin found in ./plugins
		orch, loadErrs := lao.Open(ctx, "./plugins")
		for _, err := range loadErrs {
			log.Printf("plugin skipped: %v", err)
		}

		b := dsl.New("podcast")
		b.Add("transcribe").Run("Whisper").Input("episode.wav").
			Then("summarize").Run("Summarizer")

		run, err := orch.Run(ctx, b.MustBuild(), true)
		if err != nil {
			log.Fatal(err) // validation error or run in progress
		}
		for ev := range run.Events() {
			if ev.Node != nil {
				fmt.Println(ev.Node.NodeID, ev.Node.Status)
			}
		}
		res, _ := run.Wait(ctx)
		fmt.Println("success:", res.Success)
	}
*/
package lao
