/*
Package domain contains the core data model of the LAO orchestrator.

It defines the workflow graph that external collaborators edit, the per-node
status machine the engine drives, the plugin descriptors the registry exposes
and the events streamed while a run progresses. The package is free of I/O.

# Key Entities

  - WorkflowGraph: ordered nodes and edges; edges are dependencies.
  - GraphNode: one plugin invocation, carrying its status, output and error.
  - PluginDescriptor: identity, version and capabilities of a loaded plugin.
  - Event: a node status change or the final workflow completion.
*/
package domain
