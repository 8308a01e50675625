/*
Package ports defines the driven ports (interfaces) for the LAO orchestrator.

These interfaces decouple orchestration from external implementations, so runs
can be guarded and their results shared through different backends.

# Key Interfaces

  - RunLocker: Guards "one run at a time" for a workflow across processes.
  - ResultStore: Keeps the last completed graph of each workflow for readers.
  - WorkflowService: What the HTTP and MCP adapters drive.
*/
package ports
