/*
Package session hosts many named workflows behind one service.

A Manager keeps one lao.Orchestrator per workflow id, so each workflow has its
own run guard while all of them share the plugin registry. Live events of every
run are fanned out through an events.Hub and the final graph is saved to a
ports.ResultStore, where HTTP and MCP readers find it after the run.
*/
package session
