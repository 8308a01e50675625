/*
Package plugin defines the contract between the orchestrator and the units of
computation it invokes.

A plugin is identified by name, describes itself through a PluginDescriptor,
validates its input cheaply and runs one blocking text-to-text request. Outputs
are owned values that carry their plugin's release function: the caller reads
them and then releases them exactly once, always through the plugin that
allocated them.

Plugins reach the host in three ways: in-process values (Func), Go shared
objects exporting a VTable, and executables speaking the process protocol
implemented by the sdk package.
*/
package plugin
