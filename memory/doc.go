// Package memory gives agents a scratchpad that outlives a single run:
// a store of free-text entries plus remember/recall tools the model can call
// to write and search it. The bundled store is process local and meant for
// tests and demos; production setups swap in a semantic index behind the
// same Store interface.
package memory
