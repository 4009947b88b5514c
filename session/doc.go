// Package session keeps conversation traces alive across runs so callers can
// continue a dialogue with an agent within one process lifetime. Stores are
// volatile by design; nothing survives a restart.
package session
