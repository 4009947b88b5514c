// Package model defines the provider-agnostic generation interface plus the
// request/response envelope used by the run engine. Concrete adapters live in
// the openai and anthropic subpackages.
package model
