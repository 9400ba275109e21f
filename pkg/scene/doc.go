// Package scene holds the plant scene model: live objects with transforms
// and typed metadata, the persisted document they are bound to, and the
// pipe connections between them. Connections compare undirected; the
// document is shared with collaborators and mutated in place.
package scene
