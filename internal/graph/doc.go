// Package graph mirrors a remote graph store client-side.
//
// A State holds the set of known graph resources, one Graph payload per
// resource, and a sidebar UI flag. State changes only through Store.Reduce,
// which feeds each Event to a pure Reducer and commits the result to a
// generic state.Store.
//
// Graphs are immutable. Reduction copies on write, so a State handed to a
// subscriber is never modified afterwards and can be read without locks.
//
// Events are a closed set of types (KeysEvent, AddGraphEvent, ...). Kinds
// the reducer does not understand decode to UnknownEvent and are dropped
// with a warning, so producers may run ahead of this package.
package graph
