// Package factory is a small generic registry that builds pluggable
// backends, such as dispatch log stores, from a type name and a map of raw
// settings decoded with Decode.
package factory
