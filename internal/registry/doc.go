// Package registry maps dataset families to the encoder and decoder
// constructors built for their sample shape.
//
// The table is closed: Default holds every supported family, and Lookup fails
// fast for anything else so callers can reject a dataset before touching disk.
package registry
