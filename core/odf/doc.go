// Package odf manages footnotes, endnotes and annotations inside an ODF
// document tree.
//
// Notes (text:note) are self-contained: a citation region and a body region
// inside one element. Annotations are split constructs: an office:annotation
// start marker and an optional office:annotation-end marker, possibly far
// apart in document order, correlated only by their office:name. Either half
// finds its partner by searching its governing scope, which is the document
// body when the marker is attached to a document and its nearest container
// otherwise.
//
// The tree itself is provided by package xml. Operations here are
// synchronous and not safe for concurrent use on one document: callers hold
// Document's lock around allocate-and-insert sequences.
package odf
