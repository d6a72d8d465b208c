// Package archive packages a serialized model binary and its tokenizer
// configuration into the single compressed container consumed by the
// upload protocol.
//
// The container is a gzip-compressed tar stream with exactly two
// members. The upload protocol treats the finished container as an
// opaque byte blob; only this package knows its internal layout.
package archive
