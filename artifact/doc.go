// Package artifact provides content hashing and chunking for packaged
// model artifacts.
//
// The digest produced here is the integrity anchor for the whole
// upload: the registry stores it at registration time and verifies it
// over the received chunks at finalization. The chunker produces a
// finite, restartable sequence of fixed-size chunks so that an
// interrupted upload can resume from an arbitrary index.
package artifact
