// Package encoding provides the bounds-checked primitive field codecs of the
// machine archive: uvarint counts, uvarint length-prefixed strings and fixed-width
// offsets.
//
// Encoders append to a caller-owned slice. Decoders take the whole archive and an
// offset, and return the decoded field plus the offset just past it. Every read
// checks the remaining length first and reports errs.ErrTruncated or
// errs.ErrCorrupt instead of panicking. Decoded strings are subslices of the input;
// nothing is copied.
package encoding
