// Package machine implements the binary form of a Document.
//
// A machine payload is one compression tag byte followed by the payload:
//
//	0x00  raw archive
//	0x01  uint32 little-endian uncompressed size + LZ4 block
//	0x02  Zstd frame
//
// The raw archive starts with a 24-byte header:
//
//	+-----------+---------+-------+----------+-----------+-----------+-------------+------------+
//	| "DXMA"    | version | flags | reserved | ctx count | sec count | index off   | total size |
//	| 4 bytes   | 1 byte  | 1     | 2        | 4         | 4         | 4           | 4          |
//	+-----------+---------+-------+----------+-----------+-----------+-------------+------------+
//
// Value records follow the header in post-order, so a container's children always
// sit at lower offsets than the container itself. Strings are stored once and
// shared. The context index ((key, value) offset pairs) and the section index
// ((name, table) offset pairs) end the archive. Multi-byte fields use the byte order
// recorded in the header flags.
//
// Open returns an Archive view that reads records in place without copying; Decode
// materializes a Document. Both validate every offset they follow, and archives
// that break the ordering rules are rejected as corrupt.
//
// Archives smaller than the compression threshold are always tagged none, as are
// archives whose compressed form is not smaller.
package machine
