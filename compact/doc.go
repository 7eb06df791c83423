// Package compact implements the token-minimal text form of a Document.
//
// # Grammar
//
// One statement per line; blank lines and lines starting with '#' are skipped.
//
//	key::raw text              leaf: the rest of the line, verbatim
//	key:3[a=1 b=2 c=3]         inline object; fields split by spaces, commas or newlines
//	key:2(id name)[1 x,2 y]    inline table; rows split by commas or newlines
//	key>a|b|c                  stream array
//	key!                       true
//	key?                       null
//	key:+  key:-               true, false
//	^suffix:value              key inherits the previous key's dotted prefix
//	key:[a,b]                  bracketed array
//	key:value                  scalar: null, boolean, number or string
//	@name:2(id name)[rows]     section
//
// Nested values use "~" for null, "+" and "-" for booleans, Go-quoted strings when
// a bare word would be misread, "[..]" arrays, "N[..]" objects and "N(..)[..]" tables.
// Inside table rows "_" repeats the cell above.
//
// Keys are abbreviated segment by segment through a mapping.Registry. A segment
// that is itself an abbreviation but must stay literal is written with a leading "'".
package compact
