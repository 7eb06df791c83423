// Package human implements the readable, indentation-based text form of a Document.
//
// Each nesting level indents by four spaces. Keys are never abbreviated and the
// "key : value" separators of a block line up:
//
//	name    : app
//	url     :: https://example.com/?q=1
//	server  :
//	    host : localhost
//	    port : 8080
//	tags    :
//	    - a
//	    - b
//	empty   : {}
//	list    : []
//
//	[servers]
//	| host | port |
//	| a    | 80   |
//
// Objects are indented blocks, arrays are "- item" lists and tables are "| a | b |"
// grids whose first line is the header. "key :: raw" keeps the rest of the line
// verbatim. Sections follow the context as "[name]" headers over a grid. Table cells
// hold single-line values in the nested value syntax shared with the compact grammar.
//
// The parser also accepts "key!" and "key?", "+" and "-" for booleans, and "~" for
// null. There is no ditto marker and no stream syntax.
package human
