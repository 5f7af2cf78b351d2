// Package metadata extracts names, version tags, descriptions and
// per-parameter documentation from a target's documentation text.
//
// The first paragraph of the text is the description, the remaining
// paragraphs the long description. Parameters are documented with reST field
// lists (:param, :type, :returns, :rtype, :version). Documentation only ever
// informs the generated help: behavior is derived from the real signature.
package metadata
