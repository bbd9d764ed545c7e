// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package parsers reads document uploads and writes exports.

	docs, err := parsers.Parse(parsers.FormatJSONL, file)

Supported formats are plain (one document per line), csv (text and
label columns), jsonl (text, labels and meta per line) and conll
(token and BIO tag per line, blank line between documents). Malformed
input yields a *FileParseError carrying the line number.
*/
package parsers
