// Package fields holds one parser per canonical record field.
//
// Every parser takes a raw cell fragment, which may be rendered HTML or
// wikitext, and returns a structured value. Parsers never fail: a fragment
// without the expected markup yields nil (or an empty value), so one odd
// cell cannot abort a page.
package fields
