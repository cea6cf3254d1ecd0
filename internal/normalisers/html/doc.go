// Package html cleans notice text before it is stored and indexed.
// Notice bodies scraped from the university site often arrive as HTML
// fragments; this package strips tags, scripts and styles, decodes
// entities and collapses whitespace so the stored body is plain text.
package html
