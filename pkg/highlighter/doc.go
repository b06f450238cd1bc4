// Package highlighter is the public API of the searchmark highlighting engine.
//
// It marks the terms of a free-form search query inside field text and
// returns sanitized HTML:
//
//   - [ParseSearchQuery]: classify a query as simple, phrase or complex
//   - [ExtractTermsFromQuery]: the ordered, deduplicated match terms
//   - [HighlightText]: highlight arbitrary text with explicit options
//   - [HighlightWithFieldContext]: highlight with a title/content/author/tags profile
//   - [Sanitize]: strip everything except the highlight marker
//
// # Usage
//
//	res := highlighter.HighlightWithFieldContext(
//	    article.Title, `"machine learning" python`, highlighter.FieldTitle, highlighter.Options{})
//	fmt.Println(res.HTML)
//
// Every function is safe for concurrent use and never panics or returns an
// error for malformed input. The engine reads no global configuration:
// anything not set in [Options] uses the documented default.
package highlighter
