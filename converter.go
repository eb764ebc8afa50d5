package estate

// Converter turns a listing description fragment into readable text.
type Converter interface {
	// Convert transforms HTML into Markdown.
	Convert(html string) (string, error)
}
