// Package response defines the answer returned to the caller and its
// provenance signal.
package response

// Source tells where the response text came from.
type Source string

const (
	// SourceDataset marks text derived from a matched knowledge base entry.
	SourceDataset Source = "dataset"
	// SourceRedirect marks the fixed redirect-to-contact message.
	SourceRedirect Source = "redirect"
)

// Response is the terminal per-request answer (immutable value object).
// Source is SourceDataset only for accepted matches; the composer never
// emits dataset-attributed text that is not grounded in the matched answer.
type Response struct {
	text   string
	source Source
}

// Dataset creates a Response grounded in a matched entry's answer.
func Dataset(text string) Response {
	return Response{text: text, source: SourceDataset}
}

// Redirect creates a Response carrying the fixed redirect message.
func Redirect(text string) Response {
	return Response{text: text, source: SourceRedirect}
}

// Text returns the answer text.
func (r *Response) Text() string { return r.text }

// Source returns the provenance signal.
func (r *Response) Source() Source { return r.source }
