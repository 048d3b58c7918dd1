package models

// SearchRequest is the inbound query contract.
type SearchRequest struct {
	Query   string   `json:"query" binding:"required"`
	History []string `json:"history,omitempty"`
}

// Source is one id-stamped unit of textual evidence. IDs are dense,
// 1-based, and assigned once per query cycle by the aggregator; the
// model cites them as [n] and the binder resolves them back.
type Source struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Snippet string `json:"snippet,omitempty"`
	Origin  string `json:"source"`
}

// ImageResult is a side-channel media entry; never cited inline.
type ImageResult struct {
	URL    string `json:"url"`
	ImgSrc string `json:"img_src"`
	Title  string `json:"title"`
}

// VideoResult is a side-channel media entry; never cited inline.
type VideoResult struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Evidence is the merged output of one aggregation pass.
type Evidence struct {
	Sources []Source      `json:"sources"`
	Images  []ImageResult `json:"images"`
	Videos  []VideoResult `json:"videos"`
}

// SegmentKind discriminates rendered answer segments.
type SegmentKind string

const (
	SegmentText      SegmentKind = "text"
	SegmentLink      SegmentKind = "link"
	SegmentHighlight SegmentKind = "highlight"
)

// Segment is one typed piece of the bound answer. Text segments carry
// prose, link segments carry a resolved citation, highlight segments
// carry emphasized spans (which may themselves contain links).
type Segment struct {
	Kind     SegmentKind `json:"kind"`
	Text     string      `json:"text,omitempty"`
	SourceID int         `json:"source_id,omitempty"`
	URL      string      `json:"url,omitempty"`
	Title    string      `json:"title,omitempty"`
	Children []Segment   `json:"children,omitempty"`
}

// SearchResponse is the outbound contract for one evidence cycle.
// Answer carries the raw grounded text with [n] markers; Segments is
// the same text pre-bound for renderers that do not want to parse.
type SearchResponse struct {
	Answer       string        `json:"answer"`
	Segments     []Segment     `json:"segments"`
	Sources      []Source      `json:"sources"`
	Images       []ImageResult `json:"images"`
	Videos       []VideoResult `json:"videos"`
	ResponseTime int           `json:"response_time_ms"`
}
