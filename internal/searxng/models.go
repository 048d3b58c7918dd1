package searxng

import "strings"

// SearchResponse is the JSON body returned by a SearxNG instance.
type SearchResponse struct {
	Query           string   `json:"query"`
	NumberOfResults int      `json:"number_of_results"`
	Results         []Result `json:"results"`
}

// Result is a single raw item from a SearxNG instance. Shapes vary by
// engine: web snippets carry Content, image engines carry ImgSrc,
// video engines mark themselves via Category/Template or a video host
// URL.
type Result struct {
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Content  string  `json:"content"`
	Engine   string  `json:"engine"`
	ImgSrc   string  `json:"img_src"`
	Category string  `json:"category"`
	Template string  `json:"template"`
	Score    float64 `json:"score"`
}

// ResultKind tags a raw result once at ingestion.
type ResultKind int

const (
	KindText ResultKind = iota
	KindImage
	KindVideo
)

var videoHosts = []string{
	"youtube.com",
	"youtu.be",
	"vimeo.com",
	"dailymotion.com",
	"peertube",
}

// Kind classifies the raw result. Video markers win over image
// locators since video engines often ship a thumbnail ImgSrc too.
func (r Result) Kind() ResultKind {
	if r.Category == "videos" || r.Template == "videos.html" {
		return KindVideo
	}
	lower := strings.ToLower(r.URL)
	for _, host := range videoHosts {
		if strings.Contains(lower, host) {
			return KindVideo
		}
	}
	if r.ImgSrc != "" {
		return KindImage
	}
	return KindText
}
