// package services contains clients for the external collaborators: the
// music metadata service (Last.fm API), the completion service (OpenAI chat
// completions), and the video lookup service (YouTube Data API).
//
// The metadata client degrades to empty/false results on transport or parse
// failure; the curation pipeline branches on pool sizes and verification
// booleans, never on transport errors.
package services

// SearchResult is one track match from the metadata service's search
// endpoint, including its listener count for popularity display.
type SearchResult struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Listeners int    `json:"listeners"`
}
