package grounding

import "regexp"

// MaxURLs is how many links in one message are fetched for grounding.
const MaxURLs = 2

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// DetectURLs returns up to MaxURLs http(s) links in order of appearance.
func DetectURLs(text string) []string {
	return urlPattern.FindAllString(text, MaxURLs)
}
