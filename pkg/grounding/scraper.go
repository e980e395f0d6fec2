package grounding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
)

// MaxContentChars caps the visible text kept from a page.
const MaxContentChars = 8000

var ErrFetchFailed = errors.New("failed to fetch url")

// Page is the bounded excerpt of a fetched URL.
type Page struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
}

// skippedElements never contribute visible text.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"template": true,
}

type Scraper struct {
	client *resty.Client
}

func NewScraper(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; FriendList/1.0)").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	return &Scraper{client: client}
}

func (s *Scraper) Scrape(ctx context.Context, url string) (*Page, error) {
	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode())
	}

	page, err := ExtractPage(resp.String())
	if err != nil {
		return nil, err
	}
	page.URL = url
	return page, nil
}

// ExtractPage reduces an HTML document to title, description and visible text.
// og:title is preferred over <title>.
func ExtractPage(raw string) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var (
		title, ogTitle, description string
		builder                     strings.Builder
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if val := strings.TrimSpace(n.Data); val != "" {
				if builder.Len() > 0 {
					builder.WriteString(" ")
				}
				builder.WriteString(val)
			}
		case html.ElementNode:
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			case "meta":
				name, property, content := attr(n, "name"), attr(n, "property"), attr(n, "content")
				if strings.EqualFold(name, "description") && description == "" {
					description = strings.TrimSpace(content)
				}
				if strings.EqualFold(property, "og:title") && ogTitle == "" {
					ogTitle = strings.TrimSpace(content)
				}
			}
			if skippedElements[n.Data] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if ogTitle != "" {
		title = ogTitle
	}

	return &Page{
		Title:       title,
		Description: description,
		Content:     truncate(collapseWhitespace(builder.String()), MaxContentChars),
	}, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
