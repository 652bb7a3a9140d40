package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const (
	rssClientName   = "rss"
	rssBaseURL      = "https://www.reddit.com"
	rssFetchTimeout = 30 * time.Second
)

// RSSClient lists user submissions from Reddit's Atom feed. The feed carries
// no read-state flags, so every post comes back unread, and it is a single
// page.
type RSSClient struct {
	baseURL   string
	userAgent string
	pageSize  int
	client    *http.Client
}

// NewRSS creates a feed client. Empty options fall back to defaults.
func NewRSS(opts RedditOptions) *RSSClient {
	rc := &RSSClient{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		pageSize:  opts.PageSize,
	}
	if rc.baseURL == "" {
		rc.baseURL = rssBaseURL
	}
	if rc.userAgent == "" {
		rc.userAgent = redditUserAgent
	}
	if rc.pageSize <= 0 {
		rc.pageSize = redditPageSize
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = rssFetchTimeout
	}
	rc.client = &http.Client{
		Timeout:   timeout,
		Transport: &rssTransport{base: http.DefaultTransport, userAgent: rc.userAgent},
	}
	return rc
}

func (rc *RSSClient) Name() string {
	return rssClientName
}

func (rc *RSSClient) Submissions(author string) Stream {
	return &rssStream{rc: rc, author: author}
}

// rssTransport injects a User-Agent header into every request.
type rssTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *rssTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

type rssStream struct {
	rc      *RSSClient
	author  string
	page    []Post
	idx     int
	fetched bool
}

func (s *rssStream) Next(ctx context.Context) (Post, error) {
	if !s.fetched {
		page, err := s.rc.fetch(ctx, s.author)
		if err != nil {
			return Post{}, err
		}
		s.page, s.fetched = page, true
	}
	if s.idx >= len(s.page) {
		return Post{}, io.EOF
	}
	p := s.page[s.idx]
	s.idx++
	return p, nil
}

func (s *rssStream) PageDone() bool {
	return len(s.page) > 0 && s.idx == len(s.page)
}

func (rc *RSSClient) fetch(ctx context.Context, author string) ([]Post, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	q := url.Values{}
	q.Set("sort", "new")
	q.Set("limit", strconv.Itoa(rc.pageSize))
	feedURL := fmt.Sprintf("%s/user/%s/submitted.rss?%s", rc.baseURL, url.PathEscape(author), q.Encode())

	fp := gofeed.NewParser()
	fp.Client = rc.client
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("u/%s: %w", author, ErrAccessDenied)
		}
		return nil, fmt.Errorf("fetch %s: %w", feedURL, err)
	}

	return postsFromFeed(feed, author), nil
}

func postsFromFeed(feed *gofeed.Feed, author string) []Post {
	posts := make([]Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		posts = append(posts, Post{
			ID:        itemID(item),
			Title:     strings.TrimSpace(item.Title),
			CreatedAt: itemPublishedTime(item).UTC(),
			Channel:   itemChannel(item),
			Author:    itemAuthor(item, author),
			URL:       item.Link,
		})
	}
	return posts
}

func itemPublishedTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

// itemID strips the "t3_" kind prefix Reddit puts on Atom entry ids so that
// ids match the JSON API.
func itemID(item *gofeed.Item) string {
	id := item.GUID
	if id == "" {
		id = item.Link
	}
	return strings.TrimPrefix(id, "t3_")
}

func itemChannel(item *gofeed.Item) string {
	if len(item.Categories) > 0 {
		return strings.TrimPrefix(item.Categories[0], "r/")
	}
	return channelFromContent(item.Content)
}

// channelFromContent finds the "submitted to r/<channel>" link Reddit puts in
// the entry body.
func channelFromContent(content string) string {
	if content == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}

	var channel string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(text, "r/") {
			return true
		}
		channel = strings.TrimPrefix(text, "r/")
		return false
	})
	return channel
}

func itemAuthor(item *gofeed.Item, fallback string) string {
	if item.Author != nil && item.Author.Name != "" {
		return strings.TrimPrefix(item.Author.Name, "/u/")
	}
	return fallback
}
