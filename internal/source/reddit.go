package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	redditClientName = "reddit"
	redditBaseURL    = "https://oauth.reddit.com"
	redditWebURL     = "https://www.reddit.com"
	redditTimeout    = 30 * time.Second
	redditUserAgent  = "serialbinder/1.0"
	redditPageSize   = 100
)

// RedditOptions configures a RedditClient. Zero values fall back to defaults.
type RedditOptions struct {
	BaseURL   string
	UserAgent string
	Token     string // OAuth bearer token, required for read-state flags
	PageSize  int
	Timeout   time.Duration
}

// RedditClient lists user submissions via Reddit's JSON API.
type RedditClient struct {
	client    *http.Client
	baseURL   string
	userAgent string
	token     string
	pageSize  int
	timeout   time.Duration
}

// NewReddit creates a Reddit JSON client.
func NewReddit(opts RedditOptions) *RedditClient {
	rc := &RedditClient{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		token:     opts.Token,
		pageSize:  opts.PageSize,
		timeout:   opts.Timeout,
	}
	if rc.baseURL == "" {
		rc.baseURL = redditBaseURL
	}
	if rc.userAgent == "" {
		rc.userAgent = redditUserAgent
	}
	if rc.pageSize <= 0 {
		rc.pageSize = redditPageSize
	}
	if rc.timeout <= 0 {
		rc.timeout = redditTimeout
	}
	rc.client = &http.Client{Timeout: rc.timeout}
	return rc
}

func (rc *RedditClient) Name() string {
	return redditClientName
}

// Submissions returns a stream over the author's submissions, requesting one
// listing page at a time.
func (rc *RedditClient) Submissions(author string) Stream {
	return &redditStream{rc: rc, author: author}
}

type redditStream struct {
	rc     *RedditClient
	author string
	page   []Post
	idx    int
	after  string
	done   bool
}

func (s *redditStream) Next(ctx context.Context) (Post, error) {
	for s.idx >= len(s.page) {
		if s.done {
			return Post{}, io.EOF
		}
		page, after, err := s.rc.fetchPage(ctx, s.author, s.after)
		if err != nil {
			return Post{}, err
		}
		s.page, s.idx, s.after = page, 0, after
		if after == "" || len(page) == 0 {
			s.done = true
		}
	}

	p := s.page[s.idx]
	s.idx++
	return p, nil
}

func (s *redditStream) PageDone() bool {
	return len(s.page) > 0 && s.idx == len(s.page)
}

func (rc *RedditClient) fetchPage(ctx context.Context, author, after string) ([]Post, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("sort", "new")
	q.Set("limit", strconv.Itoa(rc.pageSize))
	q.Set("raw_json", "1")
	if after != "" {
		q.Set("after", after)
	}
	u := fmt.Sprintf("%s/user/%s/submitted.json?%s", rc.baseURL, url.PathEscape(author), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", rc.userAgent)
	if rc.token != "" {
		req.Header.Set("Authorization", "bearer "+rc.token)
	}

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch u/%s: %w", author, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusForbidden {
		return nil, "", fmt.Errorf("u/%s: %w", author, ErrAccessDenied)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("u/%s: status %d", author, resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, "", fmt.Errorf("decode u/%s: %w", author, err)
	}

	after = ""
	if listing.Data.After != nil {
		after = *listing.Data.After
	}
	return postsFromListing(listing), after, nil
}

func postsFromListing(listing redditListing) []Post {
	posts := make([]Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		p := child.Data

		removedBy := ""
		if p.RemovedByCategory != nil {
			removedBy = *p.RemovedByCategory
		}

		posts = append(posts, Post{
			ID:        p.ID,
			Title:     p.Title,
			CreatedAt: time.Unix(int64(p.CreatedUTC), 0).UTC(),
			Channel:   p.Subreddit,
			Author:    p.Author,
			RemovedBy: removedBy,
			Pinned:    p.Pinned,
			Liked:     p.Likes,
			Hidden:    p.Hidden,
			URL:       redditWebURL + p.Permalink,
		})
	}
	return posts
}

type redditListing struct {
	Data struct {
		After    *string       `json:"after"`
		Children []redditChild `json:"children"`
	} `json:"data"`
}

type redditChild struct {
	Data redditPost `json:"data"`
}

type redditPost struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Subreddit         string  `json:"subreddit"`
	Author            string  `json:"author"`
	Permalink         string  `json:"permalink"`
	CreatedUTC        float64 `json:"created_utc"`
	RemovedByCategory *string `json:"removed_by_category"`
	Pinned            bool    `json:"pinned"`
	Likes             *bool   `json:"likes"`
	Hidden            bool    `json:"hidden"`
}
