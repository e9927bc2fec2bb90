// Package discourse is a minimal client for the Discourse endpoints the
// fetch job needs: the tagged-topic list, topic content, and raw uploads.
package discourse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TopicSummary is one topic from the tagged-topic listing.
type TopicSummary struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	BumpedAt  time.Time `json:"bumped_at"`
}

// tagResponse mirrors the /tag/{name}.json payload.
type tagResponse struct {
	TopicList struct {
		Topics []TopicSummary `json:"topics"`
	} `json:"topic_list"`
}

// topicResponse mirrors the /t/{id}.json payload. The cooked HTML of the
// first post carries the images.
type topicResponse struct {
	PostStream struct {
		Posts []struct {
			Cooked string `json:"cooked"`
		} `json:"posts"`
	} `json:"post_stream"`
}

// Client calls a Discourse instance with static API-key authentication.
type Client struct {
	baseURL     string
	apiKey      string
	apiUsername string
	httpClient  *http.Client
}

// NewClient creates a client for the given instance and credentials.
func NewClient(baseURL, apiKey, apiUsername string) *Client {
	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		apiUsername: apiUsername,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// get issues an authenticated GET and returns the response body.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s; %w", url, err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Api-Username", c.apiUsername)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed; %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request to %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s; %w", url, err)
	}
	return body, nil
}

// TaggedTopics lists the topics currently carrying the tag.
func (c *Client) TaggedTopics(ctx context.Context, tag string) ([]TopicSummary, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/tag/%s.json", c.baseURL, tag))
	if err != nil {
		return nil, err
	}

	var parsed tagResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode tag listing; %w", err)
	}
	return parsed.TopicList.Topics, nil
}

// TopicHTML returns the cooked HTML of the topic's first post.
func (c *Client) TopicHTML(ctx context.Context, id int) (string, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/t/%d.json", c.baseURL, id))
	if err != nil {
		return "", err
	}

	var parsed topicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode topic %d; %w", id, err)
	}
	if len(parsed.PostStream.Posts) == 0 {
		return "", nil
	}
	return parsed.PostStream.Posts[0].Cooked, nil
}

// Download fetches raw image bytes from an upload URL.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	return c.get(ctx, rawURL)
}
