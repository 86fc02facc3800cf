package weibo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wbscraper/pkg/config"
	"wbscraper/pkg/errors"
	"wbscraper/pkg/logger"
	"wbscraper/pkg/metrics"
)

// Client issues authenticated GET requests against the Weibo web API.
// It never retries: every failure is returned to the caller as *errors.Error.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a client from the request identity in cfg
func NewClient(cfg *config.WeiboConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = BaseURL
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: map[string]string{
			"User-Agent":       cfg.UserAgent,
			"Accept":           "application/json, text/plain, */*",
			"Accept-Language":  "zh-CN,zh;q=0.9,en;q=0.8",
			"X-Requested-With": "XMLHttpRequest",
			"Referer":          baseURL + "/",
		},
		baseURL: baseURL,
		logger:  log.WithField("component", "weibo"),
	}
	if cfg.Cookie != "" {
		c.headers["Cookie"] = cfg.Cookie
	}
	return c
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHTTPClient replaces the underlying transport client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// BaseURL returns the host requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.RequestFailed(rawURL, 0, err, "failed to create request")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	return req, nil
}

// Fetch performs one GET of endpoint with params and decodes the body as a JSON object.
// Network failures, non-2xx statuses and non-JSON bodies are request_failed.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) (Document, error) {
	fullURL := c.baseURL + endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := c.newRequest(ctx, fullURL)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveRequest(endpoint, "network_error", time.Since(start))
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":   fullURL,
			"error": err.Error(),
		})
		return nil, errors.RequestFailed(fullURL, 0, err, "network error")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	logger.LogRequest(c.logger, fullURL, resp.StatusCode, duration.Milliseconds(), body)
	if err != nil {
		metrics.ObserveRequest(endpoint, "network_error", duration)
		return nil, errors.RequestFailed(fullURL, resp.StatusCode, err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ObserveRequest(endpoint, "http_error", duration)
		return nil, errors.RequestFailed(fullURL, resp.StatusCode, nil, "unexpected status %s", http.StatusText(resp.StatusCode))
	}

	doc, err := decodeDocument(body)
	if err != nil {
		metrics.ObserveRequest(endpoint, "bad_json", duration)
		return nil, errors.RequestFailed(fullURL, resp.StatusCode, err, "response is not valid JSON")
	}

	metrics.ObserveRequest(endpoint, "ok", duration)
	return doc, nil
}

// FetchUserProfile returns data.user for id
func (c *Client) FetchUserProfile(ctx context.Context, id int64) (*UserProfile, error) {
	doc, err := c.Fetch(ctx, ProfileEndpoint, uidParams(id))
	if err != nil {
		return nil, err
	}
	data, err := doc.Object("data")
	if err != nil {
		return nil, err
	}
	user, err := data.Object("user")
	if err != nil {
		return nil, err
	}
	return ParseUserProfile(user)
}

// FetchFollowerPage returns one page (1-based) of the users id follows
func (c *Client) FetchFollowerPage(ctx context.Context, id int64, page int) (*FollowerPage, error) {
	doc, err := c.Fetch(ctx, FriendsEndpoint, pagedParams(id, page))
	if err != nil {
		return nil, err
	}
	result := &FollowerPage{OK: doc.OK()}
	if !result.OK {
		return result, nil
	}
	if _, present := doc["users"]; !present {
		return result, nil
	}
	users, err := doc.Objects("users")
	if err != nil {
		return nil, err
	}
	result.Users = users
	return result, nil
}

// FetchPostPage returns the raw posts of one timeline page (1-based)
func (c *Client) FetchPostPage(ctx context.Context, id int64, page int) ([]Document, error) {
	doc, err := c.Fetch(ctx, PostsEndpoint, pagedParams(id, page))
	if err != nil {
		return nil, err
	}
	data, err := doc.Object("data")
	if err != nil {
		return nil, err
	}
	if _, present := data["list"]; !present {
		return nil, nil
	}
	return data.Objects("list")
}

// FetchLongText returns the full text of a truncated post
func (c *Client) FetchLongText(ctx context.Context, mblogID string) (string, error) {
	params := url.Values{}
	params.Set("id", mblogID)
	doc, err := c.Fetch(ctx, LongTextEndpoint, params)
	if err != nil {
		return "", err
	}
	data, err := doc.Object("data")
	if err != nil {
		return "", err
	}
	return data.String("longTextContent")
}

// DownloadImage streams an absolute image URL into w
func (c *Client) DownloadImage(ctx context.Context, imageURL string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, imageURL)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveRequest("image", "network_error", time.Since(start))
		return 0, errors.RequestFailed(imageURL, 0, err, "image download failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ObserveRequest("image", "http_error", time.Since(start))
		return 0, errors.RequestFailed(imageURL, resp.StatusCode, nil, "image download failed")
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		metrics.ObserveRequest("image", "network_error", time.Since(start))
		return n, errors.RequestFailed(imageURL, resp.StatusCode, err, "image download interrupted")
	}
	metrics.ObserveRequest("image", "ok", time.Since(start))
	c.logger.DebugWithFields("image downloaded", map[string]interface{}{
		"url":   imageURL,
		"bytes": n,
	})
	return n, nil
}

// String implements fmt.Stringer for log fields
func (c *Client) String() string {
	return fmt.Sprintf("weibo.Client(%s)", c.baseURL)
}
