package twitter

import (
	"encoding/json"
	goerrors "errors"
	"io"
	"net/http"
	"time"

	"tweetrelay/pkg/errors"
	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/ratelimit"
)

// Client talks to the Twitter API v2 with app-only bearer authentication.
// All outbound calls go through a shared pacer so the process as a whole
// stays under burst limits, independent of the 429 cooldown.
type Client struct {
	httpClient *http.Client
	baseURL    string
	bearer     string
	pageSize   int
	pacer      ratelimit.Limiter
	cooldown   time.Duration
	logger     logger.Logger

	// Injectable so tests can simulate the 15-minute cooldown without
	// real waits
	sleep func(time.Duration)
}

// Options configures a Client beyond its credentials
type Options struct {
	BaseURL  string
	PageSize int
	// MinCallSpacing is the minimum gap between any two outbound calls
	MinCallSpacing time.Duration
	// Cooldown is how long to wait before the single retry after a 429
	Cooldown time.Duration
	Timeout  time.Duration
}

// NewClient creates a Twitter API client
func NewClient(bearerToken string, opts Options, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.PageSize == 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MinCallSpacing == 0 {
		opts.MinCallSpacing = 2 * time.Second
	}
	if opts.Cooldown == 0 {
		opts.Cooldown = 15 * time.Minute
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    opts.BaseURL,
		bearer:     bearerToken,
		pageSize:   opts.PageSize,
		pacer:      ratelimit.NewPacer(opts.MinCallSpacing),
		cooldown:   opts.Cooldown,
		logger:     log,
		sleep:      time.Sleep,
	}
}

// SetSleep replaces the cooldown sleep function (tests only)
func (c *Client) SetSleep(sleep func(time.Duration)) {
	c.sleep = sleep
}

// SetPacer replaces the outbound call pacer (tests only)
func (c *Client) SetPacer(p ratelimit.Limiter) {
	c.pacer = p
}

// LookupUser resolves a handle to its stable account ID
func (c *Client) LookupUser(handle string) (string, error) {
	url := UserByUsernameURL(c.baseURL, handle)

	c.logger.DebugWithFields("resolving account handle", map[string]interface{}{
		"handle": handle,
	})

	var response UserResponse
	if err := c.getJSONWithCooldown(url, &response); err != nil {
		return "", err
	}

	if response.Data == nil || response.Data.ID == "" {
		detail := "user not found"
		if len(response.Errors) > 0 {
			detail = response.Errors[0].Detail
		}
		return "", errors.New(errors.ErrorTypeNotFound, http.StatusNotFound, "account %q: %s", handle, detail)
	}

	c.logger.DebugWithFields("account resolved", map[string]interface{}{
		"handle":  handle,
		"user_id": response.Data.ID,
	})

	return response.Data.ID, nil
}

// RecentTweets fetches the account's most recent tweets with attached
// media metadata. When sinceID is non-empty only tweets newer than it are
// requested, bounding the work once a watermark exists.
func (c *Client) RecentTweets(userID, sinceID string) (*Timeline, error) {
	url := UserTweetsURL(c.baseURL, userID, c.pageSize, sinceID)

	c.logger.DebugWithFields("fetching recent tweets", map[string]interface{}{
		"user_id":  userID,
		"since_id": sinceID,
	})

	var timeline Timeline
	if err := c.getJSONWithCooldown(url, &timeline); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("recent tweets fetched", map[string]interface{}{
		"user_id":      userID,
		"result_count": timeline.Meta.ResultCount,
		"media_count":  len(timeline.Includes.Media),
	})

	return &timeline, nil
}

// getJSONWithCooldown performs a paced GET; on a rate-limit signal it
// sleeps the fixed cooldown and retries the identical request exactly
// once. This is a blocking wait by design: a rate-limited account is an
// expected long-pole, not a fault.
func (c *Client) getJSONWithCooldown(url string, target interface{}) error {
	err := c.getJSON(url, target)
	if err == nil || !errors.IsRateLimit(err) {
		return err
	}

	c.logger.WarnWithFields("rate limit hit, waiting before retry", map[string]interface{}{
		"cooldown": c.cooldown,
	})
	c.sleep(c.cooldown)

	return c.getJSON(url, target)
}

// getJSON performs a single paced GET and decodes the JSON response
func (c *Client) getJSON(url string, target interface{}) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer)
	req.Header.Set("User-Agent", "tweetrelay/1.0")

	c.pacer.Wait()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.New(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	return nil
}

// checkResponseStatus maps non-200 statuses onto the error taxonomy
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	errType := errors.FromStatusCode(resp.StatusCode)
	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	}

	switch errType {
	case errors.ErrorTypeRateLimit:
		c.logger.WarnWithFields("rate limit exceeded", fields)
		return errors.New(errType, resp.StatusCode, "rate limit exceeded")
	case errors.ErrorTypeAuth:
		c.logger.WarnWithFields("authentication error", fields)
		return errors.New(errType, resp.StatusCode, "authentication failed")
	case errors.ErrorTypeNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return errors.New(errType, resp.StatusCode, "resource not found")
	case errors.ErrorTypeServerError:
		c.logger.ErrorWithFields("server error", fields)
		return errors.New(errType, resp.StatusCode, "server error")
	default:
		c.logger.ErrorWithFields("unexpected API error", fields)
		return errors.New(errType, resp.StatusCode, "unexpected status code: %d", resp.StatusCode)
	}
}

// IsNotFound reports whether err means the account does not exist
func IsNotFound(err error) bool {
	var apiErr *errors.Error
	if goerrors.As(err, &apiErr) {
		return apiErr.Type == errors.ErrorTypeNotFound
	}
	return false
}
