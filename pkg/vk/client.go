package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"vkbackup/pkg/config"
	apperrors "vkbackup/pkg/errors"
	"vkbackup/pkg/logger"
	"vkbackup/pkg/models"
	"vkbackup/pkg/ratelimit"
	"vkbackup/pkg/retry"
)

// Client talks to the VK API on behalf of a single access token
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	apiVersion string
	token      string
	timeout    time.Duration
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
}

// NewClient creates a VK client. Every call is bounded by timeout.
func NewClient(token string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{},
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "vkbackup/1.0",
		},
		baseURL:    config.DefaultVKBaseURL,
		apiVersion: config.DefaultVKAPIVersion,
		token:      token,
		timeout:    timeout,
		limiter:    ratelimit.NewSlidingWindow(3, time.Second),
		retry:      &retry.Config{MaxAttempts: 1},
		logger:     log.WithField("component", "vk"),
	}
}

// NewClientFromConfig creates a client wired with the configured limits
func NewClientFromConfig(cfg *config.Config, log logger.Logger) *Client {
	c := NewClient(cfg.VK.Token, cfg.HTTP.ControlTimeout, log)
	c.SetBaseURL(cfg.VK.BaseURL)
	c.SetAPIVersion(cfg.VK.APIVersion)
	c.SetHeader("User-Agent", cfg.HTTP.UserAgent)
	c.SetLimiter(ratelimit.NewSlidingWindow(cfg.RateLimit.VKRequestsPerSecond, time.Second))
	c.SetRetry(retry.FromSettings(cfg.Retry, c.logger))
	return c
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	if value != "" {
		c.headers[key] = value
	}
}

// SetBaseURL points the client at another API root
func (c *Client) SetBaseURL(baseURL string) {
	if baseURL != "" {
		c.baseURL = baseURL
	}
}

// SetAPIVersion overrides the v= parameter sent with every call
func (c *Client) SetAPIVersion(v string) {
	if v != "" {
		c.apiVersion = v
	}
}

// SetLimiter replaces the request limiter
func (c *Client) SetLimiter(l ratelimit.Limiter) {
	c.limiter = l
}

// SetRetry replaces the retry policy
func (c *Client) SetRetry(cfg *retry.Config) {
	c.retry = cfg
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// ValidateToken performs a cheap authenticated call. A rejected token yields
// an auth error.
func (c *Client) ValidateToken(ctx context.Context) error {
	var profile json.RawMessage
	if err := c.call(ctx, MethodProfileInfo, url.Values{}, &profile); err != nil {
		c.logger.WithError(err).Warn("VK token validation failed")
		return err
	}
	c.logger.Debug("VK token is valid")
	return nil
}

// FetchProfilePhotos returns up to limit photos from the owner's profile album.
// An empty album is not an error.
func (c *Client) FetchProfilePhotos(ctx context.Context, ownerID string, limit int) ([]models.Photo, error) {
	if !IsValidOwnerID(ownerID) {
		return nil, apperrors.Newf(apperrors.ErrorTypeInvalidInput, "invalid VK user id %q", ownerID)
	}

	c.logger.DebugWithFields("fetching profile photos", map[string]interface{}{
		"owner_id": ownerID,
		"limit":    ClampLimit(limit),
	})

	var resp photosResponse
	if err := c.call(ctx, MethodPhotosGet, photosParams(ownerID, limit), &resp); err != nil {
		c.logger.WithError(err).ErrorWithFields("failed to fetch profile photos", map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}

	photos := make([]models.Photo, 0, len(resp.Items))
	for _, item := range resp.Items {
		photos = append(photos, item.toModel())
	}

	c.logger.InfoWithFields("fetched profile photos", map[string]interface{}{
		"owner_id": ownerID,
		"count":    len(photos),
		"total":    resp.Count,
	})
	return photos, nil
}

// call invokes a VK method, retrying transport failures per the retry policy,
// and decodes the response payload into target.
func (c *Client) call(ctx context.Context, method string, params url.Values, target interface{}) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		return c.callOnce(ctx, method, params, target)
	}, c.retry)
}

func (c *Client) callOnce(ctx context.Context, method string, params url.Values, target interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return apperrors.Wrap(apperrors.ErrorTypeTransport, err, "waiting for rate limiter")
		}
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("access_token", c.token)
	query.Set("v", c.apiVersion)
	reqURL := methodURL(c.baseURL, method, query)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeTransport, err, "failed to create request")
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeTransport, err, "failed to read response body")
	}

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logParseFailure(method, resp.StatusCode, body, err)
		return apperrors.Wrap(apperrors.ErrorTypeAPI, err, "malformed VK response").WithCode(resp.StatusCode)
	}

	if env.Error != nil {
		return classifyAPIError(method, env.Error)
	}

	if len(env.Response) == 0 {
		return apperrors.Newf(apperrors.ErrorTypeAPI, "%s: empty response", method)
	}
	if err := json.Unmarshal(env.Response, target); err != nil {
		c.logParseFailure(method, resp.StatusCode, body, err)
		return apperrors.Wrap(apperrors.ErrorTypeAPI, err, "unexpected VK response shape")
	}
	return nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      logger.RedactURL(req.URL.String()),
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, apperrors.Wrap(apperrors.ErrorTypeTransport, err, "network error")
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, time.Since(start))
	return resp, nil
}

// checkResponseStatus maps HTTP-level failures. VK reports most faults with
// status 200 and an error object, handled by classifyAPIError.
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.New(apperrors.ErrorTypeAuth, "VK rejected the access token").WithCode(resp.StatusCode)
	case apperrors.IsRetryableStatusCode(resp.StatusCode):
		return apperrors.Newf(apperrors.ErrorTypeTransport, "VK gateway error: %d", resp.StatusCode).WithCode(resp.StatusCode)
	default:
		return apperrors.Newf(apperrors.ErrorTypeAPI, "unexpected status code: %d", resp.StatusCode).WithCode(resp.StatusCode)
	}
}

func classifyAPIError(method string, e *apiError) error {
	switch e.Code {
	case ErrCodeAuthFailed:
		return apperrors.Newf(apperrors.ErrorTypeAuth, "invalid VK token: %s", e.Message).WithCode(e.Code)
	case ErrCodeTooManyPerSec:
		return apperrors.Newf(apperrors.ErrorTypeAPI, "VK rate limit hit: %s", e.Message).WithCode(e.Code)
	case ErrCodePrivateProfile, ErrCodeAccessDenied:
		return apperrors.Newf(apperrors.ErrorTypeAPI, "profile is not accessible: %s", e.Message).WithCode(e.Code)
	default:
		return apperrors.Newf(apperrors.ErrorTypeAPI, "%s failed: %s", method, e.Message).WithCode(e.Code)
	}
}

func (c *Client) logParseFailure(method string, status int, body []byte, err error) {
	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	c.logger.ErrorWithFields("failed to parse VK response", map[string]interface{}{
		"method":       method,
		"status":       status,
		"error":        err.Error(),
		"body_preview": fmt.Sprintf("%q", preview),
	})
}
