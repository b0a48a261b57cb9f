package yadisk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vkbackup/pkg/config"
	apperrors "vkbackup/pkg/errors"
	"vkbackup/pkg/logger"
	"vkbackup/pkg/ratelimit"
	"vkbackup/pkg/retry"
)

// Client talks to the Yandex.Disk REST API with an OAuth token
type Client struct {
	httpClient     *http.Client
	headers        map[string]string
	baseURL        string
	controlTimeout time.Duration
	uploadTimeout  time.Duration
	limiter        ratelimit.Limiter
	retry          *retry.Config
	logger         logger.Logger
}

// NewClient creates a Yandex.Disk client. Control calls are bounded by
// controlTimeout and upload requests by uploadTimeout.
func NewClient(token string, controlTimeout, uploadTimeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{},
		headers: map[string]string{
			"Authorization": "OAuth " + token,
			"Accept":        "application/json",
			"User-Agent":    "vkbackup/1.0",
		},
		baseURL:        config.DefaultYandexURL,
		controlTimeout: controlTimeout,
		uploadTimeout:  uploadTimeout,
		limiter:        ratelimit.NewTokenBucket(120, time.Minute),
		retry:          &retry.Config{MaxAttempts: 1},
		logger:         log.WithField("component", "yadisk"),
	}
}

// NewClientFromConfig creates a client wired with the configured limits
func NewClientFromConfig(cfg *config.Config, log logger.Logger) *Client {
	c := NewClient(cfg.Yandex.Token, cfg.HTTP.ControlTimeout, cfg.HTTP.UploadTimeout, log)
	c.SetBaseURL(cfg.Yandex.BaseURL)
	c.SetHeader("User-Agent", cfg.HTTP.UserAgent)
	c.SetLimiter(ratelimit.NewTokenBucket(cfg.RateLimit.DiskRequestsPerMinute, time.Minute))
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
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// SetLimiter replaces the request limiter
func (c *Client) SetLimiter(l ratelimit.Limiter) {
	c.limiter = l
}

// SetRetry replaces the retry policy used for read-only calls
func (c *Client) SetRetry(cfg *retry.Config) {
	c.retry = cfg
}

// ResourcePath turns a folder and optional file name into an absolute disk path
func ResourcePath(parts ...string) string {
	var cleaned []string
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return "/" + strings.Join(cleaned, "/")
}

// ValidateToken probes the disk root
func (c *Client) ValidateToken(ctx context.Context) error {
	err := retry.Do(ctx, func(ctx context.Context) error {
		status, body, err := c.send(ctx, http.MethodGet, "/resources", url.Values{"path": {"/"}}, c.controlTimeout)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return statusError("disk root probe", status, body)
		}
		return nil
	}, c.retry)
	if err != nil {
		c.logger.WithError(err).Warn("Yandex.Disk token validation failed")
		return err
	}
	c.logger.Debug("Yandex.Disk token is valid")
	return nil
}

// FolderExists reports whether a resource exists at /name
func (c *Client) FolderExists(ctx context.Context, name string) (bool, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) (bool, error) {
		status, body, err := c.send(ctx, http.MethodGet, "/resources", url.Values{"path": {ResourcePath(name)}}, c.controlTimeout)
		if err != nil {
			return false, err
		}
		switch status {
		case http.StatusOK:
			return true, nil
		case http.StatusNotFound:
			return false, nil
		default:
			return false, statusError("folder probe", status, body)
		}
	}, c.retry)
}

// EnsureFolder makes sure a folder named name exists at the disk root.
// A conflict on creation is treated as success, so concurrent creators and
// repeated runs both end up with FolderExisted.
func (c *Client) EnsureFolder(ctx context.Context, name string) (FolderStatus, error) {
	log := c.logger.WithField("folder", name)

	exists, err := c.FolderExists(ctx, name)
	switch {
	case err != nil:
		log.WithError(err).Warn("Folder probe failed, attempting creation")
	case exists:
		log.Info("Folder already exists")
		return FolderExisted, nil
	}

	status, body, err := c.send(ctx, http.MethodPut, "/resources", url.Values{"path": {ResourcePath(name)}}, c.controlTimeout)
	if err != nil {
		return 0, err
	}

	switch status {
	case http.StatusCreated:
		log.Info("Folder created")
		return FolderCreated, nil
	case http.StatusConflict:
		log.Info("Folder already exists")
		return FolderExisted, nil
	default:
		return 0, statusError("folder creation", status, body)
	}
}

// UploadFromURL asks the service to fetch sourceURL into destinationPath.
// The image bytes never pass through this process. Only 202 Accepted counts
// as success; the copy itself completes asynchronously.
func (c *Client) UploadFromURL(ctx context.Context, destinationPath, sourceURL string) (*UploadReceipt, error) {
	params := url.Values{
		"path": {ResourcePath(destinationPath)},
		"url":  {sourceURL},
	}

	status, body, err := c.send(ctx, http.MethodPost, "/resources/upload", params, c.uploadTimeout)
	if err != nil {
		return nil, err
	}
	if status != http.StatusAccepted {
		return nil, statusError("upload", status, body)
	}

	receipt := &UploadReceipt{Path: params.Get("path")}
	var l link
	if err := json.Unmarshal(body, &l); err == nil {
		receipt.OperationHref = l.Href
	}
	return receipt, nil
}

// send performs one request and returns the status and body. Only network
// level failures are returned as errors.
func (c *Client) send(ctx context.Context, method, endpoint string, params url.Values, timeout time.Duration) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, apperrors.Wrap(apperrors.ErrorTypeTransport, err, "waiting for rate limiter")
		}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	reqURL := c.baseURL + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return 0, nil, apperrors.Wrap(apperrors.ErrorTypeTransport, err, "failed to create request")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   method,
			"url":      logger.RedactURL(reqURL),
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return 0, nil, apperrors.Wrap(apperrors.ErrorTypeTransport, err, "network error")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, apperrors.Wrap(apperrors.ErrorTypeTransport, err, "failed to read response body")
	}

	logger.LogRequest(c.logger, method, reqURL, resp.StatusCode, time.Since(start))
	return resp.StatusCode, body, nil
}

// statusError maps an unexpected reply to a typed error, using the message
// from the service's error body when there is one.
func statusError(op string, status int, body []byte) error {
	msg := http.StatusText(status)
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil {
		switch {
		case e.Description != "":
			msg = e.Description
		case e.Message != "":
			msg = e.Message
		}
	}

	t := apperrors.ErrorTypeAPI
	switch {
	case status == http.StatusUnauthorized:
		t = apperrors.ErrorTypeAuth
	case apperrors.IsRetryableStatusCode(status):
		t = apperrors.ErrorTypeTransport
	}
	return apperrors.New(t, fmt.Sprintf("%s: %s", op, msg)).WithCode(status)
}
