// Package api implements the Lambda Cloud REST client.
//
// All methods send JSON over HTTPS with Bearer authentication and a fixed
// per-request timeout. Transient failures (transport errors, timeouts, 5xx)
// are retried with capped exponential backoff; client-class (4xx) responses
// are surfaced immediately.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rmcwhorter/lambdalabs-cli/internal/logger"
	"github.com/rmcwhorter/lambdalabs-cli/internal/retry"
)

const (
	// BaseURL is the Lambda Cloud API root.
	BaseURL = "https://cloud.lambda.ai/api/v1"
	// RequestTimeout is the fixed per-request timeout.
	RequestTimeout = 30 * time.Second
	// MaxRetries is the attempt budget per logical request.
	MaxRetries = 3
)

// Client talks to the Lambda Cloud API.
type Client struct {
	client  *http.Client
	apiKey  string
	baseURL string
	logger  *logger.Logger
	retry   retry.Config
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API root. Used by tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithRetryConfig overrides the retry policy. Used by tests.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// New creates a Client authenticated with the given API key.
func New(apiKey string, log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.Discard()
	}
	c := &Client{
		client:  &http.Client{Timeout: RequestTimeout},
		apiKey:  apiKey,
		baseURL: BaseURL,
		logger:  log,
		retry:   retry.Config{MaxAttempts: MaxRetries},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPError is a non-2xx response from the API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: status=%d, body=%s", e.StatusCode, e.Body)
}

// HTTPStatus implements retry.StatusError.
func (e *HTTPError) HTTPStatus() int { return e.StatusCode }

// apiEnvelope is the response wrapper every endpoint uses.
type apiEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

// apiError is the structured error the API returns alongside non-2xx
// statuses.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// request performs one logical API call, retrying transient failures, and
// unmarshals the envelope's data field into out (when out is non-nil).
func (c *Client) request(ctx context.Context, method, endpoint string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var data json.RawMessage
	err := retry.Do(ctx, c.retry, func() error {
		var attemptErr error
		data, attemptErr = c.doRequest(ctx, method, endpoint, body)
		return attemptErr
	})
	if err != nil {
		return err
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// doRequest executes a single HTTP request.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			logger.Field{Key: "method", Value: method},
			logger.Field{Key: "endpoint", Value: endpoint},
			logger.Field{Key: "error", Value: err})
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Prefer the API's structured message when present.
		var envelope apiEnvelope
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error != nil {
			return nil, &HTTPError{StatusCode: resp.StatusCode, Body: envelope.Error.Message}
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	return envelope.Data, nil
}

// ListInstances returns all instances on the account.
func (c *Client) ListInstances(ctx context.Context) ([]Instance, error) {
	var instances []Instance
	if err := c.request(ctx, http.MethodGet, "/instances", nil, &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

// GetInstance returns a single instance by ID.
func (c *Client) GetInstance(ctx context.Context, instanceID string) (*Instance, error) {
	var instance Instance
	if err := c.request(ctx, http.MethodGet, "/instances/"+instanceID, nil, &instance); err != nil {
		return nil, err
	}
	return &instance, nil
}

// launchResponse is the data payload of a launch call.
type launchResponse struct {
	InstanceIDs []string `json:"instance_ids"`
}

// LaunchInstance launches one instance and returns its ID.
func (c *Client) LaunchInstance(ctx context.Context, req LaunchRequest) ([]string, error) {
	var resp launchResponse
	if err := c.request(ctx, http.MethodPost, "/instance-operations/launch", req, &resp); err != nil {
		return nil, err
	}
	return resp.InstanceIDs, nil
}

// terminateRequest is the payload for terminate calls.
type terminateRequest struct {
	InstanceIDs []string `json:"instance_ids"`
}

// terminateResponse is the data payload of a terminate call.
type terminateResponse struct {
	TerminatedInstances []Instance `json:"terminated_instances"`
}

// TerminateInstances terminates the given instances.
func (c *Client) TerminateInstances(ctx context.Context, instanceIDs ...string) ([]Instance, error) {
	var resp terminateResponse
	err := c.request(ctx, http.MethodPost, "/instance-operations/terminate",
		terminateRequest{InstanceIDs: instanceIDs}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.TerminatedInstances, nil
}

// TerminateAllInstances terminates every instance on the account and returns
// the terminated set. With no instances running it is a no-op.
func (c *Client) TerminateAllInstances(ctx context.Context) ([]Instance, error) {
	instances, err := c.ListInstances(ctx)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(instances))
	for _, instance := range instances {
		ids = append(ids, instance.ID)
	}
	return c.TerminateInstances(ctx, ids...)
}

// instanceTypeEntry is one entry of the instance-types map response.
type instanceTypeEntry struct {
	InstanceType InstanceType `json:"instance_type"`
	Regions      []Region     `json:"regions_with_capacity_available"`
}

// ListInstanceTypes returns all instance types with their capacity regions,
// sorted by name for stable output.
func (c *Client) ListInstanceTypes(ctx context.Context) ([]InstanceType, error) {
	var entries map[string]instanceTypeEntry
	if err := c.request(ctx, http.MethodGet, "/instance-types", nil, &entries); err != nil {
		return nil, err
	}

	types := make([]InstanceType, 0, len(entries))
	for _, entry := range entries {
		it := entry.InstanceType
		it.RegionsAvailable = entry.Regions
		types = append(types, it)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types, nil
}

// ListRegions returns the deduplicated set of regions that currently have
// capacity, sorted by name.
func (c *Client) ListRegions(ctx context.Context) ([]Region, error) {
	types, err := c.ListInstanceTypes(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]Region)
	for _, it := range types {
		for _, region := range it.RegionsAvailable {
			seen[region.Name] = region
		}
	}

	regions := make([]Region, 0, len(seen))
	for _, region := range seen {
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Name < regions[j].Name })
	return regions, nil
}

// ListSSHKeys returns all registered SSH keys.
func (c *Client) ListSSHKeys(ctx context.Context) ([]SSHKey, error) {
	var keys []SSHKey
	if err := c.request(ctx, http.MethodGet, "/ssh-keys", nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// AddSSHKey registers a public key under the given name.
func (c *Client) AddSSHKey(ctx context.Context, name, publicKey string) (*SSHKey, error) {
	payload := map[string]string{"name": name, "public_key": publicKey}
	var key SSHKey
	if err := c.request(ctx, http.MethodPost, "/ssh-keys", payload, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// ListFilesystems returns all filesystems.
func (c *Client) ListFilesystems(ctx context.Context) ([]Filesystem, error) {
	var filesystems []Filesystem
	if err := c.request(ctx, http.MethodGet, "/file-systems", nil, &filesystems); err != nil {
		return nil, err
	}
	return filesystems, nil
}

// CreateFilesystem creates a filesystem in the given region.
func (c *Client) CreateFilesystem(ctx context.Context, name, region string) (*Filesystem, error) {
	payload := map[string]string{"name": name, "region_name": region}
	var fs Filesystem
	if err := c.request(ctx, http.MethodPost, "/file-systems", payload, &fs); err != nil {
		return nil, err
	}
	return &fs, nil
}

// DeleteFilesystem deletes a filesystem by ID.
func (c *Client) DeleteFilesystem(ctx context.Context, filesystemID string) error {
	return c.request(ctx, http.MethodDelete, "/file-systems/"+filesystemID, nil, nil)
}

// rotateResponse is the data payload of a key rotation.
type rotateResponse struct {
	APIKey string `json:"api_key"`
}

// RotateAPIKey rotates the account API key and returns the new key. The old
// key is invalidated server-side, so callers must persist the result.
func (c *Client) RotateAPIKey(ctx context.Context) (string, error) {
	var resp rotateResponse
	if err := c.request(ctx, http.MethodPost, "/api-keys/rotate", nil, &resp); err != nil {
		return "", err
	}
	return resp.APIKey, nil
}
