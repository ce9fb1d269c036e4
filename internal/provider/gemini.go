// Package provider implements the generative-AI provider integration.
//
// This file implements the concrete HTTP client for the Google generative
// endpoints: synchronous image generation via generateContent and
// asynchronous video generation via predictLongRunning plus operation
// polling. Responses are probed as generic JSON maps so that minor schema
// drift in the provider API does not break decoding.
package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mkaran/go-studio-backend/internal/config"
)

// VideoJobStatus is the observable state of an asynchronous video job.
// ResultURI is populated only when Done is true and the provider returned a
// usable locator.
type VideoJobStatus struct {
	Done      bool
	ResultURI string
}

// APIClient talks to the generative-AI REST API over HTTP. The API key is an
// opaque credential attached to every request; it is never logged or parsed.
type APIClient struct {
	apiKey     string
	baseURL    string
	imageModel string
	videoModel string
	// HTTP client is configurable to allow overriding timeouts in tests.
	httpClient *http.Client
}

// NewAPIClient constructs an APIClient from provider configuration. If
// httpClient is nil, a client with the configured timeout is used.
func NewAPIClient(cfg config.ProviderConfig, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &APIClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		imageModel: cfg.ImageModel,
		videoModel: cfg.VideoModel,
		httpClient: httpClient,
	}
}

// GenerateImage issues a single generateContent call and returns the inline
// image bytes and their MIME type. A response without inline data is
// ErrNoPayload.
func (c *APIClient) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	body := map[string]any{
		"contents": []any{
			map[string]any{
				"parts": []any{map[string]any{"text": prompt}},
			},
		},
		"generationConfig": map[string]any{
			"imageConfig": map[string]any{"aspectRatio": "1:1"},
		},
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.imageModel)
	raw, err := c.postJSON(ctx, endpoint, body)
	if err != nil {
		return nil, "", err
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, "", fmt.Errorf("decoding response: %w", err)
	}
	// candidates[0].content.parts[*].inlineData.{mimeType,data}
	if candidates, ok := decoded["candidates"].([]any); ok && len(candidates) > 0 {
		if cand, ok := candidates[0].(map[string]any); ok {
			if content, ok := cand["content"].(map[string]any); ok {
				if parts, ok := content["parts"].([]any); ok {
					for _, item := range parts {
						part, ok := item.(map[string]any)
						if !ok {
							continue
						}
						inline, ok := part["inlineData"].(map[string]any)
						if !ok {
							continue
						}
						data, _ := inline["data"].(string)
						if data == "" {
							continue
						}
						b, err := base64.StdEncoding.DecodeString(data)
						if err != nil {
							return nil, "", fmt.Errorf("decoding inline data: %w", err)
						}
						mime, _ := inline["mimeType"].(string)
						if mime == "" {
							mime = "image/png"
						}
						return b, mime, nil
					}
				}
			}
		}
	}
	return nil, "", ErrNoPayload
}

// SubmitVideoJob starts a long-running video generation and returns the
// operation name used for subsequent polling.
func (c *APIClient) SubmitVideoJob(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"instances": []any{map[string]any{"prompt": prompt}},
		"parameters": map[string]any{
			"sampleCount": 1,
			"resolution":  "720p",
			"aspectRatio": "16:9",
		},
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:predictLongRunning", c.baseURL, c.videoModel)
	raw, err := c.postJSON(ctx, endpoint, body)
	if err != nil {
		return "", err
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	name, _ := decoded["name"].(string)
	if name == "" {
		return "", fmt.Errorf("%w: operation name missing", ErrRemote)
	}
	return name, nil
}

// PollVideoJob fetches the state of a long-running operation. When the job is
// done it attempts to extract the produced video URI; callers decide whether
// a done-without-URI state is an error.
func (c *APIClient) PollVideoJob(ctx context.Context, jobName string) (VideoJobStatus, error) {
	endpoint := fmt.Sprintf("%s/v1beta/%s", c.baseURL, strings.TrimPrefix(jobName, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return VideoJobStatus{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return VideoJobStatus{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return VideoJobStatus{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return VideoJobStatus{}, fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return VideoJobStatus{}, fmt.Errorf("decoding response: %w", err)
	}
	status := VideoJobStatus{}
	status.Done, _ = decoded["done"].(bool)
	if status.Done {
		status.ResultURI = extractVideoURI(decoded)
	}
	return status, nil
}

// FetchBytes downloads the produced asset from the result locator. The API
// key is appended as a query parameter, as the download endpoint requires.
func (c *APIClient) FetchBytes(ctx context.Context, uri string) (io.ReadCloser, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if c.apiKey != "" {
		q := u.Query()
		q.Set("key", c.apiKey)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}
	return resp.Body, nil
}

// postJSON marshals body, POSTs it with the API key header, and returns the
// raw response bytes. Non-2xx statuses are ErrRemote.
func (c *APIClient) postJSON(ctx context.Context, endpoint string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
	}
	return raw, nil
}

// extractVideoURI probes the operation response for the generated video URI.
// Two response shapes are seen in the wild; both are checked.
func extractVideoURI(decoded map[string]any) string {
	response, ok := decoded["response"].(map[string]any)
	if !ok {
		return ""
	}
	// Shape A: response.generatedVideos[0].video.uri
	if videos, ok := response["generatedVideos"].([]any); ok {
		if uri := videoURIFromList(videos); uri != "" {
			return uri
		}
	}
	// Shape B: response.generateVideoResponse.generatedSamples[0].video.uri
	if gvr, ok := response["generateVideoResponse"].(map[string]any); ok {
		if samples, ok := gvr["generatedSamples"].([]any); ok {
			if uri := videoURIFromList(samples); uri != "" {
				return uri
			}
		}
	}
	return ""
}

func videoURIFromList(items []any) string {
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		video, ok := entry["video"].(map[string]any)
		if !ok {
			continue
		}
		if uri, ok := video["uri"].(string); ok && uri != "" {
			return uri
		}
	}
	return ""
}
