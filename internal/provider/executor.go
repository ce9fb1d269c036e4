package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/mkaran/go-studio-backend/internal/domain"
	"github.com/mkaran/go-studio-backend/internal/storage"
)

// Client is the surface of the remote generative API the executor needs.
// *APIClient satisfies it; tests substitute fakes.
type Client interface {
	GenerateImage(ctx context.Context, prompt string) (data []byte, mimeType string, err error)
	SubmitVideoJob(ctx context.Context, prompt string) (jobName string, err error)
	PollVideoJob(ctx context.Context, jobName string) (VideoJobStatus, error)
	FetchBytes(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Executor runs a generation end to end: it calls the remote API for the
// requested media kind, uploads the produced bytes to object storage, and
// returns the stored asset URL. One Execute call maps to exactly one
// generation item.
type Executor struct {
	client Client
	store  storage.ObjectStore

	pollInterval time.Duration
	maxPolls     int
}

// NewExecutor wires an executor. pollInterval and maxPolls bound the video
// polling loop; non-positive values fall back to 5s and 60 rounds.
func NewExecutor(client Client, store storage.ObjectStore, pollInterval time.Duration, maxPolls int) *Executor {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if maxPolls <= 0 {
		maxPolls = 60
	}
	return &Executor{client: client, store: store, pollInterval: pollInterval, maxPolls: maxPolls}
}

// Execute produces an asset for the prompt and returns its stored URL. Errors
// wrap the package sentinels so callers can classify the failure.
func (e *Executor) Execute(ctx context.Context, kind domain.MediaKind, prompt string) (string, error) {
	switch kind {
	case domain.KindImage:
		return e.executeImage(ctx, prompt)
	case domain.KindVideo:
		return e.executeVideo(ctx, prompt)
	default:
		return "", fmt.Errorf("unknown media kind %q", kind)
	}
}

func (e *Executor) executeImage(ctx context.Context, prompt string) (string, error) {
	data, mimeType, err := e.client.GenerateImage(ctx, prompt)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("images/%s%s", uuid.NewString(), extensionFor(mimeType))
	return e.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mimeType)
}

func (e *Executor) executeVideo(ctx context.Context, prompt string) (string, error) {
	jobName, err := e.client.SubmitVideoJob(ctx, prompt)
	if err != nil {
		return "", err
	}

	uri, err := e.awaitVideo(ctx, jobName)
	if err != nil {
		return "", err
	}

	body, err := e.client.FetchBytes(ctx, uri)
	if err != nil {
		return "", err
	}
	defer body.Close()

	key := fmt.Sprintf("videos/%s.mp4", uuid.NewString())
	return e.store.Put(ctx, key, body, -1, "video/mp4")
}

// awaitVideo polls the job until it completes, the poll budget is exhausted,
// or ctx is cancelled. The wait between rounds is cancellable.
func (e *Executor) awaitVideo(ctx context.Context, jobName string) (string, error) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for i := 0; i < e.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		status, err := e.client.PollVideoJob(ctx, jobName)
		if err != nil {
			return "", err
		}
		if !status.Done {
			continue
		}
		if status.ResultURI == "" {
			return "", ErrMissingResult
		}
		return status.ResultURI, nil
	}
	return "", fmt.Errorf("%w after %d polls", ErrJobTimeout, e.maxPolls)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
