package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Embedder converts text into fixed-length vectors.
//
// Design decision: We define the interface here, next to the production
// implementation, because the scorer and the CLI both depend on it and
// tests substitute counting fakes. Accepting the interface and returning
// the concrete HTTPEmbedder follows the usual Go dependency direction.
type Embedder interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// request and response bodies for the embeddings API.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embedResponse struct {
	Data []embedData `json:"data"`
}

// HTTPEmbedder calls an embeddings HTTP endpoint.
type HTTPEmbedder struct {
	// httpClient performs the requests. Its Timeout bounds each call.
	httpClient *http.Client

	// endpoint is the full URL of the embeddings route.
	endpoint string

	// model is the model name sent with every request.
	model string

	// apiKey, when non-empty, is sent as a bearer token.
	apiKey string

	// batchSize caps how many inputs go into one request. Larger batches
	// are split transparently.
	batchSize int
}

// HTTPEmbedderOption configures an HTTPEmbedder.
type HTTPEmbedderOption func(*HTTPEmbedder)

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) HTTPEmbedderOption {
	return func(e *HTTPEmbedder) {
		e.apiKey = key
	}
}

// WithBatchSize caps the number of inputs per request.
func WithBatchSize(n int) HTTPEmbedderOption {
	return func(e *HTTPEmbedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// NewHTTPEmbedder creates an embedder for the given endpoint and model.
func NewHTTPEmbedder(httpClient *http.Client, endpoint, model string, opts ...HTTPEmbedderOption) *HTTPEmbedder {
	e := &HTTPEmbedder{
		httpClient: httpClient,
		endpoint:   endpoint,
		model:      model,
		batchSize:  128,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Embed returns the vector for a single text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per input text, in input order.
// Inputs beyond the batch size limit are split across requests.
func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch, err := e.embedOnce(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

// embedOnce performs one API request for a batch that fits the size limit.
func (e *HTTPEmbedder) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Include the body for diagnostics; embedding failures abort the run.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embedding API status %d: %s", resp.StatusCode, string(msg))
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}

	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d inputs", len(result.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, d := range result.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
