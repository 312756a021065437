package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// RemoteConfig configures the OpenAI-compatible embeddings client used as
// the primary (learned-model) backend.
type RemoteConfig struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// remoteClient speaks the OpenAI embeddings wire format. Construction fails
// when no API key is present; the provider treats that as a load failure and
// demotes to the hash fallback.
type remoteClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func newRemoteClient(cfg RemoteConfig) (*remoteClient, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "EMBEDDINGS_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &remoteClient{
		baseURL: cfg.BaseURL,
		apiKey:  key,
		model:   cfg.Model,
		client:  &http.Client{Timeout: t},
	}, nil
}

// embed requests embeddings for a batch of inputs. The response preserves
// input order per the OpenAI API contract.
func (c *remoteClient) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body := struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}{Input: texts, Model: c.model}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embeddings request failed: %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	if len(out.Data) != len(texts) {
		return nil, errors.New("embeddings response length mismatch")
	}

	vectors := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		if len(d.Embedding) == 0 {
			return nil, errors.New("empty embedding in response")
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// probe embeds a fixed sentinel input to verify the endpoint is reachable
// and to learn the model's output dimension.
func (c *remoteClient) probe(ctx context.Context) (int, error) {
	vectors, err := c.embed(ctx, []string{"ping"})
	if err != nil {
		return 0, err
	}
	return len(vectors[0]), nil
}
