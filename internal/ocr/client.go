package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ClientConfig configures the ocr.space REST client.
type ClientConfig struct {
	APIKey            string
	BaseURL           string
	Engine            int // 1 = fast, 2 = accurate
	Language          string
	DetectOrientation bool
	Timeout           time.Duration
}

// Client is a minimal REST client for the ocr.space parse API. It performs
// single attempts; retry policy lives in the Bridge.
type Client struct {
	apiKey            string
	baseURL           string
	engine            int
	language          string
	detectOrientation bool
	client            *http.Client
}

// NewClient creates an ocr.space client. The API key is required.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OCR API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.ocr.space/parse/image"
	}
	if cfg.Engine == 0 {
		cfg.Engine = 2
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		apiKey:            cfg.APIKey,
		baseURL:           cfg.BaseURL,
		engine:            cfg.Engine,
		language:          cfg.Language,
		detectOrientation: cfg.DetectOrientation,
		client:            &http.Client{Timeout: timeout},
	}, nil
}

var supportedFormats = []string{"jpg", "jpeg", "png", "gif", "webp", "bmp"}

// Info reports the service-side configuration.
func (c *Client) Info() Info {
	return Info{
		Engine:           c.engine,
		Language:         c.language,
		Timeout:          c.client.Timeout,
		SupportedFormats: supportedFormats,
	}
}

// OCRFile uploads the staged image file for recognition.
func (c *Client) OCRFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := c.writeFields(writer); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("apikey", c.apiKey)
	return c.do(req)
}

// OCRURL asks the service to fetch and recognize a hosted image.
func (c *Client) OCRURL(ctx context.Context, imageURL string) (string, error) {
	form := url.Values{}
	form.Set("url", imageURL)
	form.Set("language", c.language)
	form.Set("OCREngine", strconv.Itoa(c.engine))
	form.Set("detectOrientation", strconv.FormatBool(c.detectOrientation))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apikey", c.apiKey)
	return c.do(req)
}

func (c *Client) writeFields(writer *multipart.Writer) error {
	fields := map[string]string{
		"language":          c.language,
		"OCREngine":         strconv.Itoa(c.engine),
		"detectOrientation": strconv.FormatBool(c.detectOrientation),
		"isOverlayRequired": "false",
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) do(req *http.Request) (string, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("ocr request failed: %s", resp.Status)
	}

	var parsed struct {
		ParsedResults []struct {
			ParsedText string `json:"ParsedText"`
		} `json:"ParsedResults"`
		IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
		ErrorMessage          json.RawMessage `json:"ErrorMessage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode ocr response: %w", err)
	}
	if parsed.IsErroredOnProcessing {
		return "", fmt.Errorf("ocr processing error: %s", string(parsed.ErrorMessage))
	}

	texts := make([]string, 0, len(parsed.ParsedResults))
	for _, r := range parsed.ParsedResults {
		texts = append(texts, r.ParsedText)
	}
	return strings.Join(texts, "\n"), nil
}
