package gemini

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

	"github.com/rs/zerolog"

	"avatarapi/internal/domain"
	"avatarapi/internal/infra"
)

// AvatarStyleSuffix is the fixed style template appended to every prompt
// before it is sent to the provider. It is not configurable.
const AvatarStyleSuffix = "High-quality 3D-style avatar, well-lit, with a clean background, suitable for a professional profile picture."

// Options configures the Gemini image client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the Gemini generateContent API and normalizes
// the heterogeneous response shapes into raw image bytes. It never retries;
// retry policy belongs to the caller.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type prediction struct {
	MimeType           string `json:"mimeType,omitempty"`
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
}

// generateContentResponse covers both shapes the provider is known to return:
// candidates carrying multi-part content with inline image data, and a
// prediction list carrying base64-encoded image fields.
type generateContentResponse struct {
	Candidates  []candidate  `json:"candidates"`
	Predictions []prediction `json:"predictions"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Status  string `json:"status,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with a bounded timeout will be created.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-2.0-flash-preview-image-generation"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// Generate turns a text prompt into raw image bytes. The fixed avatar style
// template is appended to every prompt before sending.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, domain.ErrInvalidPrompt
	}

	payload := generateContentRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: buildAvatarPrompt(prompt)}},
		}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gemini: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: build request: %w", err)
	}
	q := req.URL.Query()
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrProviderUnavailable, err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, classifyHTTPError(resp.StatusCode, raw)
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: status %d: undecodable body", domain.ErrProviderRequestRejected, resp.StatusCode)
	}

	data, err := extractImageBytes(decoded)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("bytes", len(data)).
		Msg("gemini: generated avatar image")

	return data, nil
}

func buildAvatarPrompt(prompt string) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n")
	b.WriteString(AvatarStyleSuffix)
	return b.String()
}

// classifyHTTPError maps a non-2xx provider response onto the error taxonomy.
// Status code and API error status come first; the textual markers are a last
// resort for unstructured error bodies.
func classifyHTTPError(status int, raw []byte) error {
	detail := strings.TrimSpace(string(raw))
	var apiErr apiErrorResponse
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
		detail = apiErr.Error.Message
	}

	if status == http.StatusTooManyRequests ||
		strings.EqualFold(apiErr.Error.Status, "RESOURCE_EXHAUSTED") ||
		hasQuotaMarker(detail) {
		return fmt.Errorf("%w: status %d: %s", domain.ErrProviderQuotaExceeded, status, detail)
	}

	return fmt.Errorf("%w: status %d: %s", domain.ErrProviderRequestRejected, status, detail)
}

func hasQuotaMarker(detail string) bool {
	msg := strings.ToLower(detail)
	return strings.Contains(msg, "quota") ||
		strings.Contains(msg, "limit") ||
		strings.Contains(msg, "resource exhausted")
}

// extractImageBytes scans every candidate part and every prediction, returning
// the first entry that declares image content. Parts are identified by their
// declared mime type, never by position: text parts may precede the image.
func extractImageBytes(resp generateContentResponse) ([]byte, error) {
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			if p.InlineData.MimeType != "" && !isImageMime(p.InlineData.MimeType) {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("%w: malformed inline data", domain.ErrProviderNoImageData)
			}
			if len(data) == 0 {
				continue
			}
			return data, nil
		}
	}

	for _, pred := range resp.Predictions {
		if pred.BytesBase64Encoded == "" {
			continue
		}
		if pred.MimeType != "" && !isImageMime(pred.MimeType) {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(pred.BytesBase64Encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed prediction data", domain.ErrProviderNoImageData)
		}
		if len(data) == 0 {
			continue
		}
		return data, nil
	}

	return nil, domain.ErrProviderNoImageData
}

func isImageMime(mime string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "image/")
}
