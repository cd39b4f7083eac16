package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/docsmith/docsmith/internal/document"
	ierr "github.com/docsmith/docsmith/internal/errors"
)

// Page is one page of recognized text.
type Page struct {
	// Number is the 1-based page number.
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// recognizeRequest is the service request body. Bytes are sent base64
// encoded by the JSON codec.
type recognizeRequest struct {
	MediaType string `json:"media_type"`
	Data      []byte `json:"data"`
}

// recognizeResponse carries either structured pages or a flat text
// stream with form-feed page markers, depending on service version.
type recognizeResponse struct {
	Pages []Page `json:"pages"`
	Text  string `json:"text"`
}

// OCRClient calls the external text-recognition service.
type OCRClient struct {
	client *resty.Client
	retry  ierr.RetryConfig
}

// NewOCRClient creates a recognition client for the given endpoint.
func NewOCRClient(endpoint string, timeout time.Duration, retry ierr.RetryConfig) *OCRClient {
	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &OCRClient{client: client, retry: retry}
}

// Recognize submits document bytes and returns ordered pages of text.
// Service overload and transport failures are retried; a rejection of
// the input itself is not.
func (c *OCRClient) Recognize(ctx context.Context, data []byte, mediaType document.MediaType) ([]Page, error) {
	return ierr.RetryWithResult(ctx, c.retry, func() ([]Page, error) {
		return c.recognizeOnce(ctx, data, mediaType)
	})
}

func (c *OCRClient) recognizeOnce(ctx context.Context, data []byte, mediaType document.MediaType) ([]Page, error) {
	var result recognizeResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(recognizeRequest{MediaType: mediaType.String(), Data: data}).
		SetResult(&result).
		Post("/v1/recognize")
	if err != nil {
		return nil, ierr.ExtractionService("text recognition request failed", err)
	}

	switch {
	case resp.StatusCode() == http.StatusOK:
		return resultPages(result), nil
	case resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500:
		return nil, ierr.ExtractionService(
			fmt.Sprintf("text recognition service returned %d", resp.StatusCode()), nil)
	default:
		// The service inspected the bytes and rejected them
		return nil, ierr.CorruptDocument(
			fmt.Sprintf("text recognition rejected input with %d: %s",
				resp.StatusCode(), strings.TrimSpace(resp.String())), nil)
	}
}

// resultPages normalizes the two response shapes. A flat stream is split
// at form-feed markers, one page per segment.
func resultPages(r recognizeResponse) []Page {
	if len(r.Pages) > 0 {
		return r.Pages
	}
	if r.Text == "" {
		return nil
	}

	segments := strings.Split(r.Text, "\f")
	pages := make([]Page, 0, len(segments))
	for i, seg := range segments {
		pages = append(pages, Page{Number: i + 1, Text: strings.TrimSpace(seg)})
	}
	return pages
}
