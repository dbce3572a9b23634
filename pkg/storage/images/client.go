package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dkwapong/storefront-backend/pkg/config"
	"github.com/dkwapong/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	objectPrefix  = "product_images"
	objectSuffix  = ".png"
	pingTimeout   = 5 * time.Second
	defaultUpload = 10 * time.Second
)

// Uploader is the storage surface consumed by the catalog service.
type Uploader interface {
	Upload(ctx context.Context, id uuid.UUID, data []byte, contentType string) error
	PublicURL(id uuid.UUID) string
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Client stores product images on an HTTP object store and derives their
// fixed-pattern public URLs.
type Client struct {
	httpClient    *http.Client
	endpoint      string
	publicBaseURL string
}

func NewClient(ctx context.Context, cfg config.ImagesConfig, logg *logger.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("image storage endpoint is required")
	}
	if cfg.PublicBaseURL == "" {
		return nil, errors.New("image storage public base url is required")
	}

	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = defaultUpload
	}

	client := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}

	if logg != nil {
		logg.Info(ctx, "image storage client initialized")
	}

	return client, nil
}

func (c *Client) objectPath(id uuid.UUID) string {
	return fmt.Sprintf("%s/%s%s", objectPrefix, id.String(), objectSuffix)
}

// Upload stores the payload under the generated identifier. One bounded PUT,
// no retry; any failure leaves nothing referenced by the catalog.
func (c *Client) Upload(ctx context.Context, id uuid.UUID, data []byte, contentType string) error {
	if id == uuid.Nil {
		return errors.New("image id is required")
	}
	if len(data) == 0 {
		return errors.New("image payload is empty")
	}
	if contentType == "" {
		contentType = "image/png"
	}

	target := fmt.Sprintf("%s/%s", c.endpoint, c.objectPath(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("image store returned status %d", resp.StatusCode)
	}
	return nil
}

// PublicURL derives the fixed-pattern address for a stored image.
func (c *Client) PublicURL(id uuid.UUID) string {
	return fmt.Sprintf("%s/%s", c.publicBaseURL, c.objectPath(id))
}

// Ping verifies the object store endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.httpClient == nil {
		return errors.New("image storage client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping image store: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("image store returned status %d", resp.StatusCode)
	}
	return nil
}
