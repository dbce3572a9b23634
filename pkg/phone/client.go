package phone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dkwapong/storefront-backend/pkg/config"
	"github.com/dkwapong/storefront-backend/pkg/logger"
)

const defaultTimeout = 5 * time.Second

// Validator is the lookup surface consumed by the accounts service.
type Validator interface {
	Validate(ctx context.Context, number string) (bool, error)
}

// Client calls the external number-validation API. A single bounded GET per
// lookup; failures propagate to the caller with no retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accessKey  string
}

func NewClient(cfg config.PhoneConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("phone validation base url is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("phone validation access key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accessKey:  cfg.AccessKey,
	}

	if logg != nil {
		logg.Info(context.Background(), "phone validation client initialized")
	}

	return client, nil
}

type validationResponse struct {
	Valid               bool   `json:"valid"`
	Number              string `json:"number"`
	LocalFormat         string `json:"local_format"`
	InternationalFormat string `json:"international_format"`
	CountryCode         string `json:"country_code"`
	Carrier             string `json:"carrier"`
	LineType            string `json:"line_type"`
}

// Validate returns whether the upstream API considers the number valid.
func (c *Client) Validate(ctx context.Context, number string) (bool, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return false, nil
	}

	endpoint := fmt.Sprintf("%s/validate?%s", c.baseURL, url.Values{
		"access_key": {c.accessKey},
		"number":     {number},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build validation request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("call validation api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("validation api returned status %d", resp.StatusCode)
	}

	var payload validationResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("decode validation response: %w", err)
	}

	return payload.Valid, nil
}
