package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const defaultTimeout = 10 * time.Second

type clientImpl struct {
	url        string
	httpClient *http.Client
}

type Config struct {
	URL        string
	HTTPClient *http.Client
}

func NewClient(cfg *Config) (NotifierAPI, error) {
	if cfg == nil {
		return nil, errors.New("missing parameter: cfg")
	}

	if cfg.URL == "" {
		return nil, errors.New("missing parameter: cfg.URL")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &clientImpl{
		url:        cfg.URL,
		httpClient: httpClient,
	}, nil
}

func (client *clientImpl) Notify(ctx context.Context, match Match) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.url, nil)
	if err != nil {
		return fmt.Errorf("build notification: %w", err)
	}

	q := req.URL.Query()
	q.Add("fragment", match.FragmentID)
	q.Add("file", match.File)
	q.Add("duration", strconv.FormatFloat(match.Duration, 'f', 3, 64))
	req.URL.RawQuery = q.Encode()

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification rejected: %s", resp.Status)
	}

	return nil
}
