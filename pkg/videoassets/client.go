package videoassets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/config"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

// Asset is a video asset created on the hosting provider.
type Asset struct {
	ID         string
	PlaybackID *string
}

// Host creates and deletes externally hosted video assets.
type Host interface {
	CreateAsset(ctx context.Context, inputURL string) (*Asset, error)
	DeleteAsset(ctx context.Context, assetID string) error
}

// APIError is returned when the provider answers with a non-success status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("video host responded with status %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client talks to the Mux video API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	tokenID     string
	tokenSecret string
	maxRetries  int
	baseDelay   time.Duration
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		baseURL:     cfg.MuxBaseURL,
		tokenID:     cfg.MuxTokenID,
		tokenSecret: cfg.MuxTokenSecret,
		maxRetries:  cfg.MuxMaxRetries,
		baseDelay:   200 * time.Millisecond,
	}
}

type createAssetRequest struct {
	Input          []assetInput `json:"input"`
	PlaybackPolicy []string     `json:"playback_policy"`
}

type assetInput struct {
	URL string `json:"url"`
}

type assetResponse struct {
	Data struct {
		ID          string `json:"id"`
		PlaybackIDs []struct {
			ID     string `json:"id"`
			Policy string `json:"policy"`
		} `json:"playback_ids"`
	} `json:"data"`
}

// CreateAsset ingests the video at inputURL with a public playback policy.
func (cl *Client) CreateAsset(ctx context.Context, inputURL string) (*Asset, error) {
	body, err := json.Marshal(createAssetRequest{
		Input:          []assetInput{{URL: inputURL}},
		PlaybackPolicy: []string{"public"},
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var resp assetResponse
	err = cl.do(ctx, http.MethodPost, "/video/v1/assets", body, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "create video asset")
	}
	if resp.Data.ID == "" {
		return nil, errors.New("video host returned an asset without an id")
	}

	asset := &Asset{ID: resp.Data.ID}
	if len(resp.Data.PlaybackIDs) > 0 {
		id := resp.Data.PlaybackIDs[0].ID
		asset.PlaybackID = &id
	}
	return asset, nil
}

// DeleteAsset removes an asset. An asset that is already gone counts as
// deleted.
func (cl *Client) DeleteAsset(ctx context.Context, assetID string) error {
	err := cl.do(ctx, http.MethodDelete, "/video/v1/assets/"+assetID, nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		logger.FromContext(ctx).Warn("video asset already deleted", logger.Data{"asset_id": assetID})
		return nil
	}
	return errors.Wrap(err, "delete video asset")
}

func (cl *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = cl.doOnce(ctx, method, path, body, out)
		if err == nil || attempt >= cl.maxRetries || !isRetryable(err) {
			return err
		}

		delay := cl.baseDelay << attempt
		logger.FromContext(ctx).Warn("retrying video host request", logger.Data{
			"method":   method,
			"path":     path,
			"attempt":  attempt + 1,
			"delay_ms": delay.Milliseconds(),
			"error":    err.Error(),
		})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.WithStack(ctx.Err())
		case <-timer.C:
		}
	}
}

func (cl *Client) doOnce(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, cl.baseURL+path, reader)
	if err != nil {
		return errors.WithStack(err)
	}
	req.SetBasicAuth(cl.tokenID, cl.tokenSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := cl.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.WithStack(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	return errors.WithStack(json.Unmarshal(respBody, out))
}

func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.retryable()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
