package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/workout"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPClient implements DataSource by calling the BasicFit REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale). The server
// identifies the caller, so user ID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// apiError mirrors the error body of the REST API.
type apiError struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// reasonErr maps an API reason code back onto the service sentinel.
func reasonErr(reason string) error {
	switch reason {
	case workout.ReasonValidation:
		return workout.ErrValidation
	case workout.ReasonConflict:
		return workout.ErrConflict
	case workout.ReasonNotFound:
		return workout.ErrNotFound
	}
	return nil
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var ae apiError
		if json.Unmarshal(body, &ae) == nil {
			if sentinel := reasonErr(ae.Reason); sentinel != nil {
				return fmt.Errorf("httpclient: %s: %w: %s", path, sentinel, ae.Error)
			}
		}
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

// CurrentUser returns the ID the server assigned to this caller.
func (c *HTTPClient) CurrentUser(ctx context.Context) (int64, error) {
	var me struct {
		UserID int64 `json:"user_id"`
	}
	if err := c.get(ctx, "/api/v1/me", nil, &me); err != nil {
		return 0, err
	}
	return me.UserID, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id int64) (*models.Session, error) {
	var sess models.Session
	if err := c.get(ctx, "/api/v1/sessions/"+strconv.FormatInt(id, 10), nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context, in workout.ListSessionsInput) (*workout.SessionPage, error) {
	params := url.Values{}
	if in.Status != "" {
		params.Set("status", string(in.Status))
	}
	if in.Limit > 0 {
		params.Set("limit", strconv.Itoa(in.Limit))
	}
	if in.Offset > 0 {
		params.Set("offset", strconv.Itoa(in.Offset))
	}

	var page workout.SessionPage
	if err := c.get(ctx, "/api/v1/sessions", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *HTTPClient) ListTrackers(ctx context.Context, _ int64) ([]models.ProgressionTracker, error) {
	var trackers []models.ProgressionTracker
	if err := c.get(ctx, "/api/v1/trackers", nil, &trackers); err != nil {
		return nil, err
	}
	return trackers, nil
}

func (c *HTTPClient) GetRecommendation(ctx context.Context, _ int64, machineID, modeID int64) (*models.Recommendation, error) {
	params := url.Values{}
	params.Set("machine_id", strconv.FormatInt(machineID, 10))
	params.Set("mode_id", strconv.FormatInt(modeID, 10))

	var rec models.Recommendation
	if err := c.get(ctx, "/api/v1/recommendations", params, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *HTTPClient) UserStats(ctx context.Context, _ int64) (*models.UserStats, error) {
	var stats models.UserStats
	if err := c.get(ctx, "/api/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) ListMachines(ctx context.Context) ([]models.Machine, error) {
	var machines []models.Machine
	if err := c.get(ctx, "/api/v1/machines", nil, &machines); err != nil {
		return nil, err
	}
	return machines, nil
}

func (c *HTTPClient) ListTrainingModes(ctx context.Context) ([]models.TrainingMode, error) {
	var modes []models.TrainingMode
	if err := c.get(ctx, "/api/v1/modes", nil, &modes); err != nil {
		return nil, err
	}
	return modes, nil
}
