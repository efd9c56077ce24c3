package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sbc2026/companion/internal/pkg/models"
)

// NetworkError is returned when the data API cannot be reached or answers
// with a non-2xx status. The dispatcher converts it into a fixed apology
// reply; it never reaches the user as a raw fault.
type NetworkError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend request %s failed: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("backend request %s failed: status %d", e.Endpoint, e.Status)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DataSource is the data-access boundary the intent handlers fetch through.
// Client is the HTTP implementation; tests substitute fakes.
type DataSource interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	ListMatches(ctx context.Context) ([]models.Match, error)
	ListValueBets(ctx context.Context) ([]models.ValueBet, error)
	ListResults(ctx context.Context) ([]models.Match, error)
	ListPicks(ctx context.Context) ([]models.Pick, error)
	FetchUserBets(ctx context.Context, userID, betType string) (*models.UserBets, error)
}

var _ DataSource = (*Client)(nil)

// Client fetches betting data collections from the data API. Every record
// passes through alias normalization at this boundary, so downstream code
// only ever sees canonical field names. The client does no caching: each
// dispatch re-fetches its collection (freshness over efficiency).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the data API at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListTeams fetches all teams from /teams.
func (c *Client) ListTeams(ctx context.Context) ([]models.Team, error) {
	records, err := c.getRecords(ctx, "/teams", nil)
	if err != nil {
		return nil, err
	}
	teams := make([]models.Team, 0, len(records))
	for _, r := range records {
		teams = append(teams, teamFromRecord(r))
	}
	return teams, nil
}

// ListMatches fetches all match cards from /match_cards.
func (c *Client) ListMatches(ctx context.Context) ([]models.Match, error) {
	return c.fetchMatches(ctx, "/match_cards")
}

// ListResults fetches finished matches from /results.
func (c *Client) ListResults(ctx context.Context) ([]models.Match, error) {
	return c.fetchMatches(ctx, "/results")
}

func (c *Client) fetchMatches(ctx context.Context, path string) ([]models.Match, error) {
	records, err := c.getRecords(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	matches := make([]models.Match, 0, len(records))
	for _, r := range records {
		matches = append(matches, matchFromRecord(r))
	}
	return matches, nil
}

// ListValueBets fetches current value bets from /valuebets.
func (c *Client) ListValueBets(ctx context.Context) ([]models.ValueBet, error) {
	records, err := c.getRecords(ctx, "/valuebets", nil)
	if err != nil {
		return nil, err
	}
	bets := make([]models.ValueBet, 0, len(records))
	for _, r := range records {
		bets = append(bets, valueBetFromRecord(r))
	}
	return bets, nil
}

// ListPicks fetches all recorded picks from /picks.
func (c *Client) ListPicks(ctx context.Context) ([]models.Pick, error) {
	records, err := c.getRecords(ctx, "/picks", nil)
	if err != nil {
		return nil, err
	}
	picks := make([]models.Pick, 0, len(records))
	for _, r := range records {
		picks = append(picks, pickFromRecord(r))
	}
	return picks, nil
}

// FetchUserBets fetches one user's picks filtered by bet type.
func (c *Client) FetchUserBets(ctx context.Context, userID, betType string) (*models.UserBets, error) {
	query := url.Values{}
	query.Set("user_id", userID)
	query.Set("bet_type", betType)

	body, err := c.get(ctx, "/user_bets", query)
	if err != nil {
		return nil, err
	}

	var raw struct {
		UserID  string   `json:"user_id"`
		BetType string   `json:"bet_type"`
		Bets    []record `json:"bets"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode /user_bets response: %w", err)
	}

	out := &models.UserBets{UserID: raw.UserID, BetType: raw.BetType}
	for _, r := range raw.Bets {
		out.Bets = append(out.Bets, pickFromRecord(r))
	}
	return out, nil
}

// getRecords fetches path and decodes a JSON array of raw records with
// whatever key casing the backend happens to emit.
func (c *Client) getRecords(ctx context.Context, path string, query url.Values) ([]record, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	var records []record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &NetworkError{Endpoint: path, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Endpoint: path, Err: err}
	}
	return body, nil
}
