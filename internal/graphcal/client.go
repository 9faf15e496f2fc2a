// Package graphcal is a Microsoft Graph calendar source. It authenticates
// with client credentials and reads each staff member's calendarView,
// following paging until the window is exhausted.
package graphcal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/staffsight/backend/internal/config"
	"github.com/staffsight/backend/internal/types"
)

const (
	graphBaseURL = "https://graph.microsoft.com/v1.0"
	tokenURLFmt  = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	pageSize     = 500
)

// Client reads calendars through Microsoft Graph using an app-only token.
type Client struct {
	cfg        config.AzureConfig
	timezone   string
	baseURL    string
	tokenURL   string
	httpClient *http.Client
	logger     zerolog.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// New creates a Graph calendar client. timezone is a Windows timezone name
// such as "Eastern Standard Time"; Graph returns event times in it.
func New(cfg config.AzureConfig, timezone string, logger zerolog.Logger) *Client {
	return &Client{
		cfg:      cfg,
		timezone: timezone,
		baseURL:  graphBaseURL,
		tokenURL: fmt.Sprintf(tokenURLFmt, cfg.TenantID),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With().Str("component", "graphcal").Logger(),
	}
}

// token returns a cached app token, refreshing it when within a minute of
// expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.accessToken, nil
	}

	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"scope":         {"https://graph.microsoft.com/.default"},
		"grant_type":    {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request: %s", resp.Status)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

// graphEvent mirrors the calendarView response shape.
type graphEvent struct {
	Subject string `json:"subject"`
	Start   struct {
		DateTime string `json:"dateTime"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
	} `json:"end"`
	IsAllDay   bool     `json:"isAllDay"`
	ShowAs     string   `json:"showAs"`
	Categories []string `json:"categories"`
}

// mapShowAs folds Graph's showAs values onto BusyState. Unknown values are
// treated as busy so surprising states cannot inflate availability.
func mapShowAs(showAs string) types.BusyState {
	switch strings.ToLower(showAs) {
	case "free":
		return types.StateFree
	case "tentative":
		return types.StateTentative
	case "oof":
		return types.StateOutOfOffice
	case "workingelsewhere":
		return types.StateWorkingElsewhere
	default:
		return types.StateBusy
	}
}

func toEvent(g graphEvent) types.CalendarEvent {
	return types.CalendarEvent{
		Subject:    g.Subject,
		Start:      g.Start.DateTime,
		End:        g.End.DateTime,
		IsAllDay:   g.IsAllDay,
		BusyState:  mapShowAs(g.ShowAs),
		Categories: g.Categories,
	}
}

// FetchEvents implements source.CalendarSource. Staff members are fetched
// concurrently; one failing mailbox is recorded on its own entry only.
func (c *Client) FetchEvents(ctx context.Context, staffIDs []string, start, end time.Time) (map[string]types.StaffEvents, error) {
	if _, err := c.token(ctx); err != nil {
		return nil, err
	}

	results := make(map[string]types.StaffEvents, len(staffIDs))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, id := range staffIDs {
		wg.Add(1)
		go func(staffID string) {
			defer wg.Done()
			events, err := c.fetchStaffEvents(ctx, staffID, start, end)
			entry := types.StaffEvents{Events: events}
			if err != nil {
				entry.Err = err.Error()
				c.logger.Warn().Err(err).Str("staff", staffID).Msg("calendar fetch failed")
			}
			mu.Lock()
			results[staffID] = entry
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	return results, nil
}

// fetchStaffEvents walks calendarView pages for one mailbox.
func (c *Client) fetchStaffEvents(ctx context.Context, staffID string, start, end time.Time) ([]types.CalendarEvent, error) {
	query := url.Values{
		"startDateTime": {start.Format(time.RFC3339)},
		"endDateTime":   {end.Format(time.RFC3339)},
		"$select":       {"subject,start,end,isAllDay,showAs,categories"},
		"$orderby":      {"start/dateTime"},
		"$top":          {fmt.Sprintf("%d", pageSize)},
	}
	next := fmt.Sprintf("%s/users/%s/calendarView?%s",
		c.baseURL, url.PathEscape(staffID), query.Encode())

	var events []types.CalendarEvent
	for next != "" {
		page, nextLink, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, g := range page {
			events = append(events, toEvent(g))
		}
		next = nextLink
	}
	return events, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) ([]graphEvent, string, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Prefer", fmt.Sprintf(`outlook.timezone="%s"`, c.timezone))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("calendarView: %s", resp.Status)
	}

	var page struct {
		Value    []graphEvent `json:"value"`
		NextLink string       `json:"@odata.nextLink"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", fmt.Errorf("decode calendarView: %w", err)
	}
	return page.Value, page.NextLink, nil
}
