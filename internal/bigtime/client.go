// Package bigtime is a client for the BigTime REST API v2, exposing active
// projects with rolled-up task budgets as the engine's budget source.
package bigtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/staffsight/backend/internal/config"
	"github.com/staffsight/backend/internal/types"
)

const maxAttempts = 4

// Client talks to the BigTime API. Authenticate must be called before any
// fetch; it installs the session headers used by every later request.
type Client struct {
	baseURL    string
	cfg        config.BigTimeConfig
	httpClient *http.Client
	headers    map[string]string
	logger     zerolog.Logger
}

// New creates a BigTime client from config.
func New(cfg config.BigTimeConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		cfg:     cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
		logger: logger.With().Str("component", "bigtime").Logger(),
	}
}

// Authenticate establishes a session using the firm API token when
// configured, falling back to username/password credentials.
func (c *Client) Authenticate(ctx context.Context) error {
	switch {
	case c.cfg.APIToken != "" && c.cfg.FirmID != "":
		return c.authWithFirmToken(ctx)
	case c.cfg.Username != "" && c.cfg.Password != "":
		return c.authWithCredentials(ctx)
	default:
		return fmt.Errorf("no BigTime credentials configured: set BIGTIME_API_TOKEN + BIGTIME_FIRM_ID, or BIGTIME_USERNAME + BIGTIME_PASSWORD")
	}
}

// authWithFirmToken installs the static firm token headers and verifies them
// with a cheap session probe.
func (c *Client) authWithFirmToken(ctx context.Context) error {
	c.headers["X-Auth-ApiToken"] = c.cfg.APIToken
	c.headers["X-Auth-Realm"] = c.cfg.FirmID
	if _, err := c.request(ctx, http.MethodGet, "/session", nil); err != nil {
		return fmt.Errorf("verify firm session: %w", err)
	}
	return nil
}

func (c *Client) authWithCredentials(ctx context.Context) error {
	payload := map[string]string{"UserId": c.cfg.Username, "Pwd": c.cfg.Password}
	body, err := c.request(ctx, http.MethodPost, "/session", payload)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	var session struct {
		Token string          `json:"token"`
		Firm  json.RawMessage `json:"firm"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}

	c.headers["X-Auth-Token"] = session.Token
	c.headers["X-Auth-Realm"] = string(bytes.Trim(session.Firm, `"`))
	return nil
}

// request performs one API call with 503 Retry-After handling: the server
// rate-limits with 503 and a Retry-After header, which is honored up to
// maxAttempts before giving up.
func (c *Client) request(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var bodyBytes []byte
	if payload != nil {
		var err error
		if bodyBytes, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	url := c.baseURL + path
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var reqBody io.Reader
		if bodyBytes != nil {
			reqBody = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, err
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusServiceUnavailable {
			resp.Body.Close()
			wait := backoff(resp.Header.Get("Retry-After"), attempt)
			c.logger.Warn().
				Str("path", path).
				Int("attempt", attempt+1).
				Dur("wait", wait).
				Msg("rate limited, retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("%s %s: %s", method, path, resp.Status)
		}
		return body, nil
	}

	return nil, fmt.Errorf("%s %s: gave up after %d attempts", method, path, maxAttempts)
}

// backoff parses a Retry-After header, defaulting to exponential seconds.
func backoff(retryAfter string, attempt int) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Duration(1<<attempt) * time.Second
}

// projectRow tolerates the API's alternating field names; the resolved
// values are extracted once here and nowhere else.
type projectRow struct {
	SystemID    int    `json:"SystemId"`
	ID          int    `json:"Id"`
	Nm          string `json:"Nm"`
	Name        string `json:"Name"`
	ProjectCode string `json:"ProjectCode"`
	StartDt     string `json:"StartDt"`
	EndDt       string `json:"EndDt"`
}

func (p projectRow) sid() int {
	if p.SystemID != 0 {
		return p.SystemID
	}
	return p.ID
}

func (p projectRow) name() string {
	if p.Nm != "" {
		return p.Nm
	}
	return p.Name
}

type taskRow struct {
	TaskSid     int     `json:"TaskSid"`
	ID          int     `json:"Id"`
	Nm          string  `json:"Nm"`
	TaskNm      string  `json:"TaskNm"`
	BudgetHrs   float64 `json:"BudgetHrs"`
	BudgetHours float64 `json:"BudgetHours"`
	BudgetFees  float64 `json:"BudgetFees"`
	PerComp     float64 `json:"PerComp"`
}

func (t taskRow) sid() int {
	if t.TaskSid != 0 {
		return t.TaskSid
	}
	return t.ID
}

func (t taskRow) name() string {
	if t.Nm != "" {
		return t.Nm
	}
	return t.TaskNm
}

func (t taskRow) budgetHours() float64 {
	if t.BudgetHrs != 0 {
		return t.BudgetHrs
	}
	return t.BudgetHours
}

type budgetStatusRow struct {
	TaskSid    int     `json:"TaskSid"`
	HoursInput float64 `json:"HoursInput"`
	HoursBill  float64 `json:"HoursBill"`
	FeesInput  float64 `json:"FeesInput"`
}

// FetchProjects implements source.BudgetSource: all active projects with
// their task budgets rolled up into totals. A project whose budget detail
// call fails still appears, with zero totals; only a failure listing
// projects fails the whole source.
func (c *Client) FetchProjects(ctx context.Context) ([]types.ProjectSummary, error) {
	body, err := c.request(ctx, http.MethodGet, "/project", nil)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var rows []projectRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}

	summaries := make([]types.ProjectSummary, 0, len(rows))
	for _, row := range rows {
		sid := row.sid()
		if sid == 0 {
			continue
		}

		tasks, err := c.fetchProjectBudgets(ctx, sid)
		if err != nil {
			c.logger.Warn().Err(err).Int("project_id", sid).Msg("budget detail unavailable")
			tasks = nil
		}

		var totalBudget, totalLogged float64
		for _, task := range tasks {
			totalBudget += task.BudgetHours
			totalLogged += task.HoursLogged
		}

		summaries = append(summaries, types.ProjectSummary{
			ProjectID:      sid,
			Name:           row.name(),
			Code:           row.ProjectCode,
			StartDate:      row.StartDt,
			EndDate:        row.EndDt,
			BudgetHours:    totalBudget,
			HoursLogged:    totalLogged,
			HoursRemaining: totalBudget - totalLogged,
			TaskCount:      len(tasks),
			Tasks:          tasks,
		})
	}

	c.logger.Info().Int("projects", len(summaries)).Msg("projects fetched")
	return summaries, nil
}

// fetchProjectBudgets joins a project's task list with its budget status
// (actuals) by task id.
func (c *Client) fetchProjectBudgets(ctx context.Context, projectSid int) ([]types.TaskBudget, error) {
	taskBody, err := c.request(ctx, http.MethodGet,
		fmt.Sprintf("/task/listByProject/%d?showCompleted=False", projectSid), nil)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	var tasks []taskRow
	if err := json.Unmarshal(taskBody, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}

	statusBody, err := c.request(ctx, http.MethodGet,
		fmt.Sprintf("/task/BudgetStatusByProject/%d", projectSid), nil)
	if err != nil {
		return nil, fmt.Errorf("budget status: %w", err)
	}
	var statuses []budgetStatusRow
	if err := json.Unmarshal(statusBody, &statuses); err != nil {
		return nil, fmt.Errorf("decode budget status: %w", err)
	}

	statusByTask := make(map[int]budgetStatusRow, len(statuses))
	for _, s := range statuses {
		statusByTask[s.TaskSid] = s
	}

	budgets := make([]types.TaskBudget, 0, len(tasks))
	for _, task := range tasks {
		status := statusByTask[task.sid()]
		budgets = append(budgets, types.TaskBudget{
			TaskID:          task.sid(),
			TaskName:        task.name(),
			BudgetHours:     task.budgetHours(),
			BudgetFees:      task.BudgetFees,
			HoursLogged:     status.HoursInput,
			HoursBillable:   status.HoursBill,
			FeesActual:      status.FeesInput,
			PercentComplete: task.PerComp,
		})
	}
	return budgets, nil
}
