// internal/clients/ticktick/client.go
package ticktick

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JanKonradK/Saturnus-Magister/internal/common/config"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

var (
	ErrTaskSyncFailed = errors.New("TASK_SYNC_FAILED")
	ErrUnauthorized   = errors.New("TICKTICK_UNAUTHORIZED")
)

// dueDateFormat is TickTick's timestamp layout.
const dueDateFormat = "2006-01-02T15:04:05.000-0700"

// Client pushes task specs to the TickTick open API.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      logger.Logger
}

func NewClient(cfg config.TickTickConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      log.WithFields(map[string]interface{}{"component": "ticktick"}),
	}
}

type taskRequest struct {
	ProjectID string   `json:"projectId"`
	Title     string   `json:"title"`
	Content   string   `json:"content,omitempty"`
	Priority  int      `json:"priority,omitempty"`
	Tags      []string `json:"tags,omitempty"`

	DueDate   string `json:"dueDate,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	IsAllDay  bool   `json:"isAllDay,omitempty"`

	Reminders []string `json:"reminders,omitempty"`
}

type taskResponse struct {
	ID string `json:"id"`
}

// CreateTask syncs one spec and returns the external task id. Calendar
// events and plain tasks share the same endpoint; the shape of the request
// differs.
func (c *Client) CreateTask(ctx context.Context, spec *models.TaskSpec) (string, error) {
	req := taskRequest{
		ProjectID: spec.ProjectID,
		Title:     spec.Title,
		Content:   spec.Content,
		Priority:  apiPriority(spec.Priority),
		Tags:      spec.Tags,
	}

	if spec.IsCalendarEvent {
		if spec.StartAt != nil {
			req.StartDate = spec.StartAt.Format(dueDateFormat)
		}
		if spec.EndAt != nil {
			req.DueDate = spec.EndAt.Format(dueDateFormat)
		}
		req.IsAllDay = spec.IsAllDay
		req.Reminders = triggerStrings(spec.Reminders)
	} else if spec.DueAt != nil {
		req.DueDate = spec.DueAt.Format(dueDateFormat)
		req.Reminders = triggerStrings(spec.Reminders)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTaskSyncFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/open/v1/task", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTaskSyncFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTaskSyncFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("%w: status %d", ErrTaskSyncFailed, resp.StatusCode)
	}

	var parsed taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrTaskSyncFailed, err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("%w: response without task id", ErrTaskSyncFailed)
	}

	c.logger.Debug("task synced", map[string]interface{}{
		"taskId":     spec.ID.String(),
		"externalId": parsed.ID,
		"projectId":  spec.ProjectID,
	})
	return parsed.ID, nil
}

// CompleteTask marks an already-synced task done, used when a review
// resolution closes it out.
func (c *Client) CompleteTask(ctx context.Context, projectID, externalID string) error {
	url := fmt.Sprintf("%s/open/v1/project/%s/task/%s/complete", c.baseURL, projectID, externalID)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTaskSyncFailed, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTaskSyncFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrTaskSyncFailed, resp.StatusCode)
	}
	return nil
}

// apiPriority maps the internal 0..5 scale onto TickTick's 0/1/3/5.
func apiPriority(p int) int {
	switch {
	case p >= 5:
		return 5
	case p >= 3:
		return 3
	case p >= 1:
		return 1
	default:
		return 0
	}
}

// triggerStrings renders reminder offsets as iCalendar TRIGGER values, the
// format TickTick expects.
func triggerStrings(reminders []time.Duration) []string {
	var out []string
	for _, d := range reminders {
		out = append(out, formatTrigger(d))
	}
	return out
}

func formatTrigger(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	hours := int(d / time.Hour)
	minutes := int(d/time.Minute) % 60
	if minutes == 0 {
		return fmt.Sprintf("TRIGGER:%sPT%dH", sign, hours)
	}
	if hours == 0 {
		return fmt.Sprintf("TRIGGER:%sPT%dM", sign, minutes)
	}
	return fmt.Sprintf("TRIGGER:%sPT%dH%dM", sign, hours, minutes)
}
