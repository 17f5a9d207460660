package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dialsched/internal/models"
	"github.com/dialsched/internal/schedule"
	"github.com/spf13/viper"
)

type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *APIClient) doRequest(method, path string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	token := viper.GetString("token")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s", apiErr.Error)
		}
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return data, nil
}

func (c *APIClient) Login(username, password string) (string, error) {
	data, err := c.doRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *APIClient) ListSchedules(scheduleType string) ([]models.Schedule, error) {
	path := "/api/v1/schedules"
	if scheduleType != "" {
		path += "?type=" + scheduleType
	}
	data, err := c.doRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var schedules []models.Schedule
	if err := json.Unmarshal(data, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (c *APIClient) GetSchedule(id uint) (*models.Schedule, error) {
	data, err := c.doRequest(http.MethodGet, fmt.Sprintf("/api/v1/schedules/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var s models.Schedule
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *APIClient) CreateSchedule(s *models.Schedule) (*models.Schedule, error) {
	data, err := c.doRequest(http.MethodPost, "/api/v1/schedules", s)
	if err != nil {
		return nil, err
	}

	var created models.Schedule
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *APIClient) UpdateSchedule(s *models.Schedule) (*models.Schedule, error) {
	data, err := c.doRequest(http.MethodPut, fmt.Sprintf("/api/v1/schedules/%d", s.ID), s)
	if err != nil {
		return nil, err
	}

	var updated models.Schedule
	if err := json.Unmarshal(data, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *APIClient) DeleteSchedule(id uint) error {
	_, err := c.doRequest(http.MethodDelete, fmt.Sprintf("/api/v1/schedules/%d", id), nil)
	return err
}

func (c *APIClient) ListUpcoming(limit int) ([]schedule.UpcomingSchedule, error) {
	data, err := c.doRequest(http.MethodGet, fmt.Sprintf("/api/v1/schedules/upcoming?limit=%d", limit), nil)
	if err != nil {
		return nil, err
	}

	var upcoming []schedule.UpcomingSchedule
	if err := json.Unmarshal(data, &upcoming); err != nil {
		return nil, err
	}
	return upcoming, nil
}

func (c *APIClient) ListOccurrences(start, end string) ([]schedule.ScheduleOccurrences, error) {
	data, err := c.doRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/occurrences?start=%s&end=%s", start, end), nil)
	if err != nil {
		return nil, err
	}

	var occurrences []schedule.ScheduleOccurrences
	if err := json.Unmarshal(data, &occurrences); err != nil {
		return nil, err
	}
	return occurrences, nil
}

func (c *APIClient) ListExecutions(scheduleID uint) ([]models.Execution, error) {
	data, err := c.doRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/schedules/%d/executions", scheduleID), nil)
	if err != nil {
		return nil, err
	}

	var execs []models.Execution
	if err := json.Unmarshal(data, &execs); err != nil {
		return nil, err
	}
	return execs, nil
}
