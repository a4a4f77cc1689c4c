package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type historyItem struct {
	ID           string  `json:"id"`
	Content      string  `json:"content"`
	CustomName   *string `json:"custom_name"`
	Type         string  `json:"type"`
	IsURL        bool    `json:"is_url"`
	IsFavorite   bool    `json:"is_favorite"`
	DisplayName  string  `json:"display_name"`
	RelativeTime string  `json:"relative_time"`
	TypeLabel    string  `json:"type_label"`
}

type session struct {
	Token string `json:"token"`
	Mode  string `json:"mode"`
}

// apiError carries the server's translated message and error code.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

type apiClient struct {
	baseURL string
	lang    string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, lang string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		lang:    lang,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) do(method, path string, body, out interface{}) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return err
		}
	}

	u := c.baseURL + "/api/v1" + path
	if c.lang != "" {
		u += "?lang=" + url.QueryEscape(c.lang)
	}
	req, err := http.NewRequest(method, u, &payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("server not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
		Code  string          `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &apiError{Status: resp.StatusCode}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &apiError{Status: resp.StatusCode, Code: env.Code, Message: env.Error}
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func (c *apiClient) login(mode, identifier, password string) error {
	var s session
	err := c.do(http.MethodPost, "/auth/login", map[string]string{
		"mode":       mode,
		"identifier": identifier,
		"password":   password,
	}, &s)
	if err != nil {
		return err
	}
	c.token = s.Token
	return nil
}

func (c *apiClient) continueAsGuest(deviceID string) error {
	var s session
	if err := c.do(http.MethodPost, "/auth/guest", map[string]string{"device_id": deviceID}, &s); err != nil {
		return err
	}
	c.token = s.Token
	return nil
}

// generate asks the server to create and record a QR code. saved is false
// when the owner turned history off.
func (c *apiClient) generate(text string) (saved bool, err error) {
	var out struct {
		Saved bool `json:"saved"`
	}
	if err := c.do(http.MethodPost, "/qr/generate", map[string]string{"text": text}, &out); err != nil {
		return false, err
	}
	return out.Saved, nil
}

func (c *apiClient) history(favorites bool) ([]historyItem, error) {
	path := "/history"
	if favorites {
		path += "/favorites"
	}
	var items []historyItem
	err := c.do(http.MethodGet, path, nil, &items)
	return items, err
}

func (c *apiClient) toggleFavorite(id string) error {
	return c.do(http.MethodPost, "/history/"+url.PathEscape(id)+"/favorite", nil, nil)
}

func (c *apiClient) deleteItem(id string) error {
	return c.do(http.MethodDelete, "/history/"+url.PathEscape(id), nil, nil)
}
