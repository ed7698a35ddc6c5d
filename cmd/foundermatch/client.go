package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/foundermatch/internal/cli"
	"github.com/hyperjump/foundermatch/internal/models"
	"github.com/hyperjump/foundermatch/internal/recommend"
)

// apiClient talks to a running foundermatch server. Using the API while the
// server runs avoids opening the Bleve index the server holds locked.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) Search(req *models.SearchRequest) (*models.SearchResponse, error) {
	var out models.SearchResponse
	if err := c.do(http.MethodPost, "/api/v1/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) KeywordSearch(req *models.KeywordSearchRequest) (*models.KeywordResponse, error) {
	var out models.KeywordResponse
	if err := c.do(http.MethodPost, "/api/v1/keyword-search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) HybridSearch(req *models.HybridSearchRequest) (*models.HybridResponse, error) {
	var out models.HybridResponse
	if err := c.do(http.MethodPost, "/api/v1/hybrid-search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Recommend(req *models.RecommendRequest) (*models.RecommendResponse, error) {
	var out models.RecommendResponse
	if err := c.do(http.MethodPost, "/api/v1/recommendations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// importResult is the body of POST /api/v1/corpus/import.
type importResult struct {
	Path     string          `json:"path"`
	Files    int             `json:"files"`
	Startups int             `json:"startups"`
	Engine   recommend.Stats `json:"engine"`
}

func (c *apiClient) Import(path string) (*importResult, error) {
	var out importResult
	if err := c.do(http.MethodPost, "/api/v1/corpus/import", map[string]string{"path": path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Status() (*cli.StatusReport, error) {
	var out cli.StatusReport
	if err := c.do(http.MethodGet, "/api/v1/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
