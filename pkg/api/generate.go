package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// GenerateScript uploads a test-case spreadsheet and a project URL, returning
// the generated test script. one-shot request/response, no streaming.
// backend-reported failures come back as errors carrying the backend's text.
func (c *Client) GenerateScript(ctx context.Context, file io.Reader, filename, projectURL string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err = io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy file content: %w", err)
	}
	if err = mw.WriteField("project_url", projectURL); err != nil {
		return "", fmt.Errorf("write project_url field: %w", err)
	}
	if err = mw.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse_input", &body)
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return "", fmt.Errorf("backend rejected request: %s", e.Error)
		}
		return "", fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	var r struct {
		Script string `json:"script"`
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return r.Script, nil
}
