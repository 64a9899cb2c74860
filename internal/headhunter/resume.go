package headhunter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// GetResumeRaw returns a resume exactly as the API describes it.
func (c *Client) GetResumeRaw(ctx context.Context, id string) (map[string]any, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("resume id is required")
	}
	if c.token == "" {
		return nil, errors.New("headhunter token is required to read resumes")
	}

	var raw map[string]any
	if err := c.getJSON(ctx, fmt.Sprintf("%s/resumes/%s", c.APIURL, url.PathEscape(id)), nil, &raw); err != nil {
		return nil, fmt.Errorf("get resume %s: %w", id, err)
	}

	if raw == nil {
		raw = make(map[string]any)
	}

	return raw, nil
}
