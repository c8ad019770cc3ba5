package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("supabase storage not configured")

// Storage talks to the Supabase Storage REST API with the service-role key.
type Storage struct {
	BaseURL        string
	ServiceRoleKey string
	HTTP           *http.Client
}

func NewStorage(baseURL, serviceRoleKey string, client *http.Client) *Storage {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Storage{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		ServiceRoleKey: serviceRoleKey,
		HTTP:           client,
	}
}

func (s *Storage) Configured() bool {
	return s != nil && s.BaseURL != "" && s.ServiceRoleKey != ""
}

// Upload writes an object, replacing any existing one at the same path.
func (s *Storage) Upload(ctx context.Context, bucket, objectName, contentType string, data []byte) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	urlStr := s.BaseURL + "/storage/v1/object/" + bucket + "/" + escapePath(objectName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, urlStr, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")
	s.auth(req)

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("storage status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func (s *Storage) PublicURL(bucket, objectName string) string {
	return s.BaseURL + "/storage/v1/object/public/" + bucket + "/" + escapePath(objectName)
}

func (s *Storage) auth(req *http.Request) {
	req.Header.Set("apikey", s.ServiceRoleKey)
	req.Header.Set("Authorization", "Bearer "+s.ServiceRoleKey)
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
