package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// SensayProvider talks to the Sensay replica API. One replica persona is
// configured per deployment; the end user is carried in the X-USER-ID header.
type SensayProvider struct {
	BaseURL     string
	APIKey      string
	ReplicaUUID string
	Client      *http.Client
}

func NewSensayProvider(baseURL, apiKey, replicaUUID string) *SensayProvider {
	if baseURL == "" {
		baseURL = "https://api.sensay.io"
	}
	return &SensayProvider{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		ReplicaUUID: replicaUUID,
		Client:      &http.Client{Timeout: 60 * time.Second},
	}
}

type sensayChatReq struct {
	Content string `json:"content"`
}

type sensayChatResp struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

func (p *SensayProvider) Chat(ctx context.Context, externalUserID string, prompt string) (*Reply, error) {
	if p.Client == nil {
		return nil, errors.New("sensay: http client is nil")
	}

	b, err := json.Marshal(sensayChatReq{Content: prompt})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/replicas/%s/chat/completions", p.BaseURL, p.ReplicaUUID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-ORGANIZATION-SECRET", p.APIKey)
	req.Header.Set("X-USER-ID", externalUserID)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, classifyTransportErr(err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	var decoded sensayChatResp
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrNetwork, err)
	}
	if !decoded.Success || decoded.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNetwork, decoded.Error)
	}

	return &Reply{Content: decoded.Content, Raw: json.RawMessage(body)}, nil
}

func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, status)
	case status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout:
		return fmt.Errorf("%w: status %d", ErrTimeout, status)
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, status)
	}
}

func classifyTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
