package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrUnexpectedResponse = errors.New("unexpected response code")
	ErrMissingAPIKey      = errors.New("missing api key")
)

// Client pushes generated schemas to a dashboard server.
type Client struct {
	APIKey string
	Server string

	http *http.Client
}

func NewClient(apikey, server string) (*Client, error) {
	if apikey == "" {
		return nil, ErrMissingAPIKey
	}
	client := &Client{
		APIKey: apikey,
		Server: strings.TrimSuffix(server, "/"),
		http:   &http.Client{Timeout: 30 * time.Second},
	}
	return client, nil
}

// Schema is the generated source for one endpoint.
type Schema struct {
	Method string `json:"method"`
	URL    string `json:"url"`
	Status int    `json:"status"`
	Source string `json:"source"`
}

type Update struct {
	ListenerID string   `json:"listenerID"`
	Dialect    string   `json:"dialect"`
	Schemas    []Schema `json:"schemas"`
}

func (c *Client) Publish(ctx context.Context, update Update) error {
	u := c.formatURL("/api/v1/listener/update")

	bs, err := json.Marshal(&update)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(bs))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedResponse, res.StatusCode)
	}

	return nil
}

func (c *Client) formatURL(path string) string {
	return fmt.Sprintf("%s%s", c.Server, path)
}
