// Package relay talks to the pairchat server: the pairing API over HTTP and
// chat sessions over websocket.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/habibuoy/pairchat/cli/internal/config"
	"github.com/habibuoy/pairchat/cli/internal/dns"
)

const requestTimeout = 10 * time.Second

// Client calls the pairing API.
type Client struct {
	cfg  *config.Config
	http *http.Client
}

type envelope struct {
	Message string `json:"message"`
	Result  *struct {
		ID string `json:"id"`
	} `json:"result"`
}

// NewClient creates an API client that resolves hosts through dns.Lookup.
func NewClient(cfg *config.Config) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dns.DialContext
	return &Client{
		cfg:  cfg,
		http: &http.Client{Transport: transport, Timeout: requestTimeout},
	}
}

// Pair returns the id of the room shared by sender and recipient, creating it
// on the server if needed.
func (c *Client) Pair(ctx context.Context, sender, recipient string) (string, error) {
	body, err := json.Marshal(map[string]string{"sender": sender, "recipient": recipient})
	if err != nil {
		return "", NewError("pair", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.PairURL(), bytes.NewReader(body))
	if err != nil {
		return "", NewError("pair", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", WrapError("pair", ErrServer, err.Error())
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", WrapError("pair", ErrServer, fmt.Sprintf("status %d: undecodable response", resp.StatusCode))
	}
	switch {
	case resp.StatusCode >= 500:
		return "", WrapError("pair", ErrServer, env.Message)
	case resp.StatusCode != http.StatusOK:
		return "", WrapError("pair", ErrRejected, env.Message)
	case env.Result == nil || env.Result.ID == "":
		return "", WrapError("pair", ErrServer, "response has no room id")
	}
	return env.Result.ID, nil
}
