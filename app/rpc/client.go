package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/app/appmessage"
)

const requestTimeout = 30 * time.Second

// Client sends smartrewards queries to the query server of a sync daemon
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the query server listening on address
func NewClient(address string) *Client {
	return &Client{
		url:        "http://" + address + SmartRewardsPath,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// SmartRewards sends request and returns the answer of the daemon. Errors
// reported by the ledger are carried by the envelope, the returned error
// is only set when no answer could be read.
func (c *Client) SmartRewards(request *appmessage.SmartRewardsRequestMessage) (*Envelope, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	response, err := c.httpClient.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reach the sync daemon at %s, "+
			"run the query with --offline to read the database directly", c.url)
	}
	defer response.Body.Close()

	envelope := &Envelope{}
	err = json.NewDecoder(response.Body).Decode(envelope)
	if err != nil {
		return nil, errors.Wrapf(err, "unexpected answer from %s with status %s", c.url, response.Status)
	}
	if envelope.Error == nil && envelope.Result == nil {
		return nil, errors.Errorf("empty answer from %s with status %s", c.url, response.Status)
	}
	return envelope, nil
}
