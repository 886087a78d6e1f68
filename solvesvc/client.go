package solvesvc

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type Client struct {
	// NATS connection
	nc      *nats.Conn
	channel string
}

func NewClient(natsURL, channel string) (*Client, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Client{nc: nc, channel: channel}, nil
}

func (c *Client) Close() {
	c.nc.Close()
}

// Solve sends a request to the service and waits for the fill.
func (c *Client) Solve(req *SolveRequest) (*SolveResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	res, err := c.nc.Request(c.channel, data, 10*time.Second)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		log.Error().Msgf("%v for request", err)
		return nil, err
	}
	resp := &SolveResponse{}
	if err = json.Unmarshal(res.Data, resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return resp, errors.New("service returned: " + resp.Error)
	}
	return resp, nil
}
