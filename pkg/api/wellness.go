package api

import "context"

type Quote struct {
	Quote  string `json:"quote" yaml:"quote"`
	Author string `json:"author,omitempty" yaml:"author,omitempty"`
}

// Quote fetches the quote of the day. Wellness endpoints need no credential.
func (c *Client) Quote(ctx context.Context) (*Quote, error) {
	var q Quote
	if err := c.get(ctx, "/wellness/quote", &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// FunFact fetches a random fact.
func (c *Client) FunFact(ctx context.Context) (string, error) {
	var out struct {
		Fact string `json:"fact"`
	}
	if err := c.get(ctx, "/wellness/fact", &out); err != nil {
		return "", err
	}
	return out.Fact, nil
}
