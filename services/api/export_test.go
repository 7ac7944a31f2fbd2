package apisvc

import "time"

func (c *Client) RequestTimeout() time.Duration { return c.timeout }
