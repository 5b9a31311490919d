// Copyright 2024 The solcd Authors
// This file is part of the solcd library.
//
// The solcd library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The solcd library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the solcd library. If not, see <http://www.gnu.org/licenses/>.

package resolver

import (
	"context"
	"io"
	"net/http"
	"sync"
)

// fetchCache retrieves and memoizes remote text content by canonical URL. It
// lives for one resolution request; nothing is shared across requests.
type fetchCache struct {
	client *http.Client

	mu      sync.Mutex
	content map[string]string
}

func newFetchCache(client *http.Client) *fetchCache {
	return &fetchCache{
		client:  client,
		content: make(map[string]string),
	}
}

// fetch returns the content behind url, performing at most one retrieval per
// URL for the cache's lifetime. Redirects are followed by the underlying
// client; any non-2xx outcome is a FetchError carrying the upstream status.
func (c *fetchCache) fetch(ctx context.Context, url string) (string, error) {
	c.mu.Lock()
	if text, ok := c.content[url]; ok {
		c.mu.Unlock()
		return text, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	text := string(body)

	c.mu.Lock()
	c.content[url] = text
	c.mu.Unlock()
	return text, nil
}
