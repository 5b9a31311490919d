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

import "strings"

// Config holds the process-wide resolution policy. It is constructed once at
// startup and treated as immutable; every request gets the same ceilings and
// allow list.
type Config struct {
	// AllowedHosts is the set of hosts outbound fetches may touch. Any
	// canonical URL whose host is not in this set is rejected before a
	// network access is attempted.
	AllowedHosts []string

	// CDNBase is the base URL npm-style package imports expand under,
	// e.g. "https://cdn.jsdelivr.net/npm".
	CDNBase string

	// MaxSources limits the number of distinct source files in one request.
	MaxSources int

	// MaxBytes limits the cumulative size of all fetched content in one
	// request, entry file included.
	MaxBytes int64

	// FetchConcurrency bounds parallel retrieval of newly discovered
	// imports. Values below 1 mean sequential fetching.
	FetchConcurrency int
}

// DefaultConfig contains the default resolution policy of solcd.
var DefaultConfig = Config{
	AllowedHosts: []string{
		"raw.githubusercontent.com",
		"gist.githubusercontent.com",
		"cdn.jsdelivr.net",
		"unpkg.com",
	},
	CDNBase:          "https://cdn.jsdelivr.net/npm",
	MaxSources:       64,
	MaxBytes:         4 * 1024 * 1024,
	FetchConcurrency: 4,
}

// HostAllowed reports whether outbound fetches may touch the given host.
func (c Config) HostAllowed(host string) bool {
	for _, h := range c.AllowedHosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}
