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

import "fmt"

// Each resolution failure carries the offending specifier or URL and, where
// one exists, the canonical key of the referring file, so the caller can act
// on the message without replaying the traversal.

// DisallowedHostError is returned when a specifier resolves to a host outside
// the configured allow list. The rejection happens before any network access.
type DisallowedHostError struct {
	URL      string // the resolved canonical URL
	Host     string
	Referrer string // canonical key of the importing file, "" for the entry
}

func (e *DisallowedHostError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("host %q not allowed (resolving %q)", e.Host, e.URL)
	}
	return fmt.Sprintf("host %q not allowed (resolving %q imported from %s)", e.Host, e.URL, e.Referrer)
}

// UnsupportedSpecifierError is returned for import specifiers that match none
// of the supported forms.
type UnsupportedSpecifierError struct {
	Specifier string
	Referrer  string
}

func (e *UnsupportedSpecifierError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("unsupported import specifier %q", e.Specifier)
	}
	return fmt.Sprintf("unsupported import specifier %q in %s", e.Specifier, e.Referrer)
}

// MissingPackageVersionError is returned when a bare package import has no
// explicit version and the package is absent from the request's version map.
type MissingPackageVersionError struct {
	Package   string
	Specifier string
	Referrer  string
}

func (e *MissingPackageVersionError) Error() string {
	return fmt.Sprintf("no version pinned for package %q (import %q)", e.Package, e.Specifier)
}

// NoBaseContextError is returned when a relative import appears in a file
// that has no resolution base, i.e. the entry file.
type NoBaseContextError struct {
	Specifier string
}

func (e *NoBaseContextError) Error() string {
	return fmt.Sprintf("relative import %q in entry file, which has no base URL", e.Specifier)
}

// FetchError is returned when retrieving a canonical URL fails, either on the
// transport or with a non-success status.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching %s: %s", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// LimitError is returned when the traversal trips a resource ceiling. Limit
// names the ceiling ("sources" or "bytes"), Configured its configured value.
type LimitError struct {
	Limit      string
	Configured int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("resource limit exceeded: %s (configured %d)", e.Limit, e.Configured)
}
