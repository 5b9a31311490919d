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
	"net/url"
	"regexp"
	"strings"
)

const githubRawBase = "https://raw.githubusercontent.com"

// githubPattern matches the "github:<owner>/<repo>@<ref>/<path>" shorthand.
var githubPattern = regexp.MustCompile(`^([^/@\s]+)/([^/@\s]+)@([^/\s]+)/(.+)$`)

// Resolve turns a raw import specifier into a canonical absolute URL. base is
// the canonical URL of the referring file, empty for the entry file. versions
// maps bare package names to pinned versions.
//
// The supported forms are tried in order: absolute http(s) URL, github
// shorthand, npm-style package path, relative path. Anything else fails with
// UnsupportedSpecifierError. The allow list is enforced on the final URL
// before the caller performs any fetch.
func Resolve(spec, base string, versions map[string]string, cfg Config) (string, error) {
	switch {
	case strings.HasPrefix(spec, "http://") || strings.HasPrefix(spec, "https://"):
		u, err := url.Parse(spec)
		if err != nil {
			return "", &UnsupportedSpecifierError{Specifier: spec, Referrer: base}
		}
		return checkHost(u, base, cfg)

	case strings.HasPrefix(spec, "github:"):
		m := githubPattern.FindStringSubmatch(spec[len("github:"):])
		if m == nil {
			return "", &UnsupportedSpecifierError{Specifier: spec, Referrer: base}
		}
		owner, repo, ref, path := m[1], m[2], m[3], m[4]
		u, err := url.Parse(githubRawBase + "/" + owner + "/" + repo + "/" + ref + "/" + path)
		if err != nil {
			return "", &UnsupportedSpecifierError{Specifier: spec, Referrer: base}
		}
		return checkHost(u, base, cfg)

	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../"):
		if base == "" {
			return "", &NoBaseContextError{Specifier: spec}
		}
		bu, err := url.Parse(base)
		if err != nil {
			return "", &UnsupportedSpecifierError{Specifier: spec, Referrer: base}
		}
		ref, err := url.Parse(spec)
		if err != nil {
			return "", &UnsupportedSpecifierError{Specifier: spec, Referrer: base}
		}
		return checkHost(bu.ResolveReference(ref), base, cfg)

	default:
		return resolvePackage(spec, base, versions, cfg)
	}
}

// resolvePackage expands "npm:<package>@<version>/<path>" specifiers and bare
// package paths ("<package>/<path>", "@<scope>/<package>/<path>") under the
// configured CDN base. The version comes from the specifier when embedded,
// otherwise from the per-request version map.
func resolvePackage(spec, base string, versions map[string]string, cfg Config) (string, error) {
	rest := strings.TrimPrefix(spec, "npm:")

	var scope string
	if strings.HasPrefix(rest, "@") {
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return "", &UnsupportedSpecifierError{Specifier: spec, Referrer: base}
		}
		scope, rest = rest[:slash+1], rest[slash+1:]
	}
	slash := strings.Index(rest, "/")
	if slash <= 0 {
		return "", &UnsupportedSpecifierError{Specifier: spec, Referrer: base}
	}
	name, path := rest[:slash], rest[slash+1:]

	var version string
	if at := strings.Index(name, "@"); at > 0 {
		name, version = name[:at], name[at+1:]
	}
	name = scope + name
	if !packageNamePattern.MatchString(name) || path == "" {
		return "", &UnsupportedSpecifierError{Specifier: spec, Referrer: base}
	}
	if version == "" {
		version = versions[name]
		if version == "" {
			return "", &MissingPackageVersionError{Package: name, Specifier: spec, Referrer: base}
		}
	}
	u, err := url.Parse(strings.TrimSuffix(cfg.CDNBase, "/") + "/" + name + "@" + version + "/" + path)
	if err != nil {
		return "", &UnsupportedSpecifierError{Specifier: spec, Referrer: base}
	}
	return checkHost(u, base, cfg)
}

// packageNamePattern follows the npm naming rules loosely: lowercase names,
// optionally scoped.
var packageNamePattern = regexp.MustCompile(`^(@[a-z0-9][a-z0-9._-]*/)?[a-z0-9][a-z0-9._-]*$`)

func checkHost(u *url.URL, referrer string, cfg Config) (string, error) {
	if u.Scheme != "http" && u.Scheme != "https" || u.Hostname() == "" {
		return "", &UnsupportedSpecifierError{Specifier: u.String(), Referrer: referrer}
	}
	if !cfg.HostAllowed(u.Hostname()) {
		return "", &DisallowedHostError{URL: u.String(), Host: u.Hostname(), Referrer: referrer}
	}
	return u.String(), nil
}
