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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var testConfig = Config{
	AllowedHosts: []string{"example.com", "raw.githubusercontent.com", "cdn.jsdelivr.net"},
	CDNBase:      "https://cdn.jsdelivr.net/npm",
	MaxSources:   16,
	MaxBytes:     1 << 20,
}

func TestResolve(t *testing.T) {
	versions := map[string]string{"@openzeppelin/contracts": "4.9.3"}
	tests := []struct {
		name string
		spec string
		base string
		want string
	}{
		{
			name: "absolute url",
			spec: "https://example.com/A.sol",
			want: "https://example.com/A.sol",
		},
		{
			name: "github shorthand",
			spec: "github:openzeppelin/openzeppelin-contracts@v4.9.0/contracts/token/ERC20/ERC20.sol",
			want: "https://raw.githubusercontent.com/openzeppelin/openzeppelin-contracts/v4.9.0/contracts/token/ERC20/ERC20.sol",
		},
		{
			name: "npm prefix with version",
			spec: "npm:solmate@6.2.0/src/auth/Owned.sol",
			want: "https://cdn.jsdelivr.net/npm/solmate@6.2.0/src/auth/Owned.sol",
		},
		{
			name: "bare package via version map",
			spec: "@openzeppelin/contracts/token/ERC20/ERC20.sol",
			want: "https://cdn.jsdelivr.net/npm/@openzeppelin/contracts@4.9.3/token/ERC20/ERC20.sol",
		},
		{
			name: "bare package embedded version",
			spec: "solmate@6.2.0/src/utils/SSTORE2.sol",
			want: "https://cdn.jsdelivr.net/npm/solmate@6.2.0/src/utils/SSTORE2.sol",
		},
		{
			name: "relative sibling",
			spec: "./A.sol",
			base: "https://example.com/dir/entry.sol",
			want: "https://example.com/dir/A.sol",
		},
		{
			name: "relative parent",
			spec: "../lib/B.sol",
			base: "https://example.com/dir/entry.sol",
			want: "https://example.com/lib/B.sol",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			have, err := Resolve(tt.spec, tt.base, versions, testConfig)
			require.NoError(t, err)
			require.Equal(t, tt.want, have)
		})
	}
}

func TestResolveDisallowedHost(t *testing.T) {
	_, err := Resolve("https://evil.example/x.sol", "", nil, testConfig)
	var dhe *DisallowedHostError
	require.ErrorAs(t, err, &dhe)
	require.Equal(t, "evil.example", dhe.Host)
}

func TestResolveMissingPackageVersion(t *testing.T) {
	_, err := Resolve("@openzeppelin/contracts/token/ERC20/ERC20.sol", "", nil, testConfig)
	var mpe *MissingPackageVersionError
	require.ErrorAs(t, err, &mpe)
	require.Equal(t, "@openzeppelin/contracts", mpe.Package)
	require.Contains(t, err.Error(), "@openzeppelin/contracts")
}

func TestResolveNoBaseContext(t *testing.T) {
	_, err := Resolve("./A.sol", "", nil, testConfig)
	var nbe *NoBaseContextError
	require.ErrorAs(t, err, &nbe)
	require.Equal(t, "./A.sol", nbe.Specifier)
}

func TestResolveUnsupported(t *testing.T) {
	specs := []string{
		"",
		"foo",            // bare name without a path
		"/abs/path.sol",  // absolute filesystem path
		"ftp://x/y.sol",  // unsupported scheme
		"github:foo.sol", // malformed shorthand
		"@scope",         // scope without package
	}
	for _, spec := range specs {
		_, err := Resolve(spec, "", nil, testConfig)
		var use *UnsupportedSpecifierError
		require.ErrorAs(t, err, &use, "spec %q", spec)
	}
}

// The allow list applies to expanded forms too, not just literal URLs.
func TestResolveExpandedHostChecked(t *testing.T) {
	cfg := testConfig
	cfg.AllowedHosts = []string{"example.com"} // no github, no cdn
	_, err := Resolve("github:a/b@main/c.sol", "", nil, cfg)
	var dhe *DisallowedHostError
	require.True(t, errors.As(err, &dhe))

	_, err = Resolve("npm:solmate@6.2.0/src/x.sol", "", nil, cfg)
	require.True(t, errors.As(err, &dhe))
}
