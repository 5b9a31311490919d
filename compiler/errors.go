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

package compiler

import "fmt"

// UnsupportedVersionError is returned for version selectors that are neither
// empty, a known semantic version, nor a full build identifier.
type UnsupportedVersionError struct {
	Selector string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported compiler version %q", e.Selector)
}
