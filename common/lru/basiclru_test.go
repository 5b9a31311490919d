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

package lru

import "testing"

func TestBasicLRU(t *testing.T) {
	cache := NewBasicLRU[int, int](128)

	for i := 0; i < 256; i++ {
		cache.Add(i, i)
	}
	if cache.Len() != 128 {
		t.Fatalf("bad len: %v", cache.Len())
	}

	// Check that the oldest half got evicted.
	for i := 0; i < 128; i++ {
		if cache.Contains(i) {
			t.Errorf("key %d should have been evicted", i)
		}
	}
	for i := 128; i < 256; i++ {
		v, ok := cache.Get(i)
		if !ok || v != i {
			t.Errorf("key %d missing or wrong value %d", i, v)
		}
	}
}

func TestBasicLRUEvictionOrder(t *testing.T) {
	cache := NewBasicLRU[int, int](2)
	cache.Add(1, 1)
	cache.Add(2, 2)
	cache.Get(1) // 1 is now most recent
	cache.Add(3, 3)

	if cache.Contains(2) {
		t.Error("key 2 should have been evicted")
	}
	if !cache.Contains(1) || !cache.Contains(3) {
		t.Error("keys 1 and 3 should be present")
	}
}

func TestBasicLRURemove(t *testing.T) {
	cache := NewBasicLRU[string, int](4)
	cache.Add("a", 1)
	if !cache.Remove("a") {
		t.Error("Remove returned false for present key")
	}
	if cache.Remove("a") {
		t.Error("Remove returned true for missing key")
	}
	if cache.Len() != 0 {
		t.Errorf("bad len after remove: %v", cache.Len())
	}
}
