/*
 *	Copyright 2024 The Accera Go Authors
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package xslices provides missing functionality to the standard slices package.
package xslices

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// At takes an element at the given `index`, where `index` can be negative, in which
// case it takes from the end of the slice.
func At[T any](slice []T, index int) T {
	if index < 0 {
		index = len(slice) + index
	}
	return slice[index]
}

// Last returns the last element of the slice.
func Last[T any](slice []T) T {
	return slice[len(slice)-1]
}

// Copy creates a new copy of the given slice. It always creates a new slice, even
// if the input is nil or empty.
func Copy[T any](slice []T) []T {
	slice2 := make([]T, len(slice))
	copy(slice2, slice)
	return slice2
}

// Keys returns the keys of a map in the form of a slice.
func Keys[K comparable, V any](m map[K]V) []K {
	s := make([]K, 0, len(m))
	for k := range m {
		s = append(s, k)
	}
	return s
}

// SortedKeys returns the sorted keys of a map in the form of a slice.
func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	s := Keys(m)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s
}

// Map executes the given function sequentially for every element on in, and returns
// a mapped slice.
func Map[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}

// Pop removes the last element of the slice and returns it. It returns the popped
// element and the resulting shortened slice.
func Pop[T any](slice []T) (T, []T) {
	last := Last(slice)
	return last, slice[:len(slice)-1]
}

// IndexOf returns the position of the first element equal to value, or -1 if
// the value is not in the slice.
func IndexOf[T comparable](slice []T, value T) int {
	for ii, e := range slice {
		if e == value {
			return ii
		}
	}
	return -1
}

// Prod returns the product of the elements of the slice. The product of an empty
// slice is 1.
func Prod[T constraints.Integer](slice []T) T {
	p := T(1)
	for _, e := range slice {
		p *= e
	}
	return p
}

// IsPermutation reports whether perm holds each value in [0, len(perm)) exactly once.
func IsPermutation(perm []int) bool {
	seen := make([]bool, len(perm))
	for _, p := range perm {
		if p < 0 || p >= len(perm) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

// InversePermutation returns the permutation that undoes perm.
// It assumes IsPermutation(perm); results are undefined otherwise.
func InversePermutation(perm []int) []int {
	inv := make([]int, len(perm))
	for ii, p := range perm {
		inv[p] = ii
	}
	return inv
}
