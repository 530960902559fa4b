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

// Package scoped provides Stack, a per-key stack of scoped values with enforced
// balance: every Enter must be matched by exactly one release of the returned
// Token, and the stack can report the keys whose scopes were left open.
//
// It backs the active-cache-mapping stack of the lowering pass: each base array
// is a key, each cache-mapping region pushes a value on entry and pops it on the
// matching region end.
package scoped

import (
	"github.com/pkg/errors"
)

// Stack keeps one stack of values of type V per key of type K.
//
// The zero Stack is not usable, create it with New.
type Stack[K comparable, V any] struct {
	stacks map[K][]entry[V]
	nextID int
}

type entry[V any] struct {
	value V
	id    int
}

// Token is returned by Enter and must be released exactly once, in LIFO order
// relative to other tokens of the same key.
type Token struct {
	id int
}

// New creates an empty Stack.
func New[K comparable, V any]() *Stack[K, V] {
	return &Stack[K, V]{stacks: make(map[K][]entry[V])}
}

// Enter pushes value on the stack of the given key and returns the Token that
// releases it.
func (s *Stack[K, V]) Enter(key K, value V) Token {
	s.nextID++
	s.stacks[key] = append(s.stacks[key], entry[V]{value: value, id: s.nextID})
	return Token{id: s.nextID}
}

// Release pops the top of the stack of the given key. The token must be the one
// returned by the matching Enter; releasing out of order or twice is an error.
func (s *Stack[K, V]) Release(key K, token Token) error {
	stack := s.stacks[key]
	if len(stack) == 0 {
		return errors.Errorf("scoped.Stack: release without a matching enter")
	}
	top := stack[len(stack)-1]
	if top.id != token.id {
		return errors.Errorf("scoped.Stack: release out of order: expected scope #%d on top, got #%d", token.id, top.id)
	}
	if len(stack) == 1 {
		delete(s.stacks, key)
	} else {
		s.stacks[key] = stack[:len(stack)-1]
	}
	return nil
}

// Top returns the innermost value for the given key, if any.
func (s *Stack[K, V]) Top(key K) (value V, found bool) {
	stack := s.stacks[key]
	if len(stack) == 0 {
		return
	}
	return stack[len(stack)-1].value, true
}

// Depth returns how many scopes are currently open for the given key.
func (s *Stack[K, V]) Depth(key K) int {
	return len(s.stacks[key])
}

// OpenKeys returns the keys that still have open scopes. An empty result means
// the stack is balanced.
func (s *Stack[K, V]) OpenKeys() []K {
	keys := make([]K, 0, len(s.stacks))
	for k := range s.stacks {
		keys = append(keys, k)
	}
	return keys
}
