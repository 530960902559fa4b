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

package ir

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Pattern is one rewrite: Match selects the ops it fires on, Rewrite mutates
// the IR through the builder. A Rewrite may erase the matched op and touch its
// surroundings, but must make progress: ApplyPatterns re-runs the patterns
// until none fires.
type Pattern interface {
	Name() string
	Match(op *Op) bool
	Rewrite(b *Builder, op *Op) error
}

// maxRewriteRounds bounds ApplyPatterns against non-converging patterns.
const maxRewriteRounds = 1000

// ApplyPatterns runs the patterns over the function to a fixed point and
// returns the total number of rewrites applied.
func ApplyPatterns(b *Builder, f *Func, patterns ...Pattern) (int, error) {
	total := 0
	for round := 0; ; round++ {
		if round >= maxRewriteRounds {
			return total, errors.Errorf("ir.ApplyPatterns: no fixed point after %d rounds in func %q", maxRewriteRounds, f.Name)
		}
		applied := 0
		err := WalkOps(f.Body, func(op *Op) error {
			if op.parent == nil { // Erased by an earlier rewrite this round.
				return nil
			}
			for _, p := range patterns {
				if !p.Match(op) {
					continue
				}
				klog.V(2).Infof("rewrite %q fires on %s", p.Name(), op)
				if err := p.Rewrite(b, op); err != nil {
					return errors.WithMessagef(err, "pattern %q on op %s", p.Name(), op)
				}
				applied++
				break
			}
			return nil
		})
		if err != nil {
			return total, err
		}
		total += applied
		if applied == 0 {
			return total, nil
		}
	}
}
