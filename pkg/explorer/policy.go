/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: policy.go
Description: Built-in target selection policies. RandomPolicy reproduces uniform
random selection (seedable for reproducible runs); FrontierPolicy prefers elements
that have not been tapped yet in this run, falling back to random among visited ones.
*/

package explorer

import (
	"math/rand"
	"time"

	"github.com/kleascm/appmapper/pkg/behavior"
)

// RandomPolicy selects a candidate uniformly at random
type RandomPolicy struct {
	rng *rand.Rand
}

// NewRandomPolicy creates a random policy. A zero seed derives one from the
// clock; any other value makes the selection sequence reproducible.
func NewRandomPolicy(seed int64) *RandomPolicy {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomPolicy{rng: rand.New(rand.NewSource(seed))}
}

func (p *RandomPolicy) Choose(candidates []*behavior.UIElement, _ []behavior.UserAction) *behavior.UIElement {
	if len(candidates) == 0 {
		return nil
	}
	return candidates[p.rng.Intn(len(candidates))]
}

func (p *RandomPolicy) Name() string { return "random" }

// FrontierPolicy prefers candidates whose element id has never been the
// target of a recorded action, widening coverage before revisiting.
type FrontierPolicy struct {
	fallback *RandomPolicy
}

// NewFrontierPolicy creates a frontier-first policy with a seeded random
// fallback for fully visited screens.
func NewFrontierPolicy(seed int64) *FrontierPolicy {
	return &FrontierPolicy{fallback: NewRandomPolicy(seed)}
}

func (p *FrontierPolicy) Choose(candidates []*behavior.UIElement, history []behavior.UserAction) *behavior.UIElement {
	if len(candidates) == 0 {
		return nil
	}
	tapped := make(map[string]bool, len(history))
	for _, a := range history {
		if a.TargetElementID != "" {
			tapped[a.TargetElementID] = true
		}
	}
	for _, c := range candidates {
		if !tapped[c.ElementID] {
			return c
		}
	}
	return p.fallback.Choose(candidates, history)
}

func (p *FrontierPolicy) Name() string { return "frontier" }
