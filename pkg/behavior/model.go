/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: model.go
Description: Behavioral data model for UI exploration. Defines UIElement, Screen,
UserAction, StateTransition, and ExplorationResult. These are the canonical records
produced by a live exploration run and consumed by downstream pipeline stages.
*/

package behavior

import (
	"fmt"
	"time"
)

// ActionKind represents the kind of user interaction performed on the UI
type ActionKind string

const (
	ActionTap       ActionKind = "tap"
	ActionLongPress ActionKind = "long_press"
	ActionSwipe     ActionKind = "swipe"
	ActionScroll    ActionKind = "scroll"
	ActionTypeText  ActionKind = "type_text"
	ActionBack      ActionKind = "back"
	ActionHome      ActionKind = "home"
	ActionDeepLink  ActionKind = "deep_link"
)

// ElementKind classifies a widget by its on-screen role
type ElementKind string

const (
	KindButton    ElementKind = "button"
	KindTextField ElementKind = "text_field"
	KindTextView  ElementKind = "text_view"
	KindImage     ElementKind = "image"
	KindList      ElementKind = "list"
	KindCheckbox  ElementKind = "checkbox"
	KindSwitch    ElementKind = "switch"
	KindUnknown   ElementKind = "unknown"
)

// DiscoveryMethod records how a screen entered the model
type DiscoveryMethod string

const (
	DiscoveredDynamic DiscoveryMethod = "dynamic" // observed on a live device
	DiscoveredStatic  DiscoveryMethod = "static"  // synthesized from declared metadata
)

// UIElement is one node in the observed widget tree. Elements form a tree
// (never a graph) and are rebuilt from scratch on every snapshot.
// Bounds are normalized to [0,1] against the reference resolution.
type UIElement struct {
	ElementID          string      `json:"element_id"`
	Kind               ElementKind `json:"kind"`
	ResourceID         string      `json:"resource_id,omitempty"`
	Text               string      `json:"text,omitempty"`
	ContentDescription string      `json:"content_description,omitempty"`
	HintText           string      `json:"hint_text,omitempty"`

	BoundsLeft   float64 `json:"bounds_left"`
	BoundsTop    float64 `json:"bounds_top"`
	BoundsRight  float64 `json:"bounds_right"`
	BoundsBottom float64 `json:"bounds_bottom"`

	Clickable  bool `json:"clickable"`
	Focusable  bool `json:"focusable"`
	Editable   bool `json:"editable"`
	Scrollable bool `json:"scrollable"`
	Enabled    bool `json:"enabled"`
	Visible    bool `json:"visible"`

	Children []*UIElement `json:"children,omitempty"`
}

// Center returns the normalized midpoint of the element's bounding box
func (e *UIElement) Center() (float64, float64) {
	return (e.BoundsLeft + e.BoundsRight) / 2, (e.BoundsTop + e.BoundsBottom) / 2
}

// Interactive reports whether the element can receive a tap right now
func (e *UIElement) Interactive() bool {
	return e.Clickable && e.Visible && e.Enabled
}

// Screen is one distinct observed UI state. The screen id is assigned at
// first sight and never reused; two screens never share a fingerprint.
type Screen struct {
	ScreenID            string          `json:"screen_id"`
	ScreenName          string          `json:"screen_name"`
	ActivityName        string          `json:"activity_name,omitempty"`
	RootElements        []*UIElement    `json:"root_elements,omitempty"`
	InteractiveElements []string        `json:"interactive_elements,omitempty"`
	ScreenshotKey       string          `json:"screenshot_key,omitempty"`
	DiscoveredAt        time.Time       `json:"discovered_at"`
	DiscoveryMethod     DiscoveryMethod `json:"discovery_method"`
}

// UserAction is a single performed interaction, recorded before it is executed
// so a transition observed on the next snapshot can be attributed to it.
type UserAction struct {
	ActionID        string     `json:"action_id"`
	Kind            ActionKind `json:"kind"`
	TargetElementID string     `json:"target_element_id,omitempty"`
	TextInput       string     `json:"text_input,omitempty"`
	SwipeDirection  string     `json:"swipe_direction,omitempty"`
	X               float64    `json:"x,omitempty"` // normalized
	Y               float64    `json:"y,omitempty"` // normalized
	SourceScreenID  string     `json:"source_screen_id"`
	Description     string     `json:"description,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
}

// StateTransition is an edge between two screens attributed to exactly one
// action. The action is held by value so the edge stays valid even if the
// run's action list is discarded.
type StateTransition struct {
	TransitionID string     `json:"transition_id"`
	FromScreenID string     `json:"from_screen_id"`
	ToScreenID   string     `json:"to_screen_id"`
	TriggeredBy  UserAction `json:"triggered_by_action"`
	ObservedAt   time.Time  `json:"observed_at"`
}

// ExplorationResult is the full output of one exploration run, handed to the
// caller by value. A degraded result carries synthesized screens built from
// static metadata and an explicit low-confidence coverage value.
type ExplorationResult struct {
	RunID          string             `json:"run_id"`
	Package        string             `json:"package"`
	Screens        []*Screen          `json:"screens"`
	Transitions    []*StateTransition `json:"transitions"`
	Coverage       float64            `json:"coverage"`
	TotalActions   int                `json:"total_actions"`
	Degraded       bool               `json:"degraded"`
	DegradedReason string             `json:"degraded_reason,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
}

// Screen returns the screen with the given id, or nil
func (r *ExplorationResult) Screen(screenID string) *Screen {
	for _, s := range r.Screens {
		if s.ScreenID == screenID {
			return s
		}
	}
	return nil
}

// TransitionsFrom returns all transitions originating from a screen
func (r *ExplorationResult) TransitionsFrom(screenID string) []*StateTransition {
	var out []*StateTransition
	for _, t := range r.Transitions {
		if t.FromScreenID == screenID {
			out = append(out, t)
		}
	}
	return out
}

// TransitionsTo returns all transitions leading to a screen
func (r *ExplorationResult) TransitionsTo(screenID string) []*StateTransition {
	var out []*StateTransition
	for _, t := range r.Transitions {
		if t.ToScreenID == screenID {
			out = append(out, t)
		}
	}
	return out
}

// Validate checks referential integrity: every transition endpoint must name
// a screen present in the result, and screen ids must be unique.
func (r *ExplorationResult) Validate() error {
	seen := make(map[string]bool, len(r.Screens))
	for _, s := range r.Screens {
		if seen[s.ScreenID] {
			return fmt.Errorf("duplicate screen id: %s", s.ScreenID)
		}
		seen[s.ScreenID] = true
	}
	for _, t := range r.Transitions {
		if !seen[t.FromScreenID] {
			return fmt.Errorf("transition %s references unknown from-screen %s", t.TransitionID, t.FromScreenID)
		}
		if !seen[t.ToScreenID] {
			return fmt.Errorf("transition %s references unknown to-screen %s", t.TransitionID, t.ToScreenID)
		}
	}
	return nil
}
