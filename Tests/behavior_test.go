/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: behavior_test.go
Description: Tests for the behavioral data model. Covers element geometry and
interactivity helpers, result lookups, and referential integrity validation.
*/

package appmapper_test

import (
	"testing"
	"time"

	"github.com/kleascm/appmapper/pkg/behavior"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUIElementHelpers(t *testing.T) {
	runTest(t, "TestUIElementHelpers", func(t *testing.T) {
		elem := &behavior.UIElement{
			ElementID:    "btn",
			Kind:         behavior.KindButton,
			BoundsLeft:   0.2,
			BoundsTop:    0.4,
			BoundsRight:  0.6,
			BoundsBottom: 0.8,
			Clickable:    true,
			Enabled:      true,
			Visible:      true,
		}

		cx, cy := elem.Center()
		assert.InDelta(t, 0.4, cx, 1e-9)
		assert.InDelta(t, 0.6, cy, 1e-9)
		assert.True(t, elem.Interactive())

		elem.Enabled = false
		assert.False(t, elem.Interactive())
		elem.Enabled = true
		elem.Visible = false
		assert.False(t, elem.Interactive())
		elem.Visible = true
		elem.Clickable = false
		assert.False(t, elem.Interactive())
	})
}

func TestExplorationResultLookups(t *testing.T) {
	runTest(t, "TestExplorationResultLookups", func(t *testing.T) {
		now := time.Now()
		result := &behavior.ExplorationResult{
			RunID:   "run-1",
			Package: "com.test",
			Screens: []*behavior.Screen{
				{ScreenID: "screen_0", ScreenName: "Home", DiscoveredAt: now},
				{ScreenID: "screen_1", ScreenName: "Detail", DiscoveredAt: now},
				{ScreenID: "screen_2", ScreenName: "Settings", DiscoveredAt: now},
			},
			Transitions: []*behavior.StateTransition{
				{TransitionID: "trans_0", FromScreenID: "screen_0", ToScreenID: "screen_1"},
				{TransitionID: "trans_1", FromScreenID: "screen_0", ToScreenID: "screen_2"},
				{TransitionID: "trans_2", FromScreenID: "screen_2", ToScreenID: "screen_0"},
			},
		}

		require.NoError(t, result.Validate())

		assert.Equal(t, "Home", result.Screen("screen_0").ScreenName)
		assert.Nil(t, result.Screen("screen_99"))

		assert.Len(t, result.TransitionsFrom("screen_0"), 2)
		assert.Len(t, result.TransitionsFrom("screen_1"), 0)
		assert.Len(t, result.TransitionsTo("screen_0"), 1)
	})
}

func TestExplorationResultValidation(t *testing.T) {
	runTest(t, "TestExplorationResultValidation", func(t *testing.T) {
		// Dangling transition endpoint
		result := &behavior.ExplorationResult{
			Screens: []*behavior.Screen{{ScreenID: "screen_0"}},
			Transitions: []*behavior.StateTransition{
				{TransitionID: "trans_0", FromScreenID: "screen_0", ToScreenID: "screen_missing"},
			},
		}
		err := result.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "screen_missing")

		// Duplicate screen ids
		result = &behavior.ExplorationResult{
			Screens: []*behavior.Screen{{ScreenID: "screen_0"}, {ScreenID: "screen_0"}},
		}
		err = result.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")

		// Empty result is valid
		assert.NoError(t, (&behavior.ExplorationResult{}).Validate())
	})
}
