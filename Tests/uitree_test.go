/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: uitree_test.go
Description: Tests for the UI hierarchy parser and screen fingerprinting. Covers
bounds normalization, element id fallback, kind classification, clickable
collection order, malformed document handling, and fingerprint stability and
sensitivity.
*/

package appmapper_test

import (
	"strings"
	"testing"

	"github.com/kleascm/appmapper/pkg/behavior"
	"github.com/kleascm/appmapper/pkg/uitree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHierarchy = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <node resource-id="com.test:id/root" class="android.widget.FrameLayout" bounds="[0,0][1080,1920]" clickable="false" enabled="true" text="">
    <node resource-id="com.test:id/title" class="android.widget.TextView" bounds="[0,0][1080,200]" clickable="false" enabled="true" text="Welcome"/>
    <node resource-id="com.test:id/login" class="android.widget.Button" bounds="[100,300][980,450]" clickable="true" enabled="true" text="Log In"/>
    <node resource-id="com.test:id/username" class="android.widget.EditText" bounds="[100,500][980,600]" clickable="true" enabled="true" text=""/>
    <node class="android.widget.ImageView" bounds="[400,700][680,980]" clickable="true" enabled="true" text=""/>
  </node>
</hierarchy>`

func TestParseHierarchy(t *testing.T) {
	runTest(t, "TestParseHierarchy", func(t *testing.T) {
		roots, err := uitree.Parse(sampleHierarchy)
		require.NoError(t, err)
		require.Len(t, roots, 1)

		root := roots[0]
		assert.Equal(t, "com.test:id/root", root.ElementID)
		assert.Len(t, root.Children, 4)

		// Bounds normalized against the reference resolution
		assert.InDelta(t, 0.0, root.BoundsLeft, 1e-9)
		assert.InDelta(t, 1.0, root.BoundsRight, 1e-9)
		assert.InDelta(t, 1.0, root.BoundsBottom, 1e-9)

		login := root.Children[1]
		assert.Equal(t, behavior.KindButton, login.Kind)
		assert.Equal(t, "Log In", login.Text)
		assert.True(t, login.Clickable)
		assert.True(t, login.Visible)
		cx, cy := login.Center()
		assert.InDelta(t, 540.0/1080.0, cx, 1e-9)
		assert.InDelta(t, 375.0/1920.0, cy, 1e-9)

		username := root.Children[2]
		assert.Equal(t, behavior.KindTextField, username.Kind)
		assert.True(t, username.Editable)

		// No resource id: positional fallback in document order
		image := root.Children[3]
		assert.Equal(t, "elem_4", image.ElementID)
		assert.Equal(t, behavior.KindImage, image.Kind)
	})
}

func TestParseMalformedHierarchy(t *testing.T) {
	runTest(t, "TestParseMalformedHierarchy", func(t *testing.T) {
		// Truncated document
		_, err := uitree.Parse(`<hierarchy><node bounds="[0,0][10,10]"`)
		require.Error(t, err)
		var perr *uitree.ParseError
		assert.ErrorAs(t, err, &perr)

		// Valid XML but no hierarchy root
		_, err = uitree.Parse(`<something><node bounds="[0,0][10,10]"/></something>`)
		require.Error(t, err)
		assert.ErrorAs(t, err, &perr)

		// Empty hierarchy parses to an empty forest
		roots, err := uitree.Parse(`<hierarchy rotation="0"></hierarchy>`)
		require.NoError(t, err)
		assert.Empty(t, roots)
	})
}

func TestParseSkipsUnparseableBounds(t *testing.T) {
	runTest(t, "TestParseSkipsUnparseableBounds", func(t *testing.T) {
		raw := `<hierarchy>
  <node resource-id="a" class="android.widget.FrameLayout" bounds="[0,0][1080,1920]" clickable="false" enabled="true">
    <node resource-id="broken" class="android.widget.LinearLayout" bounds="garbage" clickable="false" enabled="true">
      <node resource-id="b" class="android.widget.Button" bounds="[0,0][100,100]" clickable="true" enabled="true" text="Go"/>
    </node>
  </node>
</hierarchy>`
		roots, err := uitree.Parse(raw)
		require.NoError(t, err)
		require.Len(t, roots, 1)

		// The broken node is dropped, its child re-parents to the survivor
		require.Len(t, roots[0].Children, 1)
		assert.Equal(t, "b", roots[0].Children[0].ElementID)
	})
}

func TestParseDefaultsMissingBounds(t *testing.T) {
	runTest(t, "TestParseDefaultsMissingBounds", func(t *testing.T) {
		raw := `<hierarchy>
  <node resource-id="a" class="android.widget.FrameLayout" bounds="[0,0][1080,1920]" clickable="false" enabled="true">
    <node resource-id="unbounded" class="android.widget.TextView" clickable="false" enabled="true" text="floating"/>
  </node>
</hierarchy>`
		roots, err := uitree.Parse(raw)
		require.NoError(t, err)
		require.Len(t, roots, 1)

		// Absent bounds default to a zero rectangle; the node is kept
		require.Len(t, roots[0].Children, 1)
		unbounded := roots[0].Children[0]
		assert.Equal(t, "unbounded", unbounded.ElementID)
		assert.InDelta(t, 0.0, unbounded.BoundsLeft, 1e-9)
		assert.InDelta(t, 0.0, unbounded.BoundsRight, 1e-9)
		assert.InDelta(t, 0.0, unbounded.BoundsBottom, 1e-9)

		// And it still contributes to the fingerprint
		withNode := uitree.Fingerprint(roots)
		bare, err := uitree.Parse(`<hierarchy>
  <node resource-id="a" class="android.widget.FrameLayout" bounds="[0,0][1080,1920]" clickable="false" enabled="true"/>
</hierarchy>`)
		require.NoError(t, err)
		assert.NotEqual(t, uitree.Fingerprint(bare), withNode)
	})
}

func TestClickableCollection(t *testing.T) {
	runTest(t, "TestClickableCollection", func(t *testing.T) {
		roots, err := uitree.Parse(sampleHierarchy)
		require.NoError(t, err)

		clickable := uitree.Clickable(roots)
		require.Len(t, clickable, 3)
		// Document order preserved
		assert.Equal(t, "com.test:id/login", clickable[0].ElementID)
		assert.Equal(t, "com.test:id/username", clickable[1].ElementID)
		assert.Equal(t, "elem_4", clickable[2].ElementID)

		// Disabled elements are not interactive
		roots[0].Children[1].Enabled = false
		assert.Len(t, uitree.Clickable(roots), 2)

		// Empty forest yields no candidates
		assert.Empty(t, uitree.Clickable(nil))
	})
}

func TestFingerprintStability(t *testing.T) {
	runTest(t, "TestFingerprintStability", func(t *testing.T) {
		roots, err := uitree.Parse(sampleHierarchy)
		require.NoError(t, err)

		fp1 := uitree.Fingerprint(roots)
		fp2 := uitree.Fingerprint(roots)
		assert.Equal(t, fp1, fp2)
		assert.Len(t, fp1, 64) // hex-encoded sha256

		// Re-parsing the same document gives the same fingerprint
		again, err := uitree.Parse(sampleHierarchy)
		require.NoError(t, err)
		assert.Equal(t, fp1, uitree.Fingerprint(again))
	})
}

func TestFingerprintOrderInsensitive(t *testing.T) {
	runTest(t, "TestFingerprintOrderInsensitive", func(t *testing.T) {
		a := &behavior.UIElement{ElementID: "one", Text: "first"}
		b := &behavior.UIElement{ElementID: "two", Text: "second"}

		fpAB := uitree.Fingerprint([]*behavior.UIElement{a, b})
		fpBA := uitree.Fingerprint([]*behavior.UIElement{b, a})
		assert.Equal(t, fpAB, fpBA)
	})
}

func TestFingerprintSensitivity(t *testing.T) {
	runTest(t, "TestFingerprintSensitivity", func(t *testing.T) {
		base := []*behavior.UIElement{{ElementID: "field", Text: "hello"}}
		fpBase := uitree.Fingerprint(base)

		// Text change within the prefix changes the fingerprint
		changed := []*behavior.UIElement{{ElementID: "field", Text: "world"}}
		assert.NotEqual(t, fpBase, uitree.Fingerprint(changed))

		// Element set change changes the fingerprint
		extra := []*behavior.UIElement{
			{ElementID: "field", Text: "hello"},
			{ElementID: "other"},
		}
		assert.NotEqual(t, fpBase, uitree.Fingerprint(extra))

		// Text differences beyond the prefix do not change the fingerprint
		long1 := []*behavior.UIElement{{ElementID: "field", Text: strings.Repeat("x", 20) + "tail-one"}}
		long2 := []*behavior.UIElement{{ElementID: "field", Text: strings.Repeat("x", 20) + "tail-two"}}
		assert.Equal(t, uitree.Fingerprint(long1), uitree.Fingerprint(long2))
	})
}

func TestFingerprintEmptyForest(t *testing.T) {
	runTest(t, "TestFingerprintEmptyForest", func(t *testing.T) {
		// An empty snapshot has a valid, stable fingerprint so a blank screen
		// is still one distinct state
		fp1 := uitree.Fingerprint(nil)
		fp2 := uitree.Fingerprint([]*behavior.UIElement{})
		assert.Equal(t, fp1, fp2)
		assert.Len(t, fp1, 64)
	})
}
