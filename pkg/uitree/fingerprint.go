/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: fingerprint.go
Description: State fingerprinting for UI snapshots. Derives a stable hash from the
sorted multiset of (element id, text prefix) pairs so revisited screens are
recognized regardless of the traversal order the device reports nodes in.
*/

package uitree

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/kleascm/appmapper/pkg/behavior"
)

// TextPrefixLen bounds how much element text contributes to a fingerprint.
// Long scrolling text (timestamps, counters) past this prefix does not force
// a new state.
const TextPrefixLen = 20

// Fingerprint hashes a UIElement forest into a state identity. Pairs are
// sorted before hashing, making the result insensitive to sibling order but
// sensitive to any change in element identity or text content. An empty
// forest has a valid, stable fingerprint.
func Fingerprint(roots []*behavior.UIElement) string {
	parts := collectPairs(roots)
	sort.Strings(parts)

	h := sha256.New()
	h.Write([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}

// collectPairs gathers "id:textPrefix" for every element in document order
func collectPairs(roots []*behavior.UIElement) []string {
	var parts []string
	stack := make([]*behavior.UIElement, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		elem := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		parts = append(parts, fmt.Sprintf("%s:%s", elem.ElementID, textPrefix(elem.Text)))
		for i := len(elem.Children) - 1; i >= 0; i-- {
			stack = append(stack, elem.Children[i])
		}
	}
	return parts
}

func textPrefix(text string) string {
	runes := []rune(text)
	if len(runes) > TextPrefixLen {
		return string(runes[:TextPrefixLen])
	}
	return text
}
