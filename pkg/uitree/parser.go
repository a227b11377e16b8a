/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: parser.go
Description: Translation layer between the raw uiautomator hierarchy dump and the
behavioral data model. Parses the XML document into a UIElement forest, normalizes
pixel bounds against the reference resolution, and classifies widget kinds from
Android class names. All string/response parsing for UI trees lives here.
*/

package uitree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/kleascm/appmapper/pkg/behavior"
)

// Reference resolution used to normalize element bounds and to scale
// normalized coordinates back to device pixels for input injection.
const (
	RefWidth  = 1080
	RefHeight = 1920
)

var boundsPattern = regexp.MustCompile(`\[(\d+),(\d+)\]\[(\d+),(\d+)\]`)

// ParseError indicates a malformed hierarchy document. Callers treat it as
// "no elements observed this step" rather than a fatal condition.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed UI hierarchy: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse converts a uiautomator XML dump into a UIElement forest. Elements get
// their resource id as element id, or a positional fallback in document order.
// The walk is driven by the decoder's token stream with an explicit parent
// stack, so arbitrarily deep trees cannot exhaust the goroutine stack.
func Parse(raw string) ([]*behavior.UIElement, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))

	var roots []*behavior.UIElement
	var stack []*behavior.UIElement
	index := 0
	sawHierarchy := false

	for {
		tok, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &ParseError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "hierarchy":
				sawHierarchy = true
			case "node":
				elem, ok := nodeToElement(t, index)
				if !ok {
					// Unparseable bounds: skip the node but keep descending,
					// the decoder still tracks its end tag via the stack.
					stack = append(stack, nil)
					continue
				}
				index++
				if parent := topOf(stack); parent != nil {
					parent.Children = append(parent.Children, elem)
				} else if len(stack) == 0 {
					roots = append(roots, elem)
				}
				stack = append(stack, elem)
			}
		case xml.EndElement:
			if t.Name.Local == "node" && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !sawHierarchy {
		return nil, &ParseError{Err: fmt.Errorf("missing <hierarchy> root element")}
	}
	return roots, nil
}

// nodeToElement builds a UIElement from a <node> start tag. Returns false when
// a present bounds attribute cannot be parsed; an absent one defaults to zero.
func nodeToElement(start xml.StartElement, index int) (*behavior.UIElement, bool) {
	attrs := make(map[string]string, len(start.Attr))
	for _, a := range start.Attr {
		attrs[a.Name.Local] = a.Value
	}

	var x1, y1, x2, y2 int
	if bounds := attrs["bounds"]; bounds != "" {
		// A present but malformed bounds attribute drops the node; an absent
		// one defaults to [0,0][0,0] so the element still contributes to the
		// fingerprint.
		match := boundsPattern.FindStringSubmatch(bounds)
		if match == nil {
			return nil, false
		}
		x1, _ = strconv.Atoi(match[1])
		y1, _ = strconv.Atoi(match[2])
		x2, _ = strconv.Atoi(match[3])
		y2, _ = strconv.Atoi(match[4])
	}

	resourceID := attrs["resource-id"]
	className := attrs["class"]
	classLower := strings.ToLower(className)

	elementID := resourceID
	if elementID == "" {
		elementID = fmt.Sprintf("elem_%d", index)
	}

	return &behavior.UIElement{
		ElementID:          elementID,
		Kind:               classifyKind(classLower),
		ResourceID:         resourceID,
		Text:               attrs["text"],
		ContentDescription: attrs["content-desc"],
		BoundsLeft:         float64(x1) / RefWidth,
		BoundsTop:          float64(y1) / RefHeight,
		BoundsRight:        float64(x2) / RefWidth,
		BoundsBottom:       float64(y2) / RefHeight,
		Clickable:          attrs["clickable"] == "true",
		Focusable:          attrs["focusable"] == "true",
		Editable:           strings.Contains(classLower, "edittext"),
		Scrollable:         attrs["scrollable"] == "true",
		Enabled:            attrs["enabled"] == "true",
		// uiautomator only serializes nodes that are attached and drawn
		Visible: true,
	}, true
}

// classifyKind maps an Android widget class name to an element kind
func classifyKind(classLower string) behavior.ElementKind {
	switch {
	case strings.Contains(classLower, "checkbox"):
		return behavior.KindCheckbox
	case strings.Contains(classLower, "switch"):
		return behavior.KindSwitch
	case strings.Contains(classLower, "button"):
		return behavior.KindButton
	case strings.Contains(classLower, "edittext"):
		return behavior.KindTextField
	case strings.Contains(classLower, "textview"):
		return behavior.KindTextView
	case strings.Contains(classLower, "imageview"):
		return behavior.KindImage
	case strings.Contains(classLower, "recyclerview"), strings.Contains(classLower, "listview"):
		return behavior.KindList
	default:
		return behavior.KindUnknown
	}
}

// topOf returns the deepest non-skipped element on the stack, or nil. Skipped
// nodes (unparseable bounds) are represented as nil entries; their children
// re-parent to the nearest surviving ancestor.
func topOf(stack []*behavior.UIElement) *behavior.UIElement {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] != nil {
			return stack[i]
		}
	}
	return nil
}

// Clickable collects every clickable, visible, enabled element from the
// forest in document order. Iterative traversal, same reasoning as Parse.
func Clickable(roots []*behavior.UIElement) []*behavior.UIElement {
	var out []*behavior.UIElement
	stack := make([]*behavior.UIElement, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		elem := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if elem.Interactive() {
			out = append(out, elem)
		}
		for i := len(elem.Children) - 1; i >= 0; i-- {
			stack = append(stack, elem.Children[i])
		}
	}
	return out
}
