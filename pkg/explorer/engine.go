/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: engine.go
Description: The exploration engine. Drives a device channel through a bounded step
loop, fingerprinting each UI snapshot to discover distinct screens, linking
transitions to the actions that triggered them, and recovering from step failures
with back navigation. Falls back to a degraded static-metadata result when the
channel cannot be established.
*/

package explorer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/appmapper/pkg/behavior"
	"github.com/kleascm/appmapper/pkg/device"
	"github.com/kleascm/appmapper/pkg/storage"
	"github.com/kleascm/appmapper/pkg/uitree"
	"github.com/sirupsen/logrus"
)

// degradedCoverage is reported when no live exploration happened and the
// result is synthesized from static metadata alone.
const degradedCoverage = 0.3

// Engine runs one exploration at a time. Each instance owns its visited-state
// set, so independent engines can explore different devices concurrently.
type Engine struct {
	channel device.Channel
	policy  TargetPolicy
	config  *Config
	logger  *logrus.Logger
	store   storage.Backend

	visited         map[string]string // fingerprint -> screen id
	screens         []*behavior.Screen
	transitions     []*behavior.StateTransition
	actions         []behavior.UserAction
	actionCount     int
	currentScreenID string
}

// NewEngine creates an engine bound to one channel
func NewEngine(channel device.Channel, config *Config, logger *logrus.Logger) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		channel: channel,
		policy:  NewRandomPolicy(0),
		config:  config,
		logger:  logger,
	}
}

// SetPolicy replaces the target selection policy
func (e *Engine) SetPolicy(p TargetPolicy) {
	if p != nil {
		e.policy = p
	}
}

// SetStore attaches an artifact store for screenshot capture
func (e *Engine) SetStore(s storage.Backend) { e.store = s }

// Run executes one exploration and always returns a result: a live one, or a
// degraded one when the channel never became available. The channel is torn
// down exactly once on every path out of this function.
func (e *Engine) Run(ctx context.Context, req Request) (*behavior.ExplorationResult, error) {
	started := time.Now()
	runID := uuid.New().String()

	e.visited = make(map[string]string)
	e.screens = nil
	e.transitions = nil
	e.actions = nil
	e.actionCount = 0
	e.currentScreenID = ""

	e.logger.WithFields(logrus.Fields{
		"run_id":  runID,
		"package": req.Package,
		"policy":  e.policy.Name(),
		"steps":   e.config.StepBudget(),
	}).Info("Starting UI exploration")

	// Registered before Start: a failed boot can leave a live emulator process
	// behind, and Stop is the only thing that reaps it.
	defer func() { _ = e.channel.Stop() }()

	if err := e.channel.Start(ctx); err != nil {
		e.logger.WithError(err).Warn("Device channel unavailable, synthesizing degraded result")
		return e.degradedResult(runID, req, started,
			fmt.Sprintf("device channel unavailable: %v", err)), nil
	}

	if req.APKPath != "" {
		if err := e.channel.Install(ctx, req.APKPath); err != nil {
			e.logger.WithError(err).Warn("Install failed, synthesizing degraded result")
			return e.degradedResult(runID, req, started,
				fmt.Sprintf("install failed: %v", err)), nil
		}
	}
	if err := e.channel.Launch(ctx, req.Package, req.Component); err != nil {
		e.logger.WithError(err).Warn("Launch failed, synthesizing degraded result")
		return e.degradedResult(runID, req, started,
			fmt.Sprintf("launch failed: %v", err)), nil
	}
	// Give the app time to draw its first frame before the first snapshot
	if e.config.SettleDelay > 0 {
		time.Sleep(2 * e.config.SettleDelay)
	}

	maxSteps := e.config.StepBudget()
	var deadline time.Time
	if e.config.TimeBudget > 0 {
		deadline = started.Add(e.config.TimeBudget)
	}

	for step := 0; step < maxSteps; step++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			e.logger.WithField("step", step).Info("Time budget exhausted")
			break
		}
		if ctx.Err() != nil {
			break
		}
		if err := e.step(ctx); err != nil {
			e.logger.WithError(err).WithField("step", step).
				Warn("Exploration step failed, recovering with back navigation")
			_ = e.channel.PressBack(ctx)
			e.settle()
		}
	}

	result := &behavior.ExplorationResult{
		RunID:        runID,
		Package:      req.Package,
		Screens:      e.screens,
		Transitions:  e.transitions,
		Coverage:     estimateCoverage(len(e.screens), len(req.Activities)),
		TotalActions: e.actionCount,
		StartedAt:    started,
		FinishedAt:   time.Now(),
	}

	e.logger.WithFields(logrus.Fields{
		"run_id":      runID,
		"screens":     len(result.Screens),
		"transitions": len(result.Transitions),
		"actions":     result.TotalActions,
		"coverage":    result.Coverage,
	}).Info("Exploration completed")

	return result, nil
}

// step performs one snapshot/decide/act cycle. Any returned error is handled
// by the caller's recovery branch and never aborts the run.
func (e *Engine) step(ctx context.Context) error {
	raw, err := e.channel.DumpUITree(ctx)
	if err != nil {
		return err
	}
	activity, err := e.channel.CurrentForegroundID(ctx)
	if err != nil {
		return err
	}

	elements, perr := uitree.Parse(raw)
	if perr != nil {
		// A malformed dump counts as an empty snapshot, which routes into the
		// fallback scroll below instead of crashing the step.
		e.logger.WithError(perr).Debug("UI hierarchy unparseable, treating snapshot as empty")
		elements = nil
	}
	fingerprint := uitree.Fingerprint(elements)

	screenID, seen := e.visited[fingerprint]
	if !seen {
		screenID = e.registerScreen(ctx, fingerprint, activity, elements)
	}
	e.currentScreenID = screenID

	clickable := uitree.Clickable(elements)
	var target *behavior.UIElement
	if len(clickable) > 0 {
		target = e.policy.Choose(clickable, e.actions)
	}
	if target == nil {
		// Nothing to tap: scroll down and move on without recording an action
		if err := e.channel.Swipe(ctx, uitree.RefWidth/2, 1500, uitree.RefWidth/2, 500, 300); err != nil {
			return err
		}
		e.settle()
		return nil
	}

	cx, cy := target.Center()
	x := int(cx * uitree.RefWidth)
	y := int(cy * uitree.RefHeight)

	// Recorded before the tap so a transition observed on the next snapshot
	// can be attributed even if the tap itself fails.
	action := behavior.UserAction{
		ActionID:        fmt.Sprintf("action_%d", e.actionCount),
		Kind:            behavior.ActionTap,
		TargetElementID: target.ElementID,
		X:               cx,
		Y:               cy,
		SourceScreenID:  e.currentScreenID,
		Description:     describeTap(target),
		Timestamp:       time.Now(),
	}
	e.actions = append(e.actions, action)
	e.actionCount++

	if err := e.channel.Tap(ctx, x, y); err != nil {
		return err
	}
	e.settle()
	return nil
}

// registerScreen records a first-seen fingerprint as a new screen and links a
// transition from the previous screen via the last performed action.
func (e *Engine) registerScreen(ctx context.Context, fingerprint, activity string, elements []*behavior.UIElement) string {
	now := time.Now()
	screenID := fmt.Sprintf("screen_%d", len(e.screens))

	clickable := uitree.Clickable(elements)
	interactive := make([]string, 0, len(clickable))
	for _, c := range clickable {
		interactive = append(interactive, c.ElementID)
	}

	screen := &behavior.Screen{
		ScreenID:            screenID,
		ScreenName:          screenName(activity, len(e.screens)),
		ActivityName:        activity,
		RootElements:        elements,
		InteractiveElements: interactive,
		DiscoveredAt:        now,
		DiscoveryMethod:     behavior.DiscoveredDynamic,
	}

	if e.config.CaptureScreenshots && e.store != nil {
		if png, err := e.channel.Screenshot(ctx); err == nil {
			key := fmt.Sprintf("screens/%s.png", screenID)
			if stored, serr := e.store.StoreBytes(key, png, map[string]interface{}{"screen_id": screenID}); serr == nil {
				screen.ScreenshotKey = stored
			}
		} else {
			e.logger.WithError(err).Debug("Screenshot capture failed")
		}
	}

	e.screens = append(e.screens, screen)
	e.visited[fingerprint] = screenID

	e.logger.WithFields(logrus.Fields{
		"screen_id": screenID,
		"activity":  activity,
	}).Info("New screen discovered")

	if e.currentScreenID != "" && len(e.actions) > 0 {
		last := e.actions[len(e.actions)-1]
		transition := &behavior.StateTransition{
			TransitionID: fmt.Sprintf("trans_%d", len(e.transitions)),
			FromScreenID: e.currentScreenID,
			ToScreenID:   screenID,
			TriggeredBy:  last,
			ObservedAt:   now,
		}
		e.transitions = append(e.transitions, transition)
		e.logger.WithFields(logrus.Fields{
			"from":   transition.FromScreenID,
			"to":     transition.ToScreenID,
			"action": last.ActionID,
		}).Debug("Transition recorded")
	}

	return screenID
}

// degradedResult synthesizes one screen per declared entry point with linear,
// unverified transitions. Partial behavioral signal beats no signal.
func (e *Engine) degradedResult(runID string, req Request, started time.Time, reason string) *behavior.ExplorationResult {
	now := time.Now()

	screens := make([]*behavior.Screen, 0, len(req.Activities))
	for i, activity := range req.Activities {
		screens = append(screens, &behavior.Screen{
			ScreenID:        fmt.Sprintf("screen_%d", i),
			ScreenName:      simpleName(activity),
			ActivityName:    activity,
			DiscoveredAt:    now,
			DiscoveryMethod: behavior.DiscoveredStatic,
		})
	}

	var transitions []*behavior.StateTransition
	for i := 0; i+1 < len(screens); i++ {
		action := behavior.UserAction{
			ActionID:       fmt.Sprintf("action_%d", i),
			Kind:           behavior.ActionTap,
			SourceScreenID: screens[i].ScreenID,
			Description:    fmt.Sprintf("Navigate from %s", screens[i].ScreenName),
			Timestamp:      now,
		}
		transitions = append(transitions, &behavior.StateTransition{
			TransitionID: fmt.Sprintf("trans_%d", i),
			FromScreenID: screens[i].ScreenID,
			ToScreenID:   screens[i+1].ScreenID,
			TriggeredBy:  action,
			ObservedAt:   now,
		})
	}

	return &behavior.ExplorationResult{
		RunID:          runID,
		Package:        req.Package,
		Screens:        screens,
		Transitions:    transitions,
		Coverage:       degradedCoverage,
		TotalActions:   len(transitions),
		Degraded:       true,
		DegradedReason: reason,
		StartedAt:      started,
		FinishedAt:     now,
	}
}

func (e *Engine) settle() {
	if e.config.SettleDelay > 0 {
		time.Sleep(e.config.SettleDelay)
	}
}

// estimateCoverage is the heuristic ratio of discovered screens to declared
// entry points, clamped to 1.0.
func estimateCoverage(screens, entryPoints int) float64 {
	if entryPoints < 1 {
		entryPoints = 1
	}
	coverage := float64(screens) / float64(entryPoints)
	if coverage > 1.0 {
		return 1.0
	}
	return coverage
}

// screenName derives a readable name from the foreground identifier
func screenName(activity string, index int) string {
	if activity == "" {
		return fmt.Sprintf("Screen %d", index)
	}
	if i := strings.LastIndex(activity, "/"); i >= 0 {
		return activity[i+1:]
	}
	return activity
}

// simpleName strips the package prefix from a fully qualified activity
func simpleName(activity string) string {
	if i := strings.LastIndex(activity, "."); i >= 0 {
		return activity[i+1:]
	}
	return activity
}

func describeTap(target *behavior.UIElement) string {
	label := target.Text
	if label == "" {
		label = target.ResourceID
	}
	if label == "" {
		label = "element"
	}
	return fmt.Sprintf("Tap on %s", label)
}
