/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Core interfaces for device control. Defines the Channel abstraction over
a single device/emulator process (install/launch/input/inspect commands), the session
lifecycle states, and the channel configuration. One method per device command; all
blocking calls take a context and are bounded by a per-command timeout.
*/

package device

import (
	"context"
	"fmt"
	"time"
)

// State is the lifecycle state of a channel session
type State string

const (
	StateNotStarted State = "not_started"
	StateStarting   State = "starting"
	StateReady      State = "ready"
	StateFailed     State = "failed"
	StateStopped    State = "stopped"
)

// Channel abstracts one device/emulator session. Commands are blocking round
// trips and are NOT mutually thread-safe: callers must serialize access to a
// single channel instance. After Stop, every command fails with
// ErrChannelClosed. Stop itself is idempotent.
type Channel interface {
	// Start brings the session to Ready, launching and boot-polling an
	// emulator when the channel owns one. Fails with ErrBootTimeout when the
	// boot probe never reports ready within the configured deadline.
	Start(ctx context.Context) error

	// Install idempotently installs the package, replacing any existing copy
	Install(ctx context.Context, apkPath string) error

	// Launch cold-starts the application. With an empty component the
	// package's default launcher entry is used.
	Launch(ctx context.Context, packageName, component string) error

	// DumpUITree serializes the current widget tree to an XML document
	DumpUITree(ctx context.Context) (string, error)

	// CurrentForegroundID returns an opaque identifier for the screen in
	// front, or "" when it cannot be determined.
	CurrentForegroundID(ctx context.Context) (string, error)

	// Input simulation primitives. Pixel coordinates, success/failure only.
	Tap(ctx context.Context, x, y int) error
	Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error
	TypeText(ctx context.Context, text string) error
	PressBack(ctx context.Context) error

	// Screenshot captures the framebuffer as raw PNG bytes
	Screenshot(ctx context.Context) ([]byte, error)

	// Stop tears down the session. Idempotent, safe after a prior failure.
	Stop() error
}

// Inspector extends a channel with runtime inspection commands that the
// exploration loop itself does not need but collaborators (crash surface,
// CLI diagnostics) do.
type Inspector interface {
	Uninstall(ctx context.Context, packageName string) error
	StopApp(ctx context.Context, packageName string) error
	Logs(ctx context.Context) ([]string, error)
	DeviceInfo(ctx context.Context) (map[string]string, error)
}

// Config holds channel configuration. Either Serial names an existing device
// to attach to, or AVDName selects an emulator image the channel will boot
// and own.
type Config struct {
	Serial       string `json:"serial"`
	ADBPath      string `json:"adb_path"`
	EmulatorPath string `json:"emulator_path"`
	AVDName      string `json:"avd_name"`
	Port         int    `json:"port"`
	Headless     bool   `json:"headless"`

	BootTimeout      time.Duration `json:"boot_timeout"`
	BootPollInterval time.Duration `json:"boot_poll_interval"`
	CommandTimeout   time.Duration `json:"command_timeout"`
}

// DefaultConfig returns a config suitable for attaching to a local emulator
func DefaultConfig() *Config {
	return &Config{
		ADBPath:          "adb",
		EmulatorPath:     "emulator",
		Port:             5554,
		Headless:         true,
		BootTimeout:      180 * time.Second,
		BootPollInterval: 5 * time.Second,
		CommandTimeout:   30 * time.Second,
	}
}

// Validate checks the channel config for invalid or missing values
func (c *Config) Validate() error {
	if c.Serial == "" && c.AVDName == "" {
		return fmt.Errorf("either serial or avd_name must be set")
	}
	if c.ADBPath == "" {
		return fmt.Errorf("adb_path must not be empty")
	}
	if c.AVDName != "" {
		if c.EmulatorPath == "" {
			return fmt.Errorf("emulator_path must not be empty when booting an AVD")
		}
		if c.Port%2 != 0 || c.Port < 5554 || c.Port > 5800 {
			return fmt.Errorf("port must be an even number in 5554..5800, got %d", c.Port)
		}
	}
	if c.BootTimeout <= 0 {
		return fmt.Errorf("boot_timeout must be positive")
	}
	if c.BootPollInterval <= 0 {
		return fmt.Errorf("boot_poll_interval must be positive")
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command_timeout must be positive")
	}
	return nil
}
