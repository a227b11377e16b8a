/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: android.go
Description: AndroidChannel implements the Channel and Inspector interfaces over ADB
and the emulator binary. Owns the emulator process lifecycle (start, boot poll, kill),
serializes every device command through a single timeout-wrapped execution primitive,
and surfaces failures as typed CommandErrors carrying the channel identity.
*/

package device

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const uiDumpPath = "/sdcard/appmapper_ui_dump.xml"

// AndroidChannel drives one Android device or emulator via adb. Commands are
// not mutually thread-safe; the session state is the only mutex-guarded field
// because Stop may be invoked from a signal path.
type AndroidChannel struct {
	config *Config
	logger *logrus.Logger
	serial string

	// emulator process owned by this channel, nil when attached to an
	// existing device
	emulator *exec.Cmd

	mu    sync.Mutex
	state State
}

// NewAndroidChannel creates a channel in the NotStarted state
func NewAndroidChannel(config *Config, logger *logrus.Logger) *AndroidChannel {
	if logger == nil {
		logger = logrus.New()
	}
	return &AndroidChannel{
		config: config,
		logger: logger,
		serial: config.Serial,
		state:  StateNotStarted,
	}
}

// Serial returns the device serial this channel is bound to
func (c *AndroidChannel) Serial() string { return c.serial }

// CurrentState returns the session lifecycle state
func (c *AndroidChannel) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *AndroidChannel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Start boots or attaches the device and polls the boot-readiness probe until
// it reports ready or the configured deadline elapses.
func (c *AndroidChannel) Start(ctx context.Context) error {
	if s := c.CurrentState(); s != StateNotStarted {
		return fmt.Errorf("cannot start channel in state %s", s)
	}
	c.setState(StateStarting)

	if c.config.AVDName != "" {
		if err := c.launchEmulator(); err != nil {
			c.setState(StateFailed)
			return err
		}
	} else {
		// Attached mode: give adb a chance to see the device before probing.
		// Failure here is not fatal, the boot poll below is authoritative.
		if _, err := c.adb(ctx, false, "wait-for-device"); err != nil {
			c.logger.WithError(err).Debug("wait-for-device failed, continuing to boot probe")
		}
	}

	deadline := time.Now().Add(c.config.BootTimeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			c.setState(StateFailed)
			return fmt.Errorf("boot wait cancelled: %w", ctx.Err())
		default:
		}

		out, err := c.adb(ctx, false, "shell", "getprop", "sys.boot_completed")
		if err == nil && strings.TrimSpace(out) == "1" {
			c.setState(StateReady)
			c.logger.WithField("serial", c.serial).Info("Device channel ready")
			return nil
		}
		time.Sleep(c.config.BootPollInterval)
	}

	c.setState(StateFailed)
	return fmt.Errorf("device %s not ready after %s: %w", c.serial, c.config.BootTimeout, ErrBootTimeout)
}

// launchEmulator starts a headless emulator process bound to the configured
// port; the serial follows the emulator-<port> convention.
func (c *AndroidChannel) launchEmulator() error {
	args := []string{
		"-avd", c.config.AVDName,
		"-port", strconv.Itoa(c.config.Port),
		"-no-boot-anim",
		"-no-snapshot",
		"-gpu", "swiftshader_indirect",
	}
	if c.config.Headless {
		args = append(args, "-no-window", "-no-audio")
	}

	cmd := exec.Command(c.config.EmulatorPath, args...)
	cmd.Env = append(os.Environ(), "QEMU_FILE_LOCKING=off")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("emulator start failed: %w", err)
	}

	c.emulator = cmd
	c.serial = fmt.Sprintf("emulator-%d", c.config.Port)
	c.logger.WithFields(logrus.Fields{
		"avd":    c.config.AVDName,
		"serial": c.serial,
		"pid":    cmd.Process.Pid,
	}).Info("Emulator process started")
	return nil
}

// Stop terminates the session. Idempotent: safe to call after a boot failure
// and again at run cleanup.
func (c *AndroidChannel) Stop() error {
	c.mu.Lock()
	if c.state == StateStopped {
		c.mu.Unlock()
		return nil
	}
	c.state = StateStopped
	emulator := c.emulator
	c.emulator = nil
	c.mu.Unlock()

	if emulator != nil && emulator.Process != nil {
		// Ask the emulator console first, then force-kill the process
		_ = exec.Command(c.config.ADBPath, "-s", c.serial, "emu", "kill").Run()
		time.Sleep(time.Second)
		_ = emulator.Process.Kill()
		// Reap the process so it does not linger as a zombie
		_ = emulator.Wait()
	}
	c.logger.WithField("serial", c.serial).Info("Device channel stopped")
	return nil
}

// adb runs one adb sub-command against this channel's serial, bounded by the
// per-command timeout, and wraps failures in a CommandError.
func (c *AndroidChannel) adb(ctx context.Context, requireReady bool, args ...string) (string, error) {
	out, err := c.adbBytes(ctx, requireReady, args...)
	return string(out), err
}

func (c *AndroidChannel) adbBytes(ctx context.Context, requireReady bool, args ...string) ([]byte, error) {
	switch c.CurrentState() {
	case StateStopped:
		return nil, ErrChannelClosed
	case StateReady:
	case StateStarting:
		if requireReady {
			return nil, ErrNotReady
		}
	default:
		return nil, ErrNotReady
	}

	cctx, cancel := context.WithTimeout(ctx, c.config.CommandTimeout)
	defer cancel()

	full := append([]string{"-s", c.serial}, args...)
	cmd := exec.CommandContext(cctx, c.config.ADBPath, full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &CommandError{
			Serial:  c.serial,
			Command: strings.Join(args, " "),
			Output:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return stdout.Bytes(), nil
}

// Install installs the package, replacing any existing copy
func (c *AndroidChannel) Install(ctx context.Context, apkPath string) error {
	out, err := c.adb(ctx, true, "install", "-r", apkPath)
	if err != nil {
		return err
	}
	if !strings.Contains(out, "Success") {
		return &CommandError{
			Serial:  c.serial,
			Command: "install -r " + apkPath,
			Output:  strings.TrimSpace(out),
			Err:     fmt.Errorf("install did not report success"),
		}
	}
	return nil
}

// Uninstall removes the package from the device
func (c *AndroidChannel) Uninstall(ctx context.Context, packageName string) error {
	out, err := c.adb(ctx, true, "uninstall", packageName)
	if err != nil {
		return err
	}
	if !strings.Contains(out, "Success") {
		return &CommandError{
			Serial:  c.serial,
			Command: "uninstall " + packageName,
			Output:  strings.TrimSpace(out),
			Err:     fmt.Errorf("uninstall did not report success"),
		}
	}
	return nil
}

// Launch cold-starts the app, through the launcher category when no explicit
// component is given.
func (c *AndroidChannel) Launch(ctx context.Context, packageName, component string) error {
	var err error
	if component != "" {
		_, err = c.adb(ctx, true, "shell", "am", "start", "-n", packageName+"/"+component)
	} else {
		_, err = c.adb(ctx, true, "shell", "monkey", "-p", packageName,
			"-c", "android.intent.category.LAUNCHER", "1")
	}
	return err
}

// StopApp force-stops the application process
func (c *AndroidChannel) StopApp(ctx context.Context, packageName string) error {
	_, err := c.adb(ctx, true, "shell", "am", "force-stop", packageName)
	return err
}

// DumpUITree serializes the current widget tree via uiautomator and reads the
// dump file back.
func (c *AndroidChannel) DumpUITree(ctx context.Context) (string, error) {
	if _, err := c.adb(ctx, true, "shell", "uiautomator", "dump", uiDumpPath); err != nil {
		return "", err
	}
	return c.adb(ctx, true, "shell", "cat", uiDumpPath)
}

var foregroundPattern = regexp.MustCompile(`mResumedActivity.*?(\S+/\S+)`)

// CurrentForegroundID extracts the resumed activity token from dumpsys
func (c *AndroidChannel) CurrentForegroundID(ctx context.Context) (string, error) {
	out, err := c.adb(ctx, true, "shell", "dumpsys", "activity", "activities")
	if err != nil {
		return "", err
	}
	if match := foregroundPattern.FindStringSubmatch(out); match != nil {
		return match[1], nil
	}
	return "", nil
}

// Tap injects a tap at device pixel coordinates
func (c *AndroidChannel) Tap(ctx context.Context, x, y int) error {
	_, err := c.adb(ctx, true, "shell", "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
	return err
}

// Swipe injects a swipe gesture
func (c *AndroidChannel) Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error {
	_, err := c.adb(ctx, true, "shell", "input", "swipe",
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2),
		strconv.Itoa(durationMs))
	return err
}

// TypeText injects text into the focused field
func (c *AndroidChannel) TypeText(ctx context.Context, text string) error {
	_, err := c.adb(ctx, true, "shell", "input", "text", EscapeText(text))
	return err
}

// PressBack injects the back key
func (c *AndroidChannel) PressBack(ctx context.Context) error {
	_, err := c.adb(ctx, true, "shell", "input", "keyevent", "KEYCODE_BACK")
	return err
}

// Screenshot captures the framebuffer as PNG bytes
func (c *AndroidChannel) Screenshot(ctx context.Context) ([]byte, error) {
	return c.adbBytes(ctx, true, "exec-out", "screencap", "-p")
}

// Logs returns the buffered device log
func (c *AndroidChannel) Logs(ctx context.Context) ([]string, error) {
	out, err := c.adbBytes(ctx, true, "logcat", "-d")
	if err != nil {
		return nil, err
	}
	var logs []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		logs = append(logs, scanner.Text())
	}
	return logs, nil
}

// DeviceInfo returns the device property map
func (c *AndroidChannel) DeviceInfo(ctx context.Context) (map[string]string, error) {
	out, err := c.adb(ctx, true, "shell", "getprop")
	if err != nil {
		return nil, err
	}
	info := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "[") {
			continue
		}
		parts := strings.SplitN(line, ": ", 2)
		if len(parts) == 2 {
			key := strings.Trim(parts[0], "[]")
			val := strings.Trim(parts[1], "[]")
			info[key] = val
		}
	}
	return info, nil
}

// EscapeText prepares a string for `input text`: spaces become %s and shell
// metacharacters are escaped.
func EscapeText(text string) string {
	escaped := strings.ReplaceAll(text, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, " ", "%s")
	return escaped
}
