/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: device_test.go
Description: Tests for the device control channel. Covers configuration
validation, session lifecycle states, boot timeout handling, typed command
errors, and input text escaping.
*/

package appmapper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kleascm/appmapper/pkg/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastConfig returns a config whose every timeout is tiny, pointed at a
// nonexistent adb binary so commands fail immediately.
func fastConfig() *device.Config {
	config := device.DefaultConfig()
	config.Serial = "test-device"
	config.ADBPath = "/nonexistent/adb"
	config.BootTimeout = 100 * time.Millisecond
	config.BootPollInterval = 10 * time.Millisecond
	config.CommandTimeout = 100 * time.Millisecond
	return config
}

func TestDeviceConfigValidation(t *testing.T) {
	runTest(t, "TestDeviceConfigValidation", func(t *testing.T) {
		config := device.DefaultConfig()
		// Neither serial nor AVD
		assert.Error(t, config.Validate())

		config.Serial = "emulator-5554"
		assert.NoError(t, config.Validate())

		// AVD mode requires a valid even port
		config.AVDName = "test_avd"
		config.Port = 5555
		assert.Error(t, config.Validate())
		config.Port = 5552
		assert.Error(t, config.Validate())
		config.Port = 5554
		assert.NoError(t, config.Validate())

		config.EmulatorPath = ""
		assert.Error(t, config.Validate())
		config.EmulatorPath = "emulator"

		config.BootTimeout = 0
		assert.Error(t, config.Validate())
		config.BootTimeout = time.Minute

		config.CommandTimeout = -time.Second
		assert.Error(t, config.Validate())
	})
}

func TestChannelLifecycle(t *testing.T) {
	runTest(t, "TestChannelLifecycle", func(t *testing.T) {
		channel := device.NewAndroidChannel(fastConfig(), nil)
		require.NotNil(t, channel)
		assert.Equal(t, device.StateNotStarted, channel.CurrentState())

		// Channel interface compliance
		var ch device.Channel = channel
		assert.NotNil(t, ch)
		var inspector device.Inspector = channel
		assert.NotNil(t, inspector)

		// Commands before Start fail with ErrNotReady
		ctx := context.Background()
		err := channel.Tap(ctx, 100, 100)
		assert.ErrorIs(t, err, device.ErrNotReady)
		_, err = channel.DumpUITree(ctx)
		assert.ErrorIs(t, err, device.ErrNotReady)

		// Stop is idempotent
		require.NoError(t, channel.Stop())
		require.NoError(t, channel.Stop())
		assert.Equal(t, device.StateStopped, channel.CurrentState())

		// Commands after Stop fail with ErrChannelClosed
		err = channel.PressBack(ctx)
		assert.ErrorIs(t, err, device.ErrChannelClosed)
		_, err = channel.Screenshot(ctx)
		assert.ErrorIs(t, err, device.ErrChannelClosed)
	})
}

func TestChannelBootTimeout(t *testing.T) {
	runTest(t, "TestChannelBootTimeout", func(t *testing.T) {
		channel := device.NewAndroidChannel(fastConfig(), nil)

		err := channel.Start(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, device.ErrBootTimeout)
		assert.Equal(t, device.StateFailed, channel.CurrentState())

		// Failed channel cannot be restarted
		err = channel.Start(context.Background())
		assert.Error(t, err)

		// Stop after failure is still clean
		assert.NoError(t, channel.Stop())
	})
}

func TestChannelStartCancellation(t *testing.T) {
	runTest(t, "TestChannelStartCancellation", func(t *testing.T) {
		config := fastConfig()
		config.BootTimeout = 10 * time.Second

		channel := device.NewAndroidChannel(config, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := channel.Start(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, device.StateFailed, channel.CurrentState())
	})
}

func TestCommandError(t *testing.T) {
	runTest(t, "TestCommandError", func(t *testing.T) {
		inner := errors.New("exit status 1")
		cmdErr := &device.CommandError{
			Serial:  "emulator-5554",
			Command: "shell input tap 10 10",
			Output:  "Error: no devices found",
			Err:     inner,
		}

		msg := cmdErr.Error()
		assert.Contains(t, msg, "emulator-5554")
		assert.Contains(t, msg, "shell input tap 10 10")
		assert.ErrorIs(t, cmdErr, inner)
	})
}

func TestEscapeText(t *testing.T) {
	runTest(t, "TestEscapeText", func(t *testing.T) {
		assert.Equal(t, "hello%sworld", device.EscapeText("hello world"))
		assert.Equal(t, `it\'s`, device.EscapeText("it's"))
		assert.Equal(t, `a\\b`, device.EscapeText(`a\b`))
		assert.Equal(t, `say%s\"hi\"`, device.EscapeText(`say "hi"`))
		assert.Equal(t, "plain", device.EscapeText("plain"))
	})
}
