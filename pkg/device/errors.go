/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: errors.go
Description: Typed errors for the device control channel. CommandError carries the
failed command and channel identity so recovery policy upstream can log and react
without string matching. Sentinel errors mark the boot-timeout and channel-closed
conditions.
*/

package device

import (
	"errors"
	"fmt"
)

var (
	// ErrChannelClosed is returned by commands issued after Stop. This is a
	// programmer error in correct usage, not a recoverable device condition.
	ErrChannelClosed = errors.New("device channel is closed")

	// ErrNotReady is returned by commands issued before Start completed
	ErrNotReady = errors.New("device channel is not ready")

	// ErrBootTimeout is returned by Start when the boot probe never reports
	// ready within the configured deadline.
	ErrBootTimeout = errors.New("device boot timeout")
)

// CommandError is the typed failure of a single channel command
type CommandError struct {
	Serial  string
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("command %q failed on %s: %v, output: %s", e.Command, e.Serial, e.Err, e.Output)
	}
	return fmt.Sprintf("command %q failed on %s: %v", e.Command, e.Serial, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
