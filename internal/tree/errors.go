package tree

import (
	"errors"
	"fmt"
)

// ErrHookPanic wraps a panic recovered from a lifecycle hook.
var ErrHookPanic = errors.New("hook panicked")

// Op names the command a CommandError belongs to.
type Op string

const (
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpCreate Op = "create"
	OpSet    Op = "set"
)

// CommandError reports a command that could not be applied.
type CommandError struct {
	Op   Op
	Path string
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// HookError reports a lifecycle hook that returned an error or panicked.
type HookError struct {
	Hook Hook
	Path string
	Type string
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook of %s(%s): %v", e.Hook, e.Type, e.Path, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }
