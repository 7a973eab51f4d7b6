package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrHeaderSignatureMismatch is returned when a pool or tag header carries the wrong magic
	ErrHeaderSignatureMismatch = errors.New("header signature mismatch")

	// ErrHeaderNotReady is returned when a pool header has its valid flag cleared
	ErrHeaderNotReady = errors.New("header not ready")

	// ErrGlobalOutOfRange is returned when a global holds a value the engine never stores
	ErrGlobalOutOfRange = errors.New("global structure out of range")

	// ErrGlobalUnreadable is returned when a required global lies outside the captured window
	ErrGlobalUnreadable = errors.New("global structure unreadable")

	// ErrGuardMismatch marks an object body whose guard markers did not match.
	// It never leaves the package: the slot is reported absent instead.
	ErrGuardMismatch = errors.New("object guard mismatch")
)

// Global names the required structure a validation step covers
type Global string

const (
	GlobalTagHeader        Global = "tag header"
	GlobalGameGlobals      Global = "game globals"
	GlobalObjectPoolHeader Global = "object pool header"
	GlobalPlayerPoolHeader Global = "player pool header"
	GlobalPlayerGlobals    Global = "player globals"
	GlobalTimeGlobals      Global = "time globals"
)

// ValidationError reports which required structure stopped a snapshot
type ValidationError struct {
	Stage  Stage  // last stage reached before the failure
	Global Global // structure that failed
	Err    error  // one of the Err* kinds, possibly wrapped
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("snapshot failed after %s: %s: %v", e.Stage, e.Global, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
