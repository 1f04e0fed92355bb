package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds. Every error returned by Pipeline.Render is a *RenderError
// whose Kind is one of these.
var (
	ErrValidation       = errors.New("validation error")
	ErrMediaDecode      = errors.New("media decode error")
	ErrTransform        = errors.New("transform error")
	ErrConcatenation    = errors.New("concatenation error")
	ErrCanceled         = errors.New("render canceled")
	ErrRenderInProgress = errors.New("render already in progress")
)

// RenderError pins a failure to the stage, and when known the scene, that caused it.
type RenderError struct {
	Kind       error
	Stage      State
	Step       string
	SceneIndex int // playback index, -1 when not scene specific
	SceneID    string
	Err        error
}

func (e *RenderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s during %s", e.Kind, e.Stage)
	if e.SceneIndex >= 0 {
		fmt.Fprintf(&b, " (scene %d %s", e.SceneIndex+1, e.SceneID)
		if e.Step != "" {
			fmt.Fprintf(&b, ", %s", e.Step)
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RenderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func failure(kind error, stage State, err error) *RenderError {
	return &RenderError{Kind: kind, Stage: stage, SceneIndex: -1, Err: err}
}

func sceneFailure(kind error, stage State, index int, key string, err error) *RenderError {
	re := &RenderError{Kind: kind, Stage: stage, SceneIndex: index, SceneID: key, Err: err}
	var se *stepError
	if errors.As(err, &se) {
		re.Step = se.step
		re.Err = se.err
	}
	return re
}

// stepError names the transform sub-step that failed.
type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string { return e.step + ": " + e.err.Error() }
func (e *stepError) Unwrap() error { return e.err }
