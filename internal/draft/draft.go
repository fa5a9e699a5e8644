// Package draft holds the in-progress report form state and its
// validation rules. A draft has exactly one owner (the creation
// screen); nothing else mutates it.
package draft

import (
	"strings"
	"unicode/utf8"

	"github.com/YnTheNerd/cleanspot/internal/models"
)

// MinDescriptionLen is the minimum trimmed description length.
const MinDescriptionLen = 10

// Inline validation messages, keyed by field.
const (
	MsgDescriptionRequired = "La description est requise"
	MsgDescriptionTooShort = "La description doit contenir au moins 10 caractères"
	MsgImageRequired       = "Une photo est requise"
	MsgLocationRequired    = "La localisation est requise"
)

// Field keys of the validation error map.
const (
	FieldDescription = "description"
	FieldImage       = "image"
	FieldLocation    = "location"
)

// State of the draft lifecycle.
type State int

const (
	StateEditing State = iota
	StateValidating
	StateSubmitting
	StateSubmitted
	StateCancelled
)

// ValidationError carries the per-field error map out of a failed
// submission precondition. These errors are rendered inline and never
// leave the creation flow as a crash.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, m := range e.Fields {
		msgs = append(msgs, m)
	}
	return strings.Join(msgs, "; ")
}

// Draft is the mutable form state for a new report.
type Draft struct {
	description string
	imageRef    string
	location    *models.LocationSelection
	errors      map[string]string
	state       State
}

func New() *Draft {
	return &Draft{
		errors: make(map[string]string),
		state:  StateEditing,
	}
}

// SetDescription updates the description and clears only that field's
// prior error; other errors persist until independently revalidated.
func (d *Draft) SetDescription(s string) {
	d.description = s
	delete(d.errors, FieldDescription)
	d.state = StateEditing
}

// SetImage records the local image reference.
func (d *Draft) SetImage(ref string) {
	d.imageRef = ref
	delete(d.errors, FieldImage)
	d.state = StateEditing
}

// ClearImage drops the image, e.g. after a processing failure forced a
// reselection.
func (d *Draft) ClearImage() {
	d.imageRef = ""
	d.state = StateEditing
}

// SetLocation replaces the draft location wholesale.
func (d *Draft) SetLocation(sel *models.LocationSelection) {
	d.location = sel
	delete(d.errors, FieldLocation)
	d.state = StateEditing
}

// ClearLocation drops the location, e.g. when a new acquisition begins.
func (d *Draft) ClearLocation() {
	d.location = nil
	delete(d.errors, FieldLocation)
	d.state = StateEditing
}

// Validate evaluates every rule independently so all failures surface
// at once; there is no short-circuit. An empty result moves the draft
// to Submitting, otherwise it returns to Editing with the errors
// attached.
func (d *Draft) Validate() map[string]string {
	d.state = StateValidating

	errs := make(map[string]string)

	trimmed := strings.TrimSpace(d.description)
	switch {
	case trimmed == "":
		errs[FieldDescription] = MsgDescriptionRequired
	case utf8.RuneCountInString(trimmed) < MinDescriptionLen:
		errs[FieldDescription] = MsgDescriptionTooShort
	}

	if d.imageRef == "" {
		errs[FieldImage] = MsgImageRequired
	}
	if d.location == nil {
		errs[FieldLocation] = MsgLocationRequired
	}

	d.errors = errs
	if len(errs) == 0 {
		d.state = StateSubmitting
	} else {
		d.state = StateEditing
	}
	return copyErrors(errs)
}

// MarkSubmitted finalizes the draft after a durable write.
func (d *Draft) MarkSubmitted() {
	d.state = StateSubmitted
}

// MarkFailed returns the draft to Editing after a submission failure.
// All fields stay intact so the user can retry without re-entering
// anything.
func (d *Draft) MarkFailed() {
	d.state = StateEditing
}

// Cancel discards the draft with no persisted side effect. A no-op once
// submitted.
func (d *Draft) Cancel() {
	if d.state != StateSubmitted {
		d.state = StateCancelled
	}
}

func (d *Draft) Description() string                 { return d.description }
func (d *Draft) ImageRef() string                    { return d.imageRef }
func (d *Draft) Location() *models.LocationSelection { return d.location }
func (d *Draft) State() State                        { return d.state }

// Errors returns a copy of the current per-field error map.
func (d *Draft) Errors() map[string]string {
	return copyErrors(d.errors)
}

func copyErrors(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
