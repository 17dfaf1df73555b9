package datasource

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by the locator. DirectoryAbsent and null intermediates
// are not errors and have no sentinel.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrPluginLoad      = errors.New("plugin load failed")
	ErrAmbiguousPlugin = errors.New("ambiguous plugin")
	ErrUnknownMember   = errors.New("unknown member")
)

// InvalidArgument creates an error for an empty or malformed required input
func InvalidArgument(name, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidArgument, name, reason)
}

// PluginLoadError reports a plugin folder whose modules or provider types
// could not be loaded.
type PluginLoadError struct {
	Folder    string
	Offenders []string
	Err       error
}

func (e *PluginLoadError) Error() string {
	msg := fmt.Sprintf("plugin folder %q is broken: cannot load %s", e.Folder, strings.Join(e.Offenders, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PluginLoadError) Unwrap() error { return e.Err }

func (e *PluginLoadError) Is(target error) bool { return target == ErrPluginLoad }

// AmbiguousPluginError reports more than one provider sharing a name in one folder.
type AmbiguousPluginError struct {
	Folder string
	Name   string
	Count  int
}

func (e *AmbiguousPluginError) Error() string {
	return fmt.Sprintf("plugin folder %q exports %d providers named %q", e.Folder, e.Count, e.Name)
}

func (e *AmbiguousPluginError) Is(target error) bool { return target == ErrAmbiguousPlugin }

// UnknownMemberError reports a relation path segment that does not exist on
// the shape reached so far. It always means the stored path is stale.
type UnknownMemberError struct {
	Segment Segment
	Shape   Shape
	Err     error
}

func (e *UnknownMemberError) Error() string {
	shape := e.Shape.String()
	if shape == "" {
		shape = "<unknown>"
	}
	msg := fmt.Sprintf("segment %s does not exist on %s", e.Segment, shape)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnknownMemberError) Unwrap() error { return e.Err }

func (e *UnknownMemberError) Is(target error) bool { return target == ErrUnknownMember }
