package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatDump = "dump"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// render writes v to w in the given format
func render(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("value cannot be rendered as JSON, try --format dump: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("value cannot be rendered as YAML, try --format dump: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatDump:
		dumper.Fdump(w, v)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, FormatJSON, FormatYAML, FormatDump)
	}
}
