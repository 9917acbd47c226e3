package plan

import (
	"context"
	_ "embed"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/nexgen-studio/growthkit/observability"
	"github.com/nexgen-studio/growthkit/scripting"
)

//go:embed data/plans.yaml
var builtinYAML []byte

// Builtin returns the built-in record table.
func Builtin() ([]Record, error) {
	return ParseYAML(builtinYAML)
}

// ParseYAML decodes a YAML sequence of records.
func ParseYAML(data []byte) ([]Record, error) {
	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, goerr.Wrap(err, "failed to decode plan records")
	}
	return records, nil
}

// LoadFile reads records from a YAML file.
func LoadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read plan records", goerr.V("path", path))
	}
	records, err := ParseYAML(data)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid plan file", goerr.V("path", path))
	}
	return records, nil
}

// LoadScript evaluates a JavaScript data module. The script either
// evaluates to the record array or defines buildPlanData() returning it.
// Plan rows may be objects or positional arrays.
func LoadScript(ctx context.Context, source string, logger observability.Logger) ([]Record, error) {
	engine := scripting.NewEngine(logger)
	value, err := engine.Execute(ctx, source)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate plan script")
	}
	if value == nil {
		value, err = engine.Call(ctx, "buildPlanData")
		if err != nil {
			return nil, goerr.Wrap(err, "plan script returned no records")
		}
	}

	// Exported JS values are plain maps and slices; a JSON round trip maps
	// them onto Record using its json tags.
	data, err := json.Marshal(value)
	if err != nil {
		return nil, goerr.Wrap(err, "plan script returned a non-serializable value")
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, goerr.Wrap(err, "plan script returned malformed records")
	}
	return records, nil
}
