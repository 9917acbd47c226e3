// Package plan holds the growth plan records rendered into sales collateral.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/nexgen-studio/growthkit/layout"
)

// Canonical category labels, in manifest order.
const (
	CategoryAI           = "AI"
	CategoryLandingPages = "Landing Pages"
	CategoryWebApps      = "Web Apps"
)

// Categories lists the known categories in manifest order.
var Categories = []string{CategoryAI, CategoryLandingPages, CategoryWebApps}

var ErrInvalidRecord = errors.New("invalid plan record")

// Phase is one row of the 30-60-90 plan table.
type Phase struct {
	Window     string `yaml:"window" json:"window"`
	Focus      string `yaml:"focus" json:"focus"`
	Action     string `yaml:"action" json:"action"`
	Impact     string `yaml:"impact" json:"impact"`
	Confidence string `yaml:"confidence" json:"confidence"`
}

// Record is one lead's growth plan. Records are read-only once loaded.
type Record struct {
	Category       string    `yaml:"category" json:"category"`
	LeadName       string    `yaml:"lead_name" json:"leadName"`
	Company        string    `yaml:"company" json:"company"`
	Industry       string    `yaml:"industry" json:"industry"`
	TrafficUsers   string    `yaml:"traffic_users" json:"trafficUsers"`
	TeamSize       string    `yaml:"team_size" json:"teamSize"`
	PrimaryGoal    string    `yaml:"primary_goal" json:"primaryGoal"`
	ProjectContext string    `yaml:"project_context" json:"projectContext"`
	Bottlenecks    []string  `yaml:"bottlenecks" json:"bottlenecks"`
	Assumptions    string    `yaml:"assumptions" json:"assumptions"`
	Plan           []Phase   `yaml:"plan" json:"plan"`
	TopActions     []string  `yaml:"top_actions" json:"topActions"`
	Offer          string    `yaml:"offer" json:"offer"`
	Metric         string    `yaml:"metric" json:"metric"`
	Risks          []string  `yaml:"risks" json:"risks"`
	NextStep       string    `yaml:"next_step" json:"nextStep"`
	Chart          []float64 `yaml:"chart" json:"chart"`
}

// Validate reports the first structural problem that would break layout.
func (r Record) Validate() error {
	fail := func(reason string) error {
		return goerr.Wrap(ErrInvalidRecord, reason, goerr.V("company", r.Company), goerr.V("category", r.Category))
	}
	switch {
	case r.Company == "":
		return fail("company is empty")
	case r.Category == "":
		return fail("category is empty")
	case len(r.Bottlenecks) < 2:
		return fail("need a primary and a secondary bottleneck")
	case len(r.Plan) == 0:
		return fail("plan table is empty")
	case len(r.Chart) != 3:
		return fail(fmt.Sprintf("chart needs 3 values, got %d", len(r.Chart)))
	}
	return nil
}

// Filename is the output document name: slug(category)-slug(company).pdf.
func (r Record) Filename() string {
	return layout.Slugify(r.Category) + "-" + layout.Slugify(r.Company) + ".pdf"
}

// UnmarshalJSON accepts either an object or the positional
// [window, focus, action, impact, confidence] form.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var row []string
	if err := json.Unmarshal(data, &row); err == nil {
		return p.fromRow(row)
	}
	type plain Phase
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Phase(v)
	return nil
}

// UnmarshalYAML accepts the same two shapes as UnmarshalJSON.
func (p *Phase) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var row []string
		if err := node.Decode(&row); err != nil {
			return err
		}
		return p.fromRow(row)
	}
	type plain Phase
	var v plain
	if err := node.Decode(&v); err != nil {
		return err
	}
	*p = Phase(v)
	return nil
}

func (p *Phase) fromRow(row []string) error {
	if len(row) != 5 {
		return goerr.Wrap(ErrInvalidRecord, "plan row needs 5 columns", goerr.V("columns", len(row)))
	}
	*p = Phase{Window: row[0], Focus: row[1], Action: row[2], Impact: row[3], Confidence: row[4]}
	return nil
}
