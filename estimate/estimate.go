// Package estimate holds the pricing and follow-up rules behind the contact
// form.
package estimate

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

type ProjectType string

const (
	WebApp  ProjectType = "webapp"
	Website ProjectType = "website"
	AI      ProjectType = "ai"
)

type Urgency string

const (
	Normal Urgency = "normal"
	Soon   Urgency = "soon"
	Rush   Urgency = "rush"
)

type Traffic string

const (
	TrafficLow  Traffic = "low"
	TrafficMid  Traffic = "mid"
	TrafficHigh Traffic = "high"
)

// Timeline is how soon the lead expects to decide.
type Timeline string

const (
	Under30    Timeline = "under-30"
	Days30to90 Timeline = "30-90"
	Exploring  Timeline = "exploring"
)

var ErrUnknownProjectType = errors.New("unknown project type")

type base struct {
	low, high int
	milestone string
}

var bases = map[ProjectType]base{
	WebApp:  {18, 35, "Scope core flows and ship an MVP sprint plan."},
	Website: {8, 18, "Lock messaging and redesign the highest-intent pages first."},
	AI:      {14, 30, "Define one AI workflow with measurable ROI and ship a pilot."},
}

// Estimate is a budget range in thousands of dollars plus the suggested
// first milestone.
type Estimate struct {
	Low       int    `json:"low"`
	High      int    `json:"high"`
	Range     string `json:"range"`
	Milestone string `json:"milestone"`
}

// Get computes the range. Urgency shifts both bounds; traffic only raises
// the upper bound. Unrecognized urgency or traffic values add nothing.
func Get(pt ProjectType, urgency Urgency, traffic Traffic) (Estimate, error) {
	b, ok := bases[pt]
	if !ok {
		return Estimate{}, goerr.Wrap(ErrUnknownProjectType, "cannot estimate", goerr.V("projectType", string(pt)))
	}

	var urgencyAdj, trafficAdj int
	switch urgency {
	case Rush:
		urgencyAdj = 8
	case Soon:
		urgencyAdj = 4
	}
	switch traffic {
	case TrafficHigh:
		trafficAdj = 5
	case TrafficMid:
		trafficAdj = 2
	}

	low := b.low + urgencyAdj
	high := b.high + urgencyAdj + trafficAdj
	return Estimate{
		Low:       low,
		High:      high,
		Range:     fmt.Sprintf("$%dk - $%dk", low, high),
		Milestone: b.milestone,
	}, nil
}

// FollowUpMessage is the confirmation shown after a submission.
func FollowUpMessage(t Timeline) string {
	switch t {
	case Under30:
		return "Request sent. High-priority lead noted. We will send available slots today."
	case Days30to90:
		return "Request sent. We will share your build plan and scheduling options shortly."
	case "":
		return "Request sent. We will reach out shortly."
	default:
		return "Request sent. We will send a roadmap-first follow-up so you can plan the right next step."
	}
}

// ProjectNotes prefixes the free-text project description with the decision
// timeline when one was chosen.
func ProjectNotes(t Timeline, notes string) string {
	if t == "" {
		return notes
	}
	return fmt.Sprintf("[Decision timeline: %s] %s", t, notes)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail is the permissive shape check used before submitting.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
