package script

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ActionType identifies one of the supported scene action variants.
type ActionType string

const (
	ActionScroll       ActionType = "scroll"
	ActionScrollToText ActionType = "scroll_to_text"
	ActionClick        ActionType = "click"
	ActionFill         ActionType = "fill"
	ActionWait         ActionType = "wait"
	ActionGoto         ActionType = "goto"
	ActionScrollIframe ActionType = "scroll_iframe"
)

// Action is a tagged variant. Only the fields belonging to the variant's
// type are meaningful; construction validates them.
type Action struct {
	Type ActionType

	// scroll
	Y      float64
	Smooth bool

	// scroll_to_text (Text is shared with click)
	Text   string
	Offset float64

	// click / fill
	Selector string
	Value    string
	// TimeoutMS bounds element lookup for click, in milliseconds.
	TimeoutMS int

	// wait. Auto means "no explicit wait, rely on the remainder budget";
	// it must never reach the suspension primitive as a literal value.
	Duration float64
	Auto     bool

	// goto
	URL string

	// scroll_iframe
	Positions []float64
	Interval  float64
}

// Absorbs reports whether a runtime failure of this action is swallowed
// (logged, scene continues) rather than propagated. This makes the
// per-variant failure policy an explicit part of the action contract:
// click, scroll_to_text and scroll_iframe tolerate missing targets, while
// fill and goto failures abort the scene's action sequence.
func (a Action) Absorbs() bool {
	switch a.Type {
	case ActionFill, ActionGoto:
		return false
	}
	return true
}

// rawAction mirrors the on-disk flat shape: a type tag plus the variant's
// parameters at the same level.
type rawAction struct {
	Type      ActionType  `yaml:"type" json:"type"`
	Y         *float64    `yaml:"y,omitempty" json:"y,omitempty"`
	Smooth    *bool       `yaml:"smooth,omitempty" json:"smooth,omitempty"`
	Text      *string     `yaml:"text,omitempty" json:"text,omitempty"`
	Offset    *float64    `yaml:"offset,omitempty" json:"offset,omitempty"`
	Selector  *string     `yaml:"selector,omitempty" json:"selector,omitempty"`
	Value     *string     `yaml:"value,omitempty" json:"value,omitempty"`
	Timeout   *int        `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Duration  *durationOr `yaml:"duration,omitempty" json:"duration,omitempty"`
	URL       *string     `yaml:"url,omitempty" json:"url,omitempty"`
	Positions []float64   `yaml:"positions,omitempty" json:"positions,omitempty"`
	Interval  *float64    `yaml:"interval,omitempty" json:"interval,omitempty"`
}

// durationOr accepts either a number of seconds or the literal "auto".
type durationOr struct {
	Seconds float64
	Auto    bool
}

func (d *durationOr) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil && s == "auto" {
		d.Auto = true
		return nil
	}
	var f float64
	if err := node.Decode(&f); err != nil {
		return fmt.Errorf("duration must be a number of seconds or \"auto\"")
	}
	d.Seconds = f
	return nil
}

func (d durationOr) MarshalYAML() (interface{}, error) {
	if d.Auto {
		return "auto", nil
	}
	return d.Seconds, nil
}

func (d *durationOr) UnmarshalJSON(data []byte) error {
	if string(data) == `"auto"` {
		d.Auto = true
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("duration must be a number of seconds or \"auto\"")
	}
	d.Seconds = f
	return nil
}

func (d durationOr) MarshalJSON() ([]byte, error) {
	if d.Auto {
		return []byte(`"auto"`), nil
	}
	return json.Marshal(d.Seconds)
}

// toAction builds a validated Action from its serialized form, applying
// per-variant defaults so a round trip through text is stable.
func (r rawAction) toAction() (Action, error) {
	a := Action{Type: r.Type}

	switch r.Type {
	case ActionScroll:
		if r.Y != nil {
			a.Y = *r.Y
		}
		if r.Smooth != nil {
			a.Smooth = *r.Smooth
		}

	case ActionScrollToText:
		if r.Text == nil || *r.Text == "" {
			return a, fmt.Errorf("scroll_to_text requires text")
		}
		a.Text = *r.Text
		if r.Offset != nil {
			a.Offset = *r.Offset
		}

	case ActionClick:
		if r.Selector != nil {
			a.Selector = *r.Selector
		}
		if r.Text != nil {
			a.Text = *r.Text
		}
		if a.Selector == "" && a.Text == "" {
			return a, fmt.Errorf("click requires selector or text")
		}
		a.TimeoutMS = 3000
		if r.Timeout != nil {
			a.TimeoutMS = *r.Timeout
		}

	case ActionFill:
		if r.Selector == nil || *r.Selector == "" {
			return a, fmt.Errorf("fill requires selector")
		}
		a.Selector = *r.Selector
		if r.Value != nil {
			a.Value = *r.Value
		}

	case ActionWait:
		if r.Duration == nil {
			a.Duration = 1
		} else if r.Duration.Auto {
			a.Auto = true
		} else {
			a.Duration = r.Duration.Seconds
		}

	case ActionGoto:
		if r.URL == nil || *r.URL == "" {
			return a, fmt.Errorf("goto requires url")
		}
		a.URL = *r.URL

	case ActionScrollIframe:
		a.Positions = r.Positions
		if len(a.Positions) == 0 {
			a.Positions = []float64{300, 600, 900}
		}
		a.Interval = 1.5
		if r.Interval != nil {
			a.Interval = *r.Interval
		}

	case "":
		return a, fmt.Errorf("action is missing a type")

	default:
		return a, fmt.Errorf("unknown action type %q", r.Type)
	}

	return a, nil
}

// toRaw is the inverse of toAction, emitting only the variant's fields.
func (a Action) toRaw() rawAction {
	r := rawAction{Type: a.Type}

	switch a.Type {
	case ActionScroll:
		r.Y = &a.Y
		if a.Smooth {
			r.Smooth = &a.Smooth
		}
	case ActionScrollToText:
		r.Text = &a.Text
		r.Offset = &a.Offset
	case ActionClick:
		if a.Selector != "" {
			r.Selector = &a.Selector
		}
		if a.Text != "" {
			r.Text = &a.Text
		}
		r.Timeout = &a.TimeoutMS
	case ActionFill:
		r.Selector = &a.Selector
		r.Value = &a.Value
	case ActionWait:
		r.Duration = &durationOr{Seconds: a.Duration, Auto: a.Auto}
	case ActionGoto:
		r.URL = &a.URL
	case ActionScrollIframe:
		r.Positions = a.Positions
		r.Interval = &a.Interval
	}

	return r
}

func (a *Action) UnmarshalYAML(node *yaml.Node) error {
	var r rawAction
	if err := node.Decode(&r); err != nil {
		return err
	}
	built, err := r.toAction()
	if err != nil {
		return err
	}
	*a = built
	return nil
}

func (a Action) MarshalYAML() (interface{}, error) {
	return a.toRaw(), nil
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var r rawAction
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	built, err := r.toAction()
	if err != nil {
		return err
	}
	*a = built
	return nil
}

func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.toRaw())
}
