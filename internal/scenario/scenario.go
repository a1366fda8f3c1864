// Package scenario replays scripted shopping-cart sessions through a
// reactive graph. A scenario file names the carts of a view-model and the
// commands a user issues against them; the runner pushes those commands
// into a command sink and reports what the graph produced.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Command names accepted in a scenario step.
const (
	CommandAdd    = "add"
	CommandRemove = "remove"
	CommandSwitch = "switch"
	CommandWait   = "wait"
)

var (
	// ErrUnknownCommand is reported for a step whose command is not recognised.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidStep is reported for a step missing a required field.
	ErrInvalidStep = errors.New("invalid step")
)

// Scenario is a scripted session.
type Scenario struct {
	// Name identifies the scenario in logs and reports.
	Name string `yaml:"name"`

	// Description is free text.
	Description string `yaml:"description,omitempty"`

	// Carts lists the carts of the view-model. The first one is selected
	// when the session starts.
	Carts []string `yaml:"carts"`

	// Steps are pushed into the command sink in order.
	Steps []Step `yaml:"steps"`
}

// Step is one user command.
type Step struct {
	Command string `yaml:"command" json:"command"`

	// Cart selects the cart for switch, and optionally targets add and
	// remove at a cart other than the selected one.
	Cart string `yaml:"cart,omitempty" json:"cart,omitempty"`

	Item  string  `yaml:"item,omitempty" json:"item,omitempty"`
	Qty   int     `yaml:"qty,omitempty" json:"qty,omitempty"`
	Price float64 `yaml:"price,omitempty" json:"price,omitempty"`

	// Wait pauses the feed for a wait step.
	Wait time.Duration `yaml:"wait,omitempty" json:"-"`
}

// Validate reports whether the step carries what its command needs. Steps
// are validated inside the graph, so an invalid step becomes an Error
// envelope rather than aborting the session.
func (s Step) Validate() error {
	switch s.Command {
	case CommandAdd:
		if s.Item == "" || s.Qty <= 0 || s.Price < 0 {
			return fmt.Errorf("%w: add needs an item, a positive qty and a price", ErrInvalidStep)
		}
	case CommandRemove:
		if s.Item == "" {
			return fmt.Errorf("%w: remove needs an item", ErrInvalidStep)
		}
	case CommandSwitch:
		if s.Cart == "" {
			return fmt.Errorf("%w: switch needs a cart", ErrInvalidStep)
		}
	case CommandWait:
		if s.Wait <= 0 {
			return fmt.Errorf("%w: wait needs a positive duration", ErrInvalidStep)
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, s.Command)
	}
	return nil
}

func (s Step) String() string {
	switch s.Command {
	case CommandAdd:
		return fmt.Sprintf("add %s x%d @%.2f", s.Item, s.Qty, s.Price)
	case CommandRemove:
		return "remove " + s.Item
	case CommandSwitch:
		return "switch " + s.Cart
	case CommandWait:
		return "wait " + s.Wait.String()
	default:
		return s.Command
	}
}

// Load reads and parses a scenario file. Unknown fields are rejected.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario from YAML and checks its structure. Individual
// steps are not validated here.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validate(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

func validate(sc *Scenario) error {
	if sc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(sc.Carts) == 0 {
		return fmt.Errorf("carts list is required and must be non-empty")
	}
	if dup := lo.FindDuplicates(sc.Carts); len(dup) > 0 {
		return fmt.Errorf("duplicate carts: %v", dup)
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	return nil
}
