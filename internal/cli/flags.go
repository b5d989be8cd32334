package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

// choiceValue is a string flag restricted to a fixed set of values.
type choiceValue struct {
	target  *string
	choices []string
}

var _ pflag.Value = (*choiceValue)(nil)

func newChoiceValue(target *string, choices ...string) *choiceValue {
	return &choiceValue{target: target, choices: choices}
}

func (v *choiceValue) String() string { return *v.target }

func (v *choiceValue) Set(s string) error {
	if !slices.Contains(v.choices, s) {
		return fmt.Errorf("must be one of %s", strings.Join(v.choices, ", "))
	}

	*v.target = s

	return nil
}

func (v *choiceValue) Type() string { return "string" }
