// Package enum provides a flag restricted to a fixed set of values.
package enum

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

const Type = "enum"

// Flag holds one of a fixed set of options. The first option is the default.
type Flag struct {
	value   string
	options []string
}

func (f *Flag) String() string {
	return f.value
}

func (f *Flag) Set(s string) error {
	if !slices.Contains(f.options, s) {
		return fmt.Errorf("must be one of %s", f.optionList())
	}
	f.value = s
	return nil
}

func (f *Flag) Type() string {
	return Type
}

func (f *Flag) optionList() string {
	return "[" + strings.Join(f.options, "|") + "]"
}

func newFlag(options []string) *Flag {
	f := &Flag{options: slices.Clone(options)}
	if len(options) > 0 {
		f.value = options[0]
	}
	return f
}

// Var defines an enum flag. The first option is the default.
func Var(f *pflag.FlagSet, name string, options []string, usage string) {
	flag := newFlag(options)
	f.Var(flag, name, fmt.Sprintf("%s %s", usage, flag.optionList()))
}

// VarP is like Var, but accepts a shorthand letter.
func VarP(f *pflag.FlagSet, name, shorthand string, options []string, usage string) {
	flag := newFlag(options)
	f.VarP(flag, name, shorthand, fmt.Sprintf("%s %s", usage, flag.optionList()))
}

// Get returns the value of the enum flag name.
func Get(f *pflag.FlagSet, name string) (string, error) {
	flag := f.Lookup(name)
	if flag == nil {
		return "", fmt.Errorf("flag accessed but not defined: %s", name)
	}
	if flag.Value.Type() != Type {
		return "", fmt.Errorf("trying to get %s value of flag of type %s", Type, flag.Value.Type())
	}
	return flag.Value.String(), nil
}
