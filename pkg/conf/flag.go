// Copyright (c) 2017 Intel Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conf

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"
)

// flagType is implemented by every flag kind. Each flag is backed by
// environment variable which can be cleared.
type flagType interface {
	envName() string
	clear()
}

// definedFlags maps names to flags defined so far.
var definedFlags = map[string]flagType{}

// cliAndEnvFlag is a kingpin flag which can be also set with DCT_<NAME> variable.
type cliAndEnvFlag struct {
	*kingpin.FlagClause
}

func newCliAndEnvFlag(flagName string, description string, defaultValue string) *cliAndEnvFlag {
	c := &cliAndEnvFlag{FlagClause: app.Flag(flagName, description)}
	c.Envar(c.envName())
	if defaultValue != "" {
		c.Default(defaultValue)
	}
	return c
}

// envName returns name converted to environment variable name.
// For instance: "controller_log" will be "DCT_CONTROLLER_LOG".
func (f *cliAndEnvFlag) envName() string {
	return fmt.Sprintf("%s_%s", EnvironmentPrefix, strings.ToUpper(f.Model().Name))
}

// clear unsets the corresponding environment variable.
func (f *cliAndEnvFlag) clear() {
	os.Unsetenv(f.envName())
}

// redefined returns flag registered earlier under the name or nil.
func redefined(flagName string) flagType {
	return definedFlags[flagName]
}

func register(flagName string, flagDef flagType) {
	definedFlags[flagName] = flagDef
	isEnvParsed = false
}

func panicOnRedefinition(flagName, what string) {
	panic(fmt.Sprintf("flag %q was redefined with different %s", flagName, what))
}

// StringFlag represents flag with string value.
type StringFlag struct {
	*cliAndEnvFlag
	defaultValue string
	value        *string
}

// NewStringFlag is a constructor of StringFlag struct. Flag may be defined by
// several packages as long as type and default agree.
func NewStringFlag(flagName string, description string, defaultValue string) *StringFlag {
	if previous := redefined(flagName); previous != nil {
		flagDef, ok := previous.(*StringFlag)
		if !ok {
			panicOnRedefinition(flagName, "type")
		}
		if flagDef.defaultValue != defaultValue {
			panicOnRedefinition(flagName, "default value")
		}
		return flagDef
	}

	flagDef := &StringFlag{
		cliAndEnvFlag: newCliAndEnvFlag(flagName, description, defaultValue),
		defaultValue:  defaultValue,
	}
	flagDef.value = flagDef.String()
	register(flagName, flagDef)
	return flagDef
}

// Value returns value of the flag after parse.
// NOTE: If conf is not parsed it returns default value (!)
func (s StringFlag) Value() string {
	if !isEnvParsed {
		return s.defaultValue
	}
	return *s.value
}

// IntFlag represents flag with int value.
type IntFlag struct {
	*cliAndEnvFlag
	defaultValue int
	value        *int
}

// NewIntFlag is a constructor of IntFlag struct.
func NewIntFlag(flagName string, description string, defaultValue int) *IntFlag {
	if previous := redefined(flagName); previous != nil {
		flagDef, ok := previous.(*IntFlag)
		if !ok {
			panicOnRedefinition(flagName, "type")
		}
		if flagDef.defaultValue != defaultValue {
			panicOnRedefinition(flagName, "default value")
		}
		return flagDef
	}

	flagDef := &IntFlag{
		cliAndEnvFlag: newCliAndEnvFlag(flagName, description, fmt.Sprintf("%d", defaultValue)),
		defaultValue:  defaultValue,
	}
	flagDef.value = flagDef.Int()
	register(flagName, flagDef)
	return flagDef
}

// Value returns value of the flag after parse or default when conf is not parsed.
func (i IntFlag) Value() int {
	if !isEnvParsed {
		return i.defaultValue
	}
	return *i.value
}

// BoolFlag represents flag with bool value.
type BoolFlag struct {
	*cliAndEnvFlag
	defaultValue bool
	value        *bool
}

// NewBoolFlag is a constructor of BoolFlag struct.
func NewBoolFlag(flagName string, description string, defaultValue bool) *BoolFlag {
	if previous := redefined(flagName); previous != nil {
		flagDef, ok := previous.(*BoolFlag)
		if !ok {
			panicOnRedefinition(flagName, "type")
		}
		if flagDef.defaultValue != defaultValue {
			panicOnRedefinition(flagName, "default value")
		}
		return flagDef
	}

	flagDef := &BoolFlag{
		cliAndEnvFlag: newCliAndEnvFlag(flagName, description, fmt.Sprintf("%v", defaultValue)),
		defaultValue:  defaultValue,
	}
	flagDef.value = flagDef.Bool()
	register(flagName, flagDef)
	return flagDef
}

// Value returns value of the flag after parse or default when conf is not parsed.
func (b BoolFlag) Value() bool {
	if !isEnvParsed {
		return b.defaultValue
	}
	return *b.value
}

// DurationFlag represents flag with duration value, e.g. "10s" or "500ms".
type DurationFlag struct {
	*cliAndEnvFlag
	defaultValue time.Duration
	value        *time.Duration
}

// NewDurationFlag is a constructor of DurationFlag struct.
func NewDurationFlag(flagName string, description string, defaultValue time.Duration) *DurationFlag {
	if previous := redefined(flagName); previous != nil {
		flagDef, ok := previous.(*DurationFlag)
		if !ok {
			panicOnRedefinition(flagName, "type")
		}
		if flagDef.defaultValue != defaultValue {
			panicOnRedefinition(flagName, "default value")
		}
		return flagDef
	}

	flagDef := &DurationFlag{
		cliAndEnvFlag: newCliAndEnvFlag(flagName, description, defaultValue.String()),
		defaultValue:  defaultValue,
	}
	flagDef.value = flagDef.Duration()
	register(flagName, flagDef)
	return flagDef
}

// Value returns value of the flag after parse or default when conf is not parsed.
func (d DurationFlag) Value() time.Duration {
	if !isEnvParsed {
		return d.defaultValue
	}
	return *d.value
}
