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
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

// EnvironmentPrefix is prepended to upper-cased flag names to build the name
// of the environment variable that overrides the flag.
const EnvironmentPrefix = "DCT"

var (
	app = kingpin.New("dctransfer", "Data-center transfer experiment orchestrator")
	// Default flags and values.
	logLevelFlag = NewStringFlag(
		"log",
		"Log level: debug, info, warn, error, fatal, panic",
		"error", // Default Error log level.
	)
	isEnvParsed = false

	singleDashLongOption = regexp.MustCompile(`^-[A-Za-z][A-Za-z0-9_]*(=.*)?$`)
)

// SetHelp sets the help message for the CLI.
func SetHelp(help string) {
	app.Help = help
}

// SetAppName sets application name for CLI output.
func SetAppName(name string) {
	app.Name = name
}

// AppName returns specified app name.
func AppName() string {
	return app.Name
}

// LogLevel returns configured logLevel from input option or env variable.
// If it cannot parse the log level, it returns default value.
func LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(logLevelFlag.Value())
	if err == nil {
		return level
	}

	level, err = logrus.ParseLevel(logLevelFlag.defaultValue)
	if err == nil {
		return level
	}

	// Programmer error.
	panic(errors.Wrap(err, "parsing log level failed"))
}

// NormalizeArgs rewrites single dash options ("-k", "-bw", "-nflows=2") to
// their double dash form understood by kingpin. Negative numbers and the
// "--" separator are left untouched.
func NormalizeArgs(args []string) []string {
	normalized := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(normalized, args[i:]...)
		}
		if singleDashLongOption.MatchString(arg) {
			arg = "-" + arg
		}
		normalized = append(normalized, arg)
	}
	return normalized
}

// ParseFlags parses both the command line flags of the process and
// environment variables.
func ParseFlags() error {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses given arguments and environment variables.
// Flags not present in args fall back to environment and then to defaults.
func ParseArgs(args []string) error {
	_, err := app.Parse(NormalizeArgs(args))
	if err == nil {
		isEnvParsed = true
		return nil
	}

	return errors.Wrapf(err, "could not parse command line flags")
}

// ParseEnv parses the environment for arguments.
func ParseEnv() error {
	_, err := app.Parse([]string{})
	if err == nil {
		isEnvParsed = true
		return nil
	}

	return errors.Wrapf(err, "could not parse environment flags")
}

type flagDefinition struct {
	Name, Value, Default, Help string
}

// getFlagsDefinition returns current value, default and help for every flag
// sorted by name. Flags with a dash in their name are kingpin builtins or
// meta flags and are skipped.
func getFlagsDefinition() (flags []flagDefinition) {
	for _, flag := range app.Model().Flags {
		if strings.Contains(flag.Name, "-") {
			continue
		}

		flags = append(flags, flagDefinition{
			Name:    flag.Name,
			Help:    flag.Help,
			Default: strings.Join(flag.Default, ","),
			Value:   flag.Value.String(),
		})
	}

	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })
	return flags
}

// DumpConfig dumps environment based configuration with current values of flags.
// Includes "allexport" directives for bash.
func DumpConfig() string {
	buffer := &bytes.Buffer{}

	buffer.WriteString("# Export are values.\n")
	buffer.WriteString("set -o allexport\n")

	for _, fd := range getFlagsDefinition() {
		fmt.Fprintf(buffer, "\n# %s\n", fd.Help)
		if fd.Default != "" {
			fmt.Fprintf(buffer, "# Default: %s\n", fd.Default)
		}
		fmt.Fprintf(buffer, "%s_%s=%v\n", EnvironmentPrefix, strings.ToUpper(fd.Name), fd.Value)
	}

	buffer.WriteString("set +o allexport")
	return buffer.String()
}

// DumpConfigMap dumps environment based configuration from flags map, e.g.
// flags recorded in metadata of previous experiment.
func DumpConfigMap(flagMap map[string]string) string {
	buffer := &bytes.Buffer{}

	buffer.WriteString("# Export are values.\n")
	buffer.WriteString("set -o allexport\n")

	names := make([]string, 0, len(flagMap))
	for name := range flagMap {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(buffer, "%s_%s=%v\n", EnvironmentPrefix, strings.ToUpper(name), flagMap[name])
	}

	buffer.WriteString("set +o allexport")
	return buffer.String()
}

// GetFlags returns flags as map with current values.
func GetFlags() map[string]string {
	flagsMap := map[string]string{}
	for _, flag := range getFlagsDefinition() {
		flagsMap[flag.Name] = flag.Value
	}
	return flagsMap
}
