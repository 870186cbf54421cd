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

package executor

import (
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/xid"
)

var (
	outputDirectoryMutex sync.Mutex
	outputDirectory      = os.TempDir()
)

// SetOutputDirectory sets directory under which per task output directories are created.
func SetOutputDirectory(dir string) {
	outputDirectoryMutex.Lock()
	defer outputDirectoryMutex.Unlock()
	outputDirectory = dir
}

// OutputDirectory returns directory under which per task output directories are created.
func OutputDirectory() string {
	outputDirectoryMutex.Lock()
	defer outputDirectoryMutex.Unlock()
	return outputDirectory
}

func getBinaryNameFromCommand(command string) (string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", errors.Errorf("failed to extract command name from %q", command)
	}
	// Skip wrappers added by decorators so directory tells which program ran.
skip:
	for len(fields) > 1 {
		switch {
		case fields[0] == "sudo" || fields[0] == "-n" || fields[0] == "exec":
			fields = fields[1:]
		case fields[0] == "ip" && len(fields) > 4 && fields[1] == "netns" && fields[2] == "exec":
			fields = fields[4:]
		default:
			break skip
		}
	}
	_, name := path.Split(fields[0])
	return name, nil
}

// createExecutorOutputFiles creates unique directory with stdout and stderr files for given command.
func createExecutorOutputFiles(command, prefix string) (stdout, stderr *os.File, outputDir string, err error) {
	if len(command) == 0 {
		return nil, nil, "", errors.New("empty command string")
	}

	commandName, err := getBinaryNameFromCommand(command)
	if err != nil {
		return nil, nil, "", err
	}

	outputDir = filepath.Join(OutputDirectory(), prefix+"_"+commandName+"_"+xid.New().String())
	if err = os.MkdirAll(outputDir, 0755); err != nil {
		return nil, nil, "", errors.Wrapf(err, "failed to create output directory for %q", commandName)
	}

	stdout, err = os.Create(filepath.Join(outputDir, "stdout"))
	if err != nil {
		os.RemoveAll(outputDir)
		return nil, nil, "", errors.Wrapf(err, "failed to create stdout file for %q", commandName)
	}

	stderr, err = os.Create(filepath.Join(outputDir, "stderr"))
	if err != nil {
		stdout.Close()
		os.RemoveAll(outputDir)
		return nil, nil, "", errors.Wrapf(err, "failed to create stderr file for %q", commandName)
	}

	return stdout, stderr, outputDir, nil
}

// createNamedOutputFiles truncates (or creates) files receiving stdout and stderr.
func createNamedOutputFiles(stdoutPath, stderrPath string) (stdout, stderr *os.File, err error) {
	create := func(filePath string) (*os.File, error) {
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return nil, errors.Wrapf(err, "failed to create directory for %q", filePath)
		}
		file, err := os.Create(filePath)
		return file, errors.Wrapf(err, "failed to create output file %q", filePath)
	}

	if stdout, err = create(stdoutPath); err != nil {
		return nil, nil, err
	}
	if stderr, err = create(stderrPath); err != nil {
		stdout.Close()
		return nil, nil, err
	}
	return stdout, stderr, nil
}

// readStdout returns whole standard output of the task.
func readStdout(handle TaskHandle) (string, error) {
	file, err := handle.StdoutFile()
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := ioutil.ReadAll(file)
	if err != nil {
		return "", errors.Wrapf(err, "cannot read stdout of %s", handle)
	}
	return string(data), nil
}
