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

package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dcnet-lab/dctransfer/pkg/conf"
	"github.com/dcnet-lab/dctransfer/pkg/executor"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logDirFlag = conf.NewStringFlag("log_dir", "Directory under which experiment log directories are created", os.TempDir())

// CreateExperimentDir creates <log_dir>/<appName>/<uuid> with master.log in it.
func CreateExperimentDir(uuid, appName string) (string, *os.File, error) {
	experimentDirectory := filepath.Join(logDirFlag.Value(), appName, uuid)
	if err := os.MkdirAll(experimentDirectory, 0755); err != nil {
		return "", nil, errors.Wrapf(err, "cannot create experiment directory %q", experimentDirectory)
	}
	logFile, err := os.OpenFile(filepath.Join(experimentDirectory, "master.log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return "", nil, errors.Wrap(err, "cannot create master log file")
	}
	return experimentDirectory, logFile, nil
}

// Initialize creates experiment logs directory and configures logrus for an experiment.
// Output of launched tasks is kept in the same directory.
func Initialize(appName, uuid string) (*os.File, error) {
	experimentDirectory, logFile, err := CreateExperimentDir(uuid, appName)
	if err != nil {
		return nil, err
	}
	executor.SetOutputDirectory(experimentDirectory)

	// Setup logging set to both output and logFile.
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.100"})
	logrus.Infof("Working directory %q", experimentDirectory)
	logrus.SetOutput(io.MultiWriter(logFile, os.Stderr))

	logrus.Info("Starting Experiment ", appName, " with uuid ", uuid)
	fmt.Println(uuid)
	return logFile, nil
}
