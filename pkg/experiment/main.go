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

package experiment

import (
	"context"
	"path/filepath"
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/conf"
	"github.com/dcnet-lab/dctransfer/pkg/executor"
	"github.com/dcnet-lab/dctransfer/pkg/experiment/logger"
	"github.com/dcnet-lab/dctransfer/pkg/metadata"
	"github.com/dcnet-lab/dctransfer/pkg/utils/errutil"
	"github.com/nu7hatch/gouuid"
	"github.com/sirupsen/logrus"
)

// Main runs single experiment of the variant and returns exit code of the process:
// 0 on success, ExUsage on invalid arguments and 1 on any other failure.
func Main(variant Variant, help string, args []string) int {
	experimentStart := time.Now()
	conf.SetAppName(variant.Name)
	conf.SetHelp(help)
	Configure(args)

	config, err := RunConfigFromFlags()
	if err != nil {
		logrus.Errorf("%v", err)
		return ExUsage
	}
	config.ResultsDir, err = filepath.Abs(config.ResultsDir)
	if err != nil {
		logrus.Errorf("Cannot resolve results directory: %v", err)
		return ExUsage
	}

	id, err := uuid.NewV4()
	errutil.CheckWithContext(err, "Cannot generate experiment ID")

	logFile, err := logger.Initialize(variant.Name, id.String())
	errutil.CheckWithContext(err, "Cannot create experiment logs directory")
	defer logFile.Close()

	md, err := metadata.NewDefault(id.String())
	errutil.CheckWithContext(err, "Cannot connect to metadata database")
	defer md.Close()
	if err := metadata.RecordRuntimeEnv(md, experimentStart); err != nil {
		logrus.Errorf("Cannot save runtime metadata: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	unsubscribe := executor.RegisterInterruptHandle(cancel)
	defer unsubscribe()

	env, err := NewEnvironment(variant, config)
	if err != nil {
		logrus.Errorf("%v", err)
		return exitCode(err)
	}
	env.Metadata = md

	path, err := NewOrchestrator(variant, config, env).Run(ctx)
	if err != nil {
		return exitCode(err)
	}
	logrus.Infof("Experiment %s finished in %s, results in %q", id, time.Since(experimentStart), path)
	return 0
}

func exitCode(err error) int {
	if errutil.IsKind(err, ErrInvalidArgument) {
		return ExUsage
	}
	return 1
}
