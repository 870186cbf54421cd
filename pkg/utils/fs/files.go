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

package fs

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ReadTail returns last lineCount lines of the file.
func ReadTail(filePath string, lineCount int) (tail string, err error) {
	output, err := exec.Command("tail", "-n", strconv.Itoa(lineCount), filePath).CombinedOutput()

	if err != nil {
		return "", errors.Wrapf(err, "could not read tail of %q", filePath)
	}

	return string(output), nil
}

// LastLine returns the last non-empty line of the reader with surrounding
// whitespace removed. Empty input gives empty string.
func LastLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	// Transfer programs may print long debug lines.
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	last := ""
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrap(err, "scanning output failed")
	}
	return last, nil
}

// WriteFile writes everything read from src into dst, overwriting dst.
func WriteFile(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "cannot create %q", dst)
	}

	if _, err = io.Copy(out, src); err != nil {
		out.Close()
		return errors.Wrapf(err, "cannot write %q", dst)
	}
	return errors.Wrapf(out.Close(), "cannot close %q", dst)
}

// ExpandHome replaces leading "~" with home directory of the current user.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
