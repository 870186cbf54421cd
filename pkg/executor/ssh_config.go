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
	"os/user"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	// DefaultSSHPort represent default port of SSH server (22).
	DefaultSSHPort    = 22
	defaultSSHKeyPath = ".ssh/id_rsa"
	knownHostsPath    = ".ssh/known_hosts"
)

// SSHConfig with clientConfig, host and port to connect.
type SSHConfig struct {
	ClientConfig *ssh.ClientConfig
	Host         string
	Port         int
}

// getAuthMethod which uses given key.
func getAuthMethod(keyPath string) (ssh.AuthMethod, error) {
	buffer, err := ioutil.ReadFile(keyPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read SSH key %q", keyPath)
	}

	key, err := ssh.ParsePrivateKey(buffer)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse SSH key %q", keyPath)
	}

	return ssh.PublicKeys(key), nil
}

// getHostKeyCallback verifies hosts against user's known_hosts when present.
func getHostKeyCallback(homeDir string) ssh.HostKeyCallback {
	path := filepath.Join(homeDir, knownHostsPath)
	if _, err := os.Stat(path); err == nil {
		callback, err := knownhosts.New(path)
		if err == nil {
			return callback
		}
		log.Warnf("Cannot parse %q, host keys will not be verified: %v", path, err)
	}
	return ssh.InsecureIgnoreHostKey()
}

// NewSSHConfig creates a new ssh config for user.
// NOTE: Assumed that private key is available in default dir (<home_dir>/.ssh/).
func NewSSHConfig(host string, port int, user *user.User) (*SSHConfig, error) {
	keyPath := filepath.Join(user.HomeDir, defaultSSHKeyPath)
	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		return nil, errors.Errorf("SSH keys not found in %s", keyPath)
	}

	authMethod, err := getAuthMethod(keyPath)
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User: user.Username,
		Auth: []ssh.AuthMethod{
			authMethod,
		},
		HostKeyCallback: getHostKeyCallback(user.HomeDir),
	}

	return &SSHConfig{
		ClientConfig: clientConfig,
		Host:         host,
		Port:         port,
	}, nil
}
