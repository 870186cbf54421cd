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

// Package metadata stores experiment configuration, environment and results
// under the experiment id.
package metadata

import (
	"github.com/dcnet-lab/dctransfer/pkg/conf"
	"github.com/pkg/errors"
)

// Kinds of metadata. They group records of an experiment by their origin.
const (
	TypeEmpty    = ""
	TypeFlags    = "flags"
	TypeEnviron  = "environ"
	TypePlatform = "platform"
	TypeResults  = "results"
)

var metadataDBFlag = conf.NewStringFlag("metadata_db", "Database storing experiment metadata: none or cassandra", "none")

// Metadata interface defines methods which must be supported by DB backend
type Metadata interface {
	// RecordMap stores a key and value map and associates with the experiment id.
	RecordMap(metadata map[string]string, kind string) error
	// GetByKind retrives single metadata kind from the database.
	// Returns error if no kind or too many groups found.
	GetByKind(kind string) (map[string]string, error)
	// Clear deletes all metadata entries associated with the current experiment id.
	Clear() error
	// Close releases connection to the database.
	Close()
}

// NewDefault creates metadata backend selected with metadata_db flag.
func NewDefault(experimentID string) (Metadata, error) {
	switch metadataDBFlag.Value() {
	case "none", "":
		return NewNoop(), nil
	case "cassandra":
		return NewCassandra(experimentID, DefaultCassandraConfig())
	}
	return nil, errors.Errorf("unsupported database for metadata: %q", metadataDBFlag.Value())
}

// Noop keeps metadata in memory only. It is used when no database is configured.
type Noop struct {
	records map[string]map[string]string
}

// NewNoop creates Noop metadata.
func NewNoop() *Noop {
	return &Noop{records: map[string]map[string]string{}}
}

// RecordMap implements Metadata interface.
func (n *Noop) RecordMap(metadata map[string]string, kind string) error {
	stored, ok := n.records[kind]
	if !ok {
		stored = map[string]string{}
		n.records[kind] = stored
	}
	for key, value := range metadata {
		stored[key] = value
	}
	return nil
}

// GetByKind implements Metadata interface.
func (n *Noop) GetByKind(kind string) (map[string]string, error) {
	stored, ok := n.records[kind]
	if !ok {
		return nil, errors.Errorf("no metadata of kind %q", kind)
	}
	return stored, nil
}

// Clear implements Metadata interface.
func (n *Noop) Clear() error {
	n.records = map[string]map[string]string{}
	return nil
}

// Close implements Metadata interface.
func (n *Noop) Close() {}
