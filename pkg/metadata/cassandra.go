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

package metadata

import (
	"fmt"
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/conf"
	"github.com/gocql/gocql"
	"github.com/pkg/errors"
)

var (
	cassandraAddressFlag           = conf.NewStringFlag("cassandra_address", "Address of Cassandra DB endpoint", "127.0.0.1")
	cassandraPortFlag              = conf.NewIntFlag("cassandra_port", "Port of Cassandra DB endpoint", 9042)
	cassandraUsernameFlag          = conf.NewStringFlag("cassandra_username", "Cassandra user name; empty disables authentication", "")
	cassandraPasswordFlag          = conf.NewStringFlag("cassandra_password", "Cassandra password", "")
	cassandraKeyspaceFlag          = conf.NewStringFlag("cassandra_keyspace_name", "Keyspace keeping experiment metadata", "dctransfer")
	cassandraCreateKeyspaceFlag    = conf.NewBoolFlag("cassandra_create_keyspace", "Create keyspace when it does not exist", true)
	cassandraTimeoutFlag           = conf.NewDurationFlag("cassandra_timeout", "Cassandra query timeout", 10*time.Second)
	cassandraConnectionTimeoutFlag = conf.NewDurationFlag("cassandra_connection_timeout", "Cassandra connection timeout", 10*time.Second)
	cassandraSslEnabledFlag        = conf.NewBoolFlag("cassandra_ssl", "Use SSL for Cassandra connection", false)
	cassandraSslCAPathFlag         = conf.NewStringFlag("cassandra_ssl_ca_path", "CA certificate for Cassandra SSL", "")
	cassandraSslCertPathFlag       = conf.NewStringFlag("cassandra_ssl_cert_path", "Client certificate for Cassandra SSL", "")
	cassandraSslKeyPathFlag        = conf.NewStringFlag("cassandra_ssl_key_path", "Client key for Cassandra SSL", "")
)

const (
	createTableQuery = "CREATE TABLE IF NOT EXISTS metadata (experiment_id text, kind text, time timestamp, timeuuid TIMEUUID, metadata map<text,text>, PRIMARY KEY ((experiment_id), timeuuid)) WITH CLUSTERING ORDER BY (timeuuid DESC);"
	insertQuery      = `INSERT INTO metadata (experiment_id, kind, time, timeuuid, metadata) VALUES (?, ?, ?, ?, ?)`
	selectQuery      = `SELECT metadata FROM metadata WHERE experiment_id = ? AND kind = ? ALLOW FILTERING`
	deleteQuery      = `DELETE FROM metadata WHERE experiment_id = ?`
)

// CassandraConfig encodes the settings for connecting to the database.
type CassandraConfig struct {
	Address           string
	Port              int
	Username          string
	Password          string
	KeyspaceName      string
	CreateKeyspace    bool
	Timeout           time.Duration
	ConnectionTimeout time.Duration
	SslEnabled        bool
	SslCAPath         string
	SslCertPath       string
	SslKeyPath        string
}

// DefaultCassandraConfig applies the Cassandra settings from the command line flags and
// environment variables.
func DefaultCassandraConfig() CassandraConfig {
	return CassandraConfig{
		Address:           cassandraAddressFlag.Value(),
		Port:              cassandraPortFlag.Value(),
		Username:          cassandraUsernameFlag.Value(),
		Password:          cassandraPasswordFlag.Value(),
		KeyspaceName:      cassandraKeyspaceFlag.Value(),
		CreateKeyspace:    cassandraCreateKeyspaceFlag.Value(),
		Timeout:           cassandraTimeoutFlag.Value(),
		ConnectionTimeout: cassandraConnectionTimeoutFlag.Value(),
		SslEnabled:        cassandraSslEnabledFlag.Value(),
		SslCAPath:         cassandraSslCAPathFlag.Value(),
		SslCertPath:       cassandraSslCertPathFlag.Value(),
		SslKeyPath:        cassandraSslKeyPathFlag.Value(),
	}
}

// Cassandra keeps the session alive and tags every record with the experiment id.
type Cassandra struct {
	experimentID string
	config       CassandraConfig
	session      *gocql.Session
}

// NewCassandra connects to Cassandra and makes sure metadata table exists.
func NewCassandra(experimentID string, config CassandraConfig) (*Cassandra, error) {
	c := &Cassandra{
		experimentID: experimentID,
		config:       config,
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// clusterConfig prepares configuration of Cassandra cluster without keyspace selected.
func (c *Cassandra) clusterConfig() *gocql.ClusterConfig {
	cluster := gocql.NewCluster(c.config.Address)
	cluster.Port = c.config.Port
	cluster.Consistency = gocql.LocalOne
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.ProtoVersion = 4
	cluster.Timeout = c.config.Timeout
	cluster.ConnectTimeout = c.config.ConnectionTimeout

	if c.config.Username != "" && c.config.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: c.config.Username,
			Password: c.config.Password,
		}
	}
	if c.config.SslEnabled {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 c.config.SslCAPath,
			CertPath:               c.config.SslCertPath,
			KeyPath:                c.config.SslKeyPath,
			EnableHostVerification: true,
		}
	}
	return cluster
}

func (c *Cassandra) createKeyspace() error {
	session, err := c.clusterConfig().CreateSession()
	if err != nil {
		return errors.Wrap(err, "cannot create session for creating keyspace")
	}
	defer session.Close()

	query := fmt.Sprintf("CREATE KEYSPACE IF NOT EXISTS %s WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': 1};", c.config.KeyspaceName)
	return errors.Wrap(session.Query(query).Exec(), "cannot create keyspace")
}

func (c *Cassandra) connect() error {
	if c.config.CreateKeyspace {
		if err := c.createKeyspace(); err != nil {
			return err
		}
	}

	cluster := c.clusterConfig()
	cluster.Keyspace = c.config.KeyspaceName
	session, err := cluster.CreateSession()
	if err != nil {
		return errors.Wrapf(err, "cannot connect to Cassandra at %s:%d", c.config.Address, c.config.Port)
	}

	if err := session.Query(createTableQuery).Exec(); err != nil {
		session.Close()
		return errors.Wrap(err, "cannot create metadata table")
	}
	c.session = session
	return nil
}

// RecordMap implements Metadata interface.
func (c *Cassandra) RecordMap(metadata map[string]string, kind string) error {
	err := c.session.Query(insertQuery, c.experimentID, kind, time.Now(), gocql.TimeUUID(), metadata).Exec()
	return errors.Wrapf(err, "cannot publish metadata of kind %q", kind)
}

// GetByKind implements Metadata interface.
func (c *Cassandra) GetByKind(kind string) (map[string]string, error) {
	var (
		metadata map[string]string
		maps     []map[string]string
	)

	iter := c.session.Query(selectQuery, c.experimentID, kind).Iter()
	for iter.Scan(&metadata) {
		maps = append(maps, metadata)
		metadata = nil
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrapf(err, "cannot read metadata of kind %q", kind)
	}

	if len(maps) != 1 {
		return nil, errors.Errorf("found %d metadata groups of kind %q for experiment %q", len(maps), kind, c.experimentID)
	}
	return maps[0], nil
}

// Clear implements Metadata interface.
func (c *Cassandra) Clear() error {
	return errors.Wrapf(c.session.Query(deleteQuery, c.experimentID).Exec(), "cannot clear metadata of %q", c.experimentID)
}

// Close implements Metadata interface.
func (c *Cassandra) Close() {
	c.session.Close()
}
