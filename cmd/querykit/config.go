package main

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/viper"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/hybrid"
	"github.com/Aleph-Alpha/querykit/v1/igdb"
	"github.com/Aleph-Alpha/querykit/v1/kafka"
	"github.com/Aleph-Alpha/querykit/v1/logger"
	"github.com/Aleph-Alpha/querykit/v1/metrics"
	"github.com/Aleph-Alpha/querykit/v1/minio"
	"github.com/Aleph-Alpha/querykit/v1/pgstore"
	"github.com/Aleph-Alpha/querykit/v1/rabbit"
	"github.com/Aleph-Alpha/querykit/v1/redis"
	"github.com/Aleph-Alpha/querykit/v1/tracer"
)

// envPrefix prefixes every environment override, e.g.
// QUERYKIT_POSTGRES_CONNECTION_HOST for postgres.connection.host.
const envPrefix = "QUERYKIT"

// Config is the application configuration, one section per module.
type Config struct {
	Logger   logger.Config   `yaml:"logger" mapstructure:"logger"`
	Tracer   tracer.Config   `yaml:"tracer" mapstructure:"tracer"`
	Metrics  metrics.Config  `yaml:"metrics" mapstructure:"metrics"`
	Filter   filter.Config   `yaml:"filter" mapstructure:"filter"`
	Docstore docstore.Config `yaml:"docstore" mapstructure:"docstore"`
	Hybrid   hybrid.Config   `yaml:"hybrid" mapstructure:"hybrid"`

	// IGDB enables external search when ClientID is set.
	IGDB igdb.Config `yaml:"igdb" mapstructure:"igdb"`

	// Redis caches external responses when Host is set and IGDB is enabled.
	Redis redis.Config `yaml:"redis" mapstructure:"redis"`

	// Postgres is the document store, unless the CLI runs in memory mode.
	Postgres pgstore.Config `yaml:"postgres" mapstructure:"postgres"`

	// Rabbit publishes deletion events when Connection.Host is set.
	Rabbit rabbit.Config `yaml:"rabbit" mapstructure:"rabbit"`

	// Kafka publishes deletion events when Brokers is set.
	Kafka kafka.Config `yaml:"kafka" mapstructure:"kafka"`

	// Minio stores exported snapshots when Connection.Endpoint is set.
	Minio minio.Config `yaml:"minio" mapstructure:"minio"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.service_name", "querykit")
	v.SetDefault("logger.encoding", logger.EncodingConsole)
	v.SetDefault("tracer.service_name", "querykit")
	v.SetDefault("metrics.namespace", "querykit")
	v.SetDefault("metrics.service_name", "querykit")
	v.SetDefault("postgres.connection.host", "localhost")
	v.SetDefault("postgres.connection.port", "5432")
}

// loadConfig reads the YAML file at path, or querykit.yaml from the working
// directory or ~/.config/querykit when path is empty, and applies
// environment overrides on top.
func loadConfig(v *viper.Viper, path string) (Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvs(v, reflect.TypeOf(Config{}), ""); err != nil {
		return Config{}, err
	}

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("querykit")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/querykit")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// bindEnvs registers every leaf key of t with viper. AutomaticEnv alone does
// not make Unmarshal see keys that appear in neither the file nor the defaults.
func bindEnvs(v *viper.Viper, t reflect.Type, prefix string) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("mapstructure"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			if err := bindEnvs(v, f.Type, key); err != nil {
				return err
			}
			continue
		}
		if err := v.BindEnv(key); err != nil {
			return err
		}
	}
	return nil
}
