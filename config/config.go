// Package config loads runtime settings from YAML over sane defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Journal  Journal  `yaml:"journal"`
	Outbox   Outbox   `yaml:"outbox"`
	Snapshot Snapshot `yaml:"snapshot"`
	Kafka    Kafka    `yaml:"kafka"`
	Depth    Depth    `yaml:"depth"`
	Logging  Logging  `yaml:"logging"`
	TapeFile string   `yaml:"tape_file"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Journal struct {
	Dir         string `yaml:"dir"`
	SegmentSize int64  `yaml:"segment_size"`
}

type Outbox struct {
	Dir string `yaml:"dir"`
}

type Snapshot struct {
	Dir      string        `yaml:"dir"`
	Interval time.Duration `yaml:"interval"`
}

type Kafka struct {
	Enabled     bool     `yaml:"enabled"`
	Brokers     []string `yaml:"brokers"`
	PrintsTopic string   `yaml:"prints_topic"`
	DepthTopic  string   `yaml:"depth_topic"`
}

type Depth struct {
	Levels int `yaml:"levels"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func Default() Config {
	return Config{
		Server:   Server{Addr: ":8080"},
		Journal:  Journal{Dir: "data/journal"},
		Outbox:   Outbox{Dir: "data/outbox"},
		Snapshot: Snapshot{Dir: "data/snapshot", Interval: time.Minute},
		Kafka: Kafka{
			Brokers:     []string{"localhost:9092"},
			PrintsTopic: "executions",
			DepthTopic:  "depth",
		},
		Depth:   Depth{Levels: 5},
		Logging: Logging{Level: "info"},
	}
}

// Load overlays the YAML file at path onto the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
