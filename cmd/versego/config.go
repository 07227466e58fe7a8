package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/versego/job"
	"gopkg.in/yaml.v3"
)

// trainConfig is the YAML layout accepted by "train --config". Command-line
// flags override file values.
type trainConfig struct {
	Job job.Config `yaml:",inline"`

	// Input is the graph blob URI.
	Input string `yaml:"input"`
	// OutputStore defaults to the store holding the graph.
	OutputStore string `yaml:"output_store"`

	MetricsAddr string `yaml:"metrics_addr"`

	Resources struct {
		MemoryLimitBytes   int64 `yaml:"memory_limit_bytes"`
		IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec"`
	} `yaml:"resources"`
}

func loadTrainConfig(path string) (*trainConfig, error) {
	cfg := &trainConfig{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
