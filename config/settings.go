package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the runtime tuning loaded from config.yaml. Everything
// here has a working default so the file is optional.
type Settings struct {
	Pipeline PipelineSettings `yaml:"pipeline"`
	HTTP     HTTPSettings     `yaml:"http"`
	Poll     PollSettings     `yaml:"poll"`
	Retry    RetrySettings    `yaml:"retry"`
}

type PipelineSettings struct {
	EntryPoint    string `yaml:"entry_point"`
	CompositionID string `yaml:"composition_id"`
	OutputPath    string `yaml:"output_path"`
}

type HTTPSettings struct {
	RequestTimeoutSec int `yaml:"request_timeout_sec"`
	PublishTimeoutSec int `yaml:"publish_timeout_sec"`
}

type PollSettings struct {
	MaxChecks   int `yaml:"max_checks"`
	IntervalSec int `yaml:"interval_sec"`
}

type RetrySettings struct {
	Attempts       int `yaml:"attempts"`
	InitialDelayMs int `yaml:"initial_delay_ms"`
}

// Load reads settings from path. A missing file yields pure defaults;
// a malformed file is an error.
func Load(path string) (*Settings, error) {
	s := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	s.fillZero()
	return s, nil
}

func defaults() *Settings {
	return &Settings{
		Pipeline: PipelineSettings{
			EntryPoint:    "src/index.ts",
			CompositionID: "Main",
			OutputPath:    "out/video.mp4",
		},
		HTTP:  HTTPSettings{RequestTimeoutSec: 10, PublishTimeoutSec: 15},
		Poll:  PollSettings{MaxChecks: 10, IntervalSec: 10},
		Retry: RetrySettings{Attempts: 3, InitialDelayMs: 1000},
	}
}

// fillZero restores defaults for fields the yaml file left unset.
func (s *Settings) fillZero() {
	d := defaults()
	if s.Pipeline.EntryPoint == "" {
		s.Pipeline.EntryPoint = d.Pipeline.EntryPoint
	}
	if s.Pipeline.CompositionID == "" {
		s.Pipeline.CompositionID = d.Pipeline.CompositionID
	}
	if s.Pipeline.OutputPath == "" {
		s.Pipeline.OutputPath = d.Pipeline.OutputPath
	}
	if s.HTTP.RequestTimeoutSec == 0 {
		s.HTTP.RequestTimeoutSec = d.HTTP.RequestTimeoutSec
	}
	if s.HTTP.PublishTimeoutSec == 0 {
		s.HTTP.PublishTimeoutSec = d.HTTP.PublishTimeoutSec
	}
	if s.Poll.MaxChecks == 0 {
		s.Poll.MaxChecks = d.Poll.MaxChecks
	}
	if s.Poll.IntervalSec == 0 {
		s.Poll.IntervalSec = d.Poll.IntervalSec
	}
	if s.Retry.Attempts == 0 {
		s.Retry.Attempts = d.Retry.Attempts
	}
	if s.Retry.InitialDelayMs == 0 {
		s.Retry.InitialDelayMs = d.Retry.InitialDelayMs
	}
}

// RequestTimeout is the per-call budget for reads and status checks.
func (s *Settings) RequestTimeout() time.Duration {
	return time.Duration(s.HTTP.RequestTimeoutSec) * time.Second
}

// PublishTimeout is the per-call budget for job-creating posts.
func (s *Settings) PublishTimeout() time.Duration {
	return time.Duration(s.HTTP.PublishTimeoutSec) * time.Second
}

// PollInterval is the wait between publish status checks.
func (s *Settings) PollInterval() time.Duration {
	return time.Duration(s.Poll.IntervalSec) * time.Second
}

// InitialRetryDelay is the first backoff step for retried operations.
func (s *Settings) InitialRetryDelay() time.Duration {
	return time.Duration(s.Retry.InitialDelayMs) * time.Millisecond
}
