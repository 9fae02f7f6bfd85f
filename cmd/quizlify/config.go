package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config is the server configuration, loaded from flags, QUIZLIFY_*
// environment variables, and an optional YAML file (flags win).
type Config struct {
	// DataFile is the JSON file holding study sets and history.
	DataFile string `koanf:"data-file" validate:"required"`
	// TimeLimit is the test-mode countdown.
	TimeLimit time.Duration `koanf:"time-limit" validate:"min=1s"`
	// QuestionLimit caps the number of questions per test.
	QuestionLimit int `koanf:"question-limit" validate:"min=1"`
	// MatchPairs is the match-game grid size in pairs.
	MatchPairs int `koanf:"match-pairs" validate:"min=2"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
}

// LoadConfig resolves the configuration from args plus the environment.
func LoadConfig(args []string) (Config, error) {
	f := pflag.NewFlagSet("quizlify", pflag.ContinueOnError)
	f.SetOutput(os.Stderr)
	f.String("config", "", "Path to a YAML config file")
	f.String("data-file", "./quizlify.json", "Path to the study data file")
	f.Duration("time-limit", 10*time.Minute, "Test mode time limit")
	f.Int("question-limit", 10, "Maximum questions per test")
	f.Int("match-pairs", 6, "Pairs on the match game board")
	f.Bool("verbose", false, "Enable debug logging")
	if err := f.Parse(args); err != nil {
		return Config{}, err
	}

	k := koanf.New(".")

	if configPath, _ := f.GetString("config"); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	// QUIZLIFY_DATA_FILE -> data-file, etc.
	if err := k.Load(env.Provider("QUIZLIFY_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "QUIZLIFY_")), "_", "-")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	// Passing k lets explicitly-set flags override file/env values while
	// flag defaults only fill gaps.
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("loading flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
