package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/liamcoop/survey/internal/config"
	"github.com/liamcoop/survey/internal/logger"
	"github.com/liamcoop/survey/rules"
	"github.com/urfave/cli/v2"
	"sigs.k8s.io/yaml"
)

// session carries what the Before hook prepares for the commands
type session struct {
	cfg    *config.Config
	engine *rules.Engine
	out    io.Writer
}

func newApp() *cli.App {
	s := &session{}

	app := &cli.App{
		Name:  "surveyctl",
		Usage: "validate, normalize and navigate survey task documents",
		Description: "Documents may be JSON or YAML. YAML uses 1.1 scalar rules: quote\n" +
			"yes, no, on and off when they are meant as strings.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "TRACE, DEBUG, INFO, WARN, ERROR or FATAL",
				EnvVars: []string{"SURVEY_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"o"},
				Usage:   "output format: json or yaml",
				EnvVars: []string{"SURVEY_OUTPUT_FORMAT"},
			},
			&cli.IntFlag{
				Name:    "cache-size",
				Usage:   "number of compiled rule programs to keep",
				EnvVars: []string{"SURVEY_PROGRAM_CACHE_SIZE"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "load settings from this file instead of ./.env",
			},
		},
		Before: s.setup,
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "decode and validate task documents",
				ArgsUsage: "FILE...",
				Action:    s.validate,
			},
			{
				Name:      "normalize",
				Usage:     "decode a task document and print its canonical form",
				ArgsUsage: "FILE",
				Action:    s.normalize,
			},
			{
				Name:      "navigate",
				Usage:     "decide the step after STEP given a recorded task result",
				ArgsUsage: "TASK RESULT STEP",
				Action:    s.navigate,
			},
			{
				Name:      "rules",
				Usage:     "evaluate the survey rules of one input field against an answer",
				ArgsUsage: "FIELD VALUE...",
				Action:    s.rules,
			},
			{
				Name:      "walk",
				Usage:     "run a task from its first step using answers from a file",
				ArgsUsage: "TASK ANSWERS",
				Action:    s.walk,
			},
		},
		// Errors are reported by main so tests can run the app in process.
		ExitErrHandler: func(*cli.Context, error) {},
	}
	return app
}

// setup loads configuration, lets non-empty flags override it and builds
// the engine
func (s *session) setup(c *cli.Context) error {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("env-file"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if v := c.String("log-level"); v != "" {
		level, err := logger.ParseLevel(v)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	if v := c.String("format"); v != "" {
		if err := config.ValidateFormat(v); err != nil {
			return err
		}
		cfg.OutputFormat = v
	}
	if v := c.Int("cache-size"); v > 0 {
		cfg.ProgramCacheSize = v
	}
	cfg.Apply()

	cache, err := rules.NewLRUProgramCache(rules.CacheConfig{Size: cfg.ProgramCacheSize})
	if err != nil {
		return err
	}
	engine, err := rules.NewEngineWithCache(cache)
	if err != nil {
		return err
	}

	s.cfg = cfg
	s.engine = engine
	s.out = c.App.Writer
	return nil
}

// write prints v as indented JSON or as YAML
func (s *session) write(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if s.cfg.OutputFormat == config.FormatYAML {
		if data, err = yaml.JSONToYAML(data); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
	} else {
		data = append(data, '\n')
	}
	_, err = s.out.Write(data)
	return err
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Error("surveyctl failed", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
