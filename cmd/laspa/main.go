package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/laspa-lang/laspa/pkg/config"
	"github.com/laspa-lang/laspa/pkg/driver"
	"github.com/laspa-lang/laspa/pkg/logging"
	"github.com/urfave/cli/v2"
)

var verbosity int

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "optimization-level",
			Aliases: []string{"O"},
			Value:   1,
			Usage:   "Optimization level, from 0 (none) to 3 (aggressive).",
		},
		&cli.BoolFlag{
			Name:    "executable",
			Aliases: []string{"e"},
			Value:   true,
			Usage:   "Produce an executable file.",
		},
		&cli.BoolFlag{
			Name:    "interpret",
			Aliases: []string{"i"},
			Usage:   "Interpret the file.",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Verbose output. Repeat for more (-vvvv traces).",
			Count:   &verbosity,
		},
		&cli.StringFlag{
			Name:    "executable-name",
			Aliases: []string{"o"},
			Value:   "main",
			Usage:   "Name of the executable.",
		},
		&cli.BoolFlag{
			Name:  "jit",
			Usage: "Execute the generated IR with the JIT.",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Read build settings from a YAML `FILE`.",
		},
		&cli.BoolFlag{
			Name:  "emit-ir",
			Usage: "Print the generated LLVM IR.",
		},
		&cli.BoolFlag{
			Name:  "dump-ast",
			Usage: "Print the parsed syntax tree.",
		},
	}
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("optimization-level") {
		cfg.OptimizationLevel = c.Int("optimization-level")
	}
	if c.IsSet("executable") {
		cfg.Executable = c.Bool("executable")
	}
	if c.IsSet("interpret") {
		cfg.Interpret = c.Bool("interpret")
	}
	if c.IsSet("executable-name") {
		cfg.ExecutableName = c.String("executable-name")
	}
	if c.IsSet("jit") {
		cfg.JIT = c.Bool("jit")
	}
	if c.IsSet("emit-ir") {
		cfg.EmitIR = c.Bool("emit-ir")
	}
	if c.IsSet("dump-ast") {
		cfg.DumpAST = c.Bool("dump-ast")
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	applyFlags(c, cfg)
	return cfg, nil
}

func run(c *cli.Context) error {
	logging.Setup(os.Stderr, verbosity)

	if c.Args().Len() != 1 {
		return errors.New("Expected exactly one source file.")
	}
	filename := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.JIT && cfg.EmitIR {
		slog.Warn("the IR is printed before the JIT optimizes it")
	}

	res, err := driver.New(cfg, os.Stdout).FromFile(filename)
	if err != nil {
		return err
	}

	switch res.Mode {
	case driver.ModeInterpret, driver.ModeJIT:
		slog.Info("result", "value", res.Value)
	case driver.ModeExecutable:
		slog.Info("wrote executable", "path", res.Executable)
	}
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "laspa",
		Usage:                  "A small prefix-notation language with an interpreter, a JIT and an LLVM compiler.",
		ArgsUsage:              "FILE",
		UseShortOptionHandling: true,
		Flags:                  flags(),
		Action:                 run,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
