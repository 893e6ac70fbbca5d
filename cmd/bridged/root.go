package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/bridge-runtime/dispatch"
	"github.com/wippyai/bridge-runtime/runtime"
	"github.com/wippyai/bridge-runtime/transport"
)

var rootCmd = &cobra.Command{
	Use:   "bridged",
	Short: "Serve the object bridge protocol over a line-oriented JSON pipe",
	Long: `bridged runs one bridge session: it reads newline-delimited JSON
commands, executes them against the registered Go runtime, and writes one
response per command.

By default the session runs over stdin/stdout. A controlling process that
needs stdout for itself can pass dedicated descriptors with --in-fd and
--out-fd.`,
	RunE: runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().String("config", "", "Path to YAML config file")
	rootCmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().String("echo", "", "Echo sink: stderr, discard, or a file path")
	rootCmd.Flags().String("include-root", "", "Directory the include/require constructs may load .wasm files from")
	rootCmd.Flags().Bool("no-builtins", false, "Skip registering the builtin function set")
	rootCmd.Flags().Int("in-fd", -1, "File descriptor to read requests from (default stdin)")
	rootCmd.Flags().Int("out-fd", -1, "File descriptor to write responses to (default stdout)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("echo"); v != "" {
		cfg.Echo = v
	}
	if v, _ := cmd.Flags().GetString("include-root"); v != "" {
		cfg.IncludeRoot = v
	}
	if v, _ := cmd.Flags().GetBool("no-builtins"); v {
		off := false
		cfg.Builtins = &off
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()
	dispatch.SetLogger(logger)

	echo, closeEcho, err := echoSink(cfg.Echo)
	if err != nil {
		return err
	}
	if closeEcho != nil {
		defer closeEcho()
	}

	opts := []runtime.Option{runtime.WithEcho(echo)}
	if cfg.IncludeRoot != "" {
		opts = append(opts, runtime.WithIncludeRoot(cfg.IncludeRoot))
	}
	rt := runtime.New(opts...)
	if cfg.Builtins == nil || *cfg.Builtins {
		if err := rt.RegisterBuiltins(); err != nil {
			return err
		}
	}

	tr, err := buildTransport(cmd)
	if err != nil {
		return err
	}
	defer tr.Close()

	return dispatch.NewSession(tr, rt).Run(context.Background())
}

func buildTransport(cmd *cobra.Command) (*transport.Line, error) {
	inFD, _ := cmd.Flags().GetInt("in-fd")
	outFD, _ := cmd.Flags().GetInt("out-fd")
	if inFD < 0 && outFD < 0 {
		return transport.Stdio(), nil
	}
	if inFD < 0 || outFD < 0 {
		return nil, fmt.Errorf("--in-fd and --out-fd must be set together")
	}
	in := os.NewFile(uintptr(inFD), "bridge-in")
	out := os.NewFile(uintptr(outFD), "bridge-out")
	if in == nil || out == nil {
		return nil, fmt.Errorf("invalid bridge descriptors %d/%d", inFD, outFD)
	}
	return transport.Files(in, out), nil
}

// buildLogger writes structured logs to stderr only: stdout may be the
// response stream.
func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
