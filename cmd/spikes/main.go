// Command spikes detects spikes in numeric series read from text files.
//
//	spikes detect [flags] FILE
//	spikes version [--format text|json|yaml]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kbukum/spikekit/bootstrap"
	"github.com/kbukum/spikekit/errors"
	"github.com/kbukum/spikekit/version"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "detect":
		return runDetect(ctx, args[1:], stdin, stdout, stderr)
	case "version":
		return runVersion(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "spikes: unknown command %q\n\n", args[0])
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage:
  spikes detect [flags] FILE   detect spikes in FILE ("-" for stdin)
  spikes version               print build information

Run 'spikes detect --help' for detect flags.
`)
}

func runDetect(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := newDetectFlags()
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "spikes detect: exactly one input FILE is required")
		return exitUsage
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		fmt.Fprintf(stderr, "spikes detect: %v\n", err)
		return exitUsage
	}
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "spikes detect: %v\n", err)
		return exitUsage
	}

	tel := &telemetry{}
	tel.install(app)

	cmd := &detectCmd{
		cfg:     cfg,
		path:    fs.Arg(0),
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		log:     app.Logger.WithComponent("cli"),
		metrics: tel,
	}
	if err := app.RunTask(ctx, cmd.run); err != nil {
		fmt.Fprintf(stderr, "spikes detect: %v\n", err)
		if ae, ok := errors.AsAppError(err); ok && errors.IsSetupCode(ae.Code) {
			return exitUsage
		}
		return exitFailure
	}
	return exitOK
}

func runVersion(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("version", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "text", "output format: text, json or yaml")
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}

	info := version.Get()
	var err error
	switch *format {
	case "text":
		_, err = fmt.Fprintf(stdout, "spikes %s\n", info)
	case formatJSON:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(info)
	case formatYAML:
		err = yaml.NewEncoder(stdout).Encode(info)
	default:
		fmt.Fprintf(stderr, "spikes version: unknown format %q\n", *format)
		return exitUsage
	}
	if err != nil {
		fmt.Fprintf(stderr, "spikes version: %v\n", err)
		return exitFailure
	}
	return exitOK
}
