package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/mockvm/internal/harness"
	"github.com/roach88/mockvm/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Backend string // overrides the scenario's backend when set
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	Name     string          `json:"name"`
	Pass     bool            `json:"pass"`
	Errors   []string        `json:"errors,omitempty"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario-file>",
		Short: "Run one scenario and print its snapshot",
		Long: `Run a single scenario and print the canonical JSON snapshot of the
run: trace, logs, events and final store entries.

Session logs go to stderr; --verbose lowers the level to debug.

Example:
  mockvm run ./testdata/scenarios/rollback_restores.yaml
  mockvm run ./testdata/scenarios/rollback_restores.yaml --backend pebble -v`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Backend, "backend", "", fmt.Sprintf("store backend %v", store.Kinds()))

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Backend != "" && !slices.Contains(store.Kinds(), opts.Backend) {
		_ = formatter.Error(ErrCodeBadInput, fmt.Sprintf("unknown backend %q", opts.Backend), store.Kinds())
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown backend %q", opts.Backend))
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalid, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	if opts.Backend != "" {
		scenario.Backend = opts.Backend
	}

	logger.Info("running scenario", "name", scenario.Name, "backend", scenario.Backend)
	result, err := harness.RunWithLogger(scenario, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "scenario execution failed", err)
	}
	logger.Info("scenario finished", "name", scenario.Name, "pass", result.Pass, "trace_len", len(result.Trace))

	snapshot, err := harness.MarshalSnapshot(scenario.Name, result)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to marshal snapshot", err)
	}

	if opts.Format == "json" {
		if err := formatter.Success(RunOutput{
			Name:     scenario.Name,
			Pass:     result.Pass,
			Errors:   result.Errors,
			Snapshot: snapshot,
		}); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		if result.Pass {
			fmt.Fprintf(w, "✓ %s\n", scenario.Name)
		} else {
			fmt.Fprintf(w, "✗ %s\n", scenario.Name)
			for _, e := range result.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		fmt.Fprintln(w, string(snapshot))
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}
