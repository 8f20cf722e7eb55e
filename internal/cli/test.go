package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/shapeforge/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string
}

// ScenarioResult is the verdict for one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "matched", "updated" or "" when absent
	Errors []string `json:"errors,omitempty"`
}

// TestResult aggregates a scenario directory.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r *TestResult) add(sr ScenarioResult) {
	r.Scenarios = append(r.Scenarios, sr)
	r.Total++
	if sr.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario harness",
		Long: `Run scenario files against fresh worlds.

Each scenario names its catalog, places shapes, feeds proximity and UI
events through the engine, then checks its assertions. When
<scenarios-dir>/golden/<name>.golden exists the trace must match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  shapeforge test ./scenarios
  shapeforge test ./scenarios --filter "merge*"
  shapeforge test ./scenarios --update
  shapeforge test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name matches this glob")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, "scenarios directory not found: "+dir)
	}
	if _, err := filepath.Match(opts.Filter, ""); err != nil {
		return WrapExitError(ExitCommandError, "invalid filter pattern", err)
	}

	files, err := scenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list scenarios", err)
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, f := range files {
		sr := checkScenario(f, opts.Update)
		result.add(sr)
		if opts.Format != "json" {
			reportScenario(cmd.OutOrStdout(), sr)
		}
	}

	if opts.Format == "json" {
		if err := writeTestJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		writeTestSummary(cmd.OutOrStdout(), result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// scenarioFiles lists .yaml/.yml files under dir in lexical order, skipping
// golden directories.
func scenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir():
			if path != dir && d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			// Pattern validity is checked by the caller.
			if ok, _ := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext)); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	slices.Sort(files)
	return files, err
}

// checkScenario runs one scenario file, then compares or rewrites its golden
// trace. Assertion errors and golden errors are both collected.
func checkScenario(path string, update bool) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(path)}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("load: %v", err)}
		return sr
	}
	sr.Name = scenario.Name

	result, err := harness.Run(scenario)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Errors = result.Errors

	golden := goldenPath(path)
	snapshot := harness.TraceSnapshot{ScenarioName: scenario.Name, Trace: result.Trace}
	got, err := snapshot.Canonical()
	if err != nil {
		sr.Errors = append(sr.Errors, fmt.Sprintf("marshal trace: %v", err))
		return sr
	}

	switch want, err := os.ReadFile(golden); {
	case update:
		if err := writeGolden(golden, got); err != nil {
			sr.Errors = append(sr.Errors, err.Error())
		} else {
			sr.Golden = "updated"
		}
	case errors.Is(err, fs.ErrNotExist):
		// Assertions only.
	case err != nil:
		sr.Errors = append(sr.Errors, fmt.Sprintf("read golden: %v", err))
	case !bytes.Equal(want, got):
		sr.Errors = append(sr.Errors, "Golden file mismatch (run with --update to regenerate)")
	default:
		sr.Golden = "matched"
	}

	sr.Pass = len(sr.Errors) == 0
	return sr
}

// goldenPath maps dir/name.yaml to dir/golden/name.golden.
func goldenPath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}

func reportScenario(w io.Writer, sr ScenarioResult) {
	mark := "✓"
	if !sr.Pass {
		mark = "✗"
	}
	if sr.Golden == "updated" {
		fmt.Fprintf(w, "%s %s (golden updated)\n", mark, sr.Name)
	} else {
		fmt.Fprintf(w, "%s %s\n", mark, sr.Name)
	}
	for _, e := range sr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

func writeTestSummary(w io.Writer, result TestResult) {
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed == 0 {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
}

func writeTestJSON(w io.Writer, result TestResult) error {
	resp := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
