// Command cli is a small client for the onboard server API. It drives
// the setup wizard from the terminal: inspecting status, tailing the
// log stream, and issuing control actions.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/seoforge/onboard/buildinfo"
	"github.com/seoforge/onboard/server/handlers"
)

var serverURL string

func main() {
	root := &cobra.Command{
		Use:   "onboardctl",
		Short: "Control the onboard setup wizard",
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the onboard server")

	root.AddCommand(
		statusCmd(),
		planCmd(),
		logsCmd(),
		controlCmd("start", "Start or resume the onboarding run"),
		controlCmd("start-fresh", "Discard saved state and start over"),
		controlCmd("retry", "Retry from the failed step"),
		controlCmd("skip", "Skip the failed step and continue"),
		controlCmd("stop-restart-step", "Abort and re-run the current step"),
		controlCmd("stop", "Abort the active run"),
		restartFromCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func client() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func getJSON(path string, out any) error {
	resp, err := client().Get(serverURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func postAction(action string, body any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	resp, err := client().Post(serverURL+"/api/"+action, "application/json", reader)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var er handlers.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil && er.Error != "" {
		return fmt.Errorf("%s (HTTP %d)", er.Error, resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current run status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp handlers.StatusResponse
			if err := getJSON("/api/status", &resp); err != nil {
				return err
			}

			st := resp.Status
			fmt.Printf("running:  %v\n", st.Running)
			fmt.Printf("progress: %d%%\n", st.State.GlobalProgress)
			if st.CurrentStepID != "" {
				fmt.Printf("step:     %s (%s)\n", st.CurrentStepTitle, st.CurrentStepID)
			}
			if st.State.FailedStep != nil {
				fmt.Printf("failed:   %s: %s\n", st.State.FailedStep.StepID, st.State.FailedStep.Message)
			}
			if st.State.Warnings > 0 {
				fmt.Printf("warnings: %d\n", st.State.Warnings)
			}
			if resp.NextRefresh != nil {
				fmt.Printf("next refresh: %s\n", resp.NextRefresh.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the phase plan and per-step status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var plan handlers.PlanResponse
			if err := getJSON("/api/plan", &plan); err != nil {
				return err
			}

			var status handlers.StatusResponse
			if err := getJSON("/api/status", &status); err != nil {
				return err
			}
			statuses := status.Status.State.Statuses

			for _, phase := range plan.Phases {
				fmt.Printf("%s (%s, %d-%d%%)\n", phase.ID, phase.Mode, phase.ProgressStart, phase.ProgressEnd)
				for _, step := range phase.Steps {
					marker := " "
					if step.Critical {
						marker = "!"
					}
					fmt.Printf("  [%2d]%s %-30s %s\n", step.Index, marker, step.ID, statuses[step.ID])
				}
			}
			return nil
		},
	}
}

func logsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Show the wizard log stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp handlers.LogsResponse
			if err := getJSON("/api/logs", &resp); err != nil {
				return err
			}
			for _, e := range resp.Entries {
				fmt.Printf("%s [%s] %s\n", e.Time.Format(time.RFC3339), e.Severity, e.Message)
			}
			return nil
		},
	}
}

func controlCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := postAction(action, nil); err != nil {
				return err
			}
			fmt.Printf("%s accepted\n", action)
			return nil
		},
	}
}

func restartFromCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart-from <step-index>",
		Short: "Restart the run from a given step index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step index %q", args[0])
			}
			if err := postAction("restart-from", handlers.RestartFromRequest{Index: index}); err != nil {
				return err
			}
			fmt.Printf("restart from step %d accepted\n", index)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			props := buildinfo.Get()
			fmt.Printf("onboardctl %s\n", props.Version)
			fmt.Printf("Built: %s\n", props.BuildTime)
			fmt.Printf("Commit: %s\n", props.GitCommit)
		},
	}
}
