package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamancini/stewardctl/internal/api"
	"github.com/adamancini/stewardctl/internal/failure"
	"github.com/adamancini/stewardctl/internal/interactive"
	"github.com/adamancini/stewardctl/internal/output"
	"github.com/adamancini/stewardctl/internal/schedule"
	"github.com/adamancini/stewardctl/internal/types"
)

// Seams for tests.
var (
	stdinIsTerminal = interactive.IsTerminal
	now             = time.Now
)

// dryRunFireTimes is how many upcoming runs --dry-run lists.
const dryRunFireTimes = 5

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List, create, run and delete scheduled tasks",
	}

	cmd.AddCommand(newTasksListCmd())
	cmd.AddCommand(newTasksActiveCmd())
	cmd.AddCommand(newTasksCreateCmd())
	cmd.AddCommand(newTasksDeleteCmd())
	cmd.AddCommand(newTasksExecuteCmd())
	cmd.AddCommand(newTasksAbortCmd())

	return cmd
}

func newTasksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [ID]",
		Short: "List all tasks, or show one task in full",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				raw, err := rt.client().GetTask(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rt.out.RawJSON(raw)
			}
			tasks, err := rt.client().ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			return rt.out.Write(output.Tasks(tasks))
		},
	}
}

func newTasksActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "List tasks that are currently running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			tasks, err := rt.client().ActiveTasks(cmd.Context())
			if err != nil {
				return err
			}
			return rt.out.Write(output.Tasks(tasks))
		},
	}
}

type createFlags struct {
	name      string
	frequency string
	dryRun    bool
}

func (f *createFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Task name")
	cmd.Flags().StringVarP(&f.frequency, "frequency", "f", "", `"Hook" or a 6-field cron expression (sec min hour dom month dow)`)
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Validate and show the request and next run times without creating the task")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("frequency")
}

func newTasksCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a command or docker task",
		Long: `Create a task. Frequency is either "Hook" (run only via 'tasks execute') or
a 6-field cron expression with a leading seconds field.

Examples:
  stewardctl tasks create cmd -n backup -f "0 0 3 * * *" -c "pg_dump mydb > /backups/db.sql"
  stewardctl tasks create docker -n web -f Hook -t image -C nginx:latest -e PORT=8080
  stewardctl tasks create docker -n build -f "0 */30 * * * *" -t file -C ./Dockerfile`,
	}

	cmd.AddCommand(newTasksCreateCmdCmd())
	cmd.AddCommand(newTasksCreateDockerCmd())

	return cmd
}

func newTasksCreateCmdCmd() *cobra.Command {
	var (
		flags   createFlags
		command string
	)

	cmd := &cobra.Command{
		Use:   "cmd",
		Short: "Create a task that runs a shell command",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			frequency, err := schedule.ParseFrequency(flags.frequency)
			if err != nil {
				return err
			}
			req, err := types.NewCmdTask(flags.name, frequency, command)
			if err != nil {
				return failure.New(failure.KindInvalidInput, "build task", err)
			}
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			return runCreateTask(cmd.Context(), rt, req, flags.dryRun)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&command, "command", "c", "", "Shell command to run")
	_ = cmd.MarkFlagRequired("command")

	return cmd
}

func newTasksCreateDockerCmd() *cobra.Command {
	var (
		flags      createFlags
		sourceType string
		contents   string
		env        []string
	)

	cmd := &cobra.Command{
		Use:   "docker",
		Short: "Create a task that runs a docker container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			frequency, err := schedule.ParseFrequency(flags.frequency)
			if err != nil {
				return err
			}
			source, err := types.ParseDockerSource(sourceType)
			if err != nil {
				return failure.New(failure.KindInvalidInput, "parse --type", err)
			}
			body, err := dockerContents(source, contents)
			if err != nil {
				return err
			}
			req, err := types.NewDockerTask(flags.name, frequency, source, body, env)
			if err != nil {
				return failure.New(failure.KindInvalidInput, "build task", err)
			}
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			return runCreateTask(cmd.Context(), rt, req, flags.dryRun)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&sourceType, "type", "t", "", `Image source: "image" (a name to pull) or "file" (a Dockerfile path)`)
	cmd.Flags().StringVarP(&contents, "contents", "C", "", "Image name, or path to the Dockerfile")
	cmd.Flags().StringArrayVarP(&env, "env", "e", nil, "Environment variable KEY=VALUE (repeatable)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("contents")
	_ = cmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"image", "file"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// dockerContents returns the image name, or the Dockerfile text for file sources.
func dockerContents(source types.DockerSource, contents string) (string, error) {
	if !source.IsFile() {
		return contents, nil
	}
	data, err := os.ReadFile(contents)
	if err != nil {
		return "", failure.New(failure.KindInvalidInput, "read Dockerfile", err).
			WithGuidance("Couldn't read the file specified, please make sure the Dockerfile's path is correct")
	}
	return string(data), nil
}

type dryRunView struct {
	Request  *types.CreateTaskRequest `json:"request" yaml:"request"`
	NextRuns []string                 `json:"next_runs" yaml:"next_runs"`
}

func (v dryRunView) String() string {
	var b strings.Builder
	body, _ := json.MarshalIndent(v.Request, "", "  ")
	b.Write(body)
	b.WriteString("\n")
	if len(v.NextRuns) == 0 {
		b.WriteString(output.RenderLabel("Runs only when executed with 'stewardctl tasks execute'"))
		return b.String()
	}
	b.WriteString(output.RenderLabel("Next runs:"))
	for _, r := range v.NextRuns {
		b.WriteString("\n  " + r)
	}
	return b.String()
}

func runCreateTask(ctx context.Context, rt *runtime, req *types.CreateTaskRequest, dryRun bool) error {
	if dryRun {
		times, err := schedule.Next(req.Frequency, now(), dryRunFireTimes)
		if err != nil {
			return err
		}
		runs := make([]string, 0, len(times))
		for _, t := range times {
			runs = append(runs, output.FormatDate(t))
		}
		return rt.out.Write(dryRunView{Request: req, NextRuns: runs})
	}

	reply, err := rt.client().CreateTask(ctx, req)
	if err != nil {
		return err
	}
	return rt.out.RawJSON(reply)
}

func newTasksDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete one or more tasks",
		Long: `Delete tasks by ID. On a terminal a single deletion is confirmed with y/n;
for several IDs each one is confirmed (y = yes, n = skip, a = all remaining,
q = quit). Use --yes to skip prompts; it is required when stdin is not a
terminal.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := api.ValidateID(id); err != nil {
					return err
				}
			}
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			return runDeleteTasks(cmd.Context(), rt, cmd.InOrStdin(), args, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")

	return cmd
}

type taskStatusView struct {
	TaskID string `json:"task_id" yaml:"task_id"`
	Action string `json:"action" yaml:"action"`
	Status string `json:"status" yaml:"status"`
}

func runDeleteTasks(ctx context.Context, rt *runtime, in io.Reader, ids []string, yes bool) error {
	if !yes {
		if !stdinIsTerminal() {
			return failure.New(failure.KindInvalidInput, "refusing to delete without confirmation", nil).
				WithGuidance("stdin is not a terminal; pass --yes to delete non-interactively")
		}
		prompter := interactive.NewPrompterWithIO(in, rt.stderr)
		if len(ids) == 1 {
			if !prompter.Confirm(fmt.Sprintf("Delete task %s?", ids[0])) {
				return nil
			}
		} else {
			approved, ok := prompter.SelectItems("Delete", ids)
			if !ok {
				return nil
			}
			ids = approved
		}
	}

	client := rt.client()
	for _, id := range ids {
		status, err := client.DeleteTask(ctx, id)
		if err != nil {
			return err
		}
		view := taskStatusView{TaskID: id, Action: "deletion", Status: status}
		if err := rt.out.Message(fmt.Sprintf("Task deletion status: %s", status), view); err != nil {
			return err
		}
	}
	return nil
}

func newTasksExecuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute ID",
		Short: "Run a task now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			status, err := rt.client().ExecuteTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.out.Message(fmt.Sprintf("Task execution status: %s", status),
				taskStatusView{TaskID: args[0], Action: "execution", Status: status})
		},
	}
}

func newTasksAbortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abort ID",
		Short: "Abort a running task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			status, err := rt.client().AbortTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.out.Message(fmt.Sprintf("Task abort status: %s", status),
				taskStatusView{TaskID: args[0], Action: "abort", Status: status})
		},
	}
}
