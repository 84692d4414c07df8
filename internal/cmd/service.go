package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamancini/stewardctl/internal/config"
	"github.com/adamancini/stewardctl/internal/failure"
	"github.com/adamancini/stewardctl/internal/lifecycle"
	"github.com/adamancini/stewardctl/internal/output"
	"github.com/adamancini/stewardctl/internal/release"
)

func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Install, start and stop the StewardX service",
	}

	cmd.AddCommand(newServiceInstallCmd())
	cmd.AddCommand(newServiceStartCmd())
	cmd.AddCommand(newServiceStopCmd())
	cmd.AddCommand(newServiceStatusCmd())

	return cmd
}

func newServiceInstallCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Download the latest StewardX binary for this platform",
		Long: `Download the latest StewardX release binary for this platform into the
install directory ($STEWARDX_DIR, default ~/.stewardx). An existing binary is
replaced only after the new one is fully downloaded.

Examples:
  stewardctl service install           # Install or reinstall the latest release
  stewardctl service install --check   # Show what would be installed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			if check {
				return runServiceCheck(cmd.Context(), rt)
			}
			return runServiceInstall(cmd.Context(), rt)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Show the latest release and matching asset without downloading")

	return cmd
}

type installView struct {
	Path     string `json:"path" yaml:"path"`
	Release  string `json:"release" yaml:"release"`
	Asset    string `json:"asset" yaml:"asset"`
	Bytes    int64  `json:"bytes" yaml:"bytes"`
	Verified bool   `json:"checksum_verified" yaml:"checksum_verified"`
}

func (v installView) String() string {
	msg := fmt.Sprintf("Installed StewardX %s to %s (%s)", v.Release, v.Path, output.Bytes(v.Bytes))
	if v.Verified {
		msg += ", checksum verified"
	}
	return output.RenderOK(msg)
}

func newInstallView(r *release.InstallResult) installView {
	v := installView{Path: r.Path, Bytes: r.Bytes, Verified: r.Checked}
	if r.Release != nil {
		v.Release = r.Release.TagName
	}
	if r.Asset != nil {
		v.Asset = r.Asset.Name
	}
	return v
}

func runServiceInstall(ctx context.Context, rt *runtime) error {
	result, err := rt.installer().Install(ctx)
	if err != nil {
		return err
	}
	return rt.out.Write(newInstallView(result))
}

type checkView struct {
	Latest    string `json:"latest" yaml:"latest"`
	Asset     string `json:"asset" yaml:"asset"`
	Size      int64  `json:"size" yaml:"size"`
	Installed string `json:"installed,omitempty" yaml:"installed,omitempty"`
	Available bool   `json:"update_available" yaml:"update_available"`
}

func (v checkView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", output.RenderLabel("Latest release:"), v.Latest)
	fmt.Fprintf(&b, "%s %s (%s)\n", output.RenderLabel("Asset:"), v.Asset, output.Bytes(v.Size))
	installed := v.Installed
	if installed == "" {
		installed = "unknown"
	}
	fmt.Fprintf(&b, "%s %s\n", output.RenderLabel("Installed:"), installed)
	if v.Available {
		b.WriteString("Run 'stewardctl service install' to install it")
	} else {
		b.WriteString("Already running the latest release")
	}
	return b.String()
}

func runServiceCheck(ctx context.Context, rt *runtime) error {
	result, err := rt.installer().Check(ctx)
	if err != nil {
		return err
	}
	return rt.out.Write(checkView{
		Latest:    result.Release.TagName,
		Asset:     result.Asset.Name,
		Size:      result.Asset.Size,
		Installed: result.Installed,
		Available: result.Available,
	})
}

func newServiceStartCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start StewardX in the background",
		Long: `Start the StewardX service as a background process. STEWARDX_DATABASE_URL
must be set; it is passed to the service through the environment.

The binary is installed first if it is missing. After launching, stewardctl
waits up to --wait for the control socket to appear. A start that is not
confirmed in time is reported but is not an error; check the log file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("wait") {
				wait = rt.settings.StartTimeout
			}
			return runServiceStart(cmd.Context(), rt, wait)
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "How long to wait for the service to come up (0 skips the check; default from config, 5s)")

	return cmd
}

type startView struct {
	PID        int          `json:"pid" yaml:"pid"`
	Confirmed  bool         `json:"confirmed" yaml:"confirmed"`
	SocketPath string       `json:"socket" yaml:"socket"`
	LogPath    string       `json:"log" yaml:"log"`
	Installed  *installView `json:"installed,omitempty" yaml:"installed,omitempty"`
	waited     time.Duration
	checked    bool
}

func (v startView) String() string {
	var b strings.Builder
	if v.Installed != nil {
		b.WriteString(v.Installed.String())
		b.WriteString("\n")
	}
	switch {
	case v.Confirmed:
		b.WriteString(output.RenderOK(fmt.Sprintf("StewardX started (pid %d), listening on %s", v.PID, v.SocketPath)))
	case v.checked:
		b.WriteString(output.RenderWarn(fmt.Sprintf(
			"StewardX started (pid %d) but not yet confirmed after %s; check %s",
			v.PID, v.waited.Round(time.Millisecond), v.LogPath)))
	default:
		b.WriteString(output.RenderOK(fmt.Sprintf("StewardX launched (pid %d), logging to %s", v.PID, v.LogPath)))
	}
	return b.String()
}

func runServiceStart(ctx context.Context, rt *runtime, wait time.Duration) error {
	s := rt.settings
	launcher := lifecycle.NewLauncher(
		s,
		lifecycle.NewProber(s.SocketPath),
		rt.installer(),
		// The service derives its socket from STEWARDX_DIR; make it bind
		// where the prober and the controller look.
		lifecycle.NewSpawner().Setenv(config.EnvInstallDir, s.SocketDir),
		lifecycle.NewSocketWaiter(rt.log),
	).WithLogger(rt.log)

	result, err := launcher.Start(ctx, wait)
	if err != nil {
		return err
	}

	view := startView{
		PID:        result.PID,
		Confirmed:  result.Confirmed,
		SocketPath: result.SocketPath,
		LogPath:    result.LogPath,
		waited:     result.Waited,
		checked:    wait > 0,
	}
	if result.Installed != nil {
		iv := newInstallView(result.Installed)
		view.Installed = &iv
	}
	return rt.out.Write(view)
}

func newServiceStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Ask StewardX to shut down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			return runServiceStop(cmd.Context(), rt)
		},
	}
}

type stopView struct {
	Stopped bool   `json:"stopped" yaml:"stopped"`
	Reply   string `json:"reply,omitempty" yaml:"reply,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// runServiceStop never fails on an unreachable service: not being able to
// connect is reported and the command still succeeds.
func runServiceStop(ctx context.Context, rt *runtime) error {
	result, err := lifecycle.NewController(rt.settings.SocketPath).WithLogger(rt.log).Stop(ctx)
	if err != nil {
		if failure.KindOf(err) != failure.KindConnection {
			return err
		}
		rt.log.Debug().Err(err).Msg("stop request failed")
		_, _ = fmt.Fprintln(rt.stderr, output.RenderWarn(err.Error()))
		if g := failure.GuidanceOf(err); g != "" {
			_, _ = fmt.Fprintln(rt.stderr, g)
		}
		if rt.out.Format() != output.FormatText {
			return rt.out.Write(stopView{Error: err.Error()})
		}
		return nil
	}

	if result.Acknowledged {
		return rt.out.Message(output.RenderOK("StewardX stopped"), stopView{Stopped: true, Reply: lifecycle.AckReply})
	}
	return rt.out.Message(result.Reply, stopView{Reply: result.Reply})
}

func newServiceStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether StewardX is installed and running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			return runServiceStatus(cmd.Context(), rt)
		},
	}
}

type statusView struct {
	Installed      bool   `json:"installed" yaml:"installed"`
	Release        string `json:"release,omitempty" yaml:"release,omitempty"`
	BinaryPath     string `json:"binary" yaml:"binary"`
	Running        bool   `json:"running" yaml:"running"`
	Responsive     bool   `json:"responsive" yaml:"responsive"`
	SocketPath     string `json:"socket" yaml:"socket"`
	LogPath        string `json:"log" yaml:"log"`
	ServiceURL     string `json:"url" yaml:"url"`
	DatabaseURLSet bool   `json:"database_url_set" yaml:"database_url_set"`
}

func (v statusView) String() string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", output.RenderLabel(fmt.Sprintf("%-13s", label)), value)
	}

	installed := "no"
	if v.Installed {
		installed = "yes"
		if v.Release != "" {
			installed += " (" + v.Release + ")"
		}
	}
	line("Installed:", installed)
	line("Binary:", v.BinaryPath)

	switch {
	case v.Running && v.Responsive:
		line("Running:", output.RenderOK("yes"))
	case v.Running:
		line("Running:", output.RenderWarn("socket present but not accepting connections (stale?)"))
	default:
		line("Running:", output.RenderError("no"))
	}
	line("Socket:", v.SocketPath)
	line("Log:", v.LogPath)
	line("REST API:", v.ServiceURL)

	db := "set"
	if !v.DatabaseURLSet {
		db = "not set"
	}
	line("Database URL:", db)

	return strings.TrimRight(b.String(), "\n")
}

func runServiceStatus(ctx context.Context, rt *runtime) error {
	s := rt.settings
	inst := rt.installer()
	prober := lifecycle.NewProber(s.SocketPath)

	probeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	running := prober.IsRunning()
	return rt.out.Write(statusView{
		Installed:      inst.Installed(),
		Release:        inst.InstalledRelease(),
		BinaryPath:     inst.BinaryPath(),
		Running:        running,
		Responsive:     running && prober.Responsive(probeCtx),
		SocketPath:     s.SocketPath,
		LogPath:        s.LogPath,
		ServiceURL:     s.ServiceURL,
		DatabaseURLSet: s.DatabaseURLSet,
	})
}
