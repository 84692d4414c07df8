package cmd

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/adamancini/stewardctl/internal/api"
	"github.com/adamancini/stewardctl/internal/config"
	"github.com/adamancini/stewardctl/internal/failure"
	"github.com/adamancini/stewardctl/internal/logging"
	"github.com/adamancini/stewardctl/internal/output"
	"github.com/adamancini/stewardctl/internal/platform"
	"github.com/adamancini/stewardctl/internal/release"
)

// githubAPIURL overrides the release index root; empty means api.github.com.
var githubAPIURL string

// runtime bundles what every command needs: resolved settings, the
// diagnostic logger and the output writer.
type runtime struct {
	settings *config.Settings
	log      zerolog.Logger
	out      *output.Writer
	stdout   io.Writer
	stderr   io.Writer
}

// newRuntime resolves configuration from the global flags, the config file
// and the environment.
func newRuntime(cmd *cobra.Command) (*runtime, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, failure.New(failure.KindInvalidInput, "parse --output", err)
	}

	log := logging.New(logging.Options{
		Verbose: verbose,
		Quiet:   quiet,
		Out:     cmd.ErrOrStderr(),
	})

	file, path, err := config.LoadDefault(configPath)
	if err != nil {
		return nil, failure.New(failure.KindInvalidInput, "load config", err).
			WithGuidance("Fix the config file or point --config or STEWARDCTL_CONFIG at another one")
	}
	if path != "" {
		log.Debug().Str("path", path).Msg("loaded config file")
	}

	settings, err := config.Resolve(file)
	if err != nil {
		return nil, failure.New(failure.KindInvalidInput, "resolve settings", err)
	}

	log.Debug().
		Str("install_dir", settings.InstallDir).
		Str("socket", settings.SocketPath).
		Str("url", settings.ServiceURL).
		Msg("resolved settings")

	return &runtime{
		settings: settings,
		log:      log,
		out:      output.NewWriter(cmd.OutOrStdout(), format),
		stdout:   cmd.OutOrStdout(),
		stderr:   cmd.ErrOrStderr(),
	}, nil
}

// installer builds the binary provisioner for the current platform.
func (rt *runtime) installer() *release.Installer {
	checker := release.NewGitHubChecker(rt.settings.ReleaseRepo).
		WithToken(rt.settings.GitHubToken).
		WithLogger(rt.log)
	if githubAPIURL != "" {
		checker = checker.WithBaseURL(githubAPIURL)
	}

	downloader := release.NewHTTPDownloader().WithLogger(rt.log)
	tag := platform.Detect().Tag()
	rt.log.Debug().Str("platform", tag).Msg("detected platform")

	return release.NewInstaller(checker, downloader, tag, rt.settings).WithLogger(rt.log)
}

// client builds the REST client for the configured service.
func (rt *runtime) client() *api.Client {
	return api.NewClient(rt.settings.ServiceURL).WithLogger(rt.log)
}
