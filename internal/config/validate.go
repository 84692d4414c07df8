package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// repoPattern validates release repositories in the format "owner/repo".
var repoPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+$`)

// ValidationError represents a config file validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the config file for invalid values.
// Every problem is reported, not just the first.
func Validate(f *File) error {
	var errors []string

	for field, dir := range map[string]string{"install_dir": f.InstallDir, "socket_dir": f.SocketDir} {
		if dir != "" && !filepath.IsAbs(dir) {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("must be an absolute path, got '%s'", dir),
			}.Error())
		}
	}

	if f.URL != "" {
		if err := validateURL(f.URL); err != nil {
			errors = append(errors, ValidationError{Field: "url", Message: err.Error()}.Error())
		}
	}

	if f.Port < 0 || f.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", f.Port),
		}.Error())
	}

	if f.ReleaseRepo != "" && !repoPattern.MatchString(f.ReleaseRepo) {
		errors = append(errors, ValidationError{
			Field:   "release_repo",
			Message: fmt.Sprintf("invalid repository '%s' (must be owner/repo format)", f.ReleaseRepo),
		}.Error())
	}

	if f.StartTimeout != "" {
		d, err := time.ParseDuration(f.StartTimeout)
		if err != nil {
			errors = append(errors, ValidationError{Field: "start_timeout", Message: err.Error()}.Error())
		} else if d < 0 {
			errors = append(errors, ValidationError{Field: "start_timeout", Message: "must not be negative"}.Error())
		}
	}

	if len(errors) > 0 {
		// Map iteration above is unordered; keep output stable.
		sort.Strings(errors)
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme '%s' (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in '%s'", raw)
	}
	return nil
}
