package main

import (
	"fmt"
	"os"

	"github.com/adamancini/stewardctl/internal/cmd"
	"github.com/adamancini/stewardctl/internal/failure"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := cmd.Execute(version, commit, date); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if guidance := failure.GuidanceOf(err); guidance != "" {
			fmt.Fprintln(os.Stderr, guidance)
		}
		os.Exit(1)
	}
}
