package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version,omitempty"`
	Revision  string `json:"revision,omitempty"`
}

var versionFormat string

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the domainer version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderVersion(cmd.OutOrStdout(), buildVersion(), strings.ToLower(versionFormat))
	},
}

func buildVersion() versionPayload {
	v := versionPayload{Tool: "domainer", Version: Version}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}

	v.GoVersion = info.GoVersion

	if v.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			v.Revision = s.Value
		}
	}

	return v
}

func renderVersion(w io.Writer, v versionPayload, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	case "pretty", "":
		_, err := fmt.Fprintf(w, "%s %s\n", v.Tool, v.Version)
		if err == nil && v.Revision != "" {
			_, err = fmt.Fprintf(w, "revision %s\n", v.Revision)
		}

		return err
	default:
		return fmt.Errorf("unknown format %q (want pretty or json)", format)
	}
}
