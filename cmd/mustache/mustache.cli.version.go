package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"gopkg.in/yaml.v3"
)

// Build settings read from the binary when no versions.yaml is found
const (
	buildSettingRevision = "vcs.revision"
	buildSettingTime     = "vcs.time"
	buildVersionDevel    = "(devel)"
)

// versionFiles are searched in order for release metadata
var versionFiles = []string{"versions.yaml", "../versions.yaml", "../../versions.yaml"}

// versionConfig holds parsed version command configuration
type versionConfig struct {
	format string
}

// versionInfo holds version information; it doubles as the JSON output
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// versionsYAML represents the versions.yaml file structure
type versionsYAML struct {
	Project struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"project"`
	Git struct {
		Commit string `yaml:"commit"`
		Branch string `yaml:"branch"`
	} `yaml:"git"`
	Build struct {
		Time      string `yaml:"time"`
		GoVersion string `yaml:"go_version"`
	} `yaml:"build"`
}

func runVersion(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseVersionFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFormat, err)
		return ExitCodeUsageError
	}

	vInfo := getVersionInfo()

	if cfg.format == OutputFormatJSON {
		jsonBytes, _ := json.MarshalIndent(vInfo, "", "  ")
		fmt.Fprintln(stdout, string(jsonBytes))
		return ExitCodeSuccess
	}

	fmt.Fprintf(stdout, VersionTextTemplate+FmtNewline,
		vInfo.Version, vInfo.Commit, vInfo.Branch, vInfo.BuildTime, vInfo.GoVersion)
	return ExitCodeSuccess
}

func parseVersionFlags(args []string) (*versionConfig, error) {
	fs := flag.NewFlagSet(CmdNameVersion, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &versionConfig{}
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}

func getVersionInfo() *versionInfo {
	vInfo := &versionInfo{
		Version:   VersionUnknown,
		Commit:    VersionUnknown,
		Branch:    VersionUnknown,
		BuildTime: VersionUnknown,
		GoVersion: runtime.Version(),
	}

	for _, path := range versionFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var vy versionsYAML
		if err := yaml.Unmarshal(data, &vy); err != nil {
			continue
		}

		setIfPresent(&vInfo.Version, vy.Project.Version)
		setIfPresent(&vInfo.Commit, vy.Git.Commit)
		setIfPresent(&vInfo.Branch, vy.Git.Branch)
		setIfPresent(&vInfo.BuildTime, vy.Build.Time)
		setIfPresent(&vInfo.GoVersion, vy.Build.GoVersion)
		return vInfo
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if bi.Main.Version != buildVersionDevel {
			setIfPresent(&vInfo.Version, bi.Main.Version)
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case buildSettingRevision:
				setIfPresent(&vInfo.Commit, s.Value)
			case buildSettingTime:
				setIfPresent(&vInfo.BuildTime, s.Value)
			}
		}
	}
	return vInfo
}

func setIfPresent(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
