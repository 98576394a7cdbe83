package app

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/tejashwikalptaru/wavesync/internal/app.Version=v1.0.0".
// Commit and build time fall back to the VCS stamp Go embeds in the binary.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
	Dirty     bool
}

// GetVersionInfo merges the ldflags values with the embedded build info.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = shortCommit(s.Value)
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

func shortCommit(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// FullString returns e.g. "WaveSync v1.0.0 (commit: 1a2b3c4d5e6f, built: 2026-01-02T03:04:05Z)".
func (v VersionInfo) FullString() string {
	commit := orUnknown(v.GitCommit)
	if v.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("WaveSync %s (commit: %s, built: %s)", v.Version, commit, orUnknown(v.BuildTime))
}

// LogValue groups the fields when logged with slog.Any.
func (v VersionInfo) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("version", v.Version),
		slog.String("commit", orUnknown(v.GitCommit)),
		slog.String("built", orUnknown(v.BuildTime)),
		slog.String("go", orUnknown(v.GoVersion)),
		slog.Bool("dirty", v.Dirty),
	)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
