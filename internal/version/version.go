// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version carries the build identity of the studiosite binary.
package version

import "fmt"

// Info describes one build. Values are injected via ldflags in main.
type Info struct {
	Version   string // git tag, e.g. "v1.2.3"
	GitCommit string // short commit hash
	BuildTime string // RFC3339
}

// String formats the build identity for -version output.
func (i Info) String() string {
	return fmt.Sprintf("studiosite %s (commit: %s, built: %s)",
		orUnknown(i.Version), orUnknown(i.GitCommit), orUnknown(i.BuildTime))
}

// Dev reports whether this is an untagged development build.
func (i Info) Dev() bool {
	return i.Version == "" || i.Version == "dev"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
