// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"slices"
	"strings"
)

// OS represents a supported operating system/distribution
type OS string

const (
	Alpine OS = "alpine"
	Debian OS = "debian"
	Ubuntu OS = "ubuntu"
)

// PackageManagerCommands contains the commands needed for package management on a specific OS
type PackageManagerCommands struct {
	UpdateCmd   string
	InstallCmd  string
	InstallArgs []string
	CleanupCmd  string
}

// InstallCommand generates the full package installation command for the given packages
func (p PackageManagerCommands) InstallCommand(packages []string) string {
	cmdArgs := slices.Concat([]string{p.InstallCmd}, p.InstallArgs, packages)
	return strings.Join(cmdArgs, " ")
}

// osPackageManagers maps operating systems to their package manager commands
var osPackageManagers = map[OS]PackageManagerCommands{
	Alpine: {
		UpdateCmd:   "apk update",
		InstallCmd:  "apk add",
		InstallArgs: []string{"--no-cache"},
	},
	Debian: {
		UpdateCmd:   "apt-get update",
		InstallCmd:  "apt-get install",
		InstallArgs: []string{"-y", "--no-install-recommends"},
		CleanupCmd:  "rm -rf /var/lib/apt/lists/*",
	},
	Ubuntu: {
		UpdateCmd:   "apt-get update",
		InstallCmd:  "apt-get install",
		InstallArgs: []string{"-y", "--no-install-recommends"},
		CleanupCmd:  "rm -rf /var/lib/apt/lists/*",
	},
}

// GetPackageManagerCommands returns the package manager commands for the given OS
func GetPackageManagerCommands(os OS) PackageManagerCommands {
	if cmd, ok := osPackageManagers[os]; ok {
		return cmd
	}
	return osPackageManagers[Debian]
}

// DetectOS detects the OS from a base image name
func DetectOS(baseImage string) OS {
	switch {
	case strings.Contains(baseImage, "alpine"):
		return Alpine
	case strings.Contains(baseImage, "ubuntu"):
		return Ubuntu
	default:
		// python:*-slim images are Debian based
		return Debian
	}
}
