// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

// Command pybake turns a locked Python application into a runnable container
// image: it exports the lockfile to a flat requirements manifest, renders a
// multi-stage Dockerfile around it, and drives docker to assemble and run
// the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pybake/pybake/internal/httpx"
	"github.com/pybake/pybake/internal/initbin"
	"github.com/pybake/pybake/pkg/appdef"
	"github.com/pybake/pybake/pkg/bake/bake"
	"github.com/pybake/pybake/pkg/export"
	"github.com/pybake/pybake/pkg/image"
	"github.com/pybake/pybake/pkg/image/local"
	"github.com/pybake/pybake/pkg/lockfile"
	"github.com/pybake/pybake/pkg/registry/pypi"
)

var version = "dev"

var (
	appDir             = flag.String("C", ".", "application directory containing pybake.yaml and the lockfile")
	outPath            = flag.String("o", "", "write the exported requirements here instead of the configured path (\"-\" for stdout)")
	groups             = flag.String("groups", "", "comma-separated dependency groups to export")
	withoutHashes      = flag.Bool("without-hashes", false, "omit --hash annotations from the export")
	allowMissingHashes = flag.Bool("allow-missing-hashes", false, "export without hashes when some locked package lacks digests")
	indexURL           = flag.String("index-url", "", "emit an --index-url header in the export")
	verifyExport       = flag.Bool("verify", false, "cross-check exported pins against the PyPI JSON API")
	imageTag           = flag.String("tag", "", "tag for the assembled image")
	assetsDir          = flag.String("assets", "", "directory receiving build assets (Dockerfile, logs, image tarball)")
	exportImage        = flag.Bool("export-image", false, "save the assembled image to the assets directory as a tarball")
	buildTimeout       = flag.Duration("timeout", 0, "bound the docker build or run duration")
	initVersion        = flag.String("init-version", initbin.DefaultVersion, "dumb-init version to fetch")
	initArch           = flag.String("init-arch", initbin.DefaultArch, "dumb-init architecture to fetch")
)

var (
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "pybake [subcommand]",
	Short: "Package a locked Python application into a container image",
}

const userAgent = "pybake (+https://github.com/pybake/pybake)"

func loadDefinition(dir string) (*appdef.Definition, error) {
	f, err := os.Open(filepath.Join(dir, appdef.DefaultFilename))
	if os.IsNotExist(err) {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, errors.Wrap(err, "resolving app directory")
		}
		def := appdef.Default(lockfile.NormalizeName(filepath.Base(abs)))
		if err := def.Validate(); err != nil {
			return nil, errors.Wrapf(err, "deriving app name from directory %q", abs)
		}
		return def, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "opening app definition")
	}
	defer f.Close()
	return appdef.Load(f)
}

func loadLock(dir string, def *appdef.Definition) (*lockfile.Lockfile, string, error) {
	candidates := []string{def.Lock}
	if def.Lock == "" {
		candidates = []string{"poetry.lock", "uv.lock"}
	}
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return nil, "", errors.Wrapf(err, "reading lockfile %s", path)
		}
		lock, err := lockfile.Parse(path, data)
		if err != nil {
			return nil, "", errors.Wrapf(err, "parsing lockfile %s", path)
		}
		return lock, path, nil
	}
	return nil, "", errors.Errorf("no lockfile found in %s (tried %s)", dir, strings.Join(candidates, ", "))
}

func loadProject(dir string) (*lockfile.Project, error) {
	data, err := os.ReadFile(filepath.Join(dir, "pyproject.toml"))
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "reading pyproject.toml")
	}
	return lockfile.ParsePyProject(data)
}

var interpreterRE = regexp.MustCompile(`[0-9]+\.[0-9]+`)

// pythonVersionFor resolves the interpreter line, preferring the definition
// over the lock's requires-python constraint.
func pythonVersionFor(def *appdef.Definition, lock *lockfile.Lockfile) (string, error) {
	if def.Python != "" {
		return def.Python, nil
	}
	if v := interpreterRE.FindString(lock.RequiresPython); v != "" {
		return v, nil
	}
	return "", errors.New("python version not set and not derivable from the lockfile; set `python` in pybake.yaml")
}

func exportGroups(def *appdef.Definition) []string {
	if *groups != "" {
		return strings.Split(*groups, ",")
	}
	return def.Groups
}

func buildManifest(ctx context.Context, dir string, def *appdef.Definition, lock *lockfile.Lockfile) (*export.Manifest, error) {
	selected := exportGroups(def)
	proj, err := loadProject(dir)
	if err != nil {
		return nil, err
	}
	if proj != nil {
		if err := export.CheckProject(lock, proj, selected); err != nil {
			return nil, err
		}
	}
	m, err := export.FromLock(lock, export.Options{
		Groups:             selected,
		WithHashes:         !*withoutHashes,
		AllowMissingHashes: *allowMissingHashes,
		IndexURL:           *indexURL,
	})
	if err != nil {
		return nil, err
	}
	if *verifyExport {
		// Space out registry lookups to stay well inside PyPI's limits.
		var client httpx.BasicClient = &httpx.WithUserAgent{BasicClient: http.DefaultClient, UserAgent: userAgent}
		client = &httpx.RateLimitedClient{BasicClient: client, Ticker: time.NewTicker(50 * time.Millisecond)}
		reg := pypi.HTTPRegistry{Client: client}
		if err := export.Verify(ctx, reg, m); err != nil {
			return nil, errors.Wrap(err, "verifying export against PyPI")
		}
	}
	return m, nil
}

func writeManifest(cmd *cobra.Command, dest string, m *export.Manifest) error {
	if dest == "-" {
		return m.Render(cmd.OutOrStdout())
	}
	f, err := os.Create(dest)
	if err != nil {
		return errors.Wrap(err, "creating requirements file")
	}
	defer f.Close()
	if err := m.Render(f); err != nil {
		return errors.Wrap(err, "rendering requirements")
	}
	return f.Close()
}

// inputFor assembles the executor input from the definition and lockfile.
func inputFor(dir string, def *appdef.Definition, lock *lockfile.Lockfile, hashed bool) (image.Input, error) {
	python, err := pythonVersionFor(def, lock)
	if err != nil {
		return image.Input{}, err
	}
	spec := def.Spec(dir, hashed)
	spec.PythonVersion = python
	recipe, err := def.Recipe.Recipe()
	if err != nil {
		return image.Input{}, err
	}
	return image.Input{Spec: spec, Recipe: recipe}, nil
}

func resourcesFor(def *appdef.Definition, python string) (image.Resources, error) {
	res := image.Resources{BaseImageConfig: image.DefaultBaseImageConfig()}
	if def.BaseImage != "" {
		res.BaseImageConfig.Overrides = map[string]string{python: def.BaseImage}
	}
	if *assetsDir != "" {
		if err := os.MkdirAll(*assetsDir, 0755); err != nil {
			return image.Resources{}, errors.Wrap(err, "creating assets directory")
		}
		res.AssetStore = bake.NewFilesystemAssetStore(osfs.New(*assetsDir))
	}
	return res, nil
}

var exportCmd = &cobra.Command{
	Use:           "export [-C <dir>] [-o <path>] [--groups <g1,g2>] [--without-hashes] [--verify]",
	Short:         "Flatten the lockfile into a pinned requirements manifest.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := loadDefinition(*appDir)
		if err != nil {
			return err
		}
		lock, lockPath, err := loadLock(*appDir, def)
		if err != nil {
			return err
		}
		m, err := buildManifest(cmd.Context(), *appDir, def, lock)
		if err != nil {
			return err
		}
		dest := *outPath
		if dest == "" {
			dest = filepath.Join(*appDir, def.Requirements)
		}
		if err := writeManifest(cmd, dest, m); err != nil {
			return err
		}
		if !m.Hashed && !*withoutHashes {
			fmt.Fprintln(cmd.OutOrStderr(), yellow("NOTE:"), "some locked packages lack digests; exported without --hash annotations")
		}
		if dest != "-" {
			fmt.Fprintln(cmd.OutOrStderr(), green("exported"), fmt.Sprintf("%d pins from %s to %s (hashed=%t)", len(m.Entries), lockPath, dest, m.Hashed))
		}
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:           "plan [-C <dir>]",
	Short:         "Print the Dockerfile that build would use.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := loadDefinition(*appDir)
		if err != nil {
			return err
		}
		lock, _, err := loadLock(*appDir, def)
		if err != nil {
			return err
		}
		m, err := buildManifest(cmd.Context(), *appDir, def, lock)
		if err != nil {
			return err
		}
		input, err := inputFor(*appDir, def, lock, m.Hashed)
		if err != nil {
			return err
		}
		res, err := resourcesFor(def, input.Spec.PythonVersion)
		if err != nil {
			return err
		}
		planner := local.NewDockerBuildPlanner()
		plan, err := planner.GeneratePlan(cmd.Context(), input, image.PlanOptions{Resources: res})
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), plan.Dockerfile)
		return err
	},
}

var buildCmd = &cobra.Command{
	Use:           "build [-C <dir>] [--tag <image>] [--assets <dir>] [--export-image]",
	Short:         "Export the lockfile and assemble the application image.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := loadDefinition(*appDir)
		if err != nil {
			return err
		}
		lock, _, err := loadLock(*appDir, def)
		if err != nil {
			return err
		}
		m, err := buildManifest(cmd.Context(), *appDir, def, lock)
		if err != nil {
			return err
		}
		// The Dockerfile copies the configured requirements path out of the
		// build context, so the manifest always lands there.
		if err := writeManifest(cmd, filepath.Join(*appDir, def.Requirements), m); err != nil {
			return err
		}
		input, err := inputFor(*appDir, def, lock, m.Hashed)
		if err != nil {
			return err
		}
		res, err := resourcesFor(def, input.Spec.PythonVersion)
		if err != nil {
			return err
		}
		executor, err := local.NewDockerBuildExecutor(local.DockerBuildExecutorConfig{})
		if err != nil {
			return err
		}
		defer executor.Close(context.Background())
		handle, err := executor.Start(cmd.Context(), input, image.Options{
			ImageTag:    *imageTag,
			Timeout:     *buildTimeout,
			ExportImage: *exportImage,
			Resources:   res,
		})
		if err != nil {
			return err
		}
		go io.Copy(cmd.OutOrStderr(), handle.OutputStream())
		result, err := handle.Wait(cmd.Context())
		if err != nil {
			return err
		}
		if result.Error != nil {
			return result.Error
		}
		fmt.Fprintln(cmd.OutOrStderr(), green("built"), result.ImageTag)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:           "run [-C <dir>] --tag <image>",
	Short:         "Run an assembled image with the configured env passthrough.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if *imageTag == "" {
			return errors.New("--tag is required")
		}
		def, err := loadDefinition(*appDir)
		if err != nil {
			return err
		}
		lock, _, err := loadLock(*appDir, def)
		if err != nil {
			return err
		}
		input, err := inputFor(*appDir, def, lock, false)
		if err != nil {
			return err
		}
		executor, err := local.NewDockerRunExecutor(local.DockerRunExecutorConfig{})
		if err != nil {
			return err
		}
		defer executor.Close(context.Background())
		handle, err := executor.Start(cmd.Context(), input, image.Options{
			ImageTag:     *imageTag,
			Timeout:      *buildTimeout,
			CancelPolicy: image.CancelGraceful,
		})
		if err != nil {
			return err
		}
		go io.Copy(cmd.OutOrStdout(), handle.OutputStream())
		result, err := handle.Wait(cmd.Context())
		if err != nil {
			return err
		}
		return result.Error
	},
}

var fetchInitCmd = &cobra.Command{
	Use:           "fetch-init [-C <dir>] [--init-version <ver>] [--init-arch <arch>]",
	Short:         "Prefetch the init wrapper so builds can embed it instead of downloading.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		release, err := initbin.ReleaseFor(*initVersion, *initArch)
		if err != nil {
			return err
		}
		dest := filepath.Join(*appDir, ".pybake", "dumb-init")
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return errors.Wrap(err, "creating .pybake directory")
		}
		tmp, err := os.CreateTemp(filepath.Dir(dest), "dumb-init-*")
		if err != nil {
			return errors.Wrap(err, "creating temp file")
		}
		defer os.Remove(tmp.Name())
		client := &httpx.WithUserAgent{BasicClient: http.DefaultClient, UserAgent: userAgent}
		if err := initbin.Fetch(cmd.Context(), client, release, tmp, initbin.FetchOptions{ShowProgress: true}); err != nil {
			tmp.Close()
			return err
		}
		if err := tmp.Close(); err != nil {
			return errors.Wrap(err, "closing temp file")
		}
		if err := os.Chmod(tmp.Name(), 0755); err != nil {
			return errors.Wrap(err, "marking binary executable")
		}
		if err := os.Rename(tmp.Name(), dest); err != nil {
			return errors.Wrap(err, "moving binary into place")
		}
		fmt.Fprintln(cmd.OutOrStderr(), green("fetched"), fmt.Sprintf("dumb-init %s (%s) to %s", release.Version, release.Arch, dest))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pybake version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "pybake", version)
	},
}

func init() {
	for _, c := range []*cobra.Command{exportCmd, planCmd, buildCmd, runCmd, fetchInitCmd} {
		c.Flags().AddGoFlag(flag.Lookup("C"))
	}
	exportCmd.Flags().AddGoFlag(flag.Lookup("o"))
	for _, name := range []string{"groups", "without-hashes", "allow-missing-hashes", "index-url", "verify"} {
		exportCmd.Flags().AddGoFlag(flag.Lookup(name))
		buildCmd.Flags().AddGoFlag(flag.Lookup(name))
		planCmd.Flags().AddGoFlag(flag.Lookup(name))
	}
	for _, name := range []string{"tag", "assets", "export-image", "timeout"} {
		buildCmd.Flags().AddGoFlag(flag.Lookup(name))
	}
	runCmd.Flags().AddGoFlag(flag.Lookup("tag"))
	runCmd.Flags().AddGoFlag(flag.Lookup("timeout"))
	fetchInitCmd.Flags().AddGoFlag(flag.Lookup("init-version"))
	fetchInitCmd.Flags().AddGoFlag(flag.Lookup("init-arch"))
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(fetchInitCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	flag.Parse()
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
