package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/nulzo/care-assist/internal/httpclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// AppVersion is overridden at build time with -ldflags "-X main.AppVersion=...".
var AppVersion = "v0.1.0"

const releaseURL = "https://api.github.com/repos/nulzo/care-assist/releases/latest"

type gitHubRelease struct {
	TagName string `json:"tag_name"`
}

func newVersionCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "careassist", AppVersion)
			if !check {
				return nil
			}
			latest, newer, err := latestRelease(cmd.Context(), http.DefaultClient, releaseURL, AppVersion)
			if err != nil {
				return fmt.Errorf("check for updates: %w", err)
			}
			if newer {
				fmt.Fprintf(cmd.OutOrStdout(), "A newer version is available: %s\n", latest)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "You are running the latest version.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")
	return cmd
}

// latestRelease fetches the newest tag and reports whether it is newer than current.
func latestRelease(ctx context.Context, client httpclient.HTTPClient, url, current string) (string, bool, error) {
	var release gitHubRelease
	if err := httpclient.SendRequest(ctx, client, http.MethodGet, url, map[string]string{"Accept": "application/vnd.github+json"}, nil, &release); err != nil {
		return "", false, err
	}

	newer, err := isNewer(current, release.TagName)
	return release.TagName, newer, err
}

func isNewer(current, latest string) (bool, error) {
	cur, err := version.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("parse current version: %w", err)
	}
	lat, err := version.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("parse latest version: %w", err)
	}
	return cur.LessThan(lat), nil
}

// checkForUpdates logs a warning when a newer release exists. Failures are ignored.
func checkForUpdates(ctx context.Context, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	latest, newer, err := latestRelease(ctx, &http.Client{Timeout: 5 * time.Second}, releaseURL, AppVersion)
	if err != nil {
		log.Debug("Update check failed", zap.Error(err))
		return
	}
	if newer {
		log.Warn("You are running an outdated version",
			zap.String("current", AppVersion),
			zap.String("latest", latest),
		)
	}
}
