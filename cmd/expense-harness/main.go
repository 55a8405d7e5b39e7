/*
Copyright 2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// expense-harness drives the test session and cleanup machinery by hand,
// for debugging a backend or purging what an aborted run left behind.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ftrabucco/restassured-template-sub000/pkg/cleanup"
	"github.com/ftrabucco/restassured-template-sub000/pkg/constants"
	"github.com/ftrabucco/restassured-template-sub000/pkg/entity"
	"github.com/ftrabucco/restassured-template-sub000/pkg/requestcontext"
	"github.com/ftrabucco/restassured-template-sub000/pkg/session"
	"github.com/ftrabucco/restassured-template-sub000/pkg/tracking"
	"github.com/ftrabucco/restassured-template-sub000/test/api"

	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/manager/signals"
)

var (
	// ErrNoBackend is raised when no backend address is configured.
	ErrNoBackend = errors.New("no backend configured, set --base-url or API_BASE_URL")

	// ErrIncomplete is raised when a purge could not delete everything.
	ErrIncomplete = errors.New("purge incomplete")
)

// options are common to all commands.
type options struct {
	baseURL string
	verbose bool
}

func (o *options) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&o.baseURL, "base-url", "", "Backend address, overrides API_BASE_URL.")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Enable debug logging.")
}

// setupLogging routes controller-runtime logging through a colourised
// slog handler.
func (o *options) setupLogging(ctx context.Context) context.Context {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}

	logger := logr.FromSlogHandler(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))

	log.SetLogger(logger)

	return log.IntoContext(ctx, logger)
}

// harness is everything a command needs to talk to the backend.
type harness struct {
	client   *api.APIClient
	requests *requestcontext.Factory
}

func (o *options) harness() (*harness, error) {
	config, err := api.LoadTestConfig()
	if err != nil {
		return nil, err
	}

	if o.baseURL != "" {
		config.BaseURL = o.baseURL
	}

	if config.UseFakeBackend() {
		return nil, ErrNoBackend
	}

	client := api.NewAPIClientWithConfig(config, config.BaseURL)
	cache := session.NewCache(client, config.Identity(), session.WithTokenField(config.TokenField))

	return &harness{
		client:   client,
		requests: requestcontext.NewFactory(requestcontext.BaseConfig{BaseURL: config.BaseURL}, cache),
	}, nil
}

func newTokenCommand(o *options) *cobra.Command {
	var variant string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token",
		Long:  "Provision the shared test session, registering the test user if needed, and print its token.  Negative variants are printed without contacting the backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, ok := session.ParseVariant(variant)
			if !ok {
				return fmt.Errorf("%w: %s", requestcontext.ErrUnknownVariant, variant)
			}

			if token, ok := session.NegativeToken(v); ok {
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			}

			if v == session.Absent {
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}

			h, err := o.harness()
			if err != nil {
				return err
			}

			rc, err := h.requests.WithVariant(cmd.Context(), v)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), rc.Token())

			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", session.Valid.String(), "Token variant: valid, invalid, malformed, expired or absent.")

	return cmd
}

func newPurgeCommand(o *options) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "purge --type TYPE ID...",
		Short: "Delete leftover test resources",
		Long:  "Delete resources by identifier as the test user, best effort.  Resources that are already gone count as deleted.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, ids []string) error {
			t, err := entity.Parse(kind)
			if err != nil {
				return err
			}

			h, err := o.harness()
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			rc, err := h.requests.Authenticated(ctx)
			if err != nil {
				return err
			}

			tracker := tracking.New()

			for _, id := range ids {
				tracker.Track(t, id)
			}

			report := cleanup.NewCoordinator(api.DefaultStrategies(h.client.WithRequestContext(rc))).Run(ctx, tracker)

			fmt.Fprintln(cmd.OutOrStdout(), report.Summary())

			for _, failure := range report.Failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed: %v\n", failure)
			}

			if len(report.Failures) != 0 {
				return fmt.Errorf("%w: %d of %d", ErrIncomplete, len(report.Failures), len(ids))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "type", "", "Entity type, one of purchase, one-time-expense, recurring-expense, automatic-debit, card or user.")

	if err := cmd.MarkFlagRequired("type"); err != nil {
		panic(err)
	}

	return cmd
}

func main() {
	o := &options{}

	cmd := &cobra.Command{
		Use:               constants.Application,
		Short:             "Integration test harness utilities",
		Version:           constants.VersionString(),
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		SilenceUsage:      true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetContext(o.setupLogging(cmd.Context()))
		},
	}

	o.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(newTokenCommand(o))
	cmd.AddCommand(newPurgeCommand(o))

	if err := cmd.ExecuteContext(signals.SetupSignalHandler()); err != nil {
		os.Exit(1)
	}
}
