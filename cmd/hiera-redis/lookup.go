package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	hiera "github.com/goliatone/go-hiera-redis"
	"github.com/goliatone/go-hiera-redis/internal/config"
	"github.com/goliatone/go-hiera-redis/pkg/host"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errNotFound = errors.New("not found")

type lookupOptions struct {
	scope      []string
	order      []string
	resolution string
	merge      string
	trace      bool
}

func newLookupCmd(root *rootOptions) *cobra.Command {
	opts := &lookupOptions{}
	cmd := &cobra.Command{
		Use:   "lookup KEY",
		Short: "Resolve KEY across the configured hierarchy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringArrayVarP(&opts.scope, "scope", "s", nil, "Scope variable as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.order, "order", nil, "Datasource consulted before the hierarchy (repeatable)")
	cmd.Flags().StringVarP(&opts.resolution, "resolution", "r", "scalar", "Resolution type: scalar, array or hash")
	cmd.Flags().StringVar(&opts.merge, "merge", "", "Merge behavior for hash lookups: native, deep or deeper")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Print the sources visited")
	return cmd
}

func runLookup(cmd *cobra.Command, root *rootOptions, opts *lookupOptions, key string) error {
	logger := root.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	file := config.Default()
	if root.configPath != "" {
		loaded, err := config.Load(root.configPath)
		if err != nil {
			return err
		}
		file = loaded
	}

	scope, err := parseScope(opts.scope)
	if err != nil {
		return err
	}
	resolution, err := parseResolution(opts.resolution, opts.merge)
	if err != nil {
		return err
	}

	h, err := file.Host(logger)
	if err != nil {
		return err
	}
	backend, err := hiera.New(file.Redis, h, hiera.WithLogger(logger))
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), root.timeout)
	defer cancel()

	answer, trace, err := backend.LookupWithTrace(ctx, hiera.Request{
		Key:           key,
		Scope:         scope,
		OrderOverride: opts.order,
		Resolution:    resolution,
	})
	if err != nil {
		return err
	}

	var payload any
	if answer.Found {
		payload = host.ResolveAnswer(answer.Value, resolution)
	}
	if opts.trace {
		payload = map[string]any{"found": answer.Found, "value": payload, "trace": trace}
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if answer.Found || opts.trace {
		if err := encoder.Encode(payload); err != nil {
			return err
		}
	}
	if !answer.Found {
		return fmt.Errorf("%s: %w", key, errNotFound)
	}
	return nil
}

func parseScope(pairs []string) (hiera.Scope, error) {
	scope := hiera.Scope{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid scope %q: expected name=value", pair)
		}
		scope[strings.TrimSpace(name)] = value
	}
	return scope, nil
}

func parseResolution(kind, merge string) (hiera.Resolution, error) {
	resolution, err := hiera.ParseResolution(kind)
	if err != nil {
		return hiera.Resolution{}, err
	}
	if merge == "" {
		return resolution, nil
	}
	behavior, err := hiera.ParseMergeBehavior(merge)
	if err != nil {
		return hiera.Resolution{}, err
	}
	return hiera.HashWith(hiera.MergeOptions{Behavior: behavior}), nil
}
