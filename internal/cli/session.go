package cli

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kolah/oink/internal/auth"
	"github.com/kolah/oink/internal/config"
	"github.com/kolah/oink/internal/invoke"
	"github.com/kolah/oink/internal/loader"
	"github.com/kolah/oink/internal/logging"
	"github.com/kolah/oink/internal/validation"
)

// session is everything a command needs after configuration is resolved.
type session struct {
	cfg      *config.Config
	logger   zerolog.Logger
	auth     auth.Authenticator
	registry *invoke.Registry
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	result, err := loader.LoadFile(cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("loading spec: %w", err)
	}
	for _, w := range result.Warnings {
		logger.Warn().Str("spec", cfg.Spec).Msg(w)
	}

	spec, err := loader.Transform(result)
	if err != nil {
		return nil, fmt.Errorf("transforming spec: %w", err)
	}
	logger.Debug().
		Str("version", result.Version).
		Str("title", spec.Info.Title).
		Int("operations", len(spec.Operations)).
		Msg("loaded spec")

	client := &http.Client{Timeout: cfg.Timeout}

	authenticator, err := auth.FromConfig(cfg.Auth, auth.WithHTTPClient(client), auth.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("configuring auth: %w", err)
	}

	opts := []invoke.Option{invoke.WithHTTPClient(client), invoke.WithLogger(logger)}
	if cfg.ValidateRequests {
		v, err := validation.New(result.Source)
		if err != nil {
			return nil, err
		}
		opts = append(opts, invoke.WithRequestValidator(v))
	}

	filter := invoke.Filter{IncludeTags: cfg.IncludeTags, ExcludeTags: cfg.ExcludeTags}
	registry, err := invoke.Build(spec, cfg.BaseURL, authenticator, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("building tools: %w", err)
	}

	return &session{cfg: cfg, logger: logger, auth: authenticator, registry: registry}, nil
}
