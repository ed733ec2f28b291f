package server

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/cache"
	"github.com/prog-daiki/codeDot-backend/pkg/config"
	"github.com/prog-daiki/codeDot-backend/pkg/payments"
	"github.com/prog-daiki/codeDot-backend/pkg/videoassets"
	"github.com/robinjoseph08/golib/logger"
)

// Dependencies are the external collaborators the routes are built on.
type Dependencies struct {
	Host      videoassets.Host
	Processor payments.Processor
	Cache     cache.Cache
}

// NewDependencies builds the external clients from cfg. Outside production a
// missing credential falls back to an in-process fake so the API can run
// locally without accounts at the video host or the payment provider.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	log := logger.FromContext(ctx)
	production := cfg.Environment == config.EnvironmentProduction
	deps := &Dependencies{}

	switch {
	case cfg.MuxTokenID != "" && cfg.MuxTokenSecret != "":
		deps.Host = videoassets.NewClient(cfg)
	case production:
		return nil, errors.New("mux_token_id and mux_token_secret are required in production")
	default:
		log.Warn("video host credentials missing, using the in-process fake host")
		deps.Host = videoassets.NewFakeHost()
	}

	switch {
	case cfg.StripeAPIKey != "":
		deps.Processor = payments.NewClient(cfg)
	case production:
		return nil, errors.New("stripe_api_key is required in production")
	default:
		log.Warn("payment credentials missing, using the in-process fake processor")
		deps.Processor = payments.NewFakeProcessor()
	}

	if production && cfg.StripeWebhookSecret == "" {
		return nil, errors.New("stripe_webhook_secret is required in production")
	}

	c, err := cache.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	deps.Cache = c

	return deps, nil
}
