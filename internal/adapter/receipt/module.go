package receipt

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/marketplace/internal/config"
	"github.com/polkiloo/marketplace/internal/usecase"
)

// Module exposes the receipt renderer to the fx graph.
var Module = fx.Options(
	fx.Provide(
		newStore,
		newConverter,
		newRenderer,
	),
)

type storeParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
}

func newStore(p storeParams) (ObjectStore, error) {
	return NewS3Store(p.Ctx, S3Options{
		Bucket:    p.Config.ReceiptBucket,
		Endpoint:  p.Config.S3Endpoint,
		Region:    p.Config.S3Region,
		AccessKey: p.Config.S3AccessKey,
		SecretKey: p.Config.S3SecretKey,
		PathStyle: p.Config.S3PathStyle,
	})
}

func newConverter(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) PDFConverter {
	converter := NewChromeConverter(cfg.ChromeURL, logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			converter.Close()
			return nil
		},
	})
	return converter
}

type rendererParams struct {
	fx.In

	Converter PDFConverter
	Store     ObjectStore
	Config    *config.Config
	Logger    *slog.Logger
}

func newRenderer(p rendererParams) usecase.ReceiptRenderer {
	return NewRenderer(p.Converter, p.Store, p.Config.ReceiptURLTTL, p.Logger)
}
