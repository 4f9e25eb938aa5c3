package intake

import (
	"context"

	"github.com/ignite/lead-intake/internal/config"
	"github.com/ignite/lead-intake/internal/leadimport"
	"github.com/ignite/lead-intake/internal/personalize"
	"github.com/ignite/lead-intake/internal/pkg/logger"
	"github.com/ignite/lead-intake/internal/storage"
)

// Sources reports which remote source kinds are enabled.
type Sources map[string]bool

// ConfigureLogger applies the log section of cfg.
func ConfigureLogger(cfg config.LogConfig) {
	logger.SetLevel(logger.ParseLevel(cfg.Level))
	logger.SetRedactPII(cfg.Redact())
}

// LoadCatalog returns the configured catalog, or the embedded one.
func LoadCatalog(cfg config.ImportConfig) (*leadimport.Catalog, error) {
	return leadimport.LoadCatalog(cfg.CatalogPath)
}

// BuildOption adjusts how Build wires sources.
type BuildOption func(*buildOptions)

type buildOptions struct {
	localAnywhere bool
}

// WithUnrestrictedLocal lets local paths resolve anywhere on disk when no
// local root is configured. Only the CLI uses it; the HTTP server never does.
func WithUnrestrictedLocal() BuildOption {
	return func(o *buildOptions) { o.localAnywhere = true }
}

// NewRouter builds the fetcher for local, S3 and HTTP sources. Local paths are
// served only below storage.local_root unless unrestricted is set. An S3 setup
// failure disables S3 instead of failing, so uploads keep working.
func NewRouter(ctx context.Context, cfg *config.Config, unrestricted bool) (*storage.Router, Sources) {
	maxBytes := cfg.Import.MaxUploadBytes()
	r := &storage.Router{
		HTTP: storage.NewHTTPFetcher(cfg.Storage.HTTPMaxRetries, cfg.Storage.HTTPTimeout(), maxBytes),
	}
	sources := Sources{"local": false, "http": true, "s3": false}

	if cfg.Storage.LocalRoot != "" || unrestricted {
		r.Local = &storage.LocalFetcher{Root: cfg.Storage.LocalRoot, MaxBytes: maxBytes}
		sources["local"] = true
	}

	s3f, err := storage.NewS3Fetcher(ctx, cfg.Storage.S3Region, cfg.Storage.GetAWSProfile(), maxBytes)
	if err != nil {
		logger.Warn("s3 source disabled", "error", err.Error())
	} else {
		r.S3 = s3f
		sources["s3"] = true
	}
	return r, sources
}

// Build wires a Service from configuration.
func Build(ctx context.Context, cfg *config.Config, opts ...BuildOption) (*Service, Sources, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	ConfigureLogger(cfg.Log)

	catalog, err := LoadCatalog(cfg.Import)
	if err != nil {
		return nil, nil, err
	}
	processor := leadimport.NewProcessor(catalog, leadimport.WithCountryPrefix(cfg.Import.CountryPrefix))
	router, sources := NewRouter(ctx, cfg, o.localAnywhere)

	return NewService(processor, personalize.NewTemplateService(), router), sources, nil
}
