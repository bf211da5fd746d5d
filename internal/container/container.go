// Package container provides dependency injection for the case-categorizer
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"fmt"
	"time"
	"unicode/utf8"

	"fjacquet/case-categorizer/internal/categorizer"
	"fjacquet/case-categorizer/internal/config"
	"fjacquet/case-categorizer/internal/exporter"
	"fjacquet/case-categorizer/internal/factory"
	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/normalizer"
	"fjacquet/case-categorizer/internal/pipeline"
	"fjacquet/case-categorizer/internal/server"
	"fjacquet/case-categorizer/internal/store"
	"fjacquet/case-categorizer/internal/tabular"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation: all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger     logging.Logger
	config     *config.Config
	store      *store.TaxonomyStore
	exporter   *exporter.Exporter
	service    *pipeline.Service
}

// NewContainer creates and wires all application dependencies, with a
// logrus logger configured from cfg.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(cfg, logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg)))
}

// NewContainerWithLogger behaves like NewContainer but uses the given logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	policy, err := normalizer.ParsePolicy(cfg.Cases.MissingFieldPolicy)
	if err != nil {
		return nil, err
	}
	delimiter, err := Delimiter(cfg)
	if err != nil {
		return nil, err
	}

	taxonomyStore := store.NewTaxonomyStore(cfg.Taxonomy.Directory, logger)
	norm := normalizer.New(normalizer.DefaultSchema, policy, logger)
	exp := exporter.NewExporter(delimiter, logger)
	newClient := factory.NewClientFactory(cfg, logger)

	service := pipeline.NewService(newClient, norm, exp, taxonomyStore, pipeline.Options{
		Categorizer: categorizer.Options{
			Concurrency: cfg.LLM.MaxConcurrency,
			Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		},
		Read: tabular.Options{
			Delimiter: delimiter,
			Encoding:  cfg.CSV.Encoding,
		},
	}, logger)

	logger.Debug("Container initialized successfully",
		logging.Field{Key: logging.FieldBackend, Value: cfg.LLM.Backend},
		logging.Field{Key: logging.FieldWorkers, Value: cfg.LLM.MaxConcurrency},
		logging.Field{Key: "taxonomy_dir", Value: taxonomyStore.CategoriesFile})

	return &Container{
		logger:     logger,
		config:     cfg,
		store:      taxonomyStore,
		exporter:   exp,
		service:    service,
	}, nil
}

// Delimiter returns the configured CSV delimiter as a rune. An empty value
// means ','.
func Delimiter(cfg *config.Config) (rune, error) {
	d := cfg.CSV.Delimiter
	if d == "" {
		return ',', nil
	}
	if utf8.RuneCountInString(d) != 1 {
		return 0, fmt.Errorf("csv delimiter must be a single character, got %q", d)
	}
	r, _ := utf8.DecodeRuneInString(d)
	return r, nil
}

// NewServer builds the HTTP server over the container's service and store.
func (c *Container) NewServer() *server.Server {
	return server.New(c.service, c.store, c.exporter, server.Options{
		AllowedOrigins: c.config.Server.AllowedOrigins,
		MaxUploadBytes: int64(c.config.Server.MaxUploadMB) << 20,
	}, c.logger)
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the taxonomy store.
func (c *Container) GetStore() *store.TaxonomyStore {
	return c.store
}

// GetExporter returns the exporter.
func (c *Container) GetExporter() *exporter.Exporter {
	return c.exporter
}

// GetService returns the categorization service.
func (c *Container) GetService() *pipeline.Service {
	return c.service
}

// Close performs cleanup of container resources.
func (c *Container) Close() error {
	c.logger.Debug("Container closed")
	return nil
}
