package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/model/config"
	"github.com/makola-community/makola/pkg/domain/types"
	"github.com/makola-community/makola/pkg/utils/logging"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// AppConfig represents the municipality configuration file
type AppConfig struct {
	Categories  []Category   `toml:"category"`
	Departments []Department `toml:"department"`
}

// Category represents an issue category configuration
type Category struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// Validate checks if the Category is valid
func (c *Category) Validate() error {
	if err := types.CategoryID(c.ID).Validate(); err != nil {
		return goerr.Wrap(ErrInvalidID, "invalid category ID",
			goerr.V(EntryKindKey, "category"), goerr.V(EntryIDKey, c.ID), goerr.V("reason", err.Error()))
	}
	if c.Name == "" {
		return goerr.Wrap(ErrMissingName, "category name is required", goerr.V(EntryIDKey, c.ID))
	}
	return nil
}

// Department represents a municipal department configuration
type Department struct {
	ID           string `toml:"id"`
	Name         string `toml:"name"`
	SlackChannel string `toml:"slack_channel"`
}

// Validate checks if the Department is valid
func (d *Department) Validate() error {
	if err := types.DepartmentID(d.ID).Validate(); err != nil {
		return goerr.Wrap(ErrInvalidID, "invalid department ID",
			goerr.V(EntryKindKey, "department"), goerr.V(EntryIDKey, d.ID), goerr.V("reason", err.Error()))
	}
	if d.Name == "" {
		return goerr.Wrap(ErrMissingName, "department name is required", goerr.V(EntryIDKey, d.ID))
	}
	return nil
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	categoryIDs := make(map[string]bool)
	for _, cat := range a.Categories {
		if err := cat.Validate(); err != nil {
			return err
		}
		if categoryIDs[cat.ID] {
			return goerr.Wrap(ErrDuplicateID, "duplicate category ID", goerr.V(EntryIDKey, cat.ID))
		}
		categoryIDs[cat.ID] = true
	}

	departmentIDs := make(map[string]bool)
	for _, dept := range a.Departments {
		if err := dept.Validate(); err != nil {
			return err
		}
		if departmentIDs[dept.ID] {
			return goerr.Wrap(ErrDuplicateID, "duplicate department ID", goerr.V(EntryIDKey, dept.ID))
		}
		departmentIDs[dept.ID] = true
	}

	return nil
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var cfg AppConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("reason", err.Error()))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &cfg, nil
}

// ToMunicipalityConfig converts AppConfig to the domain configuration
func (a *AppConfig) ToMunicipalityConfig() *config.MunicipalityConfig {
	categories := make([]config.Category, len(a.Categories))
	for i, cat := range a.Categories {
		categories[i] = config.Category{
			ID:   types.CategoryID(cat.ID),
			Name: cat.Name,
		}
	}

	departments := make([]config.Department, len(a.Departments))
	for i, dept := range a.Departments {
		departments[i] = config.Department{
			ID:           types.DepartmentID(dept.ID),
			Name:         dept.Name,
			SlackChannel: dept.SlackChannel,
		}
	}

	return &config.MunicipalityConfig{
		Categories:  categories,
		Departments: departments,
	}
}

// App holds the CLI flag pointing at the municipality configuration file
type App struct {
	path string
}

// Flags returns CLI flags for the application configuration
func (a *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the municipality configuration file (TOML)",
			Sources:     cli.EnvVars("MAKOLA_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Path returns the configured file path
func (a *App) Path() string {
	return a.path
}

// Configure loads the configuration file. Without --config it returns nil,
// which accepts any category and department.
func (a *App) Configure() (*config.MunicipalityConfig, error) {
	if a.path == "" {
		logging.Default().Warn("No municipality config given, categories and departments are not restricted")
		return nil, nil
	}

	cfg, err := LoadAppConfiguration(a.path)
	if err != nil {
		return nil, err
	}

	logging.Default().Info("Municipality config loaded",
		"path", a.path,
		"categories", len(cfg.Categories),
		"departments", len(cfg.Departments))
	return cfg.ToMunicipalityConfig(), nil
}
