package cmd

import (
	"context"
	"fmt"

	"github.com/pders01/ggr/internal/config"
	"github.com/pders01/ggr/internal/gerrit"
	"github.com/pders01/ggr/internal/git"
	"github.com/pders01/ggr/internal/topic"
	"github.com/spf13/viper"
)

func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	return config.Load(viper.GetViper())
}

// loadGerritConfig is loadConfig for commands that talk to Gerrit.
func loadGerritConfig() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.IsValid() {
		return nil, fmt.Errorf("scheme and base must be set in %s (run 'ggr config init')", config.FileName)
	}
	return cfg, nil
}

func newGerritClient(cfg *config.Config) *gerrit.Client {
	return gerrit.NewClient(cfg.BaseURL(), cfg.Timeout)
}

// openWorkspace locates the superproject: the -C flag, then the directory
// of a config file with root set, then the repository enclosing the
// working directory.
func openWorkspace(ctx context.Context, cfg *config.Config) (topic.Workspace, error) {
	dir := superproject
	if dir == "" {
		dir = cfg.SuperprojectDir(viper.ConfigFileUsed())
	}
	if dir == "" {
		top, err := git.TopLevel(ctx, ".")
		if err != nil {
			return nil, err
		}
		dir = top
	}

	root, err := git.Open(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open superproject: %w", err)
	}
	return topic.NewWorkspace(root), nil
}
