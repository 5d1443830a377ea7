// Command catalog-proxy serves a paginated view of the catalog over HTTP and
// lists catalog pages from the command line.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/catalog-client/pkg/config"
	"github.com/Sternrassler/catalog-client/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "catalog-proxy",
		Short:        "Paginated catalog client for the books GraphQL API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	load := func() (config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		logCfg := cfg.Logging()
		logCfg.Service = "catalog-proxy"
		logging.Setup(logCfg)
		log.Debug().Str("config", configPath).Msg("Configuration loaded")
		return cfg, nil
	}

	root.AddCommand(newServeCmd(load), newListCmd(load))
	return root
}
