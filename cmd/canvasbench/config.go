package main

import (
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/phanxgames/canvas"
)

// loadConfig reads path over the defaults, or only the environment when
// path is empty.
func loadConfig(path string) (canvas.Config, error) {
	if path == "" {
		return canvas.LoadConfig("")
	}
	return canvas.LoadConfigFile(path, "")
}

func newConfigCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective scene configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(file)
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
	cmd.Flags().StringVarP(&file, "config", "c", "", "TOML config file")
	return cmd
}
