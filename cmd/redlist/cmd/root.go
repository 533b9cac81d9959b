package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/listkit/redlist"
)

var rootCmd = &cobra.Command{
	Use:   "redlist",
	Short: "Redis-backed list CLI",
	Long:  "CLI for inspecting and mutating redlist sequences stored in Redis.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ~/.config/redlist/config.yaml)")
	rootCmd.PersistentFlags().String("addr", "", "redis address (default: localhost:6379)")

	viper.BindPFlag("addr", rootCmd.PersistentFlags().Lookup("addr"))
}

func initConfig() {
	if cfg := rootCmd.PersistentFlags().Lookup("config").Value.String(); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("REDLIST")
	viper.AutomaticEnv()
	viper.SetDefault("addr", "localhost:6379")

	viper.ReadInConfig()
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "redlist")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "redlist")
	}
	return ".redlist"
}

func openList(key string) (*redlist.List, error) {
	return redlist.Open(viper.GetString("addr"), redlist.WithKey(key))
}
