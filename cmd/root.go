package cmd

import (
	"fmt"
	"os"

	"github.com/smarttype/smarttender/pkg/config"
	"github.com/smarttype/smarttender/pkg/headless"
	"github.com/smarttype/smarttender/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "smarttender",
	Short: "Chat front end for the SmartTender retrieval backend",
	Long:  `Streams answers from the SmartTender query service and keeps conversation history in sync with the backend store.`,
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		if err := logger.Init(settings.Logging.Level, settings.Logging.LogFile, settings.Logging.Preserve); err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Close()

		prompt := viper.GetString("prompt")
		if prompt != "" {
			if err := headless.RunPrompt(prompt); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}

		if err := headless.RunInteractive(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", ".smarttender/settings.yaml", "config file")

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("server", "", "backend base URL")
	viper.BindPFlag("backend.url", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.PersistentFlags().String("owner", "", "owner id for conversation history")
	viper.BindPFlag("owner", rootCmd.PersistentFlags().Lookup("owner"))

	rootCmd.PersistentFlags().String("timeout", "", "per-query stream timeout (e.g. 180s)")
	viper.BindPFlag("backend.timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	rootCmd.PersistentFlags().StringP("prompt", "p", "", "execute a single prompt and exit")
	viper.BindPFlag("prompt", rootCmd.PersistentFlags().Lookup("prompt"))

	viper.SetDefault("backend.url", "http://localhost:8000")
	viper.SetDefault("backend.timeout", "180s")
	viper.SetDefault("owner", "local")
	viper.SetDefault("history.limit", 15)

	viper.SetDefault("logging.log_file", "./.smarttender/system.log")
	viper.SetDefault("logging.preserve", true)
	viper.SetDefault("logging.level", "info")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./.smarttender")
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
