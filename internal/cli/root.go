package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	verbose     bool
	metricsFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "erosion",
	Short: "Erosion - institutional drift monitor (non-normative)",
	Long: `Erosion scores public evidence about government institutions for signs of
drift away from established norms.

Each category (courts, civil service, fiscal, inspectors general, ...) is
classified against a keyword vocabulary, scored per document and per week,
accumulated with exponential decay and compared against its own history.
Optional AI providers can frame the evidence and argue it out in a debate.

Keyword results are a floor: AI output may escalate a status, never lower it.

Erosion reports signals. It does not decide what is lawful or true.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of erosion.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "erosion v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.erosion/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file on exit")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.erosion")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// EROSION_STORE_PATH overrides store.path and so on
	viper.SetEnvPrefix("EROSION")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
