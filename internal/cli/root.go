package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// Version is set at build time
var Version = "dev"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "incidentcheck",
	Short: "incidentcheck - validation of security incident report drafts",
	Long: `incidentcheck validates draft security incident reports before publication.

Each draft goes through three gates:
- Duplication: is the incident already covered by the published corpus?
- Structure: does the draft carry the required front matter and sections?
- Fact check: are its statements backed by reliable web sources?

The verdict is advisory. A failed check means the draft needs a human look,
not that the report is wrong.`,
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
	Long:  `Display the version number of incidentcheck.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "incidentcheck %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.incidentcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

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

		viper.AddConfigPath(home + "/.incidentcheck")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// INCIDENTCHECK_LLM_MODEL overrides llm.model
	viper.SetEnvPrefix("INCIDENTCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// initLogging installs the process-wide slog handler on stderr
func initLogging() {
	level := slog.LevelWarn
	if verbose || viper.GetBool("output.verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
