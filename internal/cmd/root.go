// Package cmd provides the CLI commands for colorgorical.
package cmd

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-colorgorical/internal/applog"
	"github.com/wethinkt/go-colorgorical/internal/config"
)

// global flags
var (
	profileFile *os.File // held open for profiling
	configPath  string
	logPath     string
	verbose     bool
	outputJSON  bool
)

// cfg is the configuration loaded before every command runs.
var cfg = config.Default()

// rootCmd is the root command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "colorgorical",
	Short: "Build and score categorical color palettes",
	Long: `colorgorical builds categorical color palettes by sampling a discretized
CIE Lab color space, balancing perceptual distance, color name difference,
name uniqueness and pair preference.

Commands:
  make       Build a palette
  score      Score an existing palette
  convert    Convert a color between Lab and sRGB
  hues       Normalize hue filter ranges
  reference  Score well-known reference palettes
  catalog    Inspect or export the color catalog
  samples    Generate sample palettes and figures
  history    List recently made and scored palettes
  serve      Start the HTTP API and MCP server

Examples:
  colorgorical make -n 5
  colorgorical make -n 8 --weights de=1,nd=0.5,nu=0,pp=1 --hue 0:120
  colorgorical score '#1f77b4' '#ff7f0e' '#2ca02c'
  colorgorical serve -p 8888`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Start pprof profiling if COLORGORICAL_PROFILE is set
		if profilePath := os.Getenv("COLORGORICAL_PROFILE"); profilePath != "" {
			f, err := os.Create(profilePath)
			if err != nil {
				return fmt.Errorf("create profile file: %w", err)
			}
			profileFile = f

			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				profileFile = nil
				return fmt.Errorf("start CPU profile: %w", err)
			}
		}

		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded

		path := logPath
		if path == "" {
			path = cfg.LogFile
		}
		if err := applog.Init(path); err != nil {
			return err
		}
		applog.Log.SetDebug(verbose)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		// Stop CPU profiling
		if profileFile != nil {
			pprof.StopCPUProfile()
			profileFile.Close()
			profileFile = nil
		}
		return applog.Log.Close()
	},
}

// loadConfig reads --config when given, otherwise the default config file.
func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.colorgorical/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "write debug log to file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(makeCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(huesCmd)
	rootCmd.AddCommand(referenceCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(samplesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
