package sloop

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"

	"github.com/railwayapp/sloop/internal/systemd"
)

var (
	cfgFile   string
	start     bool
	enable    bool
	noElevate bool
)

var rootCmd = &cobra.Command{
	Use:   "sloop [flags] <conf>...",
	Short: "Build podman services and install them as systemd units",
	Long: `Sloop deploys every configuration file given, in order:
1. Build - Render a build script and build the image with buildah
2. Derive - Generate a systemd unit from a probe container with podman
3. Install - Stop the running unit, replace it and reload systemd
4. Activate - Optionally start and enable the unit`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := elevate(); err != nil {
			return err
		}
		return newApp().deploy(cmd.Context(), args, systemd.Options{Start: start, Enable: enable})
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "settings file (default is /etc/sloop/sloop.yaml, then $HOME/.sloop.yaml)")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("unit-dir", systemd.DefaultUnitDir, "directory units are installed into")
	flags.String("namespace", "sloop", "repository namespace of built images")
	flags.BoolVar(&noElevate, "no-elevate", false, "do not re-run through sudo when not root")

	bindSettings(flags, map[string]string{
		"log_level": "log-level",
		"unit_dir":  "unit-dir",
		"namespace": "namespace",
	})

	rootCmd.Flags().BoolVarP(&start, "start", "s", false, "start the unit after installing it")
	rootCmd.Flags().BoolVarP(&enable, "enable", "e", false, "enable the unit after installing it")

	rootCmd.AddCommand(checkCmd, printCmd, purgeCmd)
}

// bindSettings binds viper keys to the flags overriding them.
func bindSettings(flags *pflag.FlagSet, keys map[string]string) {
	for key, flag := range keys {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flag)))
	}
}

func initConfig() {
	viper.SetDefault("namespace", "sloop")
	viper.SetDefault("unit_dir", systemd.DefaultUnitDir)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("podman", "podman")
	viper.SetDefault("buildah", "buildah")
	viper.SetDefault("systemctl", "systemctl")
	viper.SetDefault("elevate", true)
	viper.SetDefault("workdir", "")

	viper.SetEnvPrefix("sloop")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if path := defaultConfigFile(); path != "" {
		viper.SetConfigFile(path)
	}

	if viper.ConfigFileUsed() != "" {
		if err := viper.ReadInConfig(); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to read settings %s: %w", viper.ConfigFileUsed(), err))
		}
	}

	if noElevate {
		viper.Set("elevate", false)
	}

	level, err := logrus.ParseLevel(viper.GetString("log_level"))
	cobra.CheckErr(err)
	logger.SetLevel(level)
	logger.WithField("settings", viper.ConfigFileUsed()).Debug("configuration loaded")
}

func defaultConfigFile() string {
	candidates := []string{"/etc/sloop/sloop.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".sloop.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
