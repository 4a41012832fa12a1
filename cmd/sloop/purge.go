package sloop

import (
	"github.com/spf13/cobra"
)

var removeNetworks bool

var purgeCmd = &cobra.Command{
	Use:   "purge <conf>...",
	Short: "Stop, disable and remove the units of configuration files",
	Long: `Purge undoes the installation of each configuration's unit. Images are
kept. Networks are shared between services and are only removed with
--remove-networks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := elevate(); err != nil {
			return err
		}

		a := newApp()
		for _, path := range args {
			rec, err := a.loader.Load(path)
			if err != nil {
				return err
			}
			if err := a.installer.Purge(cmd.Context(), rec.UnitName()); err != nil {
				return err
			}
			if !removeNetworks {
				continue
			}
			for _, name := range rec.Networks {
				if err := a.networks.Remove(cmd.Context(), name); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

func init() {
	purgeCmd.Flags().BoolVar(&removeNetworks, "remove-networks", false, "also remove the networks the services join")
}
