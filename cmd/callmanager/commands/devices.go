package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rafq345/callmanager/pkg/cli"
	"github.com/rafq345/callmanager/pkg/media"
	"github.com/rafq345/callmanager/pkg/media/wavdev"
)

var devicesDir string

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List microphones and speakers",
	Long: `List the WAV devices of a directory. Each <name>.wav is a microphone
named <name>; each file under out/ is a speaker sink.

The directory is --dir, the devices_dir of the current context, or
~/.callmanager/devices.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveDevicesDir(devicesDir, nil)
		if err != nil {
			return err
		}
		format, err := outputFormat()
		if err != nil {
			return err
		}
		catalog := &wavdev.Catalog{Dir: dir}
		var all []media.DeviceInfo
		for _, kind := range []media.Kind{media.KindAudioInput, media.KindAudioOutput} {
			list, err := catalog.List(kind)
			if err != nil {
				return err
			}
			all = append(all, list...)
		}

		out := cmd.OutOrStdout()
		if format != cli.FormatTable {
			return cli.Output(out, all, format)
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tID\tLABEL\tRATE")
		for _, d := range all {
			rate := "-"
			if d.SampleRate > 0 {
				rate = fmt.Sprintf("%d Hz", d.SampleRate)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Kind, d.ID, d.Label, rate)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if all[0].Kind != media.KindAudioInput {
			fmt.Fprintf(out, "\nNo microphones in %s.\n", dir)
			fmt.Fprintln(out, "Add one by copying a 16-bit PCM WAV file there.")
		}
		return nil
	},
}

// resolveDevicesDir picks flag, then context, then the default directory.
func resolveDevicesDir(flag string, ctx *cli.Context) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if ctx == nil {
		if cfg, err := GetConfig(); err == nil {
			ctx, _ = cfg.GetCurrentContext()
		}
	}
	if ctx != nil && ctx.DevicesDir != "" {
		return ctx.DevicesDir, nil
	}
	paths, err := cli.NewPaths()
	if err != nil {
		return "", err
	}
	if err := paths.EnsureDevicesDir(); err != nil {
		return "", err
	}
	return paths.DevicesDir(), nil
}

func init() {
	devicesCmd.Flags().StringVar(&devicesDir, "dir", "", "device directory")
	rootCmd.AddCommand(devicesCmd)
}
