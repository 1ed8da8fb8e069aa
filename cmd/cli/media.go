//go:build !js && !wasm

package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Manage the media registry",
}

var mediaImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Probe files and register them as media",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := createService()
		if err != nil {
			return err
		}
		defer svc.Close()

		out := cmd.OutOrStdout()
		for _, path := range args {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			f, err := svc.ImportMedia(ctx, path)
			cancel()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ %s\n", f.Name)
			fmt.Fprintf(out, "   ID:   %s\n", f.ID)
			fmt.Fprintf(out, "   Kind: %s, %s\n", f.Kind, humanize.Bytes(uint64(f.SizeBytes)))
			if f.Duration > 0 {
				fmt.Fprintf(out, "   Duration: %s\n", formatSeconds(f.Duration))
			}
			if f.Width > 0 {
				fmt.Fprintf(out, "   Size: %dx%d\n", f.Width, f.Height)
			}
		}
		return nil
	},
}

var mediaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered media",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := createService()
		if err != nil {
			return err
		}
		defer svc.Close()

		files, err := svc.ListMedia()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(files) == 0 {
			fmt.Fprintln(out, "📭 No media registered")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tKIND\tDURATION\tSIZE")
		for _, f := range files {
			duration := "-"
			if f.HasFiniteDuration() {
				duration = formatSeconds(f.Duration)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.Name, f.Kind, duration, humanize.Bytes(uint64(f.SizeBytes)))
		}
		return tw.Flush()
	},
}

var mediaRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove media no stored clip references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := createService()
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.DeleteMedia(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Removed media %s\n", args[0])
		return nil
	},
}

func init() {
	mediaCmd.AddCommand(mediaImportCmd, mediaListCmd, mediaRmCmd)
}
