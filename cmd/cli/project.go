//go:build !js && !wasm

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create, list, inspect and delete projects",
}

var projectNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create an empty project with two primary tracks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := createService()
		if err != nil {
			return err
		}
		defer svc.Close()

		svc.NewProject(args[0])
		id, err := svc.SaveProject()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ Created project %q\n", args[0])
		fmt.Fprintf(out, "   ID: %s\n", id)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored projects, most recently saved first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := createService()
		if err != nil {
			return err
		}
		defer svc.Close()

		projects, err := svc.ListProjects()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(projects) == 0 {
			fmt.Fprintln(out, "📭 No projects in database")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tFPS\tTRACKS\tCLIPS\tSAVED")
		for _, p := range projects {
			fmt.Fprintf(tw, "%s\t%s\t%g\t%d\t%d\t%s\n",
				p.ID, p.Name, p.FrameRate, p.TrackCount, p.ClipCount, humanize.Time(p.UpdatedAt))
		}
		return tw.Flush()
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the tracks, clips and markers of --project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(false, func(svc syncdeck.Service) error {
			return printTimeline(cmd.OutOrStdout(), svc)
		})
	},
}

var projectRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a stored project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := createService()
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.DeleteProject(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Deleted project %s\n", args[0])
		return nil
	},
}

func init() {
	projectCmd.AddCommand(projectNewCmd, projectListCmd, projectShowCmd, projectRmCmd)
}

func printTimeline(out io.Writer, svc syncdeck.Service) error {
	tl := svc.Timeline()
	fmt.Fprintf(out, "Project %s  %g fps  duration %s\n", svc.ProjectID(), tl.FrameRate(), formatSeconds(tl.Duration()))
	if loop, ok := tl.LoopRegion(); ok {
		fmt.Fprintf(out, "Loop %s - %s\n", formatSeconds(loop.InPoint), formatSeconds(loop.OutPoint))
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, t := range tl.Tracks() {
		flags := ""
		if t.Muted {
			flags += " muted"
		}
		if t.Locked {
			flags += " locked"
		}
		fmt.Fprintf(tw, "\n%s\t%s [%s]%s\n", t.ID, t.Name, t.Role, flags)
		for _, c := range t.Clips {
			fmt.Fprintf(tw, "  %s\t%s → %s\tmedia %s\t[%.3f, %.3f]\t%s\n",
				c.ID, formatSeconds(c.StartTime), formatSeconds(c.EndTime),
				mediaLabel(svc, c.MediaID), c.InPoint, c.OutPoint, clipFlags(c))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	markers := tl.Markers()
	if len(markers) > 0 {
		fmt.Fprintln(out, "\nMarkers:")
		for _, m := range markers {
			fmt.Fprintf(out, "  %s  %s  %s\n", m.ID, formatSeconds(m.Time), m.Label)
		}
	}
	return nil
}

func mediaLabel(svc syncdeck.Service, id string) string {
	f, err := svc.GetMedia(id)
	if err != nil {
		return id + " (missing)"
	}
	return f.Name
}

func clipFlags(c models.Clip) string {
	s := fmt.Sprintf("%gx", c.EffectiveSpeed())
	if c.Reverse {
		s += " reversed"
	}
	return s
}

// formatSeconds renders timeline seconds as m:ss.mmm.
func formatSeconds(t float64) string {
	ms := int64(t*1000 + 0.5)
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}
