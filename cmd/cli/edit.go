//go:build !js && !wasm

package main

import (
	"fmt"
	"io"

	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/timeline"
	"github.com/spf13/cobra"
)

// Edit flags
var (
	trackName   string
	trackRole   string
	trackMute   bool
	trackLock   bool
	clipTrack   string
	clipMedia   string
	clipAt      float64
	clipLength  float64
	clipEdge    string
	clipKeep    string
	clipSpeed   float64
	clipReverse bool
	clipSnap    bool
	ripple      bool
	markerLabel string
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Add, remove and flag tracks",
}

var trackAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a track",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(true, func(svc syncdeck.Service) error {
			t, err := svc.Timeline().AddTrack(trackName, models.TrackRole(trackRole))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Added %s track %q (%s)\n", t.Role, t.Name, t.ID)
			return nil
		})
	},
}

var trackRmCmd = &cobra.Command{
	Use:   "rm <track-id>",
	Short: "Remove a track and its clips",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(true, func(svc syncdeck.Service) error {
			if err := svc.Timeline().RemoveTrack(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Removed track %s\n", args[0])
			return nil
		})
	},
}

var trackSetCmd = &cobra.Command{
	Use:   "set <track-id>",
	Short: "Rename, mute or lock a track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		return withProject(true, func(svc syncdeck.Service) error {
			tl := svc.Timeline()
			if cmd.Flags().Changed("name") {
				if err := tl.RenameTrack(id, trackName); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("mute") {
				if err := tl.SetTrackMuted(id, trackMute); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("lock") {
				if err := tl.SetTrackLocked(id, trackLock); err != nil {
					return err
				}
			}
			t, _ := tl.Track(id)
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s: muted=%t locked=%t\n", t.Name, t.Muted, t.Locked)
			return nil
		})
	},
}

var clipCmd = &cobra.Command{
	Use:   "clip",
	Short: "Place and edit clips",
}

var clipPlaceCmd = &cobra.Command{
	Use:   "place",
	Short: "Place registered media on a track",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(true, func(svc syncdeck.Service) error {
			var c models.Clip
			var err error
			if clipLength > 0 {
				c, err = svc.Timeline().AddClip(clipTrack, clipMedia, clipAt, clipLength)
			} else {
				c, err = svc.PlaceMedia(clipTrack, clipMedia, clipAt)
			}
			if err != nil {
				return err
			}
			printClip(cmd.OutOrStdout(), "Placed", c)
			return nil
		})
	},
}

// clipEdit builds a subcommand that applies one store edit to the clip named
// by its single argument.
func clipEdit(use, short string, edit func(tl *timeline.Store, snap *timeline.Resolver, id string) (models.Clip, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <clip-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(true, func(svc syncdeck.Service) error {
				svc.Timeline().SetRipple(ripple)
				c, err := edit(svc.Timeline(), svc.Snapper(), args[0])
				if err != nil {
					return err
				}
				printClip(cmd.OutOrStdout(), "Updated", c)
				return nil
			})
		},
	}
}

var clipMoveCmd = clipEdit("move", "Move a clip to --at, optionally onto --track", func(tl *timeline.Store, snap *timeline.Resolver, id string) (models.Clip, error) {
	at := clipAt
	if clipSnap {
		at = snap.SnapMove(id, at)
	}
	return tl.MoveClip(id, clipTrack, at)
})

var clipTrimCmd = clipEdit("trim", "Move the --edge of a clip to --at", func(tl *timeline.Store, snap *timeline.Resolver, id string) (models.Clip, error) {
	edge, err := timeline.ParseEdge(clipEdge)
	if err != nil {
		return models.Clip{}, err
	}
	at := clipAt
	if clipSnap {
		at, _ = snap.Snap(at, id)
	}
	return tl.TrimClip(id, edge, at)
})

var clipSplitCmd = clipEdit("split", "Cut a clip at --at, optionally keeping one --keep side", func(tl *timeline.Store, _ *timeline.Resolver, id string) (models.Clip, error) {
	switch clipKeep {
	case "left":
		return tl.SplitKeepLeft(id, clipAt)
	case "right":
		return tl.SplitKeepRight(id, clipAt)
	case "", "both":
		_, right, err := tl.SplitClip(id, clipAt)
		return right, err
	}
	return models.Clip{}, fmt.Errorf("--keep must be left, right or both, got %q", clipKeep)
})

var clipSpeedCmd = clipEdit("speed", "Set a clip's playback --speed", func(tl *timeline.Store, _ *timeline.Resolver, id string) (models.Clip, error) {
	return tl.SetClipSpeed(id, clipSpeed)
})

var clipReverseCmd = clipEdit("reverse", "Set or clear reversed playback with --on", func(tl *timeline.Store, _ *timeline.Resolver, id string) (models.Clip, error) {
	return tl.SetClipReverse(id, clipReverse)
})

var clipDupCmd = clipEdit("dup", "Duplicate a clip right after itself", func(tl *timeline.Store, _ *timeline.Resolver, id string) (models.Clip, error) {
	return tl.DuplicateClip(id)
})

var clipExtractCmd = clipEdit("extract-audio", "Copy a clip onto an audio track", func(tl *timeline.Store, _ *timeline.Resolver, id string) (models.Clip, error) {
	return tl.ExtractAudio(id)
})

var clipReplaceCmd = clipEdit("replace", "Swap a clip's media for --media", func(tl *timeline.Store, _ *timeline.Resolver, id string) (models.Clip, error) {
	var newDuration *float64
	if clipLength > 0 {
		newDuration = &clipLength
	}
	return tl.ReplaceClipMedia(id, clipMedia, newDuration)
})

var clipRmCmd = &cobra.Command{
	Use:   "rm <clip-id>",
	Short: "Remove a clip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(true, func(svc syncdeck.Service) error {
			svc.Timeline().SetRipple(ripple)
			if err := svc.Timeline().RemoveClip(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Removed clip %s\n", args[0])
			return nil
		})
	},
}

var markerCmd = &cobra.Command{
	Use:   "marker",
	Short: "Add and remove snap markers",
}

var markerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a marker at --at",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(true, func(svc syncdeck.Service) error {
			m := svc.Timeline().AddMarker(clipAt, markerLabel)
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Marker %s at %s\n", m.ID, formatSeconds(m.Time))
			return nil
		})
	},
}

var markerRmCmd = &cobra.Command{
	Use:   "rm <marker-id>",
	Short: "Remove a marker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(true, func(svc syncdeck.Service) error {
			if err := svc.Timeline().RemoveMarker(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Removed marker %s\n", args[0])
			return nil
		})
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show which clips are visible at --at and their media times",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(false, func(svc syncdeck.Service) error {
			out := cmd.OutOrStdout()
			for _, ct := range svc.Timeline().ResolveAt(clipAt) {
				if !ct.Visible {
					continue
				}
				muted := ""
				if ct.Muted {
					muted = " (muted)"
				}
				fmt.Fprintf(out, "%s  %s @ %.3f%s\n", ct.Clip.ID, mediaLabel(svc, ct.Clip.MediaID), ct.MediaTime, muted)
			}
			return nil
		})
	},
}

func printClip(out io.Writer, verb string, c models.Clip) {
	fmt.Fprintf(out, "✅ %s clip %s\n", verb, c.ID)
	fmt.Fprintf(out, "   Timeline: %s → %s\n", formatSeconds(c.StartTime), formatSeconds(c.EndTime))
	fmt.Fprintf(out, "   Media:    %.3f → %.3f (%s)\n", c.InPoint, c.OutPoint, clipFlags(c))
}

func init() {
	trackAddCmd.Flags().StringVar(&trackName, "name", "", "Track name (generated from the role when empty)")
	trackAddCmd.Flags().StringVar(&trackRole, "role", string(models.RoleGeneric), "primary, secondary, audio, caption or generic")
	trackSetCmd.Flags().StringVar(&trackName, "name", "", "New track name")
	trackSetCmd.Flags().BoolVar(&trackMute, "mute", false, "Mute the track")
	trackSetCmd.Flags().BoolVar(&trackLock, "lock", false, "Lock the track against edits")
	trackCmd.AddCommand(trackAddCmd, trackRmCmd, trackSetCmd)

	clipPlaceCmd.Flags().StringVar(&clipTrack, "track", "", "Target track id")
	clipPlaceCmd.Flags().StringVar(&clipMedia, "media", "", "Media id")
	clipPlaceCmd.Flags().Float64Var(&clipAt, "at", 0, "Start time in seconds")
	clipPlaceCmd.Flags().Float64Var(&clipLength, "length", 0, "Clip length in seconds (default: the media's own)")
	clipPlaceCmd.MarkFlagRequired("track")
	clipPlaceCmd.MarkFlagRequired("media")

	for _, c := range []*cobra.Command{clipMoveCmd, clipTrimCmd, clipSplitCmd, clipSpeedCmd, clipReverseCmd, clipDupCmd, clipExtractCmd, clipReplaceCmd, clipRmCmd} {
		c.Flags().BoolVar(&ripple, "ripple", false, "Shift later clips on the track to follow the edit")
	}
	clipMoveCmd.Flags().Float64Var(&clipAt, "at", 0, "New start time in seconds")
	clipMoveCmd.Flags().StringVar(&clipTrack, "track", "", "Destination track id (default: same track)")
	clipMoveCmd.Flags().BoolVar(&clipSnap, "snap", false, "Snap to markers, the playhead and clip edges")
	clipTrimCmd.Flags().Float64Var(&clipAt, "at", 0, "New edge time in seconds")
	clipTrimCmd.Flags().StringVar(&clipEdge, "edge", "end", "start or end")
	clipTrimCmd.Flags().BoolVar(&clipSnap, "snap", false, "Snap to markers, the playhead and clip edges")
	clipSplitCmd.Flags().Float64Var(&clipAt, "at", 0, "Split time in seconds")
	clipSplitCmd.Flags().StringVar(&clipKeep, "keep", "both", "left, right or both")
	clipSpeedCmd.Flags().Float64Var(&clipSpeed, "speed", 1, "Playback speed multiplier")
	clipReverseCmd.Flags().BoolVar(&clipReverse, "on", true, "Reverse playback")
	clipReplaceCmd.Flags().StringVar(&clipMedia, "media", "", "Replacement media id")
	clipReplaceCmd.Flags().Float64Var(&clipLength, "duration", 0, "Rescale the trim to this new media duration")
	clipReplaceCmd.MarkFlagRequired("media")
	clipCmd.AddCommand(clipPlaceCmd, clipMoveCmd, clipTrimCmd, clipSplitCmd, clipSpeedCmd, clipReverseCmd, clipDupCmd, clipExtractCmd, clipReplaceCmd, clipRmCmd)

	markerAddCmd.Flags().Float64Var(&clipAt, "at", 0, "Marker time in seconds")
	markerAddCmd.Flags().StringVar(&markerLabel, "label", "", "Marker label")
	markerCmd.AddCommand(markerAddCmd, markerRmCmd)

	resolveCmd.Flags().Float64Var(&clipAt, "at", 0, "Timeline time in seconds")
}
