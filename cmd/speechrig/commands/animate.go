// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/speechrig"
	"github.com/ik5/speechrig/anim"
	"github.com/ik5/speechrig/rig"
)

type animateOptions struct {
	output    string
	format    string
	mood      string
	intensity float32
	fps       float64
	offset    time.Duration
	controls  string
	requestID string
}

func newAnimateCmd(g *globals) *cobra.Command {
	o := &animateOptions{}

	cmd := &cobra.Command{
		Use:   "animate <audio-file>",
		Short: "Animate an audio file",
		Long: `Run an audio file through the full pipeline and write the animation asset.

Flags left unset fall back to the animation section of the config.

Examples:
  speechrig animate hello.wav -o hello.json
  speechrig animate hello.ogg --mood sadness --intensity 0.4 --fps 60 -o hello.msgpack`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnimate(cmd, g, o, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.output, "output", "o", "-", "output file, - for stdout")
	f.StringVar(&o.format, "format", "", "asset encoding: json, msgpack (default from output extension, else json)")
	f.StringVar(&o.mood, "mood", "", "mood: "+moodNames())
	f.Float32Var(&o.intensity, "intensity", 1, "mood intensity in [0, 1]")
	f.Float64Var(&o.fps, "fps", 0, "output frame rate")
	f.DurationVar(&o.offset, "offset", 0, "skip this much audio from the start")
	f.StringVar(&o.controls, "controls", "", "output controls: full_face, mouth_only")
	f.StringVar(&o.requestID, "request-id", "", "request id for logs")
	return cmd
}

func runAnimate(cmd *cobra.Command, g *globals, o *animateOptions, path string) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}

	format, err := assetFormat(o.format, o.output)
	if err != nil {
		return err
	}

	req, err := baseRequest(cfg)
	if err != nil {
		return err
	}
	req.ID = o.requestID

	flags := cmd.Flags()
	if flags.Changed("mood") {
		if req.Mood, err = rig.ParseMood(o.mood); err != nil {
			return err
		}
	}
	if flags.Changed("intensity") {
		req.MoodIntensity = o.intensity
	}
	if flags.Changed("fps") {
		req.FrameRate = o.fps
	}
	if flags.Changed("offset") {
		req.Offset = o.offset
	}
	if flags.Changed("controls") {
		if req.Controls, err = rig.ParseOutputControls(o.controls); err != nil {
			return err
		}
	}

	a, err := newApp(cfg, g.log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	asset, err := speechrig.AnimateFile(cmd.Context(), a.processor, path, req)
	if err != nil {
		return err
	}

	if err := writeAsset(cmd.OutOrStdout(), o.output, format, asset); err != nil {
		return err
	}

	g.log.Info().
		Str("input", path).
		Str("output", o.output).
		Int("curves", len(asset.Curves)).
		Float64("duration", asset.Duration).
		Msg("animation written")
	return nil
}

func assetFormat(format, output string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".msgpack", ".mpk":
			return "msgpack", nil
		}
		return "json", nil
	}

	switch format {
	case "json", "msgpack":
		return format, nil
	}
	return "", fmt.Errorf("unknown asset format %q", format)
}

func writeAsset(stdout io.Writer, output, format string, asset *anim.Asset) (err error) {
	w := stdout
	if output != "-" && output != "" {
		f, ferr := os.Create(output)
		if ferr != nil {
			return fmt.Errorf("%w", ferr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if format == "msgpack" {
		return asset.EncodeMsgpack(w)
	}
	return asset.EncodeJSON(w)
}

func moodNames() string {
	names := make([]string, 0, len(rig.Moods()))
	for _, m := range rig.Moods() {
		names = append(names, m.String())
	}
	return strings.Join(names, ", ")
}
