// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/speechrig"
	"github.com/ik5/speechrig/audio"
	"github.com/ik5/speechrig/formats/wav"
)

func newNormalizeCmd(g *globals) *cobra.Command {
	var (
		offset  time.Duration
		channel int
		quality string
		noMix   bool
	)

	cmd := &cobra.Command{
		Use:   "normalize <audio-file> <out.wav>",
		Short: "Write the 16 kHz mono signal the audio encoder sees",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}

			opts := audio.NormalizeOptions{
				Offset:  cfg.Audio.Offset,
				Downmix: cfg.Audio.Downmix,
				Channel: cfg.Audio.Channel,
			}
			q := cfg.Audio.Quality

			flags := cmd.Flags()
			if flags.Changed("offset") {
				opts.Offset = offset
			}
			if flags.Changed("channel") {
				opts.Channel = channel
				opts.Downmix = false
			}
			if flags.Changed("no-downmix") {
				opts.Downmix = !noMix
			}
			if flags.Changed("quality") {
				q = quality
			}
			if opts.Quality, err = audio.ParseQuality(q); err != nil {
				return err
			}

			sig, err := speechrig.NormalizeFile(args[0], opts)
			if err != nil {
				return err
			}

			out, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("%w", err)
			}
			if err := wav.WriteSignal(out, sig); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("%w", err)
			}

			g.log.Info().
				Str("input", args[0]).
				Str("output", args[1]).
				Int("samples", sig.Len()).
				Dur("duration", sig.Duration()).
				Float32("peak", sig.Peak()).
				Msg("signal written")
			return nil
		},
	}

	f := cmd.Flags()
	f.DurationVar(&offset, "offset", 0, "skip this much audio from the start")
	f.IntVar(&channel, "channel", 0, "use this channel instead of downmixing")
	f.BoolVar(&noMix, "no-downmix", false, "select a channel instead of summing them")
	f.StringVar(&quality, "quality", "linear", "resampler: linear, high")
	return cmd
}
