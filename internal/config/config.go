// SPDX-License-Identifier: EPL-2.0

// Package config loads speechrig settings. SPEECHRIG_* environment variables
// override the YAML file, which overrides the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ik5/speechrig/anim"
	"github.com/ik5/speechrig/audio"
	"github.com/ik5/speechrig/inference"
	"github.com/ik5/speechrig/internal/logging"
	"github.com/ik5/speechrig/rig"
)

const EnvPrefix = "SPEECHRIG"

var ErrInvalid = errors.New("invalid configuration")

// Config holds all application configuration
type Config struct {
	Runtime   RuntimeConfig   `mapstructure:"runtime"`
	Models    ModelsConfig    `mapstructure:"models"`
	Audio     AudioConfig     `mapstructure:"audio"`
	Animation AnimationConfig `mapstructure:"animation"`
	Rig       RigConfig       `mapstructure:"rig"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
}

// RuntimeConfig locates ONNX Runtime
type RuntimeConfig struct {
	LibraryPath    string `mapstructure:"library_path"`
	IntraOpThreads int    `mapstructure:"intra_op_threads"`
}

type ModelConfig struct {
	Path    string   `mapstructure:"path"`
	Inputs  []string `mapstructure:"inputs"`
	Outputs []string `mapstructure:"outputs"`
}

type ModelsConfig struct {
	AudioEncoder     ModelConfig `mapstructure:"audio_encoder"`
	AnimationDecoder ModelConfig `mapstructure:"animation_decoder"`
	// Preload loads both models at startup instead of on first request.
	Preload bool `mapstructure:"preload"`
}

// AudioConfig configures waveform normalization
type AudioConfig struct {
	Downmix bool          `mapstructure:"downmix"`
	Channel int           `mapstructure:"channel"`
	Offset  time.Duration `mapstructure:"offset"`
	Quality string        `mapstructure:"quality"` // linear, high
}

// AnimationConfig holds per-request defaults
type AnimationConfig struct {
	FPS            float64 `mapstructure:"fps"`
	Mood           string  `mapstructure:"mood"`
	MoodIntensity  float64 `mapstructure:"mood_intensity"`
	OutputControls string  `mapstructure:"output_controls"` // full_face, mouth_only
	GenerateBlinks bool    `mapstructure:"generate_blinks"`
}

// RigConfig points at replacement control tables; empty uses the built-in ones.
type RigConfig struct {
	ControlsPath string `mapstructure:"controls_path"`
	MappingPath  string `mapstructure:"mapping_path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	names := rig.DefaultTensorNames()

	return &Config{
		Models: ModelsConfig{
			AudioEncoder: ModelConfig{
				Path:    "models/audio_encoder.onnx",
				Inputs:  []string{"audio"},
				Outputs: []string{"embeddings"},
			},
			AnimationDecoder: ModelConfig{
				Path:    "models/animation_decoder.onnx",
				Inputs:  names.Inputs(),
				Outputs: names.Outputs(),
			},
		},
		Audio: AudioConfig{
			Downmix: true,
			Quality: audio.QualityLinear.String(),
		},
		Animation: AnimationConfig{
			FPS:            30,
			Mood:           rig.MoodAutoDetect.String(),
			MoodIntensity:  1,
			OutputControls: rig.FullFace.String(),
			GenerateBlinks: true,
		},
		Log: LogConfig{
			Level:  string(logging.LevelInfo),
			Format: string(logging.FormatConsole),
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 64 << 20,
			RequestTimeout: 5 * time.Minute,
		},
	}
}

// defaults registers every key so env overrides reach Unmarshal.
func defaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("runtime.library_path", cfg.Runtime.LibraryPath)
	v.SetDefault("runtime.intra_op_threads", cfg.Runtime.IntraOpThreads)

	for key, m := range map[string]ModelConfig{
		"models.audio_encoder":     cfg.Models.AudioEncoder,
		"models.animation_decoder": cfg.Models.AnimationDecoder,
	} {
		v.SetDefault(key+".path", m.Path)
		v.SetDefault(key+".inputs", m.Inputs)
		v.SetDefault(key+".outputs", m.Outputs)
	}
	v.SetDefault("models.preload", cfg.Models.Preload)

	v.SetDefault("audio.downmix", cfg.Audio.Downmix)
	v.SetDefault("audio.channel", cfg.Audio.Channel)
	v.SetDefault("audio.offset", cfg.Audio.Offset)
	v.SetDefault("audio.quality", cfg.Audio.Quality)

	v.SetDefault("animation.fps", cfg.Animation.FPS)
	v.SetDefault("animation.mood", cfg.Animation.Mood)
	v.SetDefault("animation.mood_intensity", cfg.Animation.MoodIntensity)
	v.SetDefault("animation.output_controls", cfg.Animation.OutputControls)
	v.SetDefault("animation.generate_blinks", cfg.Animation.GenerateBlinks)

	v.SetDefault("rig.controls_path", cfg.Rig.ControlsPath)
	v.SetDefault("rig.mapping_path", cfg.Rig.MappingPath)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.max_upload_bytes", cfg.Server.MaxUploadBytes)
	v.SetDefault("server.request_timeout", cfg.Server.RequestTimeout)
}

// Load reads path, or when path is empty looks for speechrig.yaml in the
// working directory and ~/.speechrig. A missing default file is not an
// error; a missing explicit file is.
func Load(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()
	defaults(v, cfg)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("speechrig")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".speechrig"))
		}
	}

	// Environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enum names.
func (c *Config) Validate() error {
	var errs []error

	if err := anim.CheckFrameRate(c.Animation.FPS); err != nil {
		errs = append(errs, fmt.Errorf("animation.fps must be in [1, %d]: %w", anim.MaxFrameRate, err))
	}
	if !(c.Animation.MoodIntensity >= 0 && c.Animation.MoodIntensity <= 1) {
		errs = append(errs, fmt.Errorf("animation.mood_intensity must be in [0, 1], got %v", c.Animation.MoodIntensity))
	}
	if _, err := rig.ParseMood(c.Animation.Mood); err != nil {
		errs = append(errs, fmt.Errorf("animation.mood: %w", err))
	}
	if _, err := rig.ParseOutputControls(c.Animation.OutputControls); err != nil {
		errs = append(errs, fmt.Errorf("animation.output_controls: %w", err))
	}
	if c.Audio.Channel < 0 {
		errs = append(errs, fmt.Errorf("audio.channel must not be negative, got %d", c.Audio.Channel))
	}
	if c.Audio.Offset < 0 {
		errs = append(errs, fmt.Errorf("audio.offset must not be negative, got %s", c.Audio.Offset))
	}
	if _, err := audio.ParseQuality(c.Audio.Quality); err != nil {
		errs = append(errs, fmt.Errorf("audio.quality: %w", err))
	}
	if _, err := logging.ParseLevel(logging.LogLevel(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	for key, m := range map[string]ModelConfig{
		"models.audio_encoder":     c.Models.AudioEncoder,
		"models.animation_decoder": c.Models.AnimationDecoder,
	} {
		if m.Path == "" {
			errs = append(errs, fmt.Errorf("%s.path is required", key))
		}
	}
	if n := len(c.Models.AudioEncoder.Inputs); n != 1 || len(c.Models.AudioEncoder.Outputs) != 1 {
		errs = append(errs, errors.New("models.audio_encoder takes exactly one input and one output"))
	}
	if len(c.Models.AnimationDecoder.Inputs) != 3 || len(c.Models.AnimationDecoder.Outputs) != 3 {
		errs = append(errs, errors.New("models.animation_decoder takes three inputs and three outputs"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// ModelSpecs converts the models section for an inference.Registry.
func (c *Config) ModelSpecs() []inference.ModelSpec {
	return []inference.ModelSpec{
		{
			ID:      inference.AudioEncoder,
			Path:    c.Models.AudioEncoder.Path,
			Inputs:  c.Models.AudioEncoder.Inputs,
			Outputs: c.Models.AudioEncoder.Outputs,
		},
		{
			ID:      inference.AnimationDecoder,
			Path:    c.Models.AnimationDecoder.Path,
			Inputs:  c.Models.AnimationDecoder.Inputs,
			Outputs: c.Models.AnimationDecoder.Outputs,
		},
	}
}

// TensorNames returns the decoder tensor names in rig's terms.
func (c *Config) TensorNames() rig.TensorNames {
	in, out := c.Models.AnimationDecoder.Inputs, c.Models.AnimationDecoder.Outputs
	if len(in) != 3 || len(out) != 3 {
		return rig.DefaultTensorNames()
	}
	return rig.TensorNames{
		Embeddings:    in[0],
		Mood:          in[1],
		MoodIntensity: in[2],
		Face:          out[0],
		Blink:         out[1],
		Head:          out[2],
	}
}

// LoggingConfig converts the log section.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.Format = logging.Format(c.Log.Format)
	return cfg
}
