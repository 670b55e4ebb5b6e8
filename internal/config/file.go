package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

// fileConfig mirrors #Config. Absent fields keep their current value.
type fileConfig struct {
	Addr              *string `json:"addr"`
	Content           *string `json:"content"`
	Window            *struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"window"`
	MaxInlineMs       *int64 `json:"maxInlineMs"`
	FrameStepMs       *int64 `json:"frameStepMs"`
	MinFrameSpacingMs *int64 `json:"minFrameSpacingMs"`
	FPS               *struct {
		Default *int `json:"default"`
		Max     *int `json:"max"`
	} `json:"fps"`
	WaitTimeoutMs     *int64  `json:"waitTimeoutMs"`
	FFmpeg            *string `json:"ffmpeg"`
	TempDir           *string `json:"tempDir"`
	DB                *string `json:"db"`
	ShutdownTimeoutMs *int64  `json:"shutdownTimeoutMs"`
}

// LoadFile reads a CUE config file and applies it on top of base.
//
// The file is unified with the closed #Config schema, so unknown fields,
// wrong types and out-of-range values are rejected with the file position.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data, base)
}

// Parse is LoadFile for in-memory content; name is used in error messages.
func Parse(name string, data []byte, base Config) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}

	file := ctx.CompileBytes(data, cue.Filename(name))
	if err := file.Err(); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(file)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	var fc fileConfig
	if err := value.Decode(&fc); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg := base
	fc.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (fc fileConfig) apply(cfg *Config) {
	setString(&cfg.Addr, fc.Addr)
	setString(&cfg.Content, fc.Content)
	if fc.Window != nil {
		cfg.Width = fc.Window.Width
		cfg.Height = fc.Window.Height
	}
	setMillis(&cfg.MaxInlineDuration, fc.MaxInlineMs)
	setMillis(&cfg.FrameStep, fc.FrameStepMs)
	setMillis(&cfg.MinFrameSpacing, fc.MinFrameSpacingMs)
	if fc.FPS != nil {
		if fc.FPS.Default != nil {
			cfg.DefaultFPS = *fc.FPS.Default
		}
		if fc.FPS.Max != nil {
			cfg.MaxFPS = *fc.FPS.Max
		}
	}
	setMillis(&cfg.WaitTimeout, fc.WaitTimeoutMs)
	setString(&cfg.FFmpeg, fc.FFmpeg)
	setString(&cfg.TempDir, fc.TempDir)
	setString(&cfg.DBPath, fc.DB)
	setMillis(&cfg.ShutdownTimeout, fc.ShutdownTimeoutMs)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setMillis(dst *time.Duration, ms *int64) {
	if ms != nil {
		*dst = time.Duration(*ms) * time.Millisecond
	}
}
