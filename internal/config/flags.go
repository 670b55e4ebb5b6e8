package config

import (
	"github.com/spf13/pflag"
)

// Flags binds configuration flags to a flag set. Only flags set on the
// command line override file or default values.
type Flags struct {
	fs       *pflag.FlagSet
	values   Config
	bindings []binding
}

type binding struct {
	name string
	copy func(dst, src *Config)
}

// BindFlags registers the configuration flags on fs, with Default() values
// as flag defaults.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs, values: Default()}
	v := &f.values

	fs.StringVar(&v.Addr, "addr", v.Addr, "HTTP listen address")
	f.bind("addr", func(dst, src *Config) { dst.Addr = src.Addr })

	fs.StringVar(&v.Content, "content", v.Content, "scene shown at startup")
	f.bind("content", func(dst, src *Config) { dst.Content = src.Content })

	fs.IntVar(&v.Width, "width", v.Width, "window width in pixels")
	f.bind("width", func(dst, src *Config) { dst.Width = src.Width })

	fs.IntVar(&v.Height, "height", v.Height, "window height in pixels")
	f.bind("height", func(dst, src *Config) { dst.Height = src.Height })

	fs.DurationVar(&v.MaxInlineDuration, "max-inline", v.MaxInlineDuration, "upper bound of gifDurationMs and videoDurationMs")
	f.bind("max-inline", func(dst, src *Config) { dst.MaxInlineDuration = src.MaxInlineDuration })

	fs.IntVar(&v.DefaultFPS, "fps", v.DefaultFPS, "default recording frame rate")
	f.bind("fps", func(dst, src *Config) { dst.DefaultFPS = src.DefaultFPS })

	fs.IntVar(&v.MaxFPS, "max-fps", v.MaxFPS, "highest accepted recording frame rate")
	f.bind("max-fps", func(dst, src *Config) { dst.MaxFPS = src.MaxFPS })

	fs.DurationVar(&v.WaitTimeout, "wait-timeout", v.WaitTimeout, "default waitForNode timeout")
	f.bind("wait-timeout", func(dst, src *Config) { dst.WaitTimeout = src.WaitTimeout })

	fs.StringVar(&v.FFmpeg, "ffmpeg", v.FFmpeg, "encoder binary")
	f.bind("ffmpeg", func(dst, src *Config) { dst.FFmpeg = src.FFmpeg })

	fs.StringVar(&v.TempDir, "temp-dir", v.TempDir, "directory for encoder working files")
	f.bind("temp-dir", func(dst, src *Config) { dst.TempDir = src.TempDir })

	fs.StringVar(&v.DBPath, "db", v.DBPath, "request log database (:memory: for none on disk)")
	f.bind("db", func(dst, src *Config) { dst.DBPath = src.DBPath })

	return f
}

func (f *Flags) bind(name string, copy func(dst, src *Config)) {
	f.bindings = append(f.bindings, binding{name: name, copy: copy})
}

// Apply copies every flag changed on the command line into cfg.
func (f *Flags) Apply(cfg *Config) {
	for _, b := range f.bindings {
		if f.fs.Changed(b.name) {
			b.copy(cfg, &f.values)
		}
	}
}

// Load builds the effective configuration: defaults, then the config file
// at path (if any), then changed flags.
func Load(path string, flags *Flags) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		cfg, err = LoadFile(path, cfg)
		if err != nil {
			return Config{}, err
		}
	}
	if flags != nil {
		flags.Apply(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
