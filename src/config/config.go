package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sparselife/src/universe"
)

//ErrInvalidConfig is returned for the configuration which fails validation
var ErrInvalidConfig = errors.New("invalid config")

//Config is the file configuration, zero values keep the defaults
type Config struct {
	Width       int              `yaml:"width"`
	Height      int              `yaml:"height"`
	Interval    Duration         `yaml:"interval"`
	MaxSteps    *int             `yaml:"max_steps"`
	Rules       string           `yaml:"rules"`
	LogLevel    string           `yaml:"log_level"`
	MetricsAddr string           `yaml:"metrics_addr"`
	Templates   []TemplateConfig `yaml:"templates"`
}

//TemplateConfig describes one seeding pattern, either by the cell list or by the picture rows
type TemplateConfig struct {
	Name   string   `yaml:"name"`
	Descr  string   `yaml:"descr"`
	Cells  [][]int  `yaml:"cells"`
	Rows   []string `yaml:"rows"`
	Anchor []int    `yaml:"anchor"`
}

//Duration is the time.Duration written as the Go duration string, e.g. "150ms"
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

//Load reads and validates the YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

//Parse decodes and validates the YAML configuration
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

//Validate checks the values which can not be applied
func (c *Config) Validate() error {
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: negative seeding window %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: negative interval %v", ErrInvalidConfig, time.Duration(c.Interval))
	}
	if c.MaxSteps != nil && *c.MaxSteps < 0 {
		return fmt.Errorf("%w: negative max_steps %d", ErrInvalidConfig, *c.MaxSteps)
	}
	if c.Rules != "" {
		if _, err := universe.LookupRules(c.Rules); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if c.LogLevel != "" {
		if _, err := ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	seen := map[string]bool{}
	for i, t := range c.Templates {
		if t.Name == "" {
			return fmt.Errorf("%w: template #%d has no name", ErrInvalidConfig, i)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: duplicate template %q", ErrInvalidConfig, t.Name)
		}
		seen[t.Name] = true
		if _, err := t.Template(); err != nil {
			return err
		}
	}
	return nil
}

//Apply copies the configured values over the options
func (c *Config) Apply(o *universe.Options) error {
	if c.Width > 0 {
		o.Width = c.Width
	}
	if c.Height > 0 {
		o.Height = c.Height
	}
	if c.Interval > 0 {
		o.Interval = time.Duration(c.Interval)
	}
	if c.MaxSteps != nil {
		o.MaxSteps = *c.MaxSteps
	}
	if c.Rules != "" {
		r, err := universe.LookupRules(c.Rules)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		o.Rules = r
	}
	return nil
}

//UniverseTemplates converts the configured templates
func (c *Config) UniverseTemplates() ([]universe.Template, error) {
	tt := make([]universe.Template, 0, len(c.Templates))
	for _, t := range c.Templates {
		tmpl, err := t.Template()
		if err != nil {
			return nil, err
		}
		tt = append(tt, tmpl)
	}
	return tt, nil
}

//Template builds the universe template, rows take precedence over cells
func (t TemplateConfig) Template() (universe.Template, error) {
	if len(t.Rows) > 0 && len(t.Cells) > 0 {
		return universe.Template{}, fmt.Errorf("%w: template %q has both cells and rows", ErrInvalidConfig, t.Name)
	}
	if len(t.Rows) > 0 {
		anchor := universe.Cell{}
		switch len(t.Anchor) {
		case 0:
		case 2:
			anchor = universe.Cell{X: t.Anchor[0], Y: t.Anchor[1]}
		default:
			return universe.Template{}, fmt.Errorf("%w: template %q anchor must be [x, y]", ErrInvalidConfig, t.Name)
		}
		m, err := ParseRows(t.Rows)
		if err != nil {
			return universe.Template{}, fmt.Errorf("template %q: %w", t.Name, err)
		}
		return universe.MatrixTemplate(t.Name, t.Descr, anchor, m), nil
	}
	tmpl := universe.Template{Name: t.Name, Descr: t.Descr, Coordinates: t.Cells}
	if err := tmpl.Validate(); err != nil {
		return universe.Template{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return tmpl, nil
}

//ParseRows converts the picture rows into the boolean matrix
//'O', 'o', '*' and '#' are living cells, '.' and ' ' are dead ones
func ParseRows(rows []string) ([][]bool, error) {
	m := make([][]bool, len(rows))
	for y, row := range rows {
		m[y] = make([]bool, 0, len(row))
		for x, ch := range row {
			switch ch {
			case 'O', 'o', '*', '#':
				m[y] = append(m[y], true)
			case '.', ' ':
				m[y] = append(m[y], false)
			default:
				return nil, fmt.Errorf("%w: row %d column %d: unexpected %q", ErrInvalidConfig, y, x, ch)
			}
		}
	}
	return m, nil
}

//ParseLevel converts the level name into slog.Level
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, s)
	}
	return l, nil
}
