package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"heatmap/internal/chart"
	"heatmap/internal/models"
	"heatmap/internal/view"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Data    DataConfig    `mapstructure:"data"`
	Backend BackendConfig `mapstructure:"backend"`
	Chart   ChartConfig   `mapstructure:"chart"`
	Images  ImagesConfig  `mapstructure:"images"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DataConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

type BackendConfig struct {
	// URL of the /get_data endpoint host; empty means this server.
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type MarginConfig struct {
	Top    float64 `mapstructure:"top"`
	Right  float64 `mapstructure:"right"`
	Bottom float64 `mapstructure:"bottom"`
	Left   float64 `mapstructure:"left"`
}

type ChartConfig struct {
	Width  float64      `mapstructure:"width"`
	Height float64      `mapstructure:"height"`
	Margin MarginConfig `mapstructure:"margin"`
	// Mode pins the metric pair ("mortality", "gender"); empty detects it.
	Mode string `mapstructure:"mode"`
}

type ImagesConfig struct {
	Dir     string `mapstructure:"dir"`
	Ext     string `mapstructure:"ext"`
	Default string `mapstructure:"default"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// BackendURL resolves the data endpoint host, defaulting to this server.
func (c *Config) BackendURL() string {
	if c.Backend.URL != "" {
		return c.Backend.URL
	}
	host := c.Server.Host
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Server.Port))
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// ChartOptions builds renderer options, pinning the metric pair if chart.mode is set.
func (c *Config) ChartOptions() chart.Options {
	opts := chart.DefaultOptions()
	opts.Width = c.Chart.Width
	opts.Height = c.Chart.Height
	opts.Margin = chart.Margin{
		Top:    c.Chart.Margin.Top,
		Right:  c.Chart.Margin.Right,
		Bottom: c.Chart.Margin.Bottom,
		Left:   c.Chart.Margin.Left,
	}
	if mode, ok := models.ModeByName(c.Chart.Mode); ok {
		opts.Mode = &mode
	}
	return opts
}

func (c *Config) ImageLinks() view.Images {
	im := view.DefaultImages()
	im.Dir = c.Images.Dir
	if c.Images.Ext != "" {
		im.Ext = c.Images.Ext
	}
	if c.Images.Default != "" {
		im.Default = c.Images.Default
	}
	return im
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("data.path", "data.json")
	v.SetDefault("data.watch", true)
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.timeout_seconds", 10)
	v.SetDefault("chart.width", 900)
	v.SetDefault("chart.height", 400)
	v.SetDefault("chart.margin.top", 80)
	v.SetDefault("chart.margin.right", 50)
	v.SetDefault("chart.margin.bottom", 60)
	v.SetDefault("chart.margin.left", 50)
	v.SetDefault("chart.mode", "")
	v.SetDefault("images.dir", "static/images")
	v.SetDefault("images.ext", ".png")
	v.SetDefault("images.default", "default.png")
	v.SetDefault("log.level", "info")
}

// Manager handles config loading and hot-reload
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	viper    *viper.Viper
	onChange func(*Config)
}

// NewManager loads configuration from configPath (optional, YAML) layered
// over defaults and HEATMAP_* environment variables.
func NewManager(configPath string) (*Manager, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("HEATMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		config: cfg,
		viper:  v,
	}

	if configPath != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Info().Str("file", e.Name).Msg("config file changed, reloading")
			m.reload()
		})
		v.WatchConfig()
	}

	return m, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Chart.Width <= c.Chart.Margin.Left+c.Chart.Margin.Right {
		return fmt.Errorf("config: chart.width %.0f leaves no plot area", c.Chart.Width)
	}
	if c.Chart.Height <= c.Chart.Margin.Top+c.Chart.Margin.Bottom {
		return fmt.Errorf("config: chart.height %.0f leaves no plot area", c.Chart.Height)
	}
	if c.Chart.Mode != "" {
		if _, ok := models.ModeByName(c.Chart.Mode); !ok {
			return fmt.Errorf("config: unknown chart.mode %q", c.Chart.Mode)
		}
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: backend.timeout_seconds must be positive")
	}
	return nil
}

func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *Manager) SetOnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

func (m *Manager) reload() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := decode(m.viper)
	if err != nil {
		log.Error().Err(err).Msg("failed to reload config, keeping previous")
		return
	}

	m.config = cfg
	if m.onChange != nil {
		m.onChange(cfg)
	}
}
