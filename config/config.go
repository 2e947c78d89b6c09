package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"kamera/internal/solar"

	"github.com/spf13/viper"
)

type Config struct {
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Location  LocationConfig  `mapstructure:"location"`
	Solar     SolarConfig     `mapstructure:"solar"`
	Seasons   SeasonsConfig   `mapstructure:"seasons"`
	Views     ViewsConfig     `mapstructure:"views"`
	API       APIConfig       `mapstructure:"api"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Watcher   WatcherConfig   `mapstructure:"watcher"`
	Almanac   AlmanacConfig   `mapstructure:"almanac"`
	Reference ReferenceConfig `mapstructure:"reference"`
}

type ArchiveConfig struct {
	Root     string `mapstructure:"root"`
	Timezone string `mapstructure:"timezone"`
}

type LocationConfig struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	Zenith    float64 `mapstructure:"zenith"`
}

type SolarConfig struct {
	DawnOffset            time.Duration `mapstructure:"dawn_offset"`
	PolarNightSunriseHour int           `mapstructure:"polar_night_sunrise_hour"`
	PolarNightSunsetHour  int           `mapstructure:"polar_night_sunset_hour"`
}

type SeasonsConfig struct {
	Enabled     bool        `mapstructure:"enabled"`
	MidnightSun RangeConfig `mapstructure:"midnight_sun"`
	PolarNight  RangeConfig `mapstructure:"polar_night"`
}

// RangeConfig is an inclusive MM-DD range that may wrap over new year.
type RangeConfig struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

type ViewsConfig struct {
	MonthHour      int `mapstructure:"month_hour"`
	MonthWindowDay int `mapstructure:"month_window_day"`
	YearHour       int `mapstructure:"year_hour"`
}

type APIConfig struct {
	Port    int  `mapstructure:"port"`
	Enabled bool `mapstructure:"enabled"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

type WatcherConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type AlmanacConfig struct {
	Path string `mapstructure:"path"`
}

type ReferenceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/kamera")
	}

	// Set defaults
	v.SetDefault("archive.root", "./kamera")
	v.SetDefault("archive.timezone", "Europe/Oslo")
	v.SetDefault("location.latitude", 68.329891)
	v.SetDefault("location.longitude", 14.092439)
	v.SetDefault("location.zenith", solar.DefaultZenith)
	v.SetDefault("solar.dawn_offset", "3h")
	v.SetDefault("solar.polar_night_sunrise_hour", solar.DefaultPolarNightSunriseHour)
	v.SetDefault("solar.polar_night_sunset_hour", solar.DefaultPolarNightSunsetHour)
	v.SetDefault("seasons.enabled", true)
	v.SetDefault("seasons.midnight_sun.start", "05-24")
	v.SetDefault("seasons.midnight_sun.end", "07-18")
	v.SetDefault("seasons.polar_night.start", "12-06")
	v.SetDefault("seasons.polar_night.end", "01-06")
	v.SetDefault("views.month_hour", 11)
	v.SetDefault("views.month_window_day", 1)
	v.SetDefault("views.year_hour", 11)
	v.SetDefault("api.port", 8046)
	v.SetDefault("api.enabled", true)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic_prefix", "kamera")
	v.SetDefault("mqtt.client_id", "kamera")
	v.SetDefault("watcher.enabled", true)
	v.SetDefault("watcher.interval", "1m")
	v.SetDefault("almanac.path", "./almanac.db")
	v.SetDefault("reference.base_url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("reference.timeout", "10s")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the solar and view code cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Archive.Root == "" {
		errs = append(errs, errors.New("archive.root is required"))
	}
	if _, err := time.LoadLocation(c.Archive.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("archive.timezone: %w", err))
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		errs = append(errs, fmt.Errorf("location.latitude %v out of range", c.Location.Latitude))
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		errs = append(errs, fmt.Errorf("location.longitude %v out of range", c.Location.Longitude))
	}
	if c.Location.Zenith <= 0 || c.Location.Zenith >= 180 {
		errs = append(errs, fmt.Errorf("location.zenith %v out of range", c.Location.Zenith))
	}
	if c.Solar.DawnOffset <= 0 || c.Solar.DawnOffset >= 12*time.Hour {
		errs = append(errs, fmt.Errorf("solar.dawn_offset %v out of range", c.Solar.DawnOffset))
	}
	if !validHour(c.Solar.PolarNightSunriseHour) || !validHour(c.Solar.PolarNightSunsetHour) ||
		c.Solar.PolarNightSunriseHour >= c.Solar.PolarNightSunsetHour {
		errs = append(errs, fmt.Errorf("solar polar night hours %d-%d are invalid",
			c.Solar.PolarNightSunriseHour, c.Solar.PolarNightSunsetHour))
	}
	if _, err := c.SeasonPolicy(); err != nil {
		errs = append(errs, err)
	}
	if !validHour(c.Views.MonthHour) {
		errs = append(errs, fmt.Errorf("views.month_hour %d out of range", c.Views.MonthHour))
	}
	if !validHour(c.Views.YearHour) {
		errs = append(errs, fmt.Errorf("views.year_hour %d out of range", c.Views.YearHour))
	}
	if c.Views.MonthWindowDay < 1 || c.Views.MonthWindowDay > 31 {
		errs = append(errs, fmt.Errorf("views.month_window_day %d out of range", c.Views.MonthWindowDay))
	}
	if c.Watcher.Enabled && c.Watcher.Interval <= 0 {
		errs = append(errs, errors.New("watcher.interval must be positive"))
	}
	return errors.Join(errs...)
}

// GeoLocation is the camera position the solar window is computed for.
func (c *Config) GeoLocation() solar.GeoLocation {
	return solar.GeoLocation{
		Latitude:  c.Location.Latitude,
		Longitude: c.Location.Longitude,
		Zenith:    c.Location.Zenith,
	}
}

// TimeLocation is the civil timezone filenames are written in.
func (c *Config) TimeLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Archive.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Archive.Timezone, err)
	}
	return loc, nil
}

// SeasonPolicy builds the midnight sun and polar night override. With
// seasons disabled every day is computed astronomically.
func (c *Config) SeasonPolicy() (solar.SeasonPolicy, error) {
	if !c.Seasons.Enabled {
		return solar.NoSeasons{}, nil
	}
	midnightSun, err := c.Seasons.MidnightSun.dayRange()
	if err != nil {
		return nil, fmt.Errorf("seasons.midnight_sun: %w", err)
	}
	polarNight, err := c.Seasons.PolarNight.dayRange()
	if err != nil {
		return nil, fmt.Errorf("seasons.polar_night: %w", err)
	}
	return solar.FixedCalendar{MidnightSun: midnightSun, PolarNight: polarNight}, nil
}

// Calculator builds the solar window calculator for these settings.
func (c *Config) Calculator() (*solar.Calculator, error) {
	tz, err := c.TimeLocation()
	if err != nil {
		return nil, err
	}
	seasons, err := c.SeasonPolicy()
	if err != nil {
		return nil, err
	}
	return solar.NewCalculator(solar.CalculatorConfig{
		Seasons:               seasons,
		TimeZone:              tz,
		DawnOffset:            c.Solar.DawnOffset,
		PolarNightSunriseHour: c.Solar.PolarNightSunriseHour,
		PolarNightSunsetHour:  c.Solar.PolarNightSunsetHour,
	}), nil
}

func (r RangeConfig) dayRange() (solar.DayRange, error) {
	start, err := solar.ParseMonthDay(r.Start)
	if err != nil {
		return solar.DayRange{}, err
	}
	end, err := solar.ParseMonthDay(r.End)
	if err != nil {
		return solar.DayRange{}, err
	}
	return solar.DayRange{Start: start, End: end}, nil
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}
