package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kamera/config"
	"kamera/internal/almanac"
	"kamera/internal/api"
	"kamera/internal/catalog"
	"kamera/internal/daylight"
	"kamera/internal/mqtt"
	"kamera/internal/navigation"
	"kamera/internal/reference"
	"kamera/internal/solar"
	"kamera/internal/storage"
	"kamera/internal/timestamp"
	"kamera/internal/watcher"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kamera",
		Short: "Daylight webcam archive",
		Long:  "Browse a webcam image archive by day, month and year, showing only frames taken between dawn and dusk",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(latestCmd())
	rootCmd.AddCommand(windowCmd())
	rootCmd.AddCommand(dayCmd())
	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(almanacCmd())
	rootCmd.AddCommand(calibrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the pieces every command builds from the config.
type app struct {
	cfg      *config.Config
	tz       *time.Location
	calc     *solar.Calculator
	index    *catalog.Index
	resolver *navigation.Resolver
}

func load() (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	tz, err := cfg.TimeLocation()
	if err != nil {
		return nil, err
	}
	calc, err := cfg.Calculator()
	if err != nil {
		return nil, err
	}

	index := catalog.NewIndex(catalog.IndexConfig{
		Root:    cfg.Archive.Root,
		Logger:  log.Default(),
		Verbose: verbose,
	})
	resolver := navigation.NewResolver(navigation.ResolverConfig{
		Catalog:        index,
		Calculator:     calc,
		Location:       cfg.GeoLocation(),
		MonthHour:      cfg.Views.MonthHour,
		MonthWindowDay: cfg.Views.MonthWindowDay,
		YearHour:       cfg.Views.YearHour,
	})

	return &app{cfg: cfg, tz: tz, calc: calc, index: index, resolver: resolver}, nil
}

func (a *app) today() timestamp.Date {
	return timestamp.DateOf(time.Now().In(a.tz))
}

func (a *app) parseDate(s string) (timestamp.Date, error) {
	if s == "" {
		return a.today(), nil
	}
	return timestamp.ParseDate(s)
}

func printJSON(w io.Writer, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the archive service",
		Long:  "Start the archive watcher, API server, and MQTT publisher",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			cfg := a.cfg

			// Create MQTT publisher
			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				Enabled:     cfg.MQTT.Enabled,
			})
			if err != nil {
				log.Printf("Warning: MQTT connection failed: %v", err)
				publisher, _ = mqtt.NewPublisher(mqtt.PublisherConfig{Enabled: false})
			} else if cfg.MQTT.Enabled {
				log.Printf("MQTT connected to %s", cfg.MQTT.Broker)
				if err := publisher.PublishHomeAssistantDiscovery(); err != nil {
					log.Printf("Warning: Home Assistant discovery failed: %v", err)
				}
			}
			defer publisher.Close()

			// Almanac export is optional for the API
			var db *storage.Database
			if cfg.Almanac.Path != "" {
				if _, err := os.Stat(cfg.Almanac.Path); err == nil {
					db, err = storage.NewDatabase(cfg.Almanac.Path)
					if err != nil {
						log.Printf("Warning: failed to open almanac: %v", err)
					} else {
						defer db.Close()
					}
				}
			}

			w := watcher.NewWatcher(watcher.WatcherConfig{
				Catalog:    a.index,
				Calculator: a.calc,
				Location:   cfg.GeoLocation(),
				Root:       cfg.Archive.Root,
				Publisher:  publisher,
				Interval:   cfg.Watcher.Interval,
				Enabled:    cfg.Watcher.Enabled,
			})

			// Setup context for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Handle signals
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				if err := w.Start(ctx); err != nil {
					log.Printf("Watcher error: %v", err)
				}
			}()

			var server *api.Server
			if cfg.API.Enabled {
				server = api.NewServer(api.ServerConfig{
					Port:     cfg.API.Port,
					Resolver: a.resolver,
					Catalog:  a.index,
					Watcher:  w,
					Almanac:  db,
					Root:     cfg.Archive.Root,
					TimeZone: a.tz,
				})

				go func() {
					if err := server.Start(); err != nil {
						log.Printf("API server error: %v", err)
					}
				}()
			}

			log.Printf("Kamera started for %s. Press Ctrl+C to stop.", cfg.Archive.Root)

			// Wait for signal
			<-sigChan
			log.Println("Shutting down...")
			cancel()

			if server != nil {
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				if err := server.Stop(shutdownCtx); err != nil {
					log.Printf("API shutdown error: %v", err)
				}
			}
			return nil
		},
	}
}

func latestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the newest image",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			page, err := a.resolver.Latest()
			if err != nil {
				return err
			}
			if page == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No images in the archive")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
}

func windowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "window [YYYYMMDD]",
		Short: "Show the daylight window of a day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			var dateStr string
			if len(args) > 0 {
				dateStr = args[0]
			}
			date, err := a.parseDate(dateStr)
			if err != nil {
				return err
			}
			window, err := a.resolver.Window(date)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Date:     %s\n", date)
			fmt.Fprintf(out, "Dawn:     %s\n", window.Dawn.Format(time.TimeOnly))
			fmt.Fprintf(out, "Sunrise:  %s\n", window.Sunrise.Format(time.TimeOnly))
			fmt.Fprintf(out, "Sunset:   %s\n", window.Sunset.Format(time.TimeOnly))
			fmt.Fprintf(out, "Dusk:     %s\n", window.Dusk.Format(time.TimeOnly))
			switch {
			case window.MidnightSun:
				fmt.Fprintln(out, "Season:   midnight sun")
			case window.PolarNight:
				fmt.Fprintln(out, "Season:   polar night")
			}
			return nil
		},
	}
}

func dayCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "day [YYYYMMDD]",
		Short: "List the images of a day taken in daylight",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			var dateStr string
			if len(args) > 0 {
				dateStr = args[0]
			}
			date, err := a.parseDate(dateStr)
			if err != nil {
				return err
			}

			images, err := a.index.ImagesForDay(date)
			if err != nil {
				return err
			}
			if !all {
				window, err := a.resolver.Window(date)
				if err != nil {
					return err
				}
				images = daylight.Visible(images, window, a.tz)
			}

			out := cmd.OutOrStdout()
			for _, img := range images {
				fmt.Fprintln(out, img.Path)
			}
			if verbose {
				log.Printf("%d images for %s", len(images), date)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include images taken outside the daylight window")
	return cmd
}

func viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <image|day|month|year> <key>",
		Short: "Show a view with its images and navigation links",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			view, err := a.resolver.ResolveView(args[0], args[1])
			if err != nil {
				return err
			}
			page, err := a.resolver.Page(view)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
}

func almanacCmd() *cobra.Command {
	var (
		year   int
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "almanac",
		Short: "Export a year of daylight windows and image counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = a.cfg.Almanac.Path
			}
			if year == 0 {
				year = a.today().Year
			}

			db, err := storage.NewDatabase(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
			log.Printf("Database opened at %s", dbPath)

			exporter := almanac.NewExporter(almanac.ExporterConfig{
				Catalog:    a.index,
				Calculator: a.calc,
				Location:   a.cfg.GeoLocation(),
				Store:      db,
			})
			if _, err := exporter.Year(year); err != nil {
				return err
			}

			summary, err := db.GetYearSummary(year)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year to export (default current year)")
	cmd.Flags().StringVar(&dbPath, "db", "", "almanac database path (default from config)")
	return cmd
}

func calibrateCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Compare computed sunrise and sunset with Open-Meteo",
		Long:  "Fetch reference sunrise and sunset times and print how far the configured zenith is off",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			start, err := a.parseDate(from)
			if err != nil {
				return err
			}
			end, err := a.parseDate(to)
			if err != nil {
				return err
			}

			client := reference.NewOpenMeteoClient(reference.OpenMeteoConfig{
				BaseURL:   a.cfg.Reference.BaseURL,
				Latitude:  a.cfg.Location.Latitude,
				Longitude: a.cfg.Location.Longitude,
				TimeZone:  a.tz,
				Timeout:   a.cfg.Reference.Timeout,
			})
			days, err := client.SunTimes(cmd.Context(), start, end)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			deviations := reference.Compare(a.calc, a.cfg.GeoLocation(), days)
			for _, d := range deviations {
				if !d.Comparable {
					fmt.Fprintf(out, "%s  no sunrise or sunset to compare\n", d.Reference.Date)
					continue
				}
				fmt.Fprintf(out, "%s  sunrise %s (%v)  sunset %s (%v)\n",
					d.Reference.Date,
					d.ComputedSunrise.Format(time.TimeOnly), d.SunriseDelta,
					d.ComputedSunset.Format(time.TimeOnly), d.SunsetDelta)
			}

			rise, set, n := reference.MeanAbsolute(deviations)
			fmt.Fprintf(out, "Zenith %.5f: mean deviation sunrise %s, sunset %s over %d days\n",
				a.cfg.Location.Zenith, rise, set, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day YYYYMMDD (default today)")
	cmd.Flags().StringVar(&to, "to", "", "last day YYYYMMDD (default today)")
	return cmd
}
