package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/leonelquinteros/gotext"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dungeonator/pkg/engine/terminal"
	"dungeonator/pkg/game/catalog"
	"dungeonator/pkg/game/devtools"
	"dungeonator/pkg/game/difficulty"
	"dungeonator/pkg/game/gameplay"
	"dungeonator/pkg/game/generator"
)

type options struct {
	seed       uint64
	rooms      int
	difficulty string
	floor      int
	catalog    string
	dump       string
	preview    bool
	regen      int
	serve      string
	verbose    bool
}

func initGettext() {
	gotext.Configure("locales", "en_GB", "default")
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		return cfg.Build()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	cfg.EncoderConfig.ConsoleSeparator = "  "
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

func main() {
	var opts options
	flag.Uint64Var(&opts.seed, "seed", 0, "generation seed (0 picks one from the clock)")
	flag.IntVar(&opts.rooms, "rooms", 0, "target room count (0 derives it from difficulty and floor)")
	flag.StringVar(&opts.difficulty, "difficulty", "Medium", "difficulty preset: Easy, Medium, Hard, Insane, MegaDeath, Debug, Custom")
	flag.IntVar(&opts.floor, "floor", 1, "starting floor (1-4)")
	flag.StringVar(&opts.catalog, "catalog", "", "room catalog JSON file (built-in catalog when empty)")
	flag.StringVar(&opts.dump, "dump", "", "write a debug dump of the last layout to this file")
	flag.BoolVar(&opts.preview, "preview", false, "print a coloured preview of every layout")
	flag.IntVar(&opts.regen, "regen", 0, "clear this many floors, regenerating after each boss")
	flag.StringVar(&opts.serve, "serve", "", "serve the live generation feed on this address, e.g. :8080")
	flag.BoolVar(&opts.verbose, "v", false, "verbose development logging")
	flag.Parse()

	initGettext()

	log, err := newLogger(opts.verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, log); err != nil {
		log.Error("dungeonator failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, log *zap.Logger) error {
	cat, err := loadCatalog(opts.catalog)
	if err != nil {
		return err
	}
	preset, err := difficulty.ParsePreset(opts.difficulty)
	if err != nil {
		return err
	}
	if opts.floor < 1 || opts.floor > difficulty.TotalFloors {
		return fmt.Errorf("floor must be between 1 and %d, got %d", difficulty.TotalFloors, opts.floor)
	}
	seed := opts.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	sessionOpts := []gameplay.SessionOption{
		gameplay.WithLogger(log),
		gameplay.WithStartFloor(difficulty.Floor(opts.floor - 1)),
	}
	if opts.rooms > 0 {
		sessionOpts = append(sessionOpts, gameplay.WithRoomCount(opts.rooms))
	}
	session, err := gameplay.NewSession(generator.New(cat, generator.WithLogger(log)), seed, preset, sessionOpts...)
	if err != nil {
		return err
	}
	machine := session.Machine()

	var srv *http.Server
	if opts.serve != "" {
		feed := devtools.NewFeed(log)
		mux := http.NewServeMux()
		mux.Handle("/feed", feed)
		srv = &http.Server{Addr: opts.serve, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("feed server stopped", zap.Error(err))
			}
		}()
		feed.Watch(ctx, machine)
		log.Info("serving generation feed", zap.String("addr", opts.serve))
	}

	for i := 0; i <= opts.regen; i++ {
		l, err := machine.Run(ctx)
		if err != nil {
			return err
		}
		if err := report(l, opts, log); err != nil {
			return err
		}
		if i == opts.regen {
			break
		}
		if err := clearFloor(session); err != nil {
			return err
		}
	}

	if srv == nil {
		return nil
	}
	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return srv.Shutdown(shutdown)
}

// clearFloor plays out a boss fight so the session moves to the next floor.
func clearFloor(s *gameplay.Session) error {
	for _, obs := range [][2]bool{{true, false}, {true, true}, {false, false}, {false, false}} {
		if _, err := s.UpdateBoss(obs[0], obs[1]); err != nil {
			return err
		}
	}
	return nil
}

func report(l *generator.DungeonLayout, opts options, log *zap.Logger) error {
	fmt.Printf("%s: seed %d, %d rooms, %d corridors, %d placements\n",
		l.Floor.Label(), l.Seed, len(l.Rooms), len(l.Corridors), len(l.Content))
	if opts.preview {
		if err := devtools.Preview(os.Stdout, l, devtools.PreviewOptions{Colour: terminal.IsInteractive()}); err != nil {
			return err
		}
	}
	if opts.dump != "" {
		path, err := devtools.DumpLayoutToFile(l, opts.dump)
		if err != nil {
			return err
		}
		log.Info("layout dumped", zap.String("path", path))
	}
	return nil
}
