package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/physlab/atomrig/internal/colorid"
	"github.com/physlab/atomrig/internal/config"
	"github.com/physlab/atomrig/internal/device"
	"github.com/physlab/atomrig/internal/engine"
	"github.com/physlab/atomrig/internal/hw"
	"github.com/physlab/atomrig/internal/logging"
	"github.com/physlab/atomrig/internal/metrics"
	"github.com/physlab/atomrig/internal/server"
	"github.com/physlab/atomrig/internal/state"
	"github.com/physlab/atomrig/internal/storage"
	"github.com/physlab/atomrig/internal/tui"
)

var (
	configFile string
	listenAddr string
	serialPort string
	baudRate   int
	colorCard  string
	dataDir    string
	logFile    string
	logLevel   string
	simulate   bool
	seed       int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "atomrig",
		Short: "interactive atom-model teaching rig",
		RunE:  runServe,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the control engine and operator API",
		RunE:  runServe,
	}

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&listenAddr, "listen", config.DefaultListenAddr, "operator API address")
		cmd.Flags().StringVar(&serialPort, "port", config.DefaultSerialPort, "display device serial port")
		cmd.Flags().IntVar(&baudRate, "baud", config.DefaultBaudRate, "serial baud rate")
		cmd.Flags().StringVar(&colorCard, "color-card", config.DefaultColorCard, "color calibration file")
		cmd.Flags().StringVar(&logFile, "log-file", "", "also log json to this file")
		cmd.Flags().BoolVar(&simulate, "sim", false, "use simulated sensors and no serial device")
		cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for the decay simulation")
	}

	consoleCmd := &cobra.Command{
		Use:   "console",
		Short: "run the rig with simulated hardware and a terminal console",
		RunE:  runConsole,
	}
	consoleCmd.Flags().StringVar(&colorCard, "color-card", config.DefaultColorCard, "color calibration file")
	consoleCmd.Flags().Int64Var(&seed, "seed", 0, "random seed for the decay simulation")

	classifyCmd := &cobra.Command{
		Use:   "classify [r] [g] [b]",
		Short: "classify an rgb sample against the calibration table",
		Args:  cobra.ExactArgs(3),
		RunE:  runClassify,
	}
	classifyCmd.Flags().StringVar(&colorCard, "color-card", config.DefaultColorCard, "color calibration file")

	portsCmd := &cobra.Command{
		Use:   "ports",
		Short: "list serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := device.ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Println("no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Println(p)
			}
			return nil
		},
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list recorded decay runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded decay run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	rootCmd.AddCommand(serveCmd, consoleCmd, classifyCmd, portsCmd, runsCmd, plotCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConfig merges defaults, the optional config file, environment
// variables, and explicit CLI flags, in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flagOverrides := map[string]func(){
		"listen":     func() { cfg.ListenAddr = listenAddr },
		"port":       func() { cfg.SerialPort = serialPort },
		"baud":       func() { cfg.BaudRate = baudRate },
		"color-card": func() { cfg.ColorCard = colorCard },
		"data":       func() { cfg.DataDir = dataDir },
		"log-file":   func() { cfg.LogFile = logFile },
		"log-level":  func() { cfg.LogLevel = logLevel },
		"sim":        func() { cfg.Sim = simulate },
		"seed":       func() { cfg.Seed = seed },
	}
	for name, apply := range flagOverrides {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			apply()
		}
	}
	return cfg, nil
}

type rig struct {
	cfg    *config.Config
	log    *slog.Logger
	store  *state.Store
	engine *engine.Engine
	col    *metrics.Collector
	link   *device.Link
	closer func()
}

func buildRig(cfg *config.Config) (*rig, error) {
	log, closeLog, err := logging.New(os.Stderr, cfg.LogFile, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}

	colors, err := colorid.Load(cfg.ColorCard)
	if err != nil {
		log.Warn("color calibration missing, classification disabled", "path", cfg.ColorCard, "error", err)
		colors = colorid.Empty()
	}

	col := metrics.NewCollector(nil)

	var link *device.Link
	if cfg.Sim {
		link = device.Disconnected(log, col)
	} else {
		link = device.Open(cfg.SerialPort, cfg.BaudRate, log, col)
	}

	var sensors hw.Sensors
	if cfg.Sim {
		sensors = hw.Sensors{
			Temp:  &hw.SimTemperature{Base: 26, Amp: 4},
			Light: &hw.SimLight{},
			Color: &hw.SimColor{Samples: [][3]int{
				{255, 0, 0}, {30, 30, 30}, {0, 0, 255},
				{30, 30, 30}, {255, 255, 255}, {30, 30, 30},
			}},
		}
	}

	st := state.NewStore()
	eng := engine.New(engine.Config{
		PollInterval:     cfg.Engine.PollInterval.Std(),
		DecayInterval:    cfg.Engine.DecayInterval.Std(),
		ColorSampleEvery: cfg.Engine.ColorSampleEvery.Std(),
		SettleDelay:      cfg.Engine.SettleDelay.Std(),
		AlphaProbability: cfg.Engine.AlphaProbability,
		EventCap:         cfg.Engine.EventCap,
		Seed:             cfg.Seed,
	}, st, link, sensors, hw.NopBuzzer{}, colors, log)
	eng.AttachMetrics(col)

	hist := storage.New(cfg.DataDir)
	if err := hist.Init(); err != nil {
		log.Warn("run history disabled", "error", err)
	} else {
		eng.AttachHistory(hist)
	}

	return &rig{
		cfg:    cfg,
		log:    log,
		store:  st,
		engine: eng,
		col:    col,
		link:   link,
		closer: func() {
			link.Close()
			closeLog()
		},
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	r, err := buildRig(cfg)
	if err != nil {
		return err
	}
	defer r.closer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.engine.Run(ctx)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(r.engine, r.store, r.col, r.log).Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	r.log.Info("operator API listening", "addr", cfg.ListenAddr, "sim", cfg.Sim)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Sim = true
	cfg.LogLevel = "error" // keep log lines out of the TUI

	r, err := buildRig(cfg)
	if err != nil {
		return err
	}
	defer r.closer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	r.engine.Run(ctx)

	return tui.Run(r.engine, r.store)
}

func runClassify(cmd *cobra.Command, args []string) error {
	table, err := colorid.Load(colorCard)
	if err != nil {
		return fmt.Errorf("load color card: %w", err)
	}

	var rgb [3]int
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil || v < 0 || v > 255 {
			return fmt.Errorf("bad channel value: %s", a)
		}
		rgb[i] = v
	}

	fmt.Println(table.Classify(rgb[0], rgb[1], rgb[2]))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no decay runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tHALFLIFE\tTICKS\tFINAL\tALPHA\tBETA\tCOMPLETED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%ds\t%d\t%d\t%d\t%d\t%t\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.HalfLife,
			run.Ticks,
			run.FinalCount,
			run.AlphaEvents,
			run.BetaEvents,
			run.Completed,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no samples in run %s", args[0])
	}

	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = float64(s.Count)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("half-life: %ds  initial: %d  final: %d\n\n",
		meta.HalfLife, meta.InitialPopulation, meta.FinalCount)

	graph := asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("population vs tick"),
	)
	fmt.Println(graph)
	return nil
}
