package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const (
	ProjectName    = "vcu-service"
	ProjectVersion = "1.0.0"
)

type flagValues struct {
	configPath  string
	logLevel    int
	canDriver   string
	motorDevice string
	dataDevice  string
	redisServer string
	redisPort   int
	noRedis     bool
	noBrake     bool
}

func newRootCmd() *cobra.Command {
	var flags flagValues

	cmd := &cobra.Command{
		Use:           ProjectName,
		Short:         "Central vehicle controller for the race car",
		Version:       ProjectVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := resolveOptions(cmd, flags)
			if err != nil {
				return err
			}
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "Path to YAML configuration file")
	f.IntVar(&flags.logLevel, "log", int(LogLevelInfo), "Log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	f.StringVar(&flags.canDriver, "can-driver", string(CANDriverBrutella), "CAN driver (brutella, einride or loopback)")
	f.StringVar(&flags.motorDevice, "motor-bus", "can0", "CAN interface of the motor bus")
	f.StringVar(&flags.dataDevice, "data-bus", "can1", "CAN interface of the data bus")
	f.StringVar(&flags.redisServer, "redis-server", "127.0.0.1", "Redis server address")
	f.IntVar(&flags.redisPort, "redis-port", 6379, "Redis server port")
	f.BoolVar(&flags.noRedis, "no-redis", false, "Disable Redis telemetry")
	f.BoolVar(&flags.noBrake, "no-brake-start", false, "Allow startup without the brake pressed (bench only)")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", ProjectName, ProjectVersion)
		},
	}
}

// resolveOptions loads the config file and applies explicitly set flags on top.
func resolveOptions(cmd *cobra.Command, flags flagValues) (*Options, error) {
	cfg, err := LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("log") {
		cfg.LogLevel = flags.logLevel
	}
	if f.Changed("can-driver") {
		cfg.CAN.Driver = flags.canDriver
	}
	if f.Changed("motor-bus") {
		cfg.CAN.Motor = flags.motorDevice
	}
	if f.Changed("data-bus") {
		cfg.CAN.Data = flags.dataDevice
	}
	if f.Changed("redis-server") {
		cfg.Redis.Addr = flags.redisServer
	}
	if f.Changed("redis-port") {
		cfg.Redis.Port = flags.redisPort
	}
	if flags.noRedis {
		cfg.Redis.Enabled = false
	}
	if flags.noBrake {
		cfg.Control.RequireBrakeForStart = false
	}

	return cfg.Options()
}

func run(ctx context.Context, opts *Options) error {
	logger, err := NewLeveledLogger(ProjectName, opts.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("%s v%s starting", ProjectName, ProjectVersion)
	if !opts.Control.RequireBrakeForStart {
		logger.Warn("Brake start precondition disabled")
	}

	app, err := NewVCUApp(opts, logger)
	if err != nil {
		return fmt.Errorf("failed to create VCU app: %w", err)
	}
	defer app.Destroy()

	return app.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", ProjectName, err)
		stop()
		os.Exit(1)
	}
}
