package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Kubha99/debezium-server/internal/config"
	"github.com/Kubha99/debezium-server/internal/logging"
	"github.com/Kubha99/debezium-server/internal/source/jsonl"
	"github.com/Kubha99/debezium-server/internal/telemetry"
	"github.com/Kubha99/debezium-server/pkg/connector"
	"github.com/Kubha99/debezium-server/pkg/sink/kinesis"
	"github.com/Kubha99/debezium-server/pkg/stream"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	command := newServerCommand()
	return command.Execute()
}

func newServerCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "debezium-server",
		Short:        "Deliver captured change events to a Kinesis stream",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd)
		},
	}
	command.PersistentFlags().String("config", "", "path to config file")
	command.Flags().String("source", "", "path to a JSON-lines event file (empty or - reads stdin)")
	command.Flags().String("destination", "", "default logical destination for events without one")
	command.Flags().Int("max-empty-reads", 0, "stop after N empty reads (0 = continuous)")
	command.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return initServerConfig(cmd)
	}
	command.InitDefaultCompletionCmd()
	return command
}

func initServerConfig(cmd *cobra.Command) error {
	configFlags := cmd.Flags()
	if cmd.Root() != nil && cmd.Root().PersistentFlags().Lookup("config") != nil {
		configFlags = cmd.Root().PersistentFlags()
	}
	configPath, err := configFlags.GetString("config")
	if err != nil {
		return fmt.Errorf("read config flag: %w", err)
	}

	viper.Reset()
	viper.SetEnvPrefix("DEBEZIUM")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else if envPath := os.Getenv("DEBEZIUM_CONFIG"); envPath != "" {
		viper.SetConfigFile(envPath)
	} else {
		viper.SetConfigName("debezium-server")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var missing viper.ConfigFileNotFoundError
		if !errors.As(err, &missing) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func resolveStringFlag(cmd *cobra.Command, key string) string {
	value, err := cmd.Flags().GetString(key)
	if err != nil {
		return ""
	}
	if f := cmd.Flags().Lookup(key); f == nil || (!f.Changed && viper.IsSet(key)) {
		return viper.GetString(key)
	}
	return value
}

func resolveIntFlag(cmd *cobra.Command, key string) int {
	value, err := cmd.Flags().GetInt(key)
	if err != nil {
		return 0
	}
	if f := cmd.Flags().Lookup(key); f == nil || (!f.Changed && viper.IsSet(key)) {
		return viper.GetInt(key)
	}
	return value
}

func runServer(cmd *cobra.Command) error {
	configPath := resolveStringFlag(cmd, "config")
	sourcePath := resolveStringFlag(cmd, "source")
	destination := resolveStringFlag(cmd, "destination")
	maxEmptyReads := resolveIntFlag(cmd, "max-empty-reads")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if sourcePath == "" {
		sourcePath = cfg.Source.Path
	}
	if destination == "" {
		destination = cfg.Source.Destination
	}

	if cfg.Kinesis.Region == "" {
		return errors.New("DEBEZIUM_SINK_KINESIS_REGION is required")
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	tracer := telemetry.Tracer(cfg.Telemetry.ServiceName)

	sink := &kinesis.Sink{Logger: logger.Named("sink")}
	sinkSpec := connector.Spec{
		Name: "kinesis",
		Options: map[string]string{
			"region":              cfg.Kinesis.Region,
			"endpoint":            cfg.Kinesis.Endpoint,
			"credentials_profile": cfg.Kinesis.CredentialsProfile,
			"null_key":            cfg.Kinesis.NullKey,
		},
	}
	if err := sink.Open(ctx, sinkSpec); err != nil {
		return fmt.Errorf("open kinesis sink: %w", err)
	}
	defer sink.Close(ctx)

	sourceOptions := map[string]string{
		"path":        sourcePath,
		"destination": destination,
	}
	if cfg.Source.BatchSize > 0 {
		sourceOptions["batch_size"] = strconv.Itoa(cfg.Source.BatchSize)
	}

	runner := &stream.Runner{
		Source:        &jsonl.Source{Logger: logger.Named("source")},
		SourceSpec:    connector.Spec{Name: "jsonl", Options: sourceOptions},
		Consumer:      sink,
		Tracer:        tracer,
		Logger:        logger,
		MaxEmptyReads: maxEmptyReads,
	}

	logger.Info("starting delivery loop",
		zap.String("source", sourcePath),
		zap.String("region", cfg.Kinesis.Region),
	)
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
