// Command ttnrec records LoRaWAN uplink messages into a SQLite database.
//
// JSON-encoded uplink messages are read one per line from a source (stdin by
// default, or a capture file, an MQTT broker, or a Kafka topic), decoded,
// and persisted one row per message. Malformed lines are reported and
// skipped; the stream stays alive until the input ends or the process is
// interrupted.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"ttnrec/internal/pipeline"
	"ttnrec/internal/source"
	sqlitestore "ttnrec/internal/store/sqlite"
)

var version = "dev"

const defaultDBPath = "ttn_db.sqlite"

// sourceConfig collects the flag values selecting and configuring the line
// source.
type sourceConfig struct {
	kind       string
	input      string
	broker     string
	topic      string
	clientID   string
	username   string
	password   string
	brokers    []string
	kafkaTopic string
	group      string
}

func main() {
	level := &slog.LevelVar{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var (
		levelFlag string
		cfg       sourceConfig
	)

	rootCmd := &cobra.Command{
		Use:   "ttnrec [db-path]",
		Short: "Record LoRaWAN uplink messages into SQLite",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var lvl slog.Level
			if err := lvl.UnmarshalText([]byte(levelFlag)); err != nil {
				return fmt.Errorf("invalid log level %q: %w", levelFlag, err)
			}
			level.Set(lvl)

			dbPath := defaultDBPath
			if len(args) == 1 {
				dbPath = args[0]
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			return run(ctx, logger, dbPath, cfg)
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&levelFlag, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&cfg.kind, "source", "stdin", "line source: stdin, file, mqtt, or kafka")
	rootCmd.Flags().StringVar(&cfg.input, "input", "", "capture file to replay (source=file); .gz is unpacked")
	rootCmd.Flags().StringVar(&cfg.broker, "broker", "", "MQTT broker URL (source=mqtt)")
	rootCmd.Flags().StringVar(&cfg.topic, "topic", "", "MQTT uplink topic (source=mqtt)")
	rootCmd.Flags().StringVar(&cfg.clientID, "client-id", "", "MQTT client id (default: generated)")
	rootCmd.Flags().StringVar(&cfg.username, "username", "", "MQTT username")
	rootCmd.Flags().StringVar(&cfg.password, "password", "", "MQTT password")
	rootCmd.Flags().StringSliceVar(&cfg.brokers, "brokers", nil, "Kafka seed brokers (source=kafka)")
	rootCmd.Flags().StringVar(&cfg.kafkaTopic, "kafka-topic", "", "Kafka uplink topic (source=kafka)")
	rootCmd.Flags().StringVar(&cfg.group, "group", "", "Kafka consumer group (source=kafka)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, dbPath string, cfg sourceConfig) error {
	store, err := sqlitestore.NewStore(dbPath, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	src, closeSrc, err := buildSource(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSrc()

	proc := pipeline.NewProcessor(store, logger)
	if err := pipeline.Run(ctx, src, proc, logger); err != nil {
		return err
	}

	if n, err := store.Count(); err == nil {
		logger.Info("recording finished", "db_path", dbPath, "total_rows", n)
	}
	return nil
}

// buildSource constructs the configured line source. Construction failures
// are startup failures; the caller treats them as fatal.
func buildSource(cfg sourceConfig, logger *slog.Logger) (pipeline.Source, func(), error) {
	noop := func() {}

	switch cfg.kind {
	case "stdin":
		return source.NewReader(os.Stdin), noop, nil

	case "file":
		if cfg.input == "" {
			return nil, nil, fmt.Errorf("source=file requires --input")
		}
		f, err := source.OpenFile(cfg.input)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil

	case "mqtt":
		m, err := source.NewMQTT(source.MQTTConfig{
			Broker:   cfg.broker,
			Topic:    cfg.topic,
			ClientID: cfg.clientID,
			Username: cfg.username,
			Password: cfg.password,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := m.Connect(); err != nil {
			return nil, nil, err
		}
		return m, func() { m.Close() }, nil

	case "kafka":
		k, err := source.NewKafka(source.KafkaConfig{
			Brokers: cfg.brokers,
			Topic:   cfg.kafkaTopic,
			Group:   cfg.group,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return k, func() { k.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown source %q", cfg.kind)
}
