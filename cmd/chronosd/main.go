// Command chronosd is the minimal command-log replay driver spec.md §1
// describes: it decodes a header, dispatches by template id, invokes the
// matching engine, and writes the resulting execution reports back out. It
// is deliberately not a FIX gateway: no session state machine, no
// validation beyond what the decoder already trusts, and no network I/O of
// its own.
package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vivkver/chronos/config"
	"github.com/vivkver/chronos/internal/chronoscore/codec"
	"github.com/vivkver/chronos/internal/chronoscore/engine"
	cmetrics "github.com/vivkver/chronos/internal/chronoscore/metrics"
	"github.com/vivkver/chronos/internal/logger"
	"github.com/vivkver/chronos/internal/snapshot"
	snappostgres "github.com/vivkver/chronos/internal/snapshot/postgres"
	snapredis "github.com/vivkver/chronos/internal/snapshot/redis"
)

// maxMessageSize is the size of one Header+ExecutionReport message. The
// replay loop sizes its output buffer as maxMessageSize*(maxLevels+1): room
// for one message per price level plus one for the aggressor (spec.md §7).
// MatchOrder writes one message per resting order it fills plus one or two
// for the aggressor, so a sweep that needs more messages than the buffer
// holds makes MatchOrder return an error, which ends the replay.
const maxMessageSize = codec.HeaderSize + codec.ExecutionReportBodySize

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "chronosd: config:", err)
		os.Exit(1)
	}

	logger.SetMinLevel(levelFromString(cfg.Logger.Level))
	logger.Info("starting chronosd", map[string]interface{}{
		"instruments": cfg.Engine.InstrumentCount,
		"maxLevels":   cfg.Engine.MaxLevels,
		"maxOrders":   cfg.Engine.MaxOrders,
	})

	registry := prometheus.NewRegistry()
	sink := cmetrics.NewPrometheusSink(registry, cfg.Engine.InstrumentCount)

	eng := engine.New(engine.Config{
		InstrumentCount: cfg.Engine.InstrumentCount,
		MaxLevels:       cfg.Engine.MaxLevels,
		MaxOrders:       cfg.Engine.MaxOrders,
		DisableSIMD:     cfg.Scanner.DisableSIMD,
		Metrics:         sink,
	})

	store, err := buildSnapshotStore(cfg.Snapshot)
	if err != nil {
		logger.Error("failed to build snapshot store", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("shutting down", nil)
		cancel()
	}()

	if cfg.Snapshot.Interval > 0 {
		go runSnapshotLoop(ctx, eng, store, cfg.Engine.InstrumentCount, cfg.Snapshot.Interval)
	}

	if err := replay(ctx, eng, os.Stdin, os.Stdout, cfg.Engine.MaxLevels); err != nil && err != io.EOF {
		logger.Error("replay failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	logger.Info("chronosd exited", nil)
}

// clusterTimestampSize is the width of the cluster-assigned timestamp the
// replicated log prepends to every record ahead of Header+body. The core
// never reads a wall clock (spec.md §4.3); this driver's only permitted
// time input is this log-supplied value, read once per record and handed
// to the engine unchanged.
const clusterTimestampSize = 8

// replay reads length-prefixed (clusterTimestampNs + Header + body) records
// from r, dispatches NewOrderSingle through MatchOrder and CancelOrder
// through Cancel, and writes the resulting Header+ExecutionReport messages
// to w.
func replay(ctx context.Context, eng *engine.MatchingEngine, r io.Reader, w io.Writer, maxLevels int) error {
	reader := bufio.NewReaderSize(r, 1<<20)
	writer := bufio.NewWriterSize(w, 1<<20)
	defer writer.Flush()

	out := make([]byte, maxMessageSize*(maxLevels+1))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		tsBuf := make([]byte, clusterTimestampSize)
		if _, err := io.ReadFull(reader, tsBuf); err != nil {
			return err
		}
		clusterTimestampNs := int64(binary.LittleEndian.Uint64(tsBuf))

		headerBuf := make([]byte, codec.HeaderSize)
		if _, err := io.ReadFull(reader, headerBuf); err != nil {
			return err
		}
		h := codec.WrapHeader(headerBuf)

		body := make([]byte, h.BlockLength())
		if _, err := io.ReadFull(reader, body); err != nil {
			return fmt.Errorf("chronosd: reading body for template %d: %w", h.TemplateID(), err)
		}

		var n int
		var err error
		switch h.TemplateID() {
		case codec.TemplateNewOrderSingle:
			n, err = eng.MatchOrder(codec.WrapNewOrderSingle(body), clusterTimestampNs, out, 0)
		case codec.TemplateCancelOrder:
			cancel := codec.WrapCancelOrder(body)
			n, err = eng.Cancel(cancel.InstrumentID(), cancel.OrderID(), cancel.ClientID(), clusterTimestampNs, out, 0)
		default:
			logger.Warn("unknown template id, skipping", map[string]interface{}{"templateId": h.TemplateID()})
			continue
		}
		if err != nil {
			return fmt.Errorf("chronosd: dispatch failed: %w", err)
		}

		if _, err := writer.Write(out[:n]); err != nil {
			return fmt.Errorf("chronosd: writing reports: %w", err)
		}
	}
}

func runSnapshotLoop(ctx context.Context, eng *engine.MatchingEngine, store snapshot.Store, instrumentCount int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ids := make([]int32, instrumentCount)
	for i := range ids {
		ids[i] = int32(i)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			blob, err := snapshot.Encode(ids, eng.Book)
			if err != nil {
				logger.Error("snapshot encode failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			meta, err := store.Put("chronosd", blob)
			if err != nil {
				logger.Error("snapshot write failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			logger.Debug("snapshot written", map[string]interface{}{"id": meta.ID, "bytes": meta.SizeBytes})
		}
	}
}

func buildSnapshotStore(cfg config.SnapshotConfig) (snapshot.Store, error) {
	switch cfg.Backend {
	case "file":
		return snapshot.NewFileStore(cfg.FileDir)
	case "postgres":
		return snappostgres.New(context.Background(), snappostgres.Config{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			Database: cfg.PostgresDatabase,
			SSLMode:  cfg.PostgresSSLMode,
		})
	case "redis":
		return snapredis.New(snapredis.Config{
			Host:       cfg.RedisHost,
			Port:       cfg.RedisPort,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			TLSEnabled: cfg.RedisTLS,
			Retention:  cfg.RedisRetention,
		})
	case "composite":
		mem := snapshot.NewMemoryStore()
		file, err := snapshot.NewFileStore(cfg.FileDir)
		if err != nil {
			return nil, err
		}
		return snapshot.NewCompositeStore(mem, file), nil
	default:
		return snapshot.NewMemoryStore(), nil
	}
}

func levelFromString(level string) logger.LogLevel {
	switch level {
	case "DEBUG":
		return logger.DEBUG
	case "WARN":
		return logger.WARN
	case "ERROR":
		return logger.ERROR
	default:
		return logger.INFO
	}
}
