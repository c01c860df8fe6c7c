// Command tickstream ingests a market-data capture file, reconstructs a
// per-symbol limit order book, and publishes top-of-book snapshots to
// stdout as CSV.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tickstream/internal/decoder"
	"tickstream/internal/health"
	"tickstream/internal/latency"
	"tickstream/internal/logging"
	"tickstream/internal/metrics"
	"tickstream/internal/pipeline"
	"tickstream/internal/publisher"
	"tickstream/internal/sink/alerts"
	"tickstream/internal/sink/marketdata"
	"tickstream/internal/telemetry"
)

func main() {
	input := flag.String("input", "", "path to the capture file (required)")
	symbolsCSV := flag.String("symbols", "", "comma-separated list of symbols to process (required)")
	publishIntervalUs := flag.Uint64("publish-top-of-book-us", 1000, "minimum microseconds between top-of-book publishes")

	metricsAddr := flag.String("metrics-addr", "", "address to serve Prometheus metrics on (disabled if empty)")
	grpcAddr := flag.String("grpc-addr", "", "address to serve the gRPC health surface on (disabled if empty)")
	telemetryDir := flag.String("telemetry-dir", "./tickstream-telemetry", "directory for the latency-report telemetry store (disabled if empty)")
	kafkaBrokersCSV := flag.String("kafka-brokers", "", "comma-separated Kafka brokers for the market-data sink (disabled if empty)")
	kafkaTopic := flag.String("kafka-topic", "tickstream.marketdata", "Kafka topic for the market-data sink")
	alertKafkaBrokersCSV := flag.String("alert-kafka-brokers", "", "comma-separated Kafka brokers for the reject/invalid alert sink (disabled if empty)")
	alertKafkaTopic := flag.String("alert-kafka-topic", "tickstream.alerts", "Kafka topic for the alert sink")
	stallThreshold := flag.Duration("stall-threshold", 5*time.Second, "consumer inactivity duration before the health surface reports NOT_SERVING")
	help := flag.Bool("help", false, "show this help message")

	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}

	log := logging.New("tickstream")

	if *input == "" || *symbolsCSV == "" {
		fmt.Fprintln(os.Stderr, "tickstream: --input and --symbols are required")
		os.Exit(1)
	}
	symbols := splitCSV(*symbolsCSV)

	dec, err := decoder.Open(*input)
	if err != nil {
		fatal(log, "tickstream: %v", err)
	}
	defer dec.Close()

	pub := publisher.New(os.Stdout)
	if *kafkaBrokersCSV != "" {
		mdSink := marketdata.New(splitCSV(*kafkaBrokersCSV), *kafkaTopic, log)
		defer mdSink.Close()
		pub.WithSink(mdSink)
	}

	var met *metrics.Metrics
	if *metricsAddr != "" {
		met = metrics.New()
		go func() {
			log.Infof("metrics: serving on %s", *metricsAddr)
			if err := serveMetrics(*metricsAddr); err != nil {
				log.Errorf("metrics: server exited: %v", err)
			}
		}()
	}

	lat := latency.New(met)
	lat.Reserve(1 << 20)

	var telemetryStore *telemetry.Store
	if *telemetryDir != "" {
		telemetryStore, err = telemetry.Open(*telemetryDir)
		if err != nil {
			fatal(log, "tickstream: telemetry store: %v", err)
		}
		defer telemetryStore.Close()
	}

	var alertSink *alerts.Sink
	if *alertKafkaBrokersCSV != "" {
		alertSink, err = alerts.New(splitCSV(*alertKafkaBrokersCSV), *alertKafkaTopic, log)
		if err != nil {
			fatal(log, "tickstream: alert sink: %v", err)
		}
		defer alertSink.Close()
	}

	p := pipeline.New(pipeline.Config{
		Symbols:           symbols,
		PublishIntervalUs: *publishIntervalUs,
	}, dec, pub, lat, met)

	if *grpcAddr != "" {
		hs := health.New(p, *stallThreshold, log)
		go func() {
			if err := hs.Serve(*grpcAddr); err != nil {
				log.Errorf("health: server exited: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infof("tickstream: shutdown signal received")
		p.Shutdown()
	}()

	start := time.Now()
	runDone := make(chan struct{})
	go func() {
		p.Run()
		close(runDone)
	}()

	reportTelemetryAndAlerts(p, telemetryStore, alertSink, start, runDone)

	elapsed := time.Since(start)
	stats := p.Stats(elapsed)
	fmt.Fprint(os.Stderr, pipeline.FormatStatsBlock(stats))
	log.Infof("tickstream: run complete: processed=%d applied=%d rejected=%d invalid=%d elapsed=%s",
		stats.Processed, stats.Applied, stats.Rejected, stats.Invalid, elapsed)
}

// reportTelemetryAndAlerts periodically snapshots the pipeline's
// progress into the telemetry store and checks the alert sink, until
// the run finishes.
func reportTelemetryAndAlerts(p *pipeline.Pipeline, store *telemetry.Store, alertSink *alerts.Sink, start time.Time, runDone <-chan struct{}) {
	if store == nil && alertSink == nil {
		<-runDone
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-runDone:
			return
		case now := <-ticker.C:
			tsUs := uint64(now.Sub(start).Microseconds())
			stats := p.Stats(now.Sub(start))
			if store != nil {
				store.Put(uint64(now.UnixMicro()), stats.Report)
			}
			if alertSink != nil {
				alertSink.Check(tsUs, stats.Rejected, stats.Invalid)
			}
		}
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fatal(log logging.Logger, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, msg)
	log.Errorf(msg)
	os.Exit(1)
}

func serveMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return http.ListenAndServe(addr, mux)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: tickstream --input <path> --symbols <csv> [options]\n\nOptions:\n")
	flag.PrintDefaults()
}
