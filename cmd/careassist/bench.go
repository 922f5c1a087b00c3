package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/nulzo/care-assist/internal/config"
	"github.com/nulzo/care-assist/internal/platform/logger"
	"github.com/nulzo/care-assist/internal/server"
	"github.com/spf13/cobra"
	vegeta "github.com/tsenart/vegeta/v12/lib"
	"go.uber.org/zap"
)

const benchToken = "bench-key-12345"

var mockCompletion = []byte(`{"id":"bench-123","choices":[{"message":{"role":"assistant","content":"Add your location and course name to the page title."}}]}`)

type benchOptions struct {
	duration time.Duration
	rate     int
	failRate float64
	latency  time.Duration
}

func newBenchCommand() *cobra.Command {
	opts := benchOptions{}

	cmd := &cobra.Command{
		Use:         "bench",
		Short:       "Load test the chat endpoint against mock providers",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().DurationVar(&opts.duration, "duration", 10*time.Second, "Duration of the test")
	cmd.Flags().IntVar(&opts.rate, "rate", 50, "Requests per second")
	cmd.Flags().Float64Var(&opts.failRate, "fail-rate", 0.3, "Fraction of primary provider calls that fail and fall back")
	cmd.Flags().DurationVar(&opts.latency, "latency", 10*time.Millisecond, "Simulated provider latency")
	return cmd
}

func runBench(ctx context.Context, out io.Writer, opts benchOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mockURL, err := serve(ctx, mockProvider(opts))
	if err != nil {
		return fmt.Errorf("start mock provider: %w", err)
	}

	cfg := &config.Config{
		Server:    config.ServerConfig{Env: "production", APIKeys: []string{benchToken}},
		Database:  config.DatabaseConfig{DSN: "file:bench?mode=memory&cache=shared"},
		Cache:     config.CacheConfig{TTL: time.Minute},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100000, Burst: 100000},
		AI: config.AIConfig{
			Preferred: "openai",
			Timeout:   5 * time.Second,
			Providers: []config.ProviderConfig{
				{Name: "openai", APIKey: "mock-key", BaseURL: mockURL + "/openai"},
				{Name: "groq", APIKey: "mock-key", BaseURL: mockURL + "/groq"},
			},
		},
	}

	log := logger.New(logger.Config{Level: "error", Format: "console"}, zap.NewAtomicLevel())
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(cfg, log, server.Deps{
		AltText:   a.altText,
		Chat:      a.chat,
		Settings:  a.settings,
		Analytics: a.analytics,
		Version:   AppVersion,
	})
	appURL, err := serve(ctx, srv.Handler())
	if err != nil {
		return fmt.Errorf("start app: %w", err)
	}

	fmt.Fprintf(out, "Running benchmark: %s duration, %d req/s, %.0f%% primary failures\n", opts.duration, opts.rate, opts.failRate*100)

	targeter := vegeta.NewStaticTargeter(vegeta.Target{
		Method: http.MethodPost,
		URL:    appURL + "/v1/chat",
		Body:   []byte(`{"message":"How can I improve the SEO of my safeguarding course page?"}`),
		Header: http.Header{
			"Content-Type":  []string{"application/json"},
			"Authorization": []string{"Bearer " + benchToken},
		},
	})

	attacker := vegeta.NewAttacker(vegeta.KeepAlive(true))
	var metrics vegeta.Metrics
	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: opts.rate, Per: time.Second}, opts.duration, "Benchmark") {
		metrics.Add(res)
	}
	metrics.Close()

	printBenchReport(out, &metrics)
	return nil
}

// mockProvider answers OpenAI-compatible completions; /openai fails at opts.failRate.
func mockProvider(opts benchOptions) http.Handler {
	mux := http.NewServeMux()
	complete := func(failRate float64) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, r.Body)
			time.Sleep(opts.latency)
			if rand.Float64() < failRate {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(mockCompletion)
		}
	}
	mux.HandleFunc("/openai/chat/completions", complete(opts.failRate))
	mux.HandleFunc("/groq/chat/completions", complete(0))
	return mux
}

// serve starts h on a random local port until ctx is done and returns its base URL.
func serve(ctx context.Context, h http.Handler) (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	return "http://" + ln.Addr().String(), nil
}

func printBenchReport(out io.Writer, m *vegeta.Metrics) {
	fmt.Fprintln(out, "--------------------------------------------------")
	fmt.Fprintln(out, "99th percentile: ", m.Latencies.P99)
	fmt.Fprintln(out, "Mean:            ", m.Latencies.Mean)
	fmt.Fprintln(out, "Max:             ", m.Latencies.Max)
	fmt.Fprintf(out, "Success:         %.2f%%\n", m.Success*100)
	fmt.Fprintf(out, "Throughput:      %.2f req/s\n", m.Throughput)

	codes := make([]string, 0, len(m.StatusCodes))
	for code := range m.StatusCodes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(out, "Status %s:      %d\n", code, m.StatusCodes[code])
	}
	fmt.Fprintln(out, "--------------------------------------------------")

	if len(m.Errors) > 0 {
		fmt.Fprintln(out, "Error Set (first 5 unique):")
		for i, msg := range m.Errors {
			if i == 5 {
				break
			}
			fmt.Fprintln(out, msg)
		}
	}
}
