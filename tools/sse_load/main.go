// Command sse_load opens many concurrent board streams and reports how many
// snapshots each received. With --toggle it also flips a deal on an interval so
// every stream sees new versions.
package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var args struct {
	baseURL     string
	connections int
	duration    time.Duration
	rampUp      time.Duration
	toggleEvery time.Duration
	toggleDeal  int
}

var Cmd = &cobra.Command{
	Use:   "sse_load",
	Short: "Load test the forecast board SSE stream",
	RunE:  run,
}

type counters struct {
	connected   atomic.Int64
	connectErrs atomic.Int64
	streamErrs  atomic.Int64
	snapshots   atomic.Int64
	regressions atomic.Int64
	toggles     atomic.Int64
}

func main() {
	Cmd.Flags().StringVar(&args.baseURL, "url", "http://localhost:8080", "board base URL")
	Cmd.Flags().IntVar(&args.connections, "conns", 500, "number of concurrent streams")
	Cmd.Flags().DurationVar(&args.duration, "dur", 60*time.Second, "test duration (0 for until interrupted)")
	Cmd.Flags().DurationVar(&args.rampUp, "ramp", time.Second, "spread stream starts across this window")
	Cmd.Flags().DurationVar(&args.toggleEvery, "toggle", 0, "toggle a deal on this interval (0 disables)")
	Cmd.Flags().IntVar(&args.toggleDeal, "deal", 0, "deal id to toggle")

	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if args.connections <= 0 {
		return fmt.Errorf("invalid conns: %d", args.connections)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if args.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, args.duration)
		defer cancel()
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     args.connections + 100,
			MaxIdleConns:        args.connections + 100,
			MaxIdleConnsPerHost: args.connections + 100,
			DisableCompression:  true,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}

	log.Printf("starting stream load: url=%s conns=%d duration=%s ramp=%s", args.baseURL, args.connections, args.duration, args.rampUp)

	var (
		c     counters
		wg    sync.WaitGroup
		start = time.Now()
	)
	interval := args.rampUp / time.Duration(args.connections)

	g, gctx := errgroup.WithContext(ctx)
	if args.toggleEvery > 0 {
		g.Go(func() error { return toggle(gctx, client, &c) })
	}
	g.Go(func() error { return status(gctx, &c, start) })

	for i := 0; i < args.connections && gctx.Err() == nil; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-gctx.Done():
			case <-time.After(interval):
			}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			stream(gctx, client, &c)
		}()
	}

	wg.Wait()
	if err := g.Wait(); err != nil {
		return err
	}

	elapsed := max(time.Since(start), time.Millisecond)
	fmt.Printf("done: connected=%d connect_errs=%d stream_errs=%d snapshots=%d regressions=%d toggles=%d elapsed=%s snapshots/s=%.2f\n",
		c.connected.Load(), c.connectErrs.Load(), c.streamErrs.Load(), c.snapshots.Load(),
		c.regressions.Load(), c.toggles.Load(), elapsed.Truncate(time.Millisecond),
		float64(c.snapshots.Load())/elapsed.Seconds())
	return nil
}

// stream reads snapshot events until ctx is done and checks that versions only grow.
func stream(ctx context.Context, client *http.Client, c *counters) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.baseURL+"/api/stream", nil)
	if err != nil {
		c.connectErrs.Add(1)
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		c.connectErrs.Add(1)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.connectErrs.Add(1)
		return
	}
	c.connected.Add(1)

	var last uint64
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() == nil {
				c.streamErrs.Add(1)
			}
			return
		}
		id, ok := strings.CutPrefix(strings.TrimRight(line, "\r\n"), "id: ")
		if !ok {
			continue
		}
		version, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			continue
		}
		c.snapshots.Add(1)
		if version <= last {
			c.regressions.Add(1)
		}
		last = version
	}
}

func toggle(ctx context.Context, client *http.Client, c *counters) error {
	ticker := time.NewTicker(args.toggleEvery)
	defer ticker.Stop()

	target := fmt.Sprintf("%s/api/deals/%d/toggle", args.baseURL, args.toggleDeal)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewBufferString(`{"bucket":"forecast"}`))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := client.Do(req)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("toggle deal %d: %w", args.toggleDeal, err)
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("toggle deal %d: status %d", args.toggleDeal, resp.StatusCode)
			}
			c.toggles.Add(1)
		}
	}
}

func status(ctx context.Context, c *counters, start time.Time) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			log.Printf("status: connected=%d connect_errs=%d stream_errs=%d snapshots=%d regressions=%d elapsed=%s",
				c.connected.Load(), c.connectErrs.Load(), c.streamErrs.Load(),
				c.snapshots.Load(), c.regressions.Load(), time.Since(start).Truncate(time.Second))
		}
	}
}
