package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akmistry/fixmem"
	"github.com/akmistry/fixmem/server"
)

var (
	configPath = flag.String("config", "", "YAML config file. Flags given explicitly override it")

	address = flag.String("address", defaultAddress, "Target virtual address of the value")
	value   = flag.Uint64("value", 42, "Initial value stored at the address")
	exact   = flag.Bool("exact", false, "Fail unless the value lands exactly at --address")
	backing = flag.String("backing", "anonymous", "Mapping backing: anonymous or zero-device")

	redisAddr             = flag.String("redis-addr", "", "Address/port to serve the value over RESP")
	httpAddr              = flag.String("http-addr", "", "Address/port to serve the value over HTTP/2 cleartext")
	maxConcurrentRequests = flag.Int("max-concurrent-requests", 4, "Maximum number of concurrent HTTP get/put requests")
	promPort              = flag.Int("prom-port", 0, "Port to export prometheus metrics")
	pprofAddr             = flag.String("pprof-addr", "", "Address/port to serve pprof")
)

func applyFlags(cfg *config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "address":
			cfg.Address = *address
		case "value":
			cfg.Value = *value
		case "exact":
			cfg.Exact = *exact
		case "backing":
			cfg.Backing = *backing
		case "redis-addr":
			cfg.RedisAddr = *redisAddr
		case "http-addr":
			cfg.HTTPAddr = *httpAddr
		case "max-concurrent-requests":
			cfg.MaxConcurrentRequests = *maxConcurrentRequests
		case "prom-port":
			cfg.PromPort = *promPort
		case "pprof-addr":
			cfg.PprofAddr = *pprofAddr
		}
	})
}

// startServers exposes h to other tools. The returned function stops them.
func startServers(cfg config, h *fixmem.Handle) (func(), error) {
	var closers []func() error
	stop := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.RedisAddr != "" {
		l, err := net.Listen("tcp4", cfg.RedisAddr)
		if err != nil {
			return func() {}, err
		}
		closers = append(closers, l.Close)
		redisServer := server.NewRedisServer(h)
		go func() {
			for {
				c, err := l.Accept()
				if err != nil {
					return
				}
				go func() {
					defer c.Close()
					err := redisServer.Serve(c)
					if err != nil && !strings.Contains(err.Error(), "connection reset by peer") {
						log.Print("Redis server error:", err)
					}
				}()
			}
		}()
	}

	if cfg.HTTPAddr != "" {
		l, err := net.Listen("tcp4", cfg.HTTPAddr)
		if err != nil {
			stop()
			return func() {}, err
		}
		srv := server.NewHTTPServer(cfg.HTTPAddr, server.NewHandler(h, cfg.MaxConcurrentRequests))
		closers = append(closers, srv.Close)
		go func() {
			err := srv.Serve(l)
			if err != nil && err != http.ErrServerClosed {
				log.Print("HTTP server error:", err)
			}
		}()
	}

	return stop, nil
}

func printCell(out io.Writer, c *fixmem.Cell[uint64]) error {
	v, err := c.Load()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%#x - %d\n", c.Addr(), v)
	return err
}

// waitEnter blocks for one line of input. End of input counts as a line.
func waitEnter(r *bufio.Reader) {
	r.ReadString('\n')
}

// run stores cfg.Value at the target address and shows it before and after
// a pause, during which another tool may rewrite it. It returns the process
// exit status.
func run(cfg config, in io.Reader, out, errOut io.Writer) int {
	addr, err := cfg.target()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	opts, err := cfg.options()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if cfg.MaxConcurrentRequests < 1 {
		fmt.Fprintf(errOut, "maxConcurrentRequests must be at least 1, got %d\n", cfg.MaxConcurrentRequests)
		return 2
	}

	cell, err := fixmem.NewCell[uint64](fixmem.NewReserver(opts), addr)
	if err != nil {
		fmt.Fprintf(errOut, "allocation error: %v\n", err)
		return 1
	}
	if err := cell.Store(cfg.Value); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	stop, err := startServers(cfg, cell.Handle())
	if err != nil {
		fmt.Fprintf(errOut, "unable to serve value: %v\n", err)
		return 1
	}
	defer stop()

	r := bufio.NewReader(in)
	printCell(out, cell)
	fingerprint := cell.Handle().Fingerprint()

	fmt.Fprintln(out, "Press ENTER to update value")
	waitEnter(r)

	printCell(out, cell)
	if cell.Handle().Fingerprint() != fingerprint {
		fmt.Fprintln(out, "Value was modified while paused")
	}

	fmt.Fprintln(out, "Press ENTER to exit")
	waitEnter(r)
	return 0
}

func main() {
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	applyFlags(&cfg)

	if cfg.PromPort > 0 {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			err := http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", cfg.PromPort), mux)
			if err != nil {
				panic(err)
			}
		}()
	}

	if cfg.PprofAddr != "" {
		go func() {
			err := http.ListenAndServe(cfg.PprofAddr, nil)
			if err != nil {
				panic(err)
			}
		}()
	}

	os.Exit(run(cfg, os.Stdin, os.Stdout, os.Stderr))
}
