// Command coredb_cli is an interactive shell over an in-process buffer
// pool and trie, for exercising the storage engine without standing up
// any network service.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/rhea-devare/corestore/config"
	"github.com/rhea-devare/corestore/core/storage/buffer"
	"github.com/rhea-devare/corestore/core/storage/diskio"
	"github.com/rhea-devare/corestore/core/trie"
	"github.com/rhea-devare/corestore/pkg/logger"
	"github.com/rhea-devare/corestore/pkg/telemetry"
)

const prompt = "coredb> "

// session bundles the live engine state the CLI's commands operate on.
type session struct {
	gateway *diskio.Gateway
	sched   *diskio.Scheduler
	pool    *buffer.Pool
	kv      *trie.Trie
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg := &config.Config{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Printf("coredb_cli: %v\n", err)
			return
		}
		cfg = loaded
	} else {
		cfg.Buffer.PoolSize = 64
		cfg.Buffer.ReplacerK = 2
		cfg.Disk.DataFile = "coredb.db"
		cfg.Logger.ServiceName = "coredb_cli"
		cfg.Logger.Level = "warn"
		cfg.Logger.Format = "console"
		cfg.Logger.Development = true
		cfg.Telemetry.ServiceName = "coredb_cli"
	}

	zlog, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Printf("coredb_cli: building logger: %v\n", err)
		return
	}

	tel, shutdownTel, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		fmt.Printf("coredb_cli: starting telemetry: %v\n", err)
		return
	}
	defer shutdownTel(context.Background())

	gw, err := diskio.Open(cfg.Disk.DataFile, zlog)
	if err != nil {
		fmt.Printf("coredb_cli: opening %s: %v\n", cfg.Disk.DataFile, err)
		return
	}
	defer gw.Close()

	diskMetrics, err := diskio.NewMetrics(tel.Meter)
	if err != nil {
		fmt.Printf("coredb_cli: registering disk metrics: %v\n", err)
		return
	}
	schedOpts := []diskio.Option{diskio.WithTracer(tel.Tracer), diskio.WithMetrics(diskMetrics)}
	if cfg.Disk.RateLimitRPS > 0 {
		schedOpts = append(schedOpts, diskio.WithRateLimit(cfg.Disk.RateLimitRPS, cfg.Disk.RateLimitBurst))
	}
	sched := diskio.NewScheduler(gw, cfg.Disk.Workers, zlog, schedOpts...)
	defer sched.Close()

	poolMetrics, err := buffer.NewMetrics(tel.Meter)
	if err != nil {
		fmt.Printf("coredb_cli: registering buffer metrics: %v\n", err)
		return
	}
	pool := buffer.NewPool(cfg.Buffer.PoolSize, cfg.Buffer.ReplacerK, sched, zlog,
		buffer.WithTracer(tel.Tracer), buffer.WithMetrics(poolMetrics))

	sess := &session{gateway: gw, sched: sched, pool: pool, kv: &trie.Trie{}}

	rl, err := readline.New(prompt)
	if err != nil {
		fmt.Printf("coredb_cli: %v\n", err)
		return
	}
	defer rl.Close()

	fmt.Println("coredb shell. Type 'help' for commands, 'exit' or 'quit' to leave.")
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return
			}
			fmt.Printf("coredb_cli: %v\n", err)
			continue
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if done := sess.dispatch(args); done {
			return
		}
	}
}

// dispatch runs one command and reports whether the shell should exit.
func (s *session) dispatch(args []string) bool {
	switch strings.ToLower(args[0]) {
	case "put":
		if len(args) < 3 {
			fmt.Println("usage: put <key> <value>")
			return false
		}
		s.kv = trie.Put(s.kv, args[1], strings.Join(args[2:], " "))
		fmt.Println("OK")

	case "get":
		if len(args) < 2 {
			fmt.Println("usage: get <key>")
			return false
		}
		v, ok := trie.Get[string](s.kv, args[1])
		if !ok {
			fmt.Println("(not found)")
			return false
		}
		fmt.Println(v)

	case "delete":
		if len(args) < 2 {
			fmt.Println("usage: delete <key>")
			return false
		}
		s.kv = s.kv.Remove(args[1])
		fmt.Println("OK")

	case "newpage":
		pageID, _, ok := s.pool.NewPage()
		if !ok {
			fmt.Println("(pool exhausted)")
			return false
		}
		fmt.Printf("page %d\n", pageID)

	case "fetchpage":
		if len(args) < 2 {
			fmt.Println("usage: fetchpage <page_id>")
			return false
		}
		pageID, err := parsePageID(args[1])
		if err != nil {
			fmt.Println(err)
			return false
		}
		frame, ok := s.pool.FetchPage(pageID, buffer.AccessLookup)
		if !ok {
			fmt.Println("(not resident and no fault was possible)")
			return false
		}
		fmt.Printf("frame %d, %d bytes, dirty=%v\n", frame.ID(), len(frame.Data()), frame.IsDirty())
		s.pool.UnpinPage(pageID, false)

	case "flush":
		if len(args) < 2 {
			s.pool.FlushAllPages()
			fmt.Println("OK (all pages)")
			return false
		}
		pageID, err := parsePageID(args[1])
		if err != nil {
			fmt.Println(err)
			return false
		}
		if !s.pool.FlushPage(pageID) {
			fmt.Println("(not resident, or the write failed)")
			return false
		}
		fmt.Println("OK")

	case "deletepage":
		if len(args) < 2 {
			fmt.Println("usage: deletepage <page_id>")
			return false
		}
		pageID, err := parsePageID(args[1])
		if err != nil {
			fmt.Println(err)
			return false
		}
		fmt.Println(s.pool.DeletePage(pageID))

	case "help":
		fmt.Println("Commands:")
		fmt.Println("  put <key> <value>")
		fmt.Println("  get <key>")
		fmt.Println("  delete <key>")
		fmt.Println("  newpage")
		fmt.Println("  fetchpage <page_id>")
		fmt.Println("  flush [page_id]")
		fmt.Println("  deletepage <page_id>")
		fmt.Println("  help")
		fmt.Println("  exit / quit")

	case "exit", "quit":
		fmt.Println("Exiting coredb shell.")
		return true

	default:
		fmt.Println("Unknown command. Type 'help' for a list of commands.")
	}
	return false
}

func parsePageID(s string) (diskio.PageID, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return diskio.InvalidPageID, fmt.Errorf("invalid page id %q: %w", s, err)
	}
	return diskio.PageID(n), nil
}
