// shmhash is a simple CLI for interacting with shmhash regions.
//
// Usage:
//
//	shmhash new [opts]    Create a new in-process region and open a REPL on it
//	shmhash calc [opts]   Print the layout CalcRequired would produce, then exit
//
// Options for 'new':
//
//	-m, --memory-size       Total region size in bytes (default: from profile, else 1 MiB)
//	-b, --max-buckets       Bucket table size (default: from profile, else 4096)
//	-f, --max-free-blocks   Free-list capacity (default: same as max-buckets)
//	-l, --lock-path         Companion flock path for cross-process use
//	-p, --profile           Named profile file to load defaults from / save to
//
// Commands (in REPL):
//
//	insert <key> <value>   Insert or update an entry
//	get <key>              Retrieve an entry by key
//	del <key>              Delete an entry
//	stat                   Show region layout and occupancy
//	help                   Show this help
//	exit / quit / q        Exit
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/pflag"

	"github.com/regioncache/shmhash/internal/config"
	"github.com/regioncache/shmhash/pkg/shmhash"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return errors.New("missing command")
	}

	switch os.Args[1] {
	case "new":
		return runNew(os.Args[2:])
	case "calc":
		return runCalc(os.Args[2:])
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  shmhash new [opts]    Create a region and open an interactive prompt on it\n")
	fmt.Fprintf(os.Stderr, "  shmhash calc [opts]   Print the layout for a given sizing, then exit\n")
}

func sizingFlags(fs *pflag.FlagSet) (memorySize *uint64, maxBuckets *uint64, maxFreeBlocks *uint64) {
	memorySize = fs.Uint64P("memory-size", "m", 0, "total region size in bytes")
	maxBuckets = fs.Uint64P("max-buckets", "b", 0, "bucket table size (0: derive from memory size)")
	maxFreeBlocks = fs.Uint64P("max-free-blocks", "f", 0, "free-list capacity (0: same as max-buckets)")
	return
}

func runCalc(args []string) error {
	fs := pflag.NewFlagSet("calc", pflag.ExitOnError)
	memorySize, maxBuckets, maxFreeBlocks := sizingFlags(fs)
	recordKVSize := fs.Uint64P("record-kv-size", "r", 0, "expected average key+value size, to estimate memory-size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stat, err := shmhash.CalcRequired(*memorySize, *maxBuckets, *maxFreeBlocks, *recordKVSize)
	if err != nil {
		return fmt.Errorf("calc: %w", err)
	}

	printStat(stat)
	return nil
}

func runNew(args []string) error {
	fs := pflag.NewFlagSet("new", pflag.ExitOnError)
	memorySize, maxBuckets, maxFreeBlocks := sizingFlags(fs)
	fs.Lookup("max-buckets").Usage = "bucket table size (0: keep the profile's value)"
	lockPath := fs.StringP("lock-path", "l", "", "companion flock path for cross-process use")
	profileName := fs.StringP("profile", "p", "", "profile name to load defaults from / save to")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: shmhash new [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	profilePath := profilePathFor(*profileName)
	profile, err := config.Load(profilePath, config.Profile{
		Name:          *profileName,
		MemorySize:    *memorySize,
		MaxBuckets:    *maxBuckets,
		MaxFreeBlocks: *maxFreeBlocks,
		LockPath:      *lockPath,
	})
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}

	fmt.Printf("Creating region with:\n")
	fmt.Printf("  Memory size:     %d bytes\n", profile.MemorySize)
	fmt.Printf("  Max buckets:     %d\n", profile.MaxBuckets)
	fmt.Printf("  Max free blocks: %d\n", profile.MaxFreeBlocks)
	fmt.Printf("  Lock path:       %s\n", displayOrNone(profile.LockPath))
	fmt.Println()

	h, err := shmhash.Init(shmhash.Config{
		MemorySize:    profile.MemorySize,
		MaxBuckets:    profile.MaxBuckets,
		MaxFreeBlocks: profile.MaxFreeBlocks,
		LockPath:      profile.LockPath,
	})
	if err != nil {
		return fmt.Errorf("creating region: %w", err)
	}
	defer h.Destroy()

	if profile.Name != "" {
		if err := config.Save(profilePath, profile); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save profile %q: %v\n", profile.Name, err)
		}
	}

	repl := &REPL{handle: h}
	return repl.Run()
}

func profilePathFor(name string) string {
	home, err := os.UserHomeDir()
	if err != nil || name == "" {
		return config.FileName
	}
	return filepath.Join(home, ".shmhash", name+".json")
}

func displayOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func printStat(s shmhash.Stat) {
	fmt.Printf("Memory size:        %d bytes\n", s.MemorySize)
	fmt.Printf("Max bucket flags:   %d\n", s.MaxBucketFlags)
	fmt.Printf("Max buckets:        %d\n", s.MaxBuckets)
	fmt.Printf("Max free blocks:    %d\n", s.MaxFreeBlocks)
	fmt.Printf("Bucket flags size:  %d bytes\n", s.BucketFlagsSize)
	fmt.Printf("Buckets size:       %d bytes\n", s.BucketsSize)
	fmt.Printf("Free blocks size:   %d bytes\n", s.FreeBlocksSize)
	fmt.Printf("Header size:        %d bytes\n", s.HeaderSize)
	fmt.Printf("Data size:          %d bytes\n", s.DataSize)
	fmt.Printf("Record header size: %d bytes\n", s.RecordHeaderSize)
	fmt.Printf("Record size est.:   %d bytes\n", s.RecordSize)
	fmt.Printf("Used buckets:       %d\n", s.UsedBuckets)
	fmt.Printf("Used free blocks:   %d\n", s.UsedFreeBlocks)
	fmt.Printf("Used data size:     %d bytes\n", s.UsedDataSize)
}

// REPL is the interactive command loop around a live *shmhash.Handle.
type REPL struct {
	handle *shmhash.Handle
	liner  *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".shmhash_history")
}

func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Println("shmhash - region CLI")
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("shmhash> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()
			return nil
		case "help", "?":
			r.printHelp()
		case "insert", "put":
			r.cmdInsert(args)
		case "get", "search":
			r.cmdGet(args)
		case "del", "delete":
			r.cmdDelete(args)
		case "stat", "info":
			r.cmdStat()
		case "clear", "cls":
			fmt.Print("\033[H\033[2J")
		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()
	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"insert", "put", "get", "search", "del", "delete",
		"stat", "info", "clear", "cls", "help", "exit", "quit", "q",
	}
	var completions []string
	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}
	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  insert <key> <value>   Insert or update an entry")
	fmt.Println("  get <key>              Retrieve an entry by key")
	fmt.Println("  del <key>              Delete an entry")
	fmt.Println("  stat                   Show region layout and occupancy")
	fmt.Println("  help                   Show this help")
	fmt.Println("  exit / quit / q        Exit")
	fmt.Println()
	fmt.Println("Keys and values: hex (e.g., 'deadbeef') or plain text (e.g., 'foo').")
}

// parseBytes parses a hex string when it decodes cleanly, falling back to
// the literal text otherwise, matching the teacher REPL's heuristic.
func parseBytes(s string) []byte {
	if raw, err := hex.DecodeString(s); err == nil && len(s)%2 == 0 {
		return raw
	}
	return []byte(s)
}

func formatBytes(b []byte) string {
	printable := true
	for _, c := range b {
		if c < 32 || c > 126 {
			printable = false
			break
		}
	}
	if printable {
		return fmt.Sprintf("%q", string(b))
	}
	return hex.EncodeToString(b)
}

func (r *REPL) cmdInsert(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: insert <key> <value>")
		return
	}
	key, value := parseBytes(args[0]), parseBytes(strings.Join(args[1:], " "))
	if err := r.handle.Insert(key, value); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("OK: inserted %s\n", formatBytes(key))
}

func (r *REPL) cmdGet(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: get <key>")
		return
	}
	value, err := r.handle.Search(parseBytes(args[0]))
	if errors.Is(err, shmhash.ErrNotFound) {
		fmt.Println("(not found)")
		return
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("%s\n", formatBytes(value))
}

func (r *REPL) cmdDelete(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: del <key>")
		return
	}
	key := parseBytes(args[0])
	err := r.handle.Delete(key)
	switch {
	case errors.Is(err, shmhash.ErrNotFound):
		fmt.Printf("OK: %s did not exist\n", formatBytes(key))
	case err != nil:
		fmt.Printf("Error: %v\n", err)
	default:
		fmt.Printf("OK: deleted %s\n", formatBytes(key))
	}
}

func (r *REPL) cmdStat() {
	s, err := r.handle.Stat()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printStat(s)
}
