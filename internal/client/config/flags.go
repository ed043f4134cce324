package config

import (
	"flag"
	"os"
	"time"

	"github.com/mkuznecovs/notesync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the note service
//	-t string   bearer token for the note service
//	-u string   owner id to namespace local state under
//	-d string   path to the local SQLite database
//	-i int      online check interval in seconds
//	-s string   conflict resolution strategy
//
// The function filters os.Args to the flags it knows about, using
// flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-u", "-d", "-i", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.RemoteAddr, "a", cfg.RemoteAddr, "base URL of the note service")
	fs.StringVar(&cfg.AuthToken, "t", cfg.AuthToken, "bearer token for the note service")
	fs.StringVar(&cfg.Owner, "u", cfg.Owner, "owner id to namespace local state under")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local SQLite database")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.ConflictStrategy, "s", cfg.ConflictStrategy, "conflict resolution strategy")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
