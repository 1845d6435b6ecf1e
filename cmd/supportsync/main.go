package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Saurabhh-37/supportsync/internal/cli"
)

// recordRef maps a bare record reference to the command that shows it:
// "#12" is ticket 12 and "fr-12" is feature request 12.
func recordRef(s string) (args []string, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	kind := "tickets"
	switch {
	case strings.HasPrefix(s, "#"):
		s = s[1:]
	case strings.HasPrefix(s, "fr-"):
		kind, s = "features", s[3:]
	default:
		return nil, false
	}
	if n, err := strconv.Atoi(s); err != nil || n <= 0 {
		return nil, false
	}
	return []string{kind, "show", s}, true
}

// rewriteRecordLookupArgs lets `supportsync '#12'` work like
// `supportsync tickets show 12`. Cobra treats the first positional token as a
// subcommand, so argv is rewritten before parsing; persistent flags may come
// first.
func rewriteRecordLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}
	valueFlags := map[string]bool{
		"--api-url":   true,
		"--format":    true,
		"--log-level": true,
		"--log-file":  true,
		"--timeout":   true,
	}

	splice := func(i int) []string {
		show, ok := recordRef(argv[i])
		if !ok {
			return argv
		}
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, show...)
		out = append(out, argv[i+1:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) {
				if _, ok := recordRef(argv[i+1]); ok {
					return splice(i + 1)
				}
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		return splice(i)
	}
	return argv
}

func main() {
	// A .env next to the binary's working dir may carry SUPPORTSYNC_* settings.
	_ = godotenv.Load()

	os.Args = rewriteRecordLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
