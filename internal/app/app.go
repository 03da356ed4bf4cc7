package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "articles":
		return runArticles(args[1:])
	case "stats":
		return runStats(args[1:])
	case "import":
		return runImport(args[1:])
	case "preview":
		return runPreview(args[1:])
	case "cleanup":
		return runCleanup(args[1:])
	case "repair-links":
		return runRepairLinks(args[1:])
	case "hash-token":
		return runHashToken(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "dealsweep CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  dealsweep <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health       Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  articles     List stored deal articles")
	fmt.Fprintln(os.Stderr, "  stats        Show corpus and cleanup-run counters")
	fmt.Fprintln(os.Stderr, "  import       Validate deal item JSON files and insert them")
	fmt.Fprintln(os.Stderr, "  preview      Detect duplicate groups without deleting anything")
	fmt.Fprintln(os.Stderr, "  cleanup      Detect duplicate groups and delete redundant articles")
	fmt.Fprintln(os.Stderr, "  repair-links Copy the best member URL onto canonicals missing one")
	fmt.Fprintln(os.Stderr, "  hash-token   Generate a bcrypt hash for DS_API_TOKEN_HASH")
	fmt.Fprintln(os.Stderr, "  serve        Start the HTTP API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"dealsweep <command> -h\" for command-specific flags.")
}
