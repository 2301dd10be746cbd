package main

import (
	"fmt"
	"os"
)

const usage = `usage: admin <command> [flags]

commands:
  metrics   print the live world metrics (GET /admin/v1/metrics)
  debug     queue a Debug* action on the running server
  kills     recent kills from the running server
  economy   economy series from the running server
  db        query the sqlite index file directly
  journal   summarise tick journal files`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	args := os.Args[2:]
	switch os.Args[1] {
	case "metrics":
		metricsCmd(args)
	case "debug":
		debugCmd(args)
	case "kills":
		getCmd("kills", "/admin/v1/kills", args)
	case "economy":
		getCmd("economy", "/admin/v1/economy", args)
	case "db":
		dbCmd(args)
	case "journal":
		journalCmd(args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}
