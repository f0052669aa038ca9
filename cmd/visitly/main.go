package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/visitly-dev/visitly/pkg/sdk"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	addr := os.Getenv("VISITLY_ADDR")
	if addr == "" {
		addr = "http://localhost:8080"
	}
	client := sdk.New(addr)

	command := strings.ToLower(os.Args[1])
	args := os.Args[2:]

	switch command {
	case "ping":
		fwd := ""
		if len(args) > 0 {
			fwd = args[0]
		}
		res, err := client.Ping(fwd)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(res)

	case "summary":
		s, err := client.Summary()
		if err != nil {
			log.Fatal(err)
		}
		printJSON(s)

	case "grouped":
		period, countType := "", ""
		if len(args) > 0 {
			period = args[0]
		}
		if len(args) > 1 {
			countType = args[1]
		}
		buckets, err := client.PingsByDay(period, countType)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(buckets)

	case "activity":
		page, pageSize := 0, 0
		sortBy, sortOrder := "", ""
		if len(args) > 0 {
			page, _ = strconv.Atoi(args[0])
		}
		if len(args) > 1 {
			pageSize, _ = strconv.Atoi(args[1])
		}
		if len(args) > 2 {
			sortBy = args[2]
		}
		if len(args) > 3 {
			sortOrder = args[3]
		}
		p, err := client.UniqueActivity(page, pageSize, sortBy, sortOrder)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(p)

	case "health":
		if err := client.Health(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("OK")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func printUsage() {
	fmt.Println("Visitly CLI - Interface for the visitlyd stats daemon")
	fmt.Println("\nUsage:")
	fmt.Println("  visitly ping [address]")
	fmt.Println("  visitly summary")
	fmt.Println("  visitly grouped [period] [countType]")
	fmt.Println("  visitly activity [page] [pageSize] [sortBy] [sortOrder]")
	fmt.Println("  visitly health")
	fmt.Println("\nEnvironment Variables:")
	fmt.Println("  VISITLY_ADDR    Base URL of the daemon (default: http://localhost:8080)")
}

func printJSON(v any) {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(bytes))
}
