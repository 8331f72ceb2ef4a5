// ghostfetch-cli fetches one URL through a running GhostFetch service
// and prints the result as markdown.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ternarybob/ghostfetch/pkg/client"
)

func main() {
	server := flag.String("server", "http://localhost:8000", "GhostFetch service URL")
	timeout := flag.Duration("timeout", 2*time.Minute, "How long to wait for the fetch")
	jsonOut := flag.Bool("json", false, "Print the full artifact as JSON")
	metaOnly := flag.Bool("meta", false, "Print metadata only")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ghostfetch-cli [flags] <url>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	url := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+10*time.Second)
	defer cancel()

	c := client.New(*server)

	artifact, err := c.FetchSync(ctx, url, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch failed: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *jsonOut:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(artifact)
	case *metaOnly:
		fmt.Printf("title: %s\n", artifact.Metadata.Title)
		fmt.Printf("author: %s\n", artifact.Metadata.Author)
		fmt.Printf("publish_date: %s\n", artifact.Metadata.PublishDate)
		fmt.Printf("images: %d\n", len(artifact.Metadata.Images))
	default:
		if artifact.Metadata.Title != "" {
			fmt.Printf("# %s\n\n", artifact.Metadata.Title)
		}
		fmt.Println(artifact.Markdown)
	}
}
