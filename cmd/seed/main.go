// Command seed imports a YAML curriculum file through the content service, so
// every write goes through the same ordering and invalidation paths as the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/curriculum-backend/internal/app"
)

func main() {
	var file string
	flag.StringVar(&file, "file", "", "path to the curriculum YAML file")
	flag.Parse()
	if file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	res, err := a.Services.Seed.ImportFile(ctx, file)
	if err != nil {
		a.Log.Error("Seed import failed", "file", file, "error", err)
		a.Close()
		os.Exit(1)
	}
	fmt.Printf("Imported %d course(s): %d nodes, %d exercises, %d assignments\n",
		len(res.CourseIDs), res.Nodes, res.Exercises, res.Assignments)
	for _, id := range res.CourseIDs {
		fmt.Printf("  %s\n", id)
	}
}
