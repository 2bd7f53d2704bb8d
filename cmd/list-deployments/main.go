package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/imranansari/vercel-deploy-wf/vercel"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Parse command line flags
	var (
		teamID    = flag.String("team", os.Getenv("INPUT_VERCEL_TEAM_ID"), "Vercel team id")
		projectID = flag.String("project", os.Getenv("INPUT_VERCEL_PROJECT_ID"), "Vercel project id")
		target    = flag.String("target", "", "Only list deployments for this target")
		commit    = flag.String("commit", "", "Stop at the first deployment whose commit contains this hash")
		pages     = flag.Int("pages", 1, "Number of pages to list")
		apiURL    = flag.String("api", vercel.DefaultBaseURL, "Vercel API base URL")
	)
	flag.Parse()

	token := os.Getenv("INPUT_VERCEL_ACCESS_TOKEN")
	if token == "" || *projectID == "" {
		log.Fatal("INPUT_VERCEL_ACCESS_TOKEN and a project id are required")
	}

	client, err := vercel.NewClient(token, vercel.WithBaseURL(*apiURL))
	if err != nil {
		log.Fatalf("Failed to create Vercel client: %v", err)
	}

	ctx := context.Background()
	opts := vercel.ListOptions{TeamID: *teamID, ProjectID: *projectID, Target: *target}

	if *commit != "" {
		dep, err := vercel.FindDeployment(ctx, client, vercel.CommitContains(*commit), opts)
		if err != nil {
			log.Fatalf("Failed to find deployment: %v", err)
		}
		build, err := client.LatestBuild(ctx, dep.UID, *teamID)
		if err != nil {
			log.Fatalf("Failed to fetch build: %v", err)
		}
		log.Printf("✓ Deployment %s for %s", dep.UID, dep.CommitSHA())
		log.Printf("  URL: %s", dep.URL)
		log.Printf("  Build: %s (%s)", build.ID, build.ReadyState)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UID\tCOMMIT\tSTATE\tCREATED\tURL")

	for page := 1; page <= *pages; page++ {
		res, err := client.ListDeployments(ctx, opts)
		if err != nil {
			log.Fatalf("Failed to list deployments: %v", err)
		}
		for _, d := range res.Deployments {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				d.UID, d.CommitSHA(), d.State, time.UnixMilli(d.Created).UTC().Format(time.RFC3339), d.URL)
		}

		next, err := res.Pagination.NextCursor()
		if err != nil {
			log.Fatalf("Unexpected pagination: %v", err)
		}
		if next == nil {
			break
		}
		opts.Until = *next
	}
	w.Flush()
}
