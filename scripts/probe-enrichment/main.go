// probe-enrichment asks the configured enrichment provider about one or more locations and prints
// the resolved context. It is a quick way to check a model's JSON output before pointing the
// engine at it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LunaGrandjean/LVMH-project/pkg/config"
	"github.com/LunaGrandjean/LVMH-project/pkg/llm"
	"github.com/LunaGrandjean/LVMH-project/pkg/models"
	"github.com/LunaGrandjean/LVMH-project/pkg/services"
)

// location is a "Country" or "Country/City" flag value.
type location struct {
	Country string
	City    string
}

type locationList []location

func (l *locationList) String() string {
	parts := make([]string, 0, len(*l))
	for _, loc := range *l {
		parts = append(parts, loc.Country+"/"+loc.City)
	}
	return strings.Join(parts, ",")
}

func (l *locationList) Set(v string) error {
	country, city, _ := strings.Cut(v, "/")
	country = strings.TrimSpace(country)
	if country == "" {
		return fmt.Errorf("location %q has no country", v)
	}
	*l = append(*l, location{Country: country, City: strings.TrimSpace(city)})
	return nil
}

type probeResult struct {
	Country  string                 `json:"country"`
	City     string                 `json:"city"`
	Context  models.ExternalContext `json:"context"`
	Duration string                 `json:"duration"`
}

func main() {
	var locations locationList
	flag.Var(&locations, "location", "Country or Country/City to probe (repeatable)")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	if len(locations) == 0 {
		locations = locationList{{Country: "Italy", City: "Milan"}, {Country: "Bangladesh", City: "Dhaka"}}
	}

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, _ := logConfig.Build()
	defer logger.Sync()

	cfg, err := config.Load("probe")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Enrichment.Enabled() {
		fmt.Fprintln(os.Stderr, "enrichment is not configured: set ENRICHMENT_API_KEY or ENRICHMENT_BASE_URL")
		os.Exit(1)
	}

	provider, err := llm.ParseProvider(cfg.Enrichment.Provider)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	client, err := llm.NewClientFromConfig(&llm.Config{
		Provider: provider,
		Endpoint: cfg.Enrichment.BaseURL,
		Model:    cfg.Enrichment.Model,
		APIKey:   cfg.Enrichment.APIKey,
		Timeout:  cfg.Enrichment.Timeout(),
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create client: %v\n", err)
		os.Exit(1)
	}

	// No cache sharing and no rate limit: every location is a fresh call.
	resolver := services.NewContextResolver(client, nil, services.ContextResolverConfig{
		Temperature: cfg.Enrichment.Temperature,
	}, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Enrichment probe: %s %s\n", provider, cfg.Enrichment.Model)
	fmt.Println(strings.Repeat("=", 80))

	failed := 0
	results := make([]probeResult, 0, len(locations))
	for _, loc := range locations {
		start := time.Now()
		ec := resolver.Resolve(ctx, services.ResolveRequest{Country: loc.Country, City: loc.City})
		results = append(results, probeResult{
			Country:  loc.Country,
			City:     loc.City,
			Context:  ec,
			Duration: time.Since(start).Round(time.Millisecond).String(),
		})
		status := "✓ PASS"
		if !ec.IsExternal() {
			status = "✗ FAIL"
			failed++
		}
		fmt.Printf("%s: %s/%s (source=%s)\n", status, loc.Country, loc.City, ec.Source)
		if ec.Error != "" {
			fmt.Printf("  Error: %s\n", ec.Error)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		fmt.Fprintf(os.Stderr, "encode results: %v\n", err)
		os.Exit(1)
	}

	if failed > 0 {
		fmt.Printf("\n%d of %d locations fell back to static data.\n", failed, len(locations))
		os.Exit(1)
	}
}
