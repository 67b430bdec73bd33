package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vultrdns"
)

func cmdGetIP(args []string) error {
	fs := flag.NewFlagSet("get-ip", flag.ExitOnError)
	cf := &commonFlags{}
	cf.register(fs)
	iface := fs.String("iface", "", "Read the IP from the named network interface(s) instead of web services")
	fs.Parse(args)

	cfg, _ := vultrdns.FindConfig(cf.configPath)
	resolver := pickResolver(cfg, cf.logger(), "", *iface)
	ip, err := resolver.Resolve(context.Background())
	if err != nil {
		return err
	}
	fmt.Println(ip)
	return nil
}

func cmdStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cf := &commonFlags{}
	cf.register(fs)
	var domain, subdomain string
	fs.StringVar(&domain, "domain", "", "Domain to check")
	fs.StringVar(&domain, "d", "", "Domain to check (shorthand)")
	fs.StringVar(&subdomain, "subdomain", "", "Subdomain to check")
	fs.StringVar(&subdomain, "s", "", "Subdomain to check (shorthand)")
	fs.Parse(args)

	targets, key, cfg, err := cf.targetsAndKey(domain, subdomain, vultrdns.DefaultTTL)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no targets configured")
	}

	ctx := context.Background()
	resolver := pickResolver(cfg, cf.logger(), "", "")
	ip, err := resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Current public IP: %s\n\n", ip)

	client := vultrdns.NewClient(key, vultrdns.WithLogger(cf.logger()))
	defer client.Close()

	w := newTable()
	fmt.Fprintln(w, "FQDN\tCURRENT DNS\tSTATUS")
	for _, target := range targets {
		existing, err := client.GetRecordByName(ctx, target.Domain, target.Subdomain, "A")
		if err != nil {
			return err
		}
		switch {
		case existing == nil:
			fmt.Fprintf(w, "%s\t-\tNot found\n", target.FQDN())
		case existing.Data == ip:
			fmt.Fprintf(w, "%s\t%s\tUp to date\n", target.FQDN(), existing.Data)
		default:
			fmt.Fprintf(w, "%s\t%s\tNeeds update\n", target.FQDN(), existing.Data)
		}
	}
	return w.Flush()
}

func cmdUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	cf := &commonFlags{}
	cf.register(fs)
	var domain, subdomain string
	fs.StringVar(&domain, "domain", "", "Domain to update (overrides config)")
	fs.StringVar(&domain, "d", "", "Domain to update (shorthand)")
	fs.StringVar(&subdomain, "subdomain", "", "Subdomain to update (overrides config)")
	fs.StringVar(&subdomain, "s", "", "Subdomain to update (shorthand)")
	ttl := fs.Int("ttl", vultrdns.DefaultTTL, "TTL in seconds")
	force := fs.Bool("force", false, "Force update even if the IP hasn't changed")
	dryRun := fs.Bool("dry-run", false, "Show what would be done without making changes")
	customIP := fs.String("ip", "", "Use a specific IP instead of detecting automatically")
	iface := fs.String("iface", "", "Read the IP from the named network interface(s) instead of web services")
	fs.Parse(args)

	return runUpdate(context.Background(), cf, updateOptions{
		domain:    domain,
		subdomain: subdomain,
		ttl:       *ttl,
		force:     *force,
		dryRun:    *dryRun,
		customIP:  *customIP,
		iface:     *iface,
	})
}

type updateOptions struct {
	domain    string
	subdomain string
	ttl       int
	force     bool
	dryRun    bool
	customIP  string
	iface     string
}

func runUpdate(ctx context.Context, cf *commonFlags, opts updateOptions) error {
	targets, key, cfg, err := cf.targetsAndKey(opts.domain, opts.subdomain, opts.ttl)
	if err != nil {
		return err
	}

	resolver := pickResolver(cfg, cf.logger(), opts.customIP, opts.iface)
	ip, err := resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	if opts.customIP != "" {
		fmt.Printf("Using custom IP: %s\n", ip)
	} else {
		fmt.Printf("Current public IP: %s\n", ip)
	}
	if opts.dryRun {
		fmt.Println("\nDRY RUN MODE - no changes will be made")
	}

	client := vultrdns.NewClient(key, vultrdns.WithLogger(cf.logger()))
	defer client.Close()

	reconciler := &vultrdns.Reconciler{
		Records: client,
		Logger:  cf.logger(),
		Force:   opts.force,
		DryRun:  opts.dryRun,
	}
	results, err := reconciler.ReconcileAll(ctx, targets, ip)
	printResults(results)
	return err
}

func printResults(results []vultrdns.Result) {
	for _, res := range results {
		fqdn := res.Target.FQDN()
		switch res.Action {
		case vultrdns.ActionUpToDate:
			fmt.Printf("%s is already up to date\n", fqdn)
		case vultrdns.ActionUpdated:
			fmt.Printf("Updated %s: %s -> %s\n", fqdn, res.Previous, res.Current)
		case vultrdns.ActionCreated:
			fmt.Printf("Created %s -> %s\n", fqdn, res.Current)
		case vultrdns.ActionWouldUpdate:
			fmt.Printf("Would update %s: %s -> %s\n", fqdn, res.Previous, res.Current)
		case vultrdns.ActionWouldCreate:
			fmt.Printf("Would create %s A %s\n", fqdn, res.Current)
		}
	}
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cf := &commonFlags{}
	cf.register(fs)
	var domain, subdomain string
	fs.StringVar(&domain, "domain", "", "Domain to update (overrides config)")
	fs.StringVar(&domain, "d", "", "Domain to update (shorthand)")
	fs.StringVar(&subdomain, "subdomain", "", "Subdomain to update (overrides config)")
	fs.StringVar(&subdomain, "s", "", "Subdomain to update (shorthand)")
	ttl := fs.Int("ttl", vultrdns.DefaultTTL, "TTL in seconds")
	interval := fs.Duration("i", 30*time.Minute, "Duration to wait between update runs (minimum 1m)")
	iface := fs.String("iface", "", "Read the IP from the named network interface(s) instead of web services")
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := updateOptions{domain: domain, subdomain: subdomain, ttl: *ttl, iface: *iface}
	run := func(ctx context.Context) error {
		return runUpdate(ctx, cf, opts)
	}

	if err := run(ctx); err != nil {
		// keep the daemon alive; transient failures are expected on flaky links
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	vultrdns.RunDaemon(ctx, *interval, cf.logger(), run)
	return nil
}
