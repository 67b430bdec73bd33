// Command vultr-dns keeps Vultr DNS "A" records pointed at the machine's
// current public IP address.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"vultrdns"
)

const usageText = `vultr-dns keeps Vultr DNS A records pointed at your current public IP.

Usage:
  vultr-dns <command> [flags]

Commands:
  get-ip               Print the current public IP address
  list-domains         List all DNS domains in your Vultr account
  list-records         List all DNS records for a domain
  status               Compare configured records against the current public IP
  update               Update DNS records with the current public IP
  run                  Keep updating DNS records on a fixed interval
  init-config          Create an example configuration file
  show-config-example  Print the example configuration file
  service              Manage the systemd service and timer

Run "vultr-dns <command> -h" for details on a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(1)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "get-ip":
		err = cmdGetIP(args)
	case "list-domains":
		err = cmdListDomains(args)
	case "list-records":
		err = cmdListRecords(args)
	case "status":
		err = cmdStatus(args)
	case "update":
		err = cmdUpdate(args)
	case "run":
		err = cmdRun(args)
	case "init-config":
		err = cmdInitConfig(args)
	case "show-config-example":
		err = cmdShowConfigExample(args)
	case "service":
		err = cmdService(args)
	case "help", "-h", "--help":
		fmt.Print(usageText)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usageText)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// commonFlags are shared by every command that talks to the Vultr API.
type commonFlags struct {
	configPath string
	apiKey     string
	verbose    bool
}

func (cf *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&cf.configPath, "config", "", "Path to configuration file")
	fs.StringVar(&cf.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&cf.apiKey, "api-key", "", "Vultr API key (or set "+vultrdns.EnvAPIKey+")")
	fs.BoolVar(&cf.verbose, "v", false, "Enable verbose logging")
}

func (cf *commonFlags) logger() *zap.Logger {
	if !cf.verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// resolveAPIKey prefers the flag, then the environment, then the config
// file. The config load error is swallowed on purpose: commands that can
// work from the flag or environment alone must not require a config file.
func (cf *commonFlags) resolveAPIKey() (string, error) {
	cfg, err := vultrdns.FindConfig(cf.configPath)
	if err != nil {
		cfg = nil
	}
	key := vultrdns.ResolveAPIKey(cf.apiKey, cfg)
	if key == "" {
		return "", errors.New("no API key provided. Use --api-key, set " + vultrdns.EnvAPIKey + ", or add api_key to the config file")
	}
	return key, nil
}

// targetsAndKey resolves the target list and API key for update/status.
// When -d and -s are both given they form a single override target;
// otherwise targets come from the config file. The returned config may be
// nil in the override case.
func (cf *commonFlags) targetsAndKey(domain, subdomain string, ttl int) ([]vultrdns.UpdateTarget, string, *vultrdns.Config, error) {
	if domain != "" && subdomain != "" {
		key, err := cf.resolveAPIKey()
		if err != nil {
			return nil, "", nil, err
		}
		cfg, _ := vultrdns.FindConfig(cf.configPath)
		target := vultrdns.UpdateTarget{Domain: domain, Subdomain: subdomain, TTL: ttl}
		return []vultrdns.UpdateTarget{target}, key, cfg, nil
	}
	if domain != "" || subdomain != "" {
		return nil, "", nil, errors.New("both --domain and --subdomain are required together")
	}

	cfg, err := vultrdns.FindConfig(cf.configPath)
	if err != nil {
		return nil, "", nil, err
	}
	key := vultrdns.ResolveAPIKey(cf.apiKey, cfg)
	if key == "" {
		return nil, "", nil, errors.New("no API key provided. Use --api-key, set " + vultrdns.EnvAPIKey + ", or add api_key to the config file")
	}
	if len(cfg.Targets) == 0 {
		return nil, "", nil, errors.New("no update targets configured. Add targets to the config file or use --domain/--subdomain")
	}
	return cfg.Targets, key, cfg, nil
}

// pickResolver chooses the resolver for the current invocation: a fixed IP
// when -ip was given, the interface resolver for -iface, and otherwise the
// web fallback chain with the configured (or default) check URLs.
func pickResolver(cfg *vultrdns.Config, logger *zap.Logger, fixedIP, iface string) vultrdns.Resolver {
	if fixedIP != "" {
		return vultrdns.FromString(fixedIP)
	}
	if iface != "" {
		return vultrdns.InterfaceResolver(strings.Split(iface, ",")...)
	}
	var urls []string
	if cfg != nil {
		urls = cfg.IPCheckURLs
	}
	r := vultrdns.WebResolver(urls...)
	if s, ok := r.(interface{ SetLogger(*zap.Logger) }); ok {
		s.SetLogger(logger)
	}
	return r
}
