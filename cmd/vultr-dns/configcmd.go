package main

import (
	"flag"
	"fmt"
	"strings"
	"syscall"

	"golang.org/x/term"

	"vultrdns"
)

func cmdInitConfig(args []string) error {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	var path string
	fs.StringVar(&path, "path", "", "Path for the config file (default: "+vultrdns.DefaultConfigPaths()[0]+")")
	fs.StringVar(&path, "p", "", "Path for the config file (shorthand)")
	fs.Parse(args)

	if path == "" {
		path = vultrdns.DefaultConfigPaths()[0]
	}

	var apiKey string
	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Print("Enter Vultr API key (leave empty to fill in later): ")
		bytekey, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("error reading from stdin: %w", err)
		}
		apiKey = strings.TrimSpace(string(bytekey))
	}

	if err := vultrdns.WriteExampleConfig(path, apiKey); err != nil {
		return err
	}
	fmt.Printf("Created example config at: %s\n", path)
	if apiKey == "" {
		fmt.Println("Edit the file to add your Vultr API key and targets.")
	} else {
		fmt.Println("Edit the file to add your targets.")
	}
	return nil
}

func cmdShowConfigExample(args []string) error {
	fs := flag.NewFlagSet("show-config-example", flag.ExitOnError)
	fs.Parse(args)
	fmt.Print(vultrdns.ExampleConfig)
	return nil
}
