package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"vultrdns"
)

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func cmdListDomains(args []string) error {
	fs := flag.NewFlagSet("list-domains", flag.ExitOnError)
	cf := &commonFlags{}
	cf.register(fs)
	fs.Parse(args)

	key, err := cf.resolveAPIKey()
	if err != nil {
		return err
	}
	client := vultrdns.NewClient(key, vultrdns.WithLogger(cf.logger()))
	defer client.Close()

	domains, err := client.ListDomains(context.Background())
	if err != nil {
		return err
	}
	if len(domains) == 0 {
		fmt.Println("No domains found in your Vultr account.")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "DOMAIN\tCREATED")
	for _, d := range domains {
		fmt.Fprintf(w, "%s\t%s\n", d.Domain, d.DateCreated)
	}
	return w.Flush()
}

func cmdListRecords(args []string) error {
	fs := flag.NewFlagSet("list-records", flag.ExitOnError)
	cf := &commonFlags{}
	cf.register(fs)
	fs.Parse(args)

	domain := fs.Arg(0)
	if domain == "" {
		return errors.New("usage: vultr-dns list-records <domain>")
	}

	key, err := cf.resolveAPIKey()
	if err != nil {
		return err
	}
	client := vultrdns.NewClient(key, vultrdns.WithLogger(cf.logger()))
	defer client.Close()

	records, err := client.ListRecords(context.Background(), domain)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("No records found for domain: %s\n", domain)
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tTYPE\tNAME\tDATA\tTTL\tPRIORITY")
	for _, r := range records {
		name := r.Name
		if name == "" {
			name = "@"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n", r.ID, r.Type, name, r.Data, r.TTL, r.Priority)
	}
	return w.Flush()
}
