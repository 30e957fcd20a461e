package main

import (
	"context"
	"time"

	"github.com/chazu/objjc/server"
)

// serverOptions builds the server options shared by serve and lsp.
func (c *cli) serverOptions(p *project, noCache bool) ([]server.ServerOption, func(), error) {
	var opts []server.ServerOption
	if p.parser != nil {
		opts = append(opts, server.WithParser(p.parser))
	} else {
		c.log.Warning("no parser configured; requests must carry syntax trees")
	}
	store, err := p.openCache(noCache)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {}
	if store != nil {
		opts = append(opts, server.WithCache(store))
		closeStore = func() { store.Close() }
	}
	return opts, closeStore, nil
}

// serve handles `objjc serve`.
func (c *cli) serve(ctx context.Context, args []string) error {
	fs := c.newFlagSet("serve", "")
	addr := fs.String("addr", "", "listen `address` (default from objjc.toml, else 127.0.0.1:7017)")
	ttl := fs.Duration("session-ttl", 30*time.Minute, "drop sessions unused for `duration`")
	noCache := fs.Bool("no-cache", false, "do not use the build cache")
	parserCmd := fs.String("parser", "", "parser `command` overriding [parser] in objjc.toml")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	p, err := c.loadProject()
	if err != nil {
		return err
	}
	if *parserCmd != "" {
		if err := p.setParser(*parserCmd); err != nil {
			return err
		}
	}
	opts, closeStore, err := c.serverOptions(p, *noCache)
	if err != nil {
		return err
	}
	defer closeStore()
	opts = append(opts, server.WithSessionTTL(*ttl))

	listen := *addr
	if listen == "" {
		listen = p.m.Server.Address
	}
	srv := server.New(p.settings, opts...)
	defer srv.Stop()
	return srv.ListenAndServe(ctx, listen)
}

// lsp handles `objjc lsp`.
func (c *cli) lsp(ctx context.Context, args []string) error {
	fs := c.newFlagSet("lsp", "")
	noCache := fs.Bool("no-cache", false, "do not use the build cache")
	parserCmd := fs.String("parser", "", "parser `command` overriding [parser] in objjc.toml")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	p, err := c.loadProject()
	if err != nil {
		return err
	}
	if *parserCmd != "" {
		if err := p.setParser(*parserCmd); err != nil {
			return err
		}
	}
	opts, closeStore, err := c.serverOptions(p, *noCache)
	if err != nil {
		return err
	}
	defer closeStore()

	return server.NewLSP(p.settings, opts...).Run()
}
