package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/goware/urlx"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Destinations struct {
		Sink     string   `long:"sink" description:"type of destination sink" choice:"mixpanel" choice:"honeycomb" choice:"print" choice:"dummy" default:"print"`
		Host     string   `long:"host" description:"the url of the host to receive the events (or mixpanel, eu, honeycomb, local)" default:"mixpanel"`
		Insecure bool     `long:"insecure" description:"use this for insecure http (not https) connections" yaml:",omitempty"`
		Tokens   []string `long:"token" description:"mixpanel project token; repeat to fan events out to several projects(*)" env:"MIXPANEL_TOKENS" env-delim:"," yaml:"-"`
		Dataset  string   `long:"dataset" description:"honeycomb dataset to send events to" env:"HONEYCOMB_DATASET" default:"shopgen"`
		APIKey   string   `long:"apikey" description:"honeycomb API key(*)" env:"HONEYCOMB_API_KEY" yaml:"-"`
	} `group:"Destination Options"`
	Shop struct {
		Products   []string `long:"product" description:"product catalog entry; repeat to replace the default catalog" yaml:"products,omitempty"`
		Progress   int      `long:"progress" description:"percent chance a shopper progresses at each decision point" default:"70"`
		Returning  int      `long:"returning" description:"percent chance a visit is driven by a returning registered shopper" default:"50"`
		ProfileURL string   `long:"profileurl" description:"source of randomized demographic profiles" default:"https://randomuser.me/api/"`
	} `group:"Shop Options"`
	Quantity struct {
		Visits  int64 `long:"visits" description:"total number of visits to simulate" default:"1000"`
		Workers int   `long:"workers" description:"number of visits allowed to run concurrently" default:"50"`
	} `group:"Quantity Options"`
	Global struct {
		LogLevel  string `long:"loglevel" description:"level of logging" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"warn"`
		DebugPort int    `long:"debugport" description:"port to listen on for pprof(*)" default:"-1" yaml:"-"`
		Seed      string `long:"seed" description:"string seed for the random number generator (defaults to the dataset name)" yaml:",omitempty"`
		Config    string `long:"config" description:"name of config file to load(*)" default:"" yaml:"-"`
		WriteCfg  string `long:"writecfg" description:"write effective YAML config to the specified output file and quit(*)" default:"" yaml:"-"`
	} `group:"Global Options"`
	Fields  map[string]string `yaml:"fields,omitempty"`
	apihost *url.URL
}

func newOptions() *Options {
	return &Options{Fields: make(map[string]string)}
}

func (o *Options) CopyStarredFieldsFrom(other *Options) {
	o.Destinations.Tokens = other.Destinations.Tokens
	o.Destinations.APIKey = other.Destinations.APIKey
	o.Global.DebugPort = other.Global.DebugPort
	o.Global.Config = other.Global.Config
	o.Global.WriteCfg = other.Global.WriteCfg
}

func (o *Options) DebugLevel() int {
	switch o.Global.LogLevel {
	case "debug":
		return 3
	case "info":
		return 2
	case "warn":
		return 1
	case "error":
		return 0
	default:
		return 0
	}
}

// defaultCatalog is the product list a visit chooses items from when no
// --product flags or config entries are given.
var defaultCatalog = []string{
	"espresso machine", "stovetop kettle", "chef's knife", "cast iron skillet",
	"stand mixer", "coffee grinder", "cutting board", "salad spinner",
	"dutch oven", "toaster", "immersion blender", "salt cellar",
}

// parseHost cleans up the destination host so the rest of the program can
// rely on a fully specified URL. Exits if it can't make sense of it.
func parseHost(log Logger, host string, insecure bool) *url.URL {
	switch host {
	case "mixpanel":
		host = "https://api.mixpanel.com:443"
	case "eu":
		host = "https://api-eu.mixpanel.com:443"
	case "honeycomb":
		host = "https://api.honeycomb.io:443"
	case "local":
		host = "http://localhost:8080"
	default:
	}

	// if the scheme is not specified, fall back to the value of the insecure flag
	defaultScheme := "https"
	if insecure {
		defaultScheme = "http"
	}
	u, err := urlx.ParseWithDefaultScheme(host, defaultScheme)
	if err != nil {
		log.Fatal("unable to parse host: %s\n", err)
	}
	return u
}

func ReadConfig(opts *Options, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(f)
	err = dec.Decode(opts)
	if err != nil {
		return err
	}
	log.Printf("read config from %s\n", filename)
	return nil
}

func WriteConfig(opts *Options, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(f)
	err = enc.Encode(opts)
	if err != nil {
		return err
	}
	log.Printf("wrote config to %s\n", filename)
	return nil
}

func main() {
	// tokens and keys usually live in a .env during development
	_ = godotenv.Load()

	cmdopts := newOptions()

	parser := flags.NewParser(cmdopts, flags.Default)
	parser.Usage = `[OPTIONS] [FIELD=VALUE]...

	shopgen simulates shoppers browsing a fictitious e-commerce site and
	reports every simulated action as an analytics event. Use it to load-test
	or demo-seed an analytics pipeline.

	Each visit walks a weighted-random journey: main page, item page, add to
	cart, checkout, with a chance at every step of wandering back to the main
	page or dropping off. Shoppers who reach checkout may register, after
	which later visits can be driven by them as returning shoppers. The
	--progress and --returning weights control how far shoppers get and how
	often they come back.

	Events can be sent to Mixpanel projects (one --token per project, all
	receiving the same events), to a Honeycomb dataset, printed to stdout, or
	counted and discarded.

	Extra constant properties can be stamped on every event by listing them
	as FIELD=VALUE arguments, or as key/value pairs under the "fields" key of
	the config file.

	Options can be set in a YAML config file with "--config=FILENAME";
	"--writecfg" writes the effective config back out. If a config file is
	used it MUST be used for all options except the ones marked with (*) --
	those CANNOT be set in the config file.
	`

	// read the command line and envvars into cmdopts
	args, err := parser.Parse()
	if err != nil {
		switch flagsErr := err.(type) {
		case *flags.Error:
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		log.Fatalf("error reading command line: %v", err)
	}

	opts := newOptions()
	if cmdopts.Global.Config != "" {
		if err := ReadConfig(opts, cmdopts.Global.Config); err != nil {
			log.Fatalf("err %v -- unable to read config file %s", err, cmdopts.Global.Config)
		}
		opts.CopyStarredFieldsFrom(cmdopts)
	} else {
		opts = cmdopts // we don't have to read from a file
	}

	// split the args into opts.Fields, potentially overwriting
	for _, arg := range args {
		s := strings.SplitN(arg, "=", 2)
		if len(s) < 2 {
			log.Fatalf("field `%s` missing required '='", s)
		}
		opts.Fields[s[0]] = s[1]
	}

	if opts.Global.WriteCfg != "" {
		err := WriteConfig(opts, opts.Global.WriteCfg)
		if err != nil {
			log.Fatalf("unable to write config: %s\n", err)
		}
		os.Exit(0)
	}

	if opts.Global.Seed == "" {
		opts.Global.Seed = opts.Destinations.Dataset
	}

	if opts.Global.DebugPort > 0 {
		go func() {
			http.ListenAndServe(fmt.Sprintf("localhost:%d", opts.Global.DebugPort), nil)
		}()
	}

	logger := NewLogger(opts.DebugLevel())

	if len(opts.Shop.Products) == 0 {
		opts.Shop.Products = defaultCatalog
	}
	if opts.Shop.Progress < 0 || opts.Shop.Progress > 100 {
		logger.Fatal("--progress must be between 0 and 100\n")
	}

	opts.apihost = parseHost(logger, opts.Destinations.Host, opts.Destinations.Insecure)

	var sinks []Sink
	switch opts.Destinations.Sink {
	case "dummy":
		sinks = append(sinks, NewDummySink(logger))
	case "print":
		sinks = append(sinks, NewPrintSink(logger))
	case "mixpanel":
		if len(opts.Destinations.Tokens) == 0 {
			logger.Fatal("the mixpanel sink needs at least one --token\n")
		}
		for _, token := range opts.Destinations.Tokens {
			sinks = append(sinks, NewMixpanelSink(token, opts.apihost))
		}
	case "honeycomb":
		sink, err := NewHoneycombSink(logger, opts)
		if err != nil {
			logger.Fatal("unable to set up honeycomb sink: %s\n", err)
		}
		sinks = append(sinks, sink)
	}

	logger.Info("%d destinations ready, %d products in the catalog, simulating %d visits on %d workers\n",
		len(sinks), len(opts.Shop.Products), opts.Quantity.Visits, opts.Quantity.Workers)

	reporter := NewReporter(logger, sinks, opts.Fields)
	deps := VisitDeps{
		Reporter:  reporter,
		Registry:  NewRegistry(),
		Profiles:  NewProfileClient(opts.Shop.ProfileURL),
		Catalog:   opts.Shop.Products,
		Progress:  opts.Shop.Progress,
		Returning: opts.Shop.Returning,
		Log:       logger,
	}

	// create a stop channel so we can shut down gracefully
	stop := make(chan struct{})
	var stopOnce sync.Once
	closeStop := func() { stopOnce.Do(func() { close(stop) }) }

	// catch ctrl-c and close the stop channel; the counter stops issuing
	// visits and in-flight ones drain
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigch:
			logger.Warn("\nshutting down from operating system signal\n")
			closeStop()
			return
		case <-stop:
			return
		}
	}()

	orch := NewOrchestrator(opts.Quantity.Visits, opts.Quantity.Workers, opts.Global.Seed, deps, logger)
	orch.Run(context.Background(), stop)

	closeStop()
	reporter.Close()
	logger.Info("%d shoppers registered during the run\n", deps.Registry.Len())
}
