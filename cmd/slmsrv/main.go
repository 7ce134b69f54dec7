package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"

	yml "gopkg.in/yaml.v2"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "slmsrv.yml"
	k              = koanf.New(".")
)

func setupconfig() {
	k.Load(structs.Provider(Config{
		Addr: ":8000",
		Mock: false,
		SLM: SLMSetup{
			DisplayNumber: 1,
			SLMNumber:     1,
			Endpoint:      "/slm"},
		Spectrometer: SpectroSetup{
			Endpoint: "/spectro"}}, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `slmsrv drives a Santec SLM-200 phase panel and exposes an HTTP interface to it.
This enables a server-client architecture, and the clients can leverage the
excellent HTTP libraries for any programming language.

Usage:
	slmsrv <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `slmsrv is amenable to configuration via its .yaml file.  For a primer on YAML, see
https://yaml.org/start.html

Routes are mounted under the configured endpoints:
- <SLM.Endpoint>      panel control: frame upload, uniform fill, wavelength
- /calib              calibration: sweep ingest, lookup table up/download
- <Spectrometer.Endpoint>  the sweep meter, if an Addr is configured
- /display            generate a phase pattern, map it through the active
                      calibration, and push it to the panel
- /preview            render a pattern config as a FITS phase map without
                      touching the panel

With Mock: true the panel is replaced by an in-memory simulator, which is
useful for client development away from the bench.  The vendor runtime is
windows only; on other platforms run is only useful with Mock.

Set LUTFile to a persisted calibration to load it at startup; /display
returns 409 until a calibration is loaded one way or another.`
	fmt.Println(str)
}

func mkconf() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := Config{}
	k.Unmarshal("", &c)
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("slmsrv version %v\n", Version)
}

func run() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	mux, ctl, err := BuildMux(c)
	if err != nil {
		log.Fatal(err)
	}
	defer ctl.Close()
	log.Println("now listening for requests at ", c.Addr)
	log.Fatal(http.ListenAndServe(c.Addr, mux))
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "run":
		run()
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
