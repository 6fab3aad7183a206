// Command tmodelctl is a local decode smoke-testing harness: it loads a
// YAML fixture describing a model-pair and an observation sequence,
// installs the model into an Engine, and prints the decoded path. In
// -watch mode it re-installs the model whenever the fixture file changes,
// exercising the same hot-swap path the relay's control channel drives.
//
// Usage:
//
//	go run ./cmd/tmodelctl -fixture cmd/tmodelctl/testdata/scenario_a.yaml
//	go run ./cmd/tmodelctl -fixture cmd/tmodelctl/testdata/scenario_a.yaml -watch
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	tmodel "github.com/relaytrace/tmodel"
	"github.com/relaytrace/tmodel/internal/accumulator"
	"github.com/relaytrace/tmodel/internal/parser"
)

// fixture is the YAML shape loaded from disk: a raw dictionary-syntax
// model blob (the same bytes the control channel would send, minus the
// TRUE/FALSE prefix) plus a simple observation script.
type fixture struct {
	Model        string       `yaml:"model"`
	Observations []obsFixture `yaml:"observations"`
	Kind         string       `yaml:"kind"` // "packet" or "stream"
}

type obsFixture struct {
	Code       string `yaml:"code"`
	PayloadLen int    `yaml:"payload_len"`
}

type stdoutEmitter struct{}

func (stdoutEmitter) EmitViterbiPackets(path string) { fmt.Println("packets:", path) }
func (stdoutEmitter) EmitViterbiStreams(path string) { fmt.Println("streams:", path) }

func main() {
	fixturePath := flag.String("fixture", "", "path to a YAML fixture describing a model and an observation script")
	watch := flag.Bool("watch", false, "re-run the fixture whenever it changes on disk")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "tmodelctl: -fixture is required")
		os.Exit(2)
	}

	cfg := tmodel.Defaults()
	engine, err := tmodel.New(cfg, stdoutEmitter{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "tmodelctl: construct engine:", err)
		os.Exit(1)
	}
	defer engine.Close()

	run := func() {
		if err := runFixture(engine, *fixturePath); err != nil {
			fmt.Fprintln(os.Stderr, "tmodelctl:", err)
		}
	}
	run()

	if !*watch {
		return
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintln(os.Stderr, "tmodelctl: watcher:", err)
		os.Exit(1)
	}
	defer w.Close()
	if err := w.Add(*fixturePath); err != nil {
		fmt.Fprintln(os.Stderr, "tmodelctl: watch:", err)
		os.Exit(1)
	}

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				time.Sleep(20 * time.Millisecond) // let the writer finish
				run()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			fmt.Fprintln(os.Stderr, "tmodelctl: watch error:", err)
		}
	}
}

func runFixture(engine *tmodel.Engine, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	var fx fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return fmt.Errorf("parse fixture yaml: %w", err)
	}

	blob := append([]byte("TRUE "), []byte(fx.Model)...)
	if _, _, err := parser.ParseCommand(blob); err != nil {
		return fmt.Errorf("model section did not parse: %w", err)
	}
	if err := engine.SetModel(context.Background(), blob); err != nil {
		return fmt.Errorf("install model: %w", err)
	}

	switch fx.Kind {
	case "stream":
		return runStream(engine, fx.Observations)
	default:
		return runPacket(engine, fx.Observations)
	}
}

func runPacket(engine *tmodel.Engine, obs []obsFixture) error {
	acc := engine.NewPacketAccumulator()
	if acc == nil {
		return fmt.Errorf("no packet model active, nothing to decode")
	}
	for _, o := range obs {
		switch o.Code {
		case "+":
			acc.Observe(accumulator.PacketSent, o.PayloadLen)
		case "-":
			acc.Observe(accumulator.PacketRecv, o.PayloadLen)
		case "end":
			acc.Observe(accumulator.PacketEnd, 0)
		}
	}
	engine.FreePacket(acc)
	return nil
}

func runStream(engine *tmodel.Engine, obs []obsFixture) error {
	acc := engine.NewStreamAccumulator(false)
	if acc == nil {
		return fmt.Errorf("no stream model active, nothing to decode")
	}
	for _, o := range obs {
		switch o.Code {
		case "$", "new":
			acc.Observe(accumulator.StreamNew)
		case "end":
			acc.Observe(accumulator.StreamEnd)
		}
	}
	engine.FreeStream(acc)
	return nil
}
