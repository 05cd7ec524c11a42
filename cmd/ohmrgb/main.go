package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/awesome-gocui/gocui"
	"github.com/gethiox/ohmrgb/internal/pkg/display"
	"github.com/gethiox/ohmrgb/internal/pkg/input"
	"github.com/gethiox/ohmrgb/internal/pkg/logger"
	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/device"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/device/config"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/driver"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/driver/alsa"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/sysex"
	"github.com/gethiox/ohmrgb/internal/pkg/utils"
	"github.com/holoplot/go-evdev"
	"github.com/logrusorgru/aurora"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// set by build.go with -ldflags
var version = "dev"

func FanOut[T any](input <-chan T) (<-chan T, <-chan T) {
	size := cap(input)
	if size == 0 {
		// at least size of 1 to prevent from output channels blocking by each other
		size = 1
	}
	var output1 = make(chan T, size)
	var output2 = make(chan T, size)

	go func() {
		for v := range input {
			output1 <- v
			output2 <- v
		}
		close(output1)
		close(output2)
	}()
	return output1, output2
}

func drain[T any](c <-chan T) {
	for range c {
	}
}

func handleSigs(sigs <-chan os.Signal, cancel func(), g *gocui.Gui) {
	var counter int
	for sig := range sigs {
		if counter > 0 {
			fmt.Println("Dirty exit")
			os.Exit(1)
		}
		log.Info(fmt.Sprintf("signal received: %v", sig), logger.Debug)
		cancel()
		if g != nil {
			g.Close()
		}
		counter++
	}
}

func runUI(ctx context.Context, sigs chan os.Signal) *gocui.Gui {
	g, err := GetCli()
	if err != nil {
		panic(err)
	}

	go func() {
		err := g.MainLoop()
		if err != nil && !errors.Is(err, gocui.ErrQuit) {
			log.Info(fmt.Sprintf("ui stopped: %s", err), logger.Warning)
		}
		select {
		case <-ctx.Done():
		default:
			sigs <- syscall.SIGINT // pretend that we received signal when exited from gui
		}
	}()

	// layout has to be applied before views are accessed
	for {
		if _, err := g.View(ViewLogs); err == nil {
			break
		}
		time.Sleep(time.Millisecond * 10)
	}
	return g
}

func printLogs(colors bool, logLevel int) {
	au := aurora.NewAurora(colors)
	for data := range logger.Messages {
		msg, err := unpack(data)
		if err != nil {
			fmt.Printf("%s\n", string(data))
			continue
		}
		m := prepareString(msg, au, -1, logLevel)
		if m != "" {
			fmt.Printf("%s\n", m)
		}
	}
}

func openPort(cfg OhmRGB) (driver.Port, error) {
	port, err := alsa.FindPort(cfg.PortName)
	if err == nil {
		return port, nil
	}
	if !cfg.Virtual || !errors.Is(err, alsa.ErrPortNotFound) {
		return driver.Port{}, err
	}

	log.Info(fmt.Sprintf("controller not found, creating virtual port \"%s\"", cfg.PortName), logger.Info)
	return alsa.CreatePort(cfg.PortName)
}

func listAll() {
	fmt.Println("MIDI ports:")
	for _, name := range alsa.ListPorts() {
		fmt.Printf("  %s\n", name)
	}

	presets, err := config.LoadPresets()
	if err != nil {
		fmt.Printf("presets cannot be loaded: %s\n", err)
		return
	}
	fmt.Println("Presets:")
	for _, name := range presets.Names() {
		p, _ := presets.FindPreset(name)
		fmt.Printf("  %s (%s: %s)\n", name, p.PresetType, p.PresetFile)
	}
}

var (
	ui       = flag.Bool("ui", false, "engage debug ui")
	force256 = flag.Bool("256", false, "force 256 color mode")
	nocolor  = flag.Bool("nocolor", false, "disable color")
	logLevel = flag.Int("loglevel", 3,
		"logging level, each level enables additional information class (0-4, default: 3)\n"+
			"more verbose levels may slightly impact overall performance, try to not go beyond 3 when not necessary\n"+
			"\navailable options:\n"+
			"0: general info (eg. port and preset status)\n"+
			"1: actions invoked by controls\n"+
			"2: control events (buttons and crossfader)\n"+
			"3: control events without assigned action\n"+
			"4: lighting changes",
	)
	silent     = flag.Bool("silent", false, "no output logging, best performance")
	presetName = flag.String("preset", "", "preset applied on start, overrides config")
	showFile   = flag.String("show", "", "play Standard MIDI File onto the grid")
	bpm        = flag.Int("bpm", 120, "tempo of the show")
	list       = flag.Bool("list", false, "list MIDI ports and presets, then exit")
)

func main() {
	flag.Parse()
	level := *logLevel + logger.InfoLvl

	if *force256 {
		os.Setenv("TERM", "xterm-256color")
	}

	if *silent {
		go drain(logger.Messages)
	} else if !*ui {
		go printLogs(!*nocolor, level)
	}

	err := createConfigDirectoryIfNeeded()
	if err != nil {
		log.Info(fmt.Sprintf("config directory: %s", err), logger.Error)
		os.Exit(1)
	}

	if *list {
		listAll()
		return
	}

	cfg, err := LoadOhmRGBConfig(configDir + "/ohmrgb.config")
	if err != nil {
		log.Info(fmt.Sprintf("config load failed: %s", err), logger.Error)
		os.Exit(1)
	}
	log.Info(fmt.Sprintf("OhmRGB %s", version), logger.Info)
	log.Info(fmt.Sprintf("OhmRGB config: %+v", cfg), logger.Debug)
	if *presetName != "" {
		cfg.OhmRGB.Preset = *presetName
	}

	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())

	var g *gocui.Gui
	if *ui && !*silent {
		g = runUI(ctx, sigs)
		go logView(g, !*nocolor, level, cfg.OhmRGB.LogBufferSize)
	}
	go handleSigs(sigs, cancel, g)

	port, err := openPort(cfg.OhmRGB)
	if err != nil {
		log.Info(fmt.Sprintf("MIDI port unavailable: %s", err), zap.String("port_name", cfg.OhmRGB.PortName), logger.Error)
		os.Exit(1)
	}
	log.Info(fmt.Sprintf("using port: %s", port.String()), zap.String("port_name", port.Name()), logger.Info)

	presets, err := config.LoadPresets()
	if err != nil {
		log.Info(fmt.Sprintf("presets load failed: %s", err), logger.Error)
		os.Exit(1)
	}
	preset, err := selectPreset(presets, cfg.OhmRGB.Preset)
	if err != nil {
		log.Info(fmt.Sprintf("preset unavailable: %s", err), zap.String("preset", cfg.OhmRGB.Preset), logger.Error)
		os.Exit(1)
	}

	var (
		midiEventsOut = make(chan midi.Event, 16)
		midiEventsIn  = make(chan midi.Event, 16)
		traffic       midi.Traffic
	)

	// port goroutines outlive the rest, so the last LED frame reaches the controller
	portWg := sync.WaitGroup{}
	portCtx, cancelPort := context.WithCancel(context.Background())
	err = midi.ProcessMidiEvents(portCtx, &portWg, port, midiEventsOut, midiEventsIn, &traffic)
	if err != nil {
		log.Info(fmt.Sprintf("MIDI port cannot be opened: %s", err), zap.String("port_name", port.Name()), logger.Error)
		os.Exit(1)
	}

	dev := device.NewDevice(midiEventsOut, *silent)
	dev.ApplyPreset(preset.Preset)

	// this wait-group has to be propagated everywhere where usual logging appear
	wg := sync.WaitGroup{}

	fan := utils.NewDynamicFanOut[midi.Event](midiEventsIn)
	_, dispatchEvents, err := fan.SpawnOutput()
	if err != nil {
		panic(err)
	}
	wg.Add(1)
	go dev.ProcessEvents(ctx, &wg, dispatchEvents)

	history := newEventHistory(10)
	_, historyEvents, err := fan.SpawnOutput()
	if err != nil {
		panic(err)
	}
	go recordEvents(historyEvents, history)

	wg.Add(1)
	go dev.HandleRedraw(ctx, &wg, cfg.OhmRGB.RedrawRate)

	if cfg.OpenRGB.ServerBinary != "" {
		binary, err := os.ReadFile(cfg.OpenRGB.ServerBinary)
		if err != nil {
			log.Info(fmt.Sprintf("[OpenRGB] cannot read server binary: %s", err), logger.Error)
		} else {
			wg.Add(1)
			go utils.RunOpenRGBServer(ctx, &wg, binary, cfg.OpenRGB.Port)
		}
	}

	if cfg.OpenRGB.Enabled {
		wg.Add(1)
		go dev.HandleOpenRGB(ctx, &wg, cfg.OpenRGB.OpenRGBConfig)
	}

	if cfg.Keyboard.Enabled {
		path, err := input.ResolveKeyboard(cfg.Keyboard.Device)
		if err == nil {
			err = input.ProcessKeyboard(ctx, &wg, path, cfg.Keyboard.Grab, func() map[evdev.EvCode]midi.Control {
				return dev.Preset().Keys
			}, midiEventsIn)
		}
		if err != nil {
			log.Info(fmt.Sprintf("keyboard unavailable: %s", err), logger.Warning)
		}
	}

	if *showFile != "" {
		wg.Add(1)
		go runShow(ctx, &wg, *showFile, *bpm, dev)
	}

	wg.Add(1)
	dd := GenerateDisplayData(ctx, &wg, cfg.Screen, dev, port.Name(), &traffic)
	dd1, dd2 := FanOut(dd)

	if cfg.Screen.Enabled {
		wg.Add(1)
		go display.HandleDisplay(&wg, cfg.Screen, dd1)
	} else {
		go drain(dd1)
	}

	if g != nil {
		go gridView(g, !*nocolor, dev, history)
		go lcdView(g, dd2)
	} else {
		go drain(dd2)
	}

	runManager(ctx, dev, config.LoadPresets)

	log.Info("waiting...", logger.Debug)
	wg.Wait()

	// all-off frame, controller keeps the last lighting otherwise
	midiEventsOut <- sysex.Build(device.Snapshot{}).Bytes()
	cancelPort()
	portWg.Wait()

	signal.Stop(sigs)
	close(sigs)

	// give the log frontend a moment to flush
	time.Sleep(time.Millisecond * 50)
}
