//go:build ignore

// Builds ohmrgb for linux targets: go run build.go -platforms linux-arm64,linux-amd64
//
// rtmidi driver links against ALSA through cgo, every target needs a C cross compiler
// and ALSA headers/libraries for its architecture (libasound2-dev:<arch> on debian).
package main

import (
	"bytes"
	"crypto/sha256"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

type target struct {
	goarch string
	goarm  string
	cc     string // C compiler for cgo
	triple string // pkg-config multiarch directory
}

var targets = []target{
	{goarch: "arm", goarm: "6", cc: "arm-linux-gnueabihf-gcc", triple: "arm-linux-gnueabihf"}, // Raspberry Pi Zero / 1
	{goarch: "arm", goarm: "7", cc: "arm-linux-gnueabihf-gcc", triple: "arm-linux-gnueabihf"},
	{goarch: "arm64", cc: "aarch64-linux-gnu-gcc", triple: "aarch64-linux-gnu"},
	{goarch: "386", cc: "i686-linux-gnu-gcc", triple: "i386-linux-gnu"},
	{goarch: "amd64", cc: "x86_64-linux-gnu-gcc", triple: "x86_64-linux-gnu"},
}

func (t target) String() string {
	if t.goarm != "" {
		return fmt.Sprintf("linux-%s-v%s", t.goarch, t.goarm)
	}
	return "linux-" + t.goarch
}

func (t target) env() []string {
	env := append(os.Environ(),
		"GOOS=linux",
		"GOARCH="+t.goarch,
		"CGO_ENABLED=1",
		"CC="+t.cc,
		fmt.Sprintf("PKG_CONFIG_PATH=/usr/lib/%s/pkgconfig", t.triple),
	)
	if t.goarm != "" {
		env = append(env, "GOARM="+t.goarm)
	}
	return env
}

// preflight reports why target cannot be built on this machine.
func (t target) preflight() error {
	if _, err := exec.LookPath(t.cc); err != nil {
		return fmt.Errorf("C compiler %s not found", t.cc)
	}
	cmd := exec.Command("pkg-config", "--exists", "alsa")
	cmd.Env = t.env()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ALSA development files for %s not found (pkg-config alsa)", t.triple)
	}
	return nil
}

type result struct {
	target target
	binary string
	output string
	err    error
}

func build(t target, ldflags string) result {
	binary := filepath.Join(outDir, fmt.Sprintf("ohmrgb-%s", t))

	params := []string{"build", "-trimpath", "-ldflags", ldflags, "-o", binary}
	if race {
		params = append(params, "-race")
	}
	params = append(params, "./cmd/ohmrgb/")

	cmd := exec.Command("go", params...)
	cmd.Env = t.env()

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return result{target: t, binary: binary, output: out.String(), err: err}
}

func version() string {
	out, err := exec.Command("git", "describe", "--tags", "--always", "--dirty").Output()
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(out))
}

func checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func writeChecksums(results []result) error {
	var lines []string
	for _, r := range results {
		if r.err != nil {
			continue
		}
		sum, err := checksum(r.binary)
		if err != nil {
			return fmt.Errorf("checksum of %s: %w", r.binary, err)
		}
		lines = append(lines, fmt.Sprintf("%s  %s", sum, filepath.Base(r.binary)))
	}
	sort.Strings(lines)
	return os.WriteFile(filepath.Join(outDir, "SHA256SUMS"), []byte(strings.Join(lines, "\n")+"\n"), 0644)
}

func selectTargets(selection string) ([]target, error) {
	if selection == "all" {
		return targets, nil
	}

	var selected []target
	for _, name := range strings.Split(selection, ",") {
		var found bool
		for _, t := range targets {
			if t.String() == name {
				selected = append(selected, t)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown target: %s", name)
		}
	}
	return selected, nil
}

var selection, outDir string
var race, skipMissing bool
var jobs int

func main() {
	var names []string
	for _, t := range targets {
		names = append(names, t.String())
	}
	flag.StringVar(&selection, "platforms", "all", "comma-separated target list\navailable: "+strings.Join(names, ","))
	flag.StringVar(&outDir, "out", "./builds", "output directory")
	flag.BoolVar(&race, "race", false, "include race detector")
	flag.BoolVar(&skipMissing, "skip-missing", false, "skip targets without cross toolchain instead of failing")
	flag.IntVar(&jobs, "jobs", 2, "parallel builds, cgo builds are memory hungry")
	flag.Parse()

	log.SetFlags(log.Ltime)

	selected, err := selectTargets(selection)
	if err != nil {
		log.Fatal(err)
	}

	var ready []target
	for _, t := range selected {
		if err := t.preflight(); err != nil {
			if !skipMissing {
				log.Fatalf("%s: %s", t, err)
			}
			log.Printf("%s skipped: %s", t, err)
			continue
		}
		ready = append(ready, t)
	}
	if len(ready) == 0 {
		log.Fatal("nothing to build")
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Fatal(err)
	}

	v := version()
	ldflags := fmt.Sprintf("-s -w -X main.version=%s", v)
	log.Printf("building ohmrgb %s for %d targets", v, len(ready))

	var results = make([]result, len(ready))
	var sem = make(chan struct{}, jobs)
	wg := sync.WaitGroup{}
	for i, t := range ready {
		wg.Add(1)
		go func(i int, t target) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = build(t, ldflags)
			if results[i].err != nil {
				log.Printf("%s failed", t)
			} else {
				log.Printf("%s done: %s", t, results[i].binary)
			}
		}(i, t)
	}
	wg.Wait()

	var failed bool
	for _, r := range results {
		if r.err == nil {
			continue
		}
		failed = true
		fmt.Printf("\n>>> %s: %s\n%s\n", r.target, r.err, r.output)
	}

	if err := writeChecksums(results); err != nil {
		log.Fatal(err)
	}

	if failed {
		os.Exit(1)
	}
}
