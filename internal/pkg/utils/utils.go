package utils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/amenzhinsky/go-memexec"
	"github.com/gethiox/ohmrgb/internal/pkg/logger"
)

var log = logger.GetLogger()

func serverArgs(port int) []string {
	return []string{"--server", "--noautoconnect", "--server-port", fmt.Sprintf("%d", port)}
}

// RunOpenRGBServer executes given OpenRGB binary from memory in server mode
// and interrupts it once ctx is done. Output of the server is logged on debug level.
func RunOpenRGBServer(ctx context.Context, wg *sync.WaitGroup, openRGB []byte, port int) {
	defer wg.Done()

	exe, err := memexec.New(openRGB)
	if err != nil {
		log.Info(fmt.Sprintf("[OpenRGB] failed to prepare server binary: %s", err), logger.Error)
		return
	}

	defer func() {
		err := exe.Close()
		if err != nil {
			log.Info(fmt.Sprintf("failed to close memory exec: %s", err), logger.Error)
		}
	}()

	cmd := exe.Command(serverArgs(port)...)

	out1, in1 := io.Pipe()
	out2, in2 := io.Pipe()

	defer out1.Close()
	defer in1.Close()
	defer out2.Close()
	defer in2.Close()

	cmd.Stdout = in1
	cmd.Stderr = in2

	log.Info(fmt.Sprintf("[OpenRGB] starting server on port %d", port), logger.Debug)
	err = cmd.Start()
	if err != nil {
		log.Info(fmt.Sprintf("[OpenRGB] Failed to start: %s", err), logger.Error)
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		// give the LED mirror a moment to turn the lights off
		time.Sleep(time.Millisecond * 200)
		err := cmd.Process.Signal(os.Interrupt)
		if err != nil {
			if !errors.Is(err, os.ErrProcessDone) {
				log.Info(fmt.Sprintf("[OpenRGB] failed to send signal: %s", err), logger.Error)
			}
		} else {
			log.Info("[OpenRGB] interrupt success", logger.Info)
		}
	}()

	go scanLines(out1, "[OpenRGB] o> ")
	go scanLines(out2, "[OpenRGB] e> ")

	err = cmd.Wait()
	if err != nil {
		log.Info(fmt.Sprintf("[OpenRGB] Execution error: %s", err), logger.Error)
	}
	log.Info("[OpenRGB] Done", logger.Debug)
}

func scanLines(r io.Reader, prefix string) {
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		log.Info(prefix+scan.Text(), logger.Debug)
	}
}
