// orgb lists OpenRGB controllers and flashes the OhmRGB palette on one of them,
// helpful when choosing "device" and "layout" of the [openrgb] config section.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gethiox/ohmrgb/internal/pkg/midi/device"
	"github.com/realbucksavage/openrgb-go"
)

func ouu(err error) {
	if err != nil {
		fmt.Printf("ou error: %s\n", err)
		os.Exit(1)
	}
}

var (
	host       = flag.String("host", "localhost", "OpenRGB server host")
	port       = flag.Int("port", 6742, "OpenRGB server port")
	name       = flag.String("device", "", "part of the controller name, palette is flashed on the matching controller")
	leds       = flag.Bool("leds", false, "print LED names of the matching controller")
	brightness = flag.Float64("brightness", 1.0, "palette brightness (0.0 - 1.0)")
)

func main() {
	flag.Parse()

	c, err := openrgb.Connect(*host, *port)
	ouu(err)
	defer c.Close()

	deviceCount, err := c.GetControllerCount()
	ouu(err)

	fmt.Printf("controllers: %d\n", deviceCount)
	for i := 0; i < deviceCount; i++ {
		d, err := c.GetDeviceController(i)
		if err != nil {
			continue
		}
		fmt.Printf("%2d: \"%s\", leds: %d\n", i, d.Name, len(d.LEDs))
	}

	if *name == "" {
		return
	}

	dev, index, err := device.FindController(c, *name)
	ouu(err)

	if *leds {
		for i, led := range dev.LEDs {
			fmt.Printf("%3d: %s\n", i, led.Name)
		}
	}

	palette := device.DefaultPalette()
	colors := make([]openrgb.Color, len(dev.Colors))

	for value := uint8(0); value <= device.MaxLighting; value++ {
		color := device.ToOpenRGB(palette.Color(value, *brightness))
		for i := range colors {
			colors[i] = color
		}
		fmt.Printf("lighting value %d: #%02x%02x%02x\n", value, color.Red, color.Green, color.Blue)

		err = c.UpdateLEDs(index, colors)
		ouu(err)
		time.Sleep(time.Millisecond * 500)
	}

	for i := range colors {
		colors[i] = openrgb.Color{}
	}
	ouu(c.UpdateLEDs(index, colors))
}
