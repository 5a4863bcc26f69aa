package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/gohrm/pkg/config"
	"github.com/itohio/gohrm/pkg/estimator"
	"github.com/itohio/gohrm/pkg/monitor"
	"github.com/itohio/gohrm/pkg/ppg"
	"github.com/itohio/gohrm/pkg/storage"
	"github.com/itohio/gohrm/pkg/telemetry"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
		csvFlag    = flag.String("csv", "", "CSV output path (overrides config)")
		listFlag   = flag.Bool("list", false, "List available serial ports and exit")
	)
	flag.Parse()

	if *listFlag {
		ports, err := ppg.Ports()
		if err != nil {
			log.Fatalf("Failed to list ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p.Name)
		}
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command-line overrides
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *csvFlag != "" {
		cfg.Output.CSVPath = *csvFlag
	}

	// Select device
	var device ppg.Device
	var serialDev *ppg.Serial
	if *mockFlag {
		log.Printf("Using mocked PPG device (%.0f BPM)", cfg.Mock.BPM)
		device = ppg.NewMock(&cfg.Mock)
	} else {
		log.Printf("Using serial PPG device on %s", cfg.Serial.Port)
		serialDev = ppg.NewSerial(cfg.Serial.Port, ppg.DefaultBaudRate, ppg.DefaultBufferSize)
		device = serialDev
	}

	mon := monitor.New(cfg)

	// The MCU's beat LED follows interval acceptance.
	if serialDev != nil {
		mon.SetBeatSink(serialDev)
	}

	// CSV output
	var csvWriter *storage.CSVWriter
	if cfg.Output.CSVPath != "" {
		csvWriter, err = storage.NewCSVWriter(cfg.Output.CSVPath)
		if err != nil {
			log.Fatalf("Failed to open CSV output: %v", err)
		}
		defer csvWriter.Close()
		mon.OnUpdate(func(res estimator.Result) {
			if err := csvWriter.WriteResult(res); err != nil {
				log.Printf("CSV write failed: %v", err)
			}
		})
	}

	// MQTT telemetry
	if cfg.Telemetry.Enabled {
		publisher := telemetry.NewPublisher(cfg.Telemetry)
		if err := publisher.Connect(); err != nil {
			log.Fatalf("Failed to connect telemetry: %v", err)
		}
		defer publisher.Close()
		mon.OnUpdate(func(res estimator.Result) {
			if err := publisher.Publish(res); err != nil {
				log.Printf("Telemetry publish failed: %v", err)
			}
		})
	}

	// Textual record stream on stdout
	mon.OnUpdate(func(res estimator.Result) {
		fmt.Printf("%.1f,%d,%d,%s\n", res.Filtered, res.BPM, res.Confidence, res.Status)
	})

	if err := device.Connect(); err != nil {
		log.Fatalf("Failed to connect device: %v", err)
	}

	go mon.ProcessSamples(device.Samples())

	// Run until interrupted
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Printf("Shutting down")
	if err := device.Close(); err != nil {
		log.Printf("Device close failed: %v", err)
	}
}
