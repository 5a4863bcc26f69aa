//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS = 4 // ADC read interval in milliseconds
	NUM_SAMPLES        = 5 // Number of samples to average per output (5 * 4ms = one 20ms tick)

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 10   // ADC resolution in bits (10-bit = 0-1023)

	// PPG sensor analog output
	PIN_PPG = machine.A1

	// Beat indicator LED
	PIN_BEAT_LED = machine.D7

	// Serial configuration
	// Format "unix_micros,reading\n", e.g. "1234567890123456,1023\n" = ~23 bytes max per line
	// 50 outputs/sec * 23 bytes/line = 1,150 bytes/sec; 115200 baud gives ~10x headroom
	UART_BAUD_RATE = 115200
)
