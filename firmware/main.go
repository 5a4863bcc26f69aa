//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"
)

var (
	adcPPG machine.ADC
	uart   = machine.UART0

	// ADC averaging - running sum and count
	ppgSum   uint32
	ppgCount int

	// Timing
	lastADCRead time.Time
)

func main() {
	// Beat LED is driven by the host over serial; configure it as output
	PIN_BEAT_LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	// Configure the PPG ADC with the target resolution
	PIN_PPG.Configure(machine.PinConfig{Mode: machine.PinInput})
	adcPPG = machine.ADC{Pin: PIN_PPG}
	adcPPG.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	lastADCRead = time.Now()

	for {
		now := time.Now()

		// Check for beat indicator commands (non-blocking)
		processSerial()

		// Read the ADC on a fixed interval
		if now.Sub(lastADCRead) >= time.Duration(SAMPLE_INTERVAL_MS)*time.Millisecond {
			ppgSum += uint32(adcPPG.Get())
			ppgCount++
			lastADCRead = now
		}

		// Output one averaged reading per NUM_SAMPLES
		if ppgCount >= NUM_SAMPLES {
			outputAveragedValue()
			ppgSum = 0
			ppgCount = 0
		}

		// Small delay to prevent tight loop (but still allow precise timing)
		time.Sleep(100 * time.Microsecond)
	}
}

// processSerial reads single-byte beat commands: '1' = LED on, '0' = LED off.
func processSerial() {
	for uart.Buffered() > 0 {
		b, err := uart.ReadByte()
		if err != nil {
			return
		}
		switch b {
		case '1':
			PIN_BEAT_LED.High()
		case '0':
			PIN_BEAT_LED.Low()
		}
	}
}

func outputAveragedValue() {
	n := ppgCount
	if n == 0 {
		n = 1 // Avoid division by zero
	}
	avg := uint16(ppgSum / uint32(n))

	timestampMicros := time.Now().UnixNano() / 1000

	// Output format: "unix_micros,reading\n"
	print(timestampMicros)
	print(",")
	print(avg)
	print("\n")
}
