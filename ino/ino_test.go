package ino

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/db47h/shieldsim"
)

func TestEmulatorInstance_singleUse(t *testing.T) {
	resetBoard()
	em, err := EmulatorInstance()
	require.NoError(t, err)
	require.NotNil(t, em)
	_, err = EmulatorInstance()
	assert.Error(t, err, "the board can be claimed only once")
}

func TestAdapters_driveTheBoard(t *testing.T) {
	resetBoard()
	em, err := EmulatorInstance()
	require.NoError(t, err)
	c := sim.NewController(em, sim.SketchFuncs{})
	require.NoError(t, c.RegisterPin(LED_BUILTIN, sim.Output))
	require.NoError(t, c.RegisterPin(A1, sim.Input))

	err = c.RunSingleLoop(0) // nothing to run, but exercises the driver
	require.NoError(t, err)

	PinMode(LED_BUILTIN, OUTPUT)
	PinMode(A1, INPUT_PULLUP)
	DigitalWrite(LED_BUILTIN, HIGH)
	assert.Equal(t, HIGH, DigitalRead(A1), "pull-up default")
	assert.Equal(t, 1023, AnalogRead(A1))

	Delay(2)
	assert.Equal(t, uint32(2), Millis())
	DelayMicroseconds(500)
	assert.Equal(t, uint32(2), Millis(), "millis truncates")
	assert.True(t, Micros() > 2000)

	v, err := c.PinValue(LED_BUILTIN)
	require.NoError(t, err)
	assert.Equal(t, sim.High, v)
}

func TestAdapters_panicWithErrors(t *testing.T) {
	resetBoard()
	em, err := EmulatorInstance()
	require.NoError(t, err)
	c := sim.NewController(em, sim.SketchFuncs{
		LoopFn: func() { DigitalWrite(13, HIGH) }, // pin never registered
	})
	err = c.RunSingleLoop(0)
	require.Error(t, err, "the controller recovers adapter panics")
	assert.Contains(t, err.Error(), "pin 13 is not defined")
}

func TestSerial(t *testing.T) {
	resetBoard()
	em, err := EmulatorInstance()
	require.NoError(t, err)
	c := sim.NewController(em, sim.SketchFuncs{})

	Serial.Begin(9600)
	require.NoError(t, c.EnqueueSerialInput("ok", 0))
	Delay(1)
	assert.Equal(t, 2, Serial.Available())
	assert.Equal(t, int('o'), Serial.Read())
	assert.Equal(t, int('k'), Serial.Read())
	assert.Equal(t, -1, Serial.Read())

	Serial.Print("x=")
	Serial.Println(42)
	assert.Equal(t, "x=42\n", Serial.Transcript())
	Serial.ClearTranscript()
	assert.Equal(t, "", Serial.Transcript())
}

func TestRandomAndMap(t *testing.T) {
	RandomSeed(7)
	a := Random(0, 100)
	RandomSeed(7)
	b := Random(0, 100)
	assert.Equal(t, a, b, "the generator replays deterministically")
	assert.Equal(t, int32(5), Random(5, 5))

	assert.Equal(t, int32(50), Map(512, 0, 1023, 0, 100))
	assert.Equal(t, int32(10), Constrain(200, 0, 10))
	assert.Equal(t, int32(0), Constrain(-5, 0, 10))
	assert.Equal(t, int32(7), Constrain(7, 0, 10))
}
