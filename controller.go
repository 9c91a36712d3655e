// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package shieldsim

// A Sketch is the tested program: an initialization procedure and a loop
// body, both taking no arguments, written against the Arduino-style API.
//
type Sketch interface {
	Setup()
	Loop()
}

// SketchFuncs adapts two plain functions into a Sketch.
//
type SketchFuncs struct {
	SetupFn func()
	LoopFn  func()
}

func (s SketchFuncs) Setup() {
	if s.SetupFn != nil {
		s.SetupFn()
	}
}

func (s SketchFuncs) Loop() {
	if s.LoopFn != nil {
		s.LoopFn()
	}
}

// A Controller drives an emulator through a test scenario: it configures
// pin wiring, schedules button and serial inputs ahead of time, invokes the
// tested sketch and gates the API methods the sketch may use.
//
// Creating a controller resets the emulator; all previously registered pins
// are removed.
//
type Controller struct {
	em     *Emulator
	sketch Sketch
	inputs map[uint8]*FutureTimeSeries[PinState]
}

// NewController returns a controller driving em with the given sketch. The
// emulator is reset and every API method gate is opened.
//
func NewController(em *Emulator, sketch Sketch) *Controller {
	em.removeAllPins()
	em.reset()
	names := []string{
		"pinMode", "digitalWrite", "digitalRead", "analogRead",
		"analogReference", "analogWrite", "millis", "micros", "delay",
		"delayMicroseconds", "pulseIn", "pulseInLong", "shiftOut", "shiftIn",
		"tone", "noTone", "serial",
	}
	for _, n := range names {
		f, _ := em.methodFlag(n)
		*f = true
	}
	return &Controller{
		em:     em,
		sketch: sketch,
		inputs: make(map[uint8]*FutureTimeSeries[PinState]),
	}
}

// Emulator returns the underlying emulator.
//
func (c *Controller) Emulator() *Emulator { return c.em }

// CurrentTime returns the current virtual time.
//
func (c *Controller) CurrentTime() Time { return c.em.Now() }

// EnableMethod opens the gate of the named API method.
//
func (c *Controller) EnableMethod(name string) error {
	f, err := c.em.methodFlag(name)
	if err != nil {
		return err
	}
	*f = true
	return nil
}

// DisableMethod closes the gate of the named API method; the sketch calling
// it becomes an emulator violation.
//
func (c *Controller) DisableMethod(name string) error {
	f, err := c.em.methodFlag(name)
	if err != nil {
		return err
	}
	*f = false
	return nil
}

// RegisterPin adds a pin with the given wiring (Input, Output or
// Undefined).
//
func (c *Controller) RegisterPin(pin uint8, wiring int) error {
	return c.em.registerPin(pin, wiring)
}

// RemoveAllPins drops all registered pins and their input upstreams.
//
func (c *Controller) RemoveAllPins() {
	c.em.removeAllPins()
	c.inputs = make(map[uint8]*FutureTimeSeries[PinState])
}

// AttachPinConsumer appends a consumer to the event chain of an output pin;
// it receives every state event the pin produces.
//
func (c *Controller) AttachPinConsumer(pin uint8, consumer Consumer[PinState]) error {
	p, err := c.em.getPin(pin)
	if err != nil {
		return err
	}
	return LastConsumer[PinState](p).AttachNext(consumer)
}

// PinValue returns the current raw value of a pin, bypassing mode checks.
//
func (c *Controller) PinValue(pin uint8) (int, error) {
	p, err := c.em.getPin(pin)
	if err != nil {
		return Undefined, err
	}
	return p.Value(), nil
}

// EnqueuePinChange schedules a value change of an input pin at the current
// time plus delay. The first schedule for a pin registers its input
// upstream with the emulator.
//
func (c *Controller) EnqueuePinChange(pin uint8, value int, delay Time) error {
	buf, ok := c.inputs[pin]
	if !ok {
		buf = NewFutureTimeSeries[PinState]()
		if err := c.em.registerPinInput(pin, buf); err != nil {
			return err
		}
		c.inputs[pin] = buf
	}
	return buf.AddFutureEvent(c.em.Now()+delay, PinState{Pin: pin, Value: value})
}

// EnqueueSerialInput schedules a chunk of serial input at the current time
// plus delay. Schedules must be inserted in order.
//
func (c *Controller) EnqueueSerialInput(input string, delay Time) error {
	return c.em.scheduleSerial(c.em.Now()+delay, input)
}

// ClearPinEvents propagates a clear down the event chain of the given pin.
//
func (c *Controller) ClearPinEvents(pin uint8) error {
	p, err := c.em.getPin(pin)
	if err != nil {
		return err
	}
	p.Clear()
	return nil
}

// ClearSerialInput drops all scheduled serial input.
//
func (c *Controller) ClearSerialInput() {
	c.em.clearSerialSchedule()
}

// invoke runs fn, converting API-violation panics raised by the ino
// adapters back into error returns. Non-error panics are the sketch's own
// bugs and keep propagating.
//
func invoke(fn func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			e, ok := v.(error)
			if !ok {
				panic(v)
			}
			err = e
		}
	}()
	fn()
	return nil
}

// RunSetup invokes the sketch's Setup and then advances the clock by
// postDelay.
//
func (c *Controller) RunSetup(postDelay Time) error {
	if err := invoke(c.sketch.Setup); err != nil {
		return err
	}
	_, err := c.em.advanceBy(postDelay)
	return err
}

// RunSingleLoop invokes one iteration of the sketch's Loop and then
// advances the clock by postDelay.
//
func (c *Controller) RunSingleLoop(postDelay Time) error {
	if err := invoke(c.sketch.Loop); err != nil {
		return err
	}
	_, err := c.em.advanceBy(postDelay)
	return err
}

// RunMultipleLoops runs count loop iterations. After each iteration the
// callback receives the current time; returning false stops the driver at
// the next loop boundary. A nil callback never stops.
//
func (c *Controller) RunMultipleLoops(count int, postDelay Time, callback func(Time) bool) error {
	for ; count > 0; count-- {
		if err := c.RunSingleLoop(postDelay); err != nil {
			return err
		}
		if callback != nil && !callback(c.CurrentTime()) {
			break
		}
	}
	return nil
}

// RunLoopsForPeriod runs loop iterations until the clock has advanced by
// period. The callback semantics match RunMultipleLoops.
//
func (c *Controller) RunLoopsForPeriod(period, postDelay Time, callback func(Time) bool) error {
	end := c.CurrentTime() + period
	for c.CurrentTime() < end {
		if err := c.RunSingleLoop(postDelay); err != nil {
			return err
		}
		if callback != nil && !callback(c.CurrentTime()) {
			break
		}
	}
	return nil
}
