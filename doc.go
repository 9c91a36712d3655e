/*
Package shieldsim is a deterministic, virtual-time emulator and testing
harness for small Arduino-style programs driving a "funshield" peripheral
board (three buttons, four LEDs and a four-digit multiplexed 7-segment
display fed through a serial shift register).

A test author supplies a timeline of button and serial-line inputs, runs the
tested program's Setup and repeated Loop invocations under a virtual clock,
and asserts on the reconstructed peripheral state traces. The engine is
single threaded: virtual time advances only as a side effect of API calls
and driver invocations.
*/
package shieldsim
