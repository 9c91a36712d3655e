package ino

import sim "github.com/db47h/shieldsim"

// resetBoard reverts the package-level emulator, its claim and the serial
// transcript, giving each test a fresh board.
func resetBoard() {
	emu = sim.NewEmulator()
	claimed = false
	Serial = SerialPort{}
}
