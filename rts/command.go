package rts

import "fmt"

// Command is a motor action carried in the control nibble of an RTS frame.
type Command uint8

const (
	My Command = iota
	Up
	MyUp
	Down
	MyDown
	UpDown
	MyUpDown
	Prog
	WindSun
	WindOnly
)

// Stop is the MY button; a moving motor treats it as stop.
const Stop = My

type commandDefinition struct {
	name   string
	nibble byte
}

var commandDefinitions = map[Command]commandDefinition{
	My:       {name: "My", nibble: 0x1},
	Up:       {name: "Up", nibble: 0x2},
	MyUp:     {name: "MyUp", nibble: 0x3},
	Down:     {name: "Down", nibble: 0x4},
	MyDown:   {name: "MyDown", nibble: 0x5},
	UpDown:   {name: "UpDown", nibble: 0x6},
	MyUpDown: {name: "MyUpDown", nibble: 0x7},
	Prog:     {name: "Prog", nibble: 0x8},
	WindSun:  {name: "WindSun", nibble: 0x9},
	WindOnly: {name: "WindOnly", nibble: 0xA},
}

func (c Command) Nibble() (byte, bool) {
	def, found := commandDefinitions[c]
	return def.nibble, found
}

func (c Command) String() string {
	if def, found := commandDefinitions[c]; found {
		return def.name
	}

	return fmt.Sprintf("Command(%d)", uint8(c))
}

// CommandFromNibble maps a control nibble read off a frame back onto a Command.
func CommandFromNibble(n byte) (Command, bool) {
	for cmd, def := range commandDefinitions {
		if def.nibble == n {
			return cmd, true
		}
	}

	return 0, false
}
