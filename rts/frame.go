package rts

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

type FrameError string

func (e FrameError) Error() string {
	return string(e)
}

const (
	ErrEncodingPrecondition = FrameError("frame encoding precondition failed")
	ErrMalformedFrame       = FrameError("malformed frame")
	ErrChecksumMismatch     = FrameError("frame checksum mismatch")
)

var (
	ErrUnknownCommand = fmt.Errorf("%w: unknown command", ErrEncodingPrecondition)
	ErrInvalidAddress = fmt.Errorf("%w: empty address", ErrEncodingPrecondition)
)

// Prefix instructs the CUL firmware to transmit the following payload as an RTS frame.
const Prefix = "Ys"

// Terminator ends every line written to the CUL.
const Terminator = '\n'

// PayloadLength is the number of hex characters between Prefix and Terminator.
const PayloadLength = 14

const (
	keyOffset      = 1
	commandOffset  = 2
	checksumOffset = 3
	codeOffset     = 4
	addressOffset  = 8
)

// Frame is the decoded content of an RTS payload.
type Frame struct {
	Key     uint8
	Command Command
	Code    uint16
	Address string
}

// Encode renders a command into the bytes written to the CUL: "Ys" + AK C X RRRR SSSSSS + "\n",
// where X is the checksum over the payload.
func Encode(cmd Command, key uint8, code uint16, address string) ([]byte, error) {
	nibble, found := cmd.Nibble()
	if !found {
		return nil, fmt.Errorf("%w %d", ErrUnknownCommand, uint8(cmd))
	}

	if key > 0xF {
		return nil, fmt.Errorf("%w: key %d exceeds a nibble", ErrEncodingPrecondition, key)
	}

	if len(address) == 0 {
		return nil, ErrInvalidAddress
	}

	payload := []byte(fmt.Sprintf("A%01X%01X0%04X%s", key, nibble, code, address))
	payload[checksumOffset] = hexDigit(Checksum(payload))

	frame := make([]byte, 0, len(Prefix)+len(payload)+1)
	frame = append(frame, Prefix...)
	frame = append(frame, payload...)
	frame = append(frame, Terminator)

	return frame, nil
}

// Checksum folds every byte of the payload as b ^ (b >> 4) and keeps the low nibble. The checksum
// position must hold '0' when it is calculated.
func Checksum(payload []byte) byte {
	var checksum byte

	for _, b := range payload {
		checksum = checksum ^ b ^ (b >> 4)
	}

	return checksum & 0xF
}

// Decode parses a frame produced by Encode, with or without the prefix and terminator, and verifies
// its checksum. Hex digits are accepted in either case.
func Decode(data []byte) (Frame, error) {
	data = bytes.TrimSuffix(data, []byte{Terminator})
	data = bytes.TrimPrefix(data, []byte(Prefix))

	if len(data) != PayloadLength {
		return Frame{}, fmt.Errorf("%w: payload length %d", ErrMalformedFrame, len(data))
	}

	payload := []byte(strings.ToUpper(string(data)))

	if payload[0] != 'A' {
		return Frame{}, fmt.Errorf("%w: key prefix %q", ErrMalformedFrame, payload[0])
	}

	key, err := strconv.ParseUint(string(payload[keyOffset:commandOffset]), 16, 8)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: key: %v", ErrMalformedFrame, err)
	}

	nibble, err := strconv.ParseUint(string(payload[commandOffset:checksumOffset]), 16, 8)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: command: %v", ErrMalformedFrame, err)
	}

	cmd, found := CommandFromNibble(byte(nibble))
	if !found {
		return Frame{}, fmt.Errorf("%w: unknown command nibble %X", ErrMalformedFrame, nibble)
	}

	received, err := strconv.ParseUint(string(payload[checksumOffset:codeOffset]), 16, 8)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: checksum: %v", ErrMalformedFrame, err)
	}

	code, err := strconv.ParseUint(string(payload[codeOffset:addressOffset]), 16, 16)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: rolling code: %v", ErrMalformedFrame, err)
	}

	if _, err := strconv.ParseUint(string(payload[addressOffset:]), 16, 32); err != nil {
		return Frame{}, fmt.Errorf("%w: address: %v", ErrMalformedFrame, err)
	}

	verify := make([]byte, len(data))
	copy(verify, data)
	verify[checksumOffset] = '0'

	if calculated := Checksum(verify); calculated != byte(received) {
		return Frame{}, fmt.Errorf("%w: received %X, calculated %X", ErrChecksumMismatch, received, calculated)
	}

	return Frame{
		Key:     uint8(key),
		Command: cmd,
		Code:    uint16(code),
		Address: string(data[addressOffset:]),
	}, nil
}

func hexDigit(n byte) byte {
	return "0123456789ABCDEF"[n&0xF]
}
