package exporter

import (
	"github.com/shimmeringbee/somfycul/cover"
)

const (
	HeartBeatMessageName   = "HeartBeat"
	CoverUpdateMessageName = "CoverUpdate"
)

type Message struct {
	Type string
}

func (m Message) MessageType() string {
	return m.Type
}

type Typer interface {
	MessageType() string
}

type HeartBeatMessage struct {
	Message
}

func NewHeartBeatMessage() HeartBeatMessage {
	return HeartBeatMessage{Message: Message{Type: HeartBeatMessageName}}
}

type CoverUpdateMessage struct {
	Message
	Identifier string
	State      ExportedCoverState
}

func ExportUpdate(u cover.Update) CoverUpdateMessage {
	return CoverUpdateMessage{
		Message:    Message{Type: CoverUpdateMessageName},
		Identifier: u.Identifier,
		State:      ExportStatus(u.Status),
	}
}
