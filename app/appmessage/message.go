package appmessage

import (
	"fmt"
)

// MessageCommand is a number that represents the type of a message.
type MessageCommand uint32

func (cmd MessageCommand) String() string {
	cmdString, ok := RPCMessageCommandToString[cmd]
	if !ok {
		cmdString = "unknown command"
	}
	return fmt.Sprintf("%s [code %d]", cmdString, uint8(cmd))
}

// Commands of the messages served by the query surface.
const (
	CmdSmartRewardsRequestMessage MessageCommand = iota
	CmdSmartRewardsResponseMessage
)

// RPCMessageCommandToString maps all MessageCommands to their string representation
var RPCMessageCommandToString = map[MessageCommand]string{
	CmdSmartRewardsRequestMessage:  "SmartRewardsRequest",
	CmdSmartRewardsResponseMessage: "SmartRewardsResponse",
}

// Message is an interface that describes a query message.
type Message interface {
	Command() MessageCommand
}
