package rpc

import (
	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/app/appmessage"
	"github.com/smartcash/smartrewardsd/app/rpc/rpccontext"
	"github.com/smartcash/smartrewardsd/app/rpc/rpchandlers"
)

type handler func(context *rpccontext.Context, request appmessage.Message) (appmessage.Message, error)

var handlers = map[appmessage.MessageCommand]handler{
	appmessage.CmdSmartRewardsRequestMessage: rpchandlers.HandleSmartRewards,
}

// HandleRequest dispatches request to the handler of its command.
func (m *Manager) HandleRequest(request appmessage.Message) (appmessage.Message, error) {
	handler, ok := handlers[request.Command()]
	if !ok {
		return nil, errors.Errorf("no handler for command %s", request.Command())
	}
	log.Debugf("Handling %s", request.Command())
	response, err := handler(m.context, request)
	if err != nil {
		return nil, err
	}
	log.Debugf("Handled %s with %s", request.Command(), response.Command())
	return response, nil
}
