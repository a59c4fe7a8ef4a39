package appmessage

import (
	"encoding/json"
	"testing"
)

func TestSmartRewardsResponseResult(t *testing.T) {
	check := &RewardsCheck{Address: "SXun9XDHLdBhG4Yd1ueZfLfRpC9kZgwT1b", Balance: 1.5, Eligible: true}
	response := &SmartRewardsResponseMessage{Check: check}
	if response.Result() != check {
		t.Fatalf("Result: got %v, want the check result", response.Result())
	}

	response.Error = RPCErrorf(RPCErrorBusy, "Rewards database is busy..Try it again!")
	if response.Result() != response.Error {
		t.Fatalf("Result: the error does not take precedence")
	}
	if !response.Error.IsTransient() {
		t.Fatalf("busy errors must be transient")
	}

	history := &SmartRewardsResponseMessage{History: []*RewardsClosedRound{{
		RewardsCycle: 1,
		Payouts:      &RewardsPayoutSummary{Error: "No payees were eligible for this round"},
	}}}
	serialized, err := json.Marshal(history.Result())
	if err != nil {
		t.Fatalf("Marshal: %s", err)
	}
	var decoded []map[string]interface{}
	err = json.Unmarshal(serialized, &decoded)
	if err != nil {
		t.Fatalf("Unmarshal: %s", err)
	}
	payouts := decoded[0]["payouts"].(map[string]interface{})
	if len(payouts) != 1 || payouts["error"] != "No payees were eligible for this round" {
		t.Fatalf("unexpected payout summary %v", payouts)
	}
	if decoded[0]["rewards_cycle"] != 1.0 {
		t.Fatalf("unexpected rewards_cycle %v", decoded[0]["rewards_cycle"])
	}
}

func TestSmartRewardsRequestCommand(t *testing.T) {
	var request SmartRewardsRequestMessage
	err := json.Unmarshal([]byte(`{"command":"payouts","arguments":["3"],"ignoreSync":true}`), &request)
	if err != nil {
		t.Fatalf("Unmarshal: %s", err)
	}
	if request.SubCommand != "payouts" || len(request.Arguments) != 1 || request.Arguments[0] != "3" {
		t.Fatalf("unexpected request %+v", request)
	}
	if !request.IgnoreSync {
		t.Fatalf("ignoreSync was not decoded")
	}

	var message Message = &request
	if message.Command() != CmdSmartRewardsRequestMessage {
		t.Fatalf("Command: got %s, want %s", message.Command(), CmdSmartRewardsRequestMessage)
	}
	if NewSmartRewardsRequestMessage("current").Command() != CmdSmartRewardsRequestMessage {
		t.Fatalf("the constructor built a message of another command")
	}
}
