package main

import (
	"encoding/json"
	"fmt"

	"agentfirewall/internal/firewall"
)

// record is one line of newline-delimited JSON input to the harness. Hook
// selects which Firewall entry point to exercise; the remaining fields are
// interpreted according to Hook.
type record struct {
	Hook    string         `json:"hook"`
	Tool    string         `json:"tool,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
	Result  any            `json:"result,omitempty"`
	Message string         `json:"message,omitempty"`
}

// replay runs one record through fw and returns a JSON-serializable
// response describing what happened.
func replay(fw *firewall.Firewall, r record) (map[string]any, error) {
	switch r.Hook {
	case "before_tool_call":
		params, allowed, reason := fw.BeforeToolCall(r.Tool, r.Params)
		return map[string]any{
			"hook":    r.Hook,
			"tool":    r.Tool,
			"allowed": allowed,
			"reason":  reason,
			"params":  params,
		}, nil

	case "on_tool_result_persist":
		scrubbed := fw.OnToolResultPersist(r.Result)
		return map[string]any{
			"hook":   r.Hook,
			"result": scrubbed,
		}, nil

	case "on_message_sending":
		sanitized := fw.OnMessageSending(r.Message)
		return map[string]any{
			"hook":    r.Hook,
			"message": sanitized,
		}, nil

	case "prompt_hint":
		return map[string]any{
			"hook": r.Hook,
			"hint": fw.BuildAgentPromptHint(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown hook %q", r.Hook)
	}
}

func parseRecord(line []byte) (record, error) {
	var r record
	if err := json.Unmarshal(line, &r); err != nil {
		return record{}, fmt.Errorf("parsing record: %w", err)
	}
	return r, nil
}
