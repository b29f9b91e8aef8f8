package tool

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/hupe1980/agentgraph/core"
)

// ParseArguments decodes the raw JSON argument string of a tool call. Models
// occasionally emit truncated or sloppy JSON; on a syntax error the input is
// repaired and decoded again.
func ParseArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}

	var args map[string]any

	err := json.Unmarshal([]byte(raw), &args)
	if err == nil {
		if args == nil {
			args = map[string]any{}
		}

		return args, nil
	}

	if _, ok := err.(*json.SyntaxError); !ok {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}

	fixed, rerr := jsonrepair.JSONRepair(raw)
	if rerr != nil {
		return nil, fmt.Errorf("repair tool arguments: %w", rerr)
	}

	if err := json.Unmarshal([]byte(fixed), &args); err != nil {
		return nil, fmt.Errorf("decode repaired tool arguments: %w", err)
	}

	if args == nil {
		args = map[string]any{}
	}

	return args, nil
}

// DecodeCall builds a tool call from the model's raw argument text. Text
// that does not decode to an object is kept in RawArguments and reported
// back to the model by the dispatcher.
func DecodeCall(id, name, raw string) core.ToolCall {
	args, err := ParseArguments(raw)
	if err != nil {
		return core.ToolCall{ID: id, Name: name, RawArguments: raw}
	}

	return core.ToolCall{ID: id, Name: name, Arguments: args}
}

// CallArguments returns the argument text to send back to a provider.
func CallArguments(c core.ToolCall) string {
	if c.RawArguments != "" {
		return c.RawArguments
	}

	return FormatArguments(c.Arguments)
}

// FormatArguments encodes arguments back into the JSON string form providers expect.
func FormatArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}

	return string(data)
}
