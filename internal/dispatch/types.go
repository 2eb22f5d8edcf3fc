// Package dispatch runs batches of generator operations described by a JSON
// envelope. Each action is dispatched in order against one engine, and every
// action reports its own outcome.
package dispatch

import (
	"encoding/json"
)

// ---------------------------------------------------------------------------
// Request / Response contracts
// ---------------------------------------------------------------------------

// Request is the incoming dispatch envelope.
type Request struct {
	Actions []Action `json:"actions"`
}

// Action is a single engine operation.
type Action struct {
	Op     string          `json:"op"`
	Args   json.RawMessage `json:"args"`    // op-specific arguments
	SaveAs string          `json:"save_as"` // value-map key for the first output line
}

// Response is the outgoing dispatch envelope.
type Response struct {
	Results []ActionResult `json:"results"`
}

// ActionResult captures the outcome of a single action.
type ActionResult struct {
	Op     string   `json:"op"`
	SaveAs string   `json:"save_as,omitempty"`
	OK     bool     `json:"ok"`
	Error  string   `json:"error,omitempty"`
	Output []string `json:"output,omitempty"`
}

// ---------------------------------------------------------------------------
// Op-specific argument structs
// ---------------------------------------------------------------------------

// ArgsGenerate is the argument set for generate and step. Template accepts
// everything generator.ParseTemplate does; absent means the loaded pool.
type ArgsGenerate struct {
	Template any `json:"template"`
	Count    int `json:"count,omitempty"`
}

// ArgsMissing is the argument set for missing.
type ArgsMissing struct {
	Template   any `json:"template"`
	Iterations int `json:"iterations,omitempty"`
}

// ArgsDefine is the argument set for define.
type ArgsDefine struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ArgsSetValue is the argument set for set_value. Value accepts every shape
// value.Prep does.
type ArgsSetValue struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// ArgsOption is the argument set for set_option.
type ArgsOption struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ArgsData is the argument set for add_data: one bundle, a list of bundles
// or a map of bundles.
type ArgsData struct {
	Data any `json:"data"`
}
