package dispatch

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/kittclouds/gmgen/pkg/diag"
	"github.com/kittclouds/gmgen/pkg/errs"
	"github.com/kittclouds/gmgen/pkg/generator"
	"github.com/kittclouds/gmgen/pkg/value"
)

// maxCount bounds the count argument of generate.
const maxCount = 10000

// Engine dispatches action requests to a generator.
// It accepts raw JSON, validates the structure, dispatches each action,
// and returns a JSON response.
type Engine struct {
	gen *generator.Generator
	log *diag.Logger
}

// NewEngine creates a dispatch engine over gen. A nil logger uses
// diag.Default().
func NewEngine(gen *generator.Generator, log *diag.Logger) *Engine {
	if log == nil {
		log = diag.Default()
	}
	return &Engine{gen: gen, log: log}
}

// Execute processes a raw JSON request and returns a JSON response. Only a
// malformed envelope fails the call; failed actions are reported in their
// results.
func (e *Engine) Execute(reqJSON []byte) ([]byte, error) {
	var req Request
	if err := json.Unmarshal(reqJSON, &req); err != nil {
		return nil, e.log.Fail(fmt.Errorf("dispatch: invalid request JSON: %w", err))
	}

	resp := Response{Results: make([]ActionResult, len(req.Actions))}
	for i, action := range req.Actions {
		resp.Results[i] = e.dispatch(action)
	}
	return json.Marshal(resp)
}

// dispatch routes a single action to the generator.
func (e *Engine) dispatch(action Action) ActionResult {
	result := ActionResult{
		Op:     action.Op,
		SaveAs: action.SaveAs,
	}
	e.log.Debug("dispatching action", zap.String("op", action.Op))

	var err error
	var output []string

	switch action.Op {

	case "generate":
		var args ArgsGenerate
		if err = decodeArgs(action.Args, &args); err != nil {
			break
		}
		output, err = e.generate(args)

	case "step":
		var args ArgsGenerate
		if err = decodeArgs(action.Args, &args); err != nil {
			break
		}
		var t generator.Template
		if t, err = generator.ParseTemplate(args.Template); err != nil {
			break
		}
		var s string
		if s, err = e.gen.Step(t); err == nil {
			output = []string{s}
		}

	case "missing":
		var args ArgsMissing
		if err = decodeArgs(action.Args, &args); err != nil {
			break
		}
		var t generator.Template
		if t, err = generator.ParseTemplate(args.Template); err != nil {
			break
		}
		output, err = e.gen.FindMissingValues(t, args.Iterations)

	case "overlaps":
		output = e.gen.OverlappingDefinitions()

	case "unreferenced":
		output = e.gen.UnreferencedKeys()

	case "cycles":
		output = e.gen.ReferenceCycles()

	case "define":
		var args ArgsDefine
		if err = decodeArgs(action.Args, &args); err != nil {
			break
		}
		if args.Key == "" {
			err = fmt.Errorf("%w: define needs a key", errs.ErrMalformedInput)
			break
		}
		e.gen.Define(args.Key, args.Value)

	case "set_value":
		var args ArgsSetValue
		if err = decodeArgs(action.Args, &args); err != nil {
			break
		}
		if args.Key == "" {
			err = fmt.Errorf("%w: set_value needs a key", errs.ErrMalformedInput)
			break
		}
		err = e.gen.SetValueMap(args.Key, args.Value)

	case "set_option":
		var args ArgsOption
		if err = decodeArgs(action.Args, &args); err != nil {
			break
		}
		err = e.gen.SetOption(args.Name, args.Value)

	case "add_data":
		var args ArgsData
		if err = decodeArgs(action.Args, &args); err != nil {
			break
		}
		err = e.gen.AddData(args.Data)

	default:
		err = fmt.Errorf("unknown op: %q", action.Op)
	}

	if err != nil {
		result.OK = false
		result.Error = err.Error()
		return result
	}

	result.OK = true
	result.Output = output

	// save_as stores the first output line as one literal item.
	if action.SaveAs != "" {
		if len(output) == 0 {
			result.Error = "op succeeded but produced nothing to save"
			return result
		}
		item := []value.Item{{Value: output[0], Weight: 1}}
		if storeErr := e.gen.SetValueMap(action.SaveAs, item); storeErr != nil {
			result.Error = fmt.Sprintf("op succeeded but save_as failed: %v", storeErr)
		}
	}

	return result
}

func (e *Engine) generate(args ArgsGenerate) ([]string, error) {
	t, err := generator.ParseTemplate(args.Template)
	if err != nil {
		return nil, err
	}
	n := args.Count
	switch {
	case n == 0:
		n = 1
	case n < 0 || n > maxCount:
		return nil, fmt.Errorf("%w: count must be between 1 and %d, got %d", errs.ErrMalformedInput, maxCount, n)
	}
	return e.gen.GenerateN(t, n)
}

// decodeArgs unmarshals raw into dst. Absent args leave dst zero.
func decodeArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: bad args: %v", errs.ErrMalformedInput, err)
	}
	return nil
}
