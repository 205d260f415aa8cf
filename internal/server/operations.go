package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ironsheep/compositor-mcp/internal/convolve"
	"github.com/ironsheep/compositor-mcp/internal/linalg"
	"github.com/ironsheep/compositor-mcp/internal/logging"
	"github.com/ironsheep/compositor-mcp/internal/pipeline"
	"github.com/ironsheep/compositor-mcp/internal/raster"
)

const operationToolPrefix = "image_"

// lookupOperationTool maps a tool name such as "image_gaussian_blur" to its
// pipeline operation.
func lookupOperationTool(tool string) (pipeline.Operation, bool) {
	name, ok := strings.CutPrefix(tool, operationToolPrefix)
	if !ok {
		return pipeline.Operation{}, false
	}
	return pipeline.Lookup(name)
}

// opArgs are the arguments shared by every operation tool. Input slot names
// are read separately because their keys depend on the operation.
type opArgs struct {
	pipeline.Params

	// Tint shadows Params.Tint so it can be given as a hex string.
	Tint colorArg `json:"tint"`

	Output string `json:"output"`
	Stage  bool   `json:"stage"`
}

type operationResult struct {
	Op string `json:"op"`
	SlotInfo
	Inputs    []string `json:"inputs"`
	Committed bool     `json:"committed"`
	ElapsedMS int64    `json:"elapsed_ms"`

	// Warning reports a numerical problem in a result that was still kept.
	Warning string `json:"warning,omitempty"`
}

// handleOperation runs a pipeline operation on the worker. The result is
// written into the output slot's staging image and committed unless stage
// is set, so an input slot may also be the output.
func (s *Server) handleOperation(ctx context.Context, op pipeline.Operation, args json.RawMessage) (interface{}, error) {
	a := opArgs{Params: pipeline.DefaultParams()}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	a.Params.Tint = a.Tint.or(a.Params.Tint)

	names, err := inputSlotNames(op, args)
	if err != nil {
		return nil, err
	}
	inputs := make([]*raster.Image, len(names))
	for i, name := range names {
		buf, err := s.slot(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op.Name, err)
		}
		inputs[i] = buf.Current()
	}

	if a.Output == "" && len(names) > 0 {
		a.Output = names[0]
	}
	if a.Width != 0 || a.Height != 0 {
		if err := raster.CheckDimensions(a.Width, a.Height, s.cfg.MaxPixels); err != nil {
			return nil, fmt.Errorf("%s: %w", op.Name, err)
		}
	}
	buf, err := s.slotForWrite(a.Output)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := operationResult{Op: op.Name, Inputs: names}
	err = s.worker.Do(ctx, pipeline.Op{
		Name:   op.Name,
		Inputs: inputs,
		Output: buf.Staging(),
		Params: a.Params,
	})
	res.ElapsedMS = time.Since(start).Milliseconds()
	if err != nil {
		if !degraded(err) {
			// Staging may be partly written.
			buf.Discard()
			return nil, err
		}
		res.Warning = err.Error()
		logging.Logger().Warn("keeping degraded result", "op", op.Name, "output", a.Output, "error", err)
	}

	buf.MarkStaged()
	res.SlotInfo = s.finish(a.Output, buf, a.Stage)
	res.Committed = !a.Stage
	return res, nil
}

// degraded reports whether err describes a numerically poor result that was
// still written in full.
func degraded(err error) bool {
	return errors.Is(err, linalg.ErrSingular) || errors.Is(err, convolve.ErrIllConditioned)
}

// inputSlotNames reads the slot names for op's inputs from args. A repeating
// last input is given as an array of names.
func inputSlotNames(op pipeline.Operation, args json.RawMessage) ([]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(args, &raw); err != nil {
		return nil, err
	}

	var names []string
	for i, key := range op.Inputs {
		v, ok := raw[key]
		if !ok {
			if i < op.MinInputs {
				return nil, fmt.Errorf("%s: missing input %q", op.Name, key)
			}
			continue
		}
		if op.MaxInputs < 0 && i == len(op.Inputs)-1 {
			var list []string
			if err := json.Unmarshal(v, &list); err != nil {
				return nil, fmt.Errorf("%s: input %q must be an array of slot names: %w", op.Name, key, err)
			}
			names = append(names, list...)
			continue
		}
		var name string
		if err := json.Unmarshal(v, &name); err != nil {
			return nil, fmt.Errorf("%s: input %q must be a slot name: %w", op.Name, key, err)
		}
		names = append(names, name)
	}
	return names, nil
}
