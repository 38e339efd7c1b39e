package tools

import (
	"context"
	"time"

	"github.com/mathisarends/rtvoice/pkg/bus"
)

// GetCurrentTimeArgs is the (empty) argument struct for get_current_time.
type GetCurrentTimeArgs struct{}

// StopSessionArgs is the (empty) argument struct for stop_session.
type StopSessionArgs struct{}

// AdjustVolumeArgs carries the one parameter adjust_volume accepts.
type AdjustVolumeArgs struct {
	Level float64 `json:"level" description:"desired output volume, 0 to 1"`
}

// RegisterDefaults installs the always-available tools named in spec §4.9:
// get_current_time and stop_session. adjust_volume is additionally
// registered — a feature supplemented from original_source's
// _register_default_tools, see SPEC_FULL.md.
func RegisterDefaults(r *Registry) error {
	if err := Register(r, "get_current_time", "Returns the current UTC time in RFC3339 format.",
		func(_ *Context, _ GetCurrentTimeArgs) (any, error) {
			return time.Now().UTC().Format(time.RFC3339), nil
		}); err != nil {
		return err
	}

	if err := Register(r, "stop_session", "Stops the current voice session.",
		func(ctx *Context, _ StopSessionArgs) (any, error) {
			bus.Dispatch(context.Background(), ctx.Bus, bus.StopAgent{})
			return nil, nil
		}, WithSuppressResponse()); err != nil {
		return err
	}

	if err := Register(r, "adjust_volume", "Adjusts the assistant's output volume, 0 (mute) to 1 (full).",
		func(ctx *Context, args AdjustVolumeArgs) (any, error) {
			level := args.Level
			if level < 0 {
				level = 0
			}
			if level > 1 {
				level = 1
			}
			bus.Dispatch(context.Background(), ctx.Bus, bus.VolumeUpdateRequested{Level: level})
			return nil, nil
		}); err != nil {
		return err
	}

	return nil
}
