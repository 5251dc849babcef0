// Package cmdutil provides shared utilities for tectl commands.
package cmdutil

import (
	"context"
	"fmt"
	"os"

	"github.com/grayhill/touchencoder/internal/cli/prompt"
	"github.com/grayhill/touchencoder/internal/metrics"
	"github.com/grayhill/touchencoder/pkg/config"
	"github.com/grayhill/touchencoder/pkg/discovery"
	"github.com/grayhill/touchencoder/pkg/te"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigPath string
	Device     string
	Bus        []string
	Universal  bool
	Output     string
	NoColor    bool
	Verbose    bool
}

// LoadConfig loads configuration from Flags.ConfigPath, then layers the
// --bus/--universal flag overrides on top, matching dittofsctl's "flags
// override stored config" precedence.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(Flags.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if len(Flags.Bus) > 0 {
		cfg.CAN.BusNames = Flags.Bus
	}
	if Flags.Universal {
		cfg.CAN.Universal = true
	}
	return cfg, nil
}

// DiscoverSessions runs a discovery pass using cfg, optionally recording
// metrics reg. Callers are responsible for disconnecting every returned
// session when done.
func DiscoverSessions(ctx context.Context, cfg *config.Config, m *metrics.Metrics) []te.Session {
	return discovery.Discover(ctx, cfg, m)
}

// SelectSession resolves Flags.Device against sessions: an exact
// InterfaceID match if --device was given, the sole entry if there's only
// one, or an interactive prompt.Select otherwise - mirroring switch_user's
// "use the flag if given, else prompt" pattern.
func SelectSession(sessions []te.Session) (te.Session, error) {
	if len(sessions) == 0 {
		return nil, fmt.Errorf("no touch encoders found")
	}

	if Flags.Device != "" {
		for _, s := range sessions {
			if s.InterfaceID() == Flags.Device {
				return s, nil
			}
		}
		return nil, fmt.Errorf("no touch encoder with interface id %q", Flags.Device)
	}

	if len(sessions) == 1 {
		return sessions[0], nil
	}

	options := make([]prompt.SelectOption, len(sessions))
	for i, s := range sessions {
		hw := "unknown hardware"
		if info := s.Info(); info != nil {
			hw = info.Hardware.String()
		}
		options[i] = prompt.SelectOption{
			Label:       s.InterfaceID(),
			Value:       s.InterfaceID(),
			Description: hw,
		}
	}
	chosen, err := prompt.Select("Select a touch encoder", options)
	if err != nil {
		return nil, HandleAbort(err)
	}
	for _, s := range sessions {
		if s.InterfaceID() == chosen {
			return s, nil
		}
	}
	return nil, fmt.Errorf("selection %q not found", chosen)
}

// DisconnectAll disconnects every session, logging nothing - callers that
// care about individual failures should disconnect explicitly instead.
func DisconnectAll(sessions []te.Session) {
	for _, s := range sessions {
		_ = s.Disconnect()
	}
}

// HandleAbort converts a user-cancelled prompt into a quiet, non-error exit,
// matching dfsctl's cmdutil.HandleAbort contract.
func HandleAbort(err error) error {
	if prompt.IsAborted(err) {
		fmt.Fprintln(os.Stderr, "Aborted.")
		os.Exit(0)
	}
	return err
}
