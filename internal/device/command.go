// Package device speaks the atom display's line protocol: one ASCII
// command per newline-terminated line, fire and forget, no replies.
package device

import (
	"fmt"
	"strings"

	"github.com/physlab/atomrig/internal/atom"
)

// Command is a single protocol line, without the trailing newline.
type Command string

const (
	ModeNormal  Command = "MODE:NORMAL"
	ModeRadioOn Command = "MODE:RADIO_ON"
	ModeBandOn  Command = "MODE:BAND_ON"
	DecayAlpha  Command = "DECAY:ALPHA"
	DecayBeta   Command = "DECAY:BETA"
)

// Conf encodes an electron-shell configuration for the ring.
func Conf(c atom.Config) Command {
	return Command("CONF:" + c.String())
}

// Speed encodes the orbit animation speed multiplier.
func Speed(v float64) Command {
	return Command(fmt.Sprintf("SPEED:%.1f", v))
}

// Color encodes the steady electron color.
func Color(r, g, b int) Command {
	return Command(fmt.Sprintf("COLOR:%d,%d,%d", r, g, b))
}

// Flash encodes a one-shot photon flash.
func Flash(r, g, b int) Command {
	return Command(fmt.Sprintf("FLASH:%d,%d,%d", r, g, b))
}

// Verb returns the part of the command before the colon, for metrics
// labels.
func (c Command) Verb() string {
	s := string(c)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return s
}
