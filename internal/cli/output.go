package cli

import (
	"github.com/fatih/color"
	"github.com/ogulcanaydogan/SafetyRing/pkg/engine"
	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	gray   = color.New(color.FgHiBlack)
)

func colorTier(tier model.RiskTier) string {
	switch tier {
	case model.TierHigh:
		return red.Sprint(tier)
	case model.TierModerate:
		return yellow.Sprint(tier)
	default:
		return green.Sprint(tier)
	}
}

func colorState(state engine.State) string {
	switch state {
	case engine.StateArming, engine.StateFiring:
		return red.Sprint(state)
	default:
		return green.Sprint(state)
	}
}

func colorBool(ok bool, yes, no string) string {
	if ok {
		return green.Sprint(yes)
	}
	return gray.Sprint(no)
}

func colorSent(sent bool) string {
	if sent {
		return green.Sprint("sent")
	}
	return yellow.Sprint("not sent")
}
