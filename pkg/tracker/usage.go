package tracker

import (
	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
)

// DefaultThresholdPct is the usage percentage at which the rule is disabled.
const DefaultThresholdPct = 95.0

// BytesToGB converts a vendor byte counter to gigabytes.
func BytesToGB(bytes float64) float64 {
	return bytes / cloud.BytesPerGB
}

// Evaluate compares traffic against the cap. UsagePct is rounded to two
// decimals and is 0 when the cap is not positive.
func Evaluate(trafficGB, capGB, thresholdPct float64) model.Assessment {
	a := model.Assessment{
		TrafficGB:    trafficGB,
		CapGB:        capGB,
		ThresholdPct: thresholdPct,
	}
	if capGB > 0 && trafficGB > 0 {
		a.UsagePct = model.Round2(trafficGB / capGB * 100)
	}
	a.OverThreshold = a.UsagePct >= thresholdPct
	return a
}
