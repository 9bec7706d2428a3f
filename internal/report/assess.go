package report

import (
	"fmt"
	"strings"
)

// RangeStatus places a width relative to its reference range.
type RangeStatus string

const (
	RangeLow    RangeStatus = "below normal"
	RangeNormal RangeStatus = "within normal limits"
	RangeHigh   RangeStatus = "above normal"
)

// NoMeasurableVessels replaces the assessment when the vessel map yields no
// caliber estimate. Zero widths are a sentinel, not a narrowing.
const NoMeasurableVessels = "**No measurable vessels**\n\nThe vessel map produced too few width samples for a caliber estimate. No reference-range assessment was made."

// Assessment is the rule-based reading of the reference ranges. It is
// available even when the report service is down.
type Assessment struct {
	Arteriole   RangeStatus
	Venule      RangeStatus
	AtRisk      bool
	Indications []string
}

// RiskLabel returns the phrase used in the Risk Assessment section.
func (a Assessment) RiskLabel() string {
	if a.AtRisk {
		return "AT RISK"
	}
	return "NO SIGNIFICANT RISK"
}

// Assess applies the decision rules embedded in the prompt.
func Assess(arteriole, venule float64) Assessment {
	a := Assessment{
		Arteriole: classify(arteriole, NormalArterioleLow, NormalArterioleHigh),
		Venule:    classify(venule, NormalVenuleLow, NormalVenuleHigh),
	}
	a.AtRisk = a.Arteriole != RangeNormal || a.Venule != RangeNormal

	if a.Arteriole == RangeLow {
		a.Indications = append(a.Indications, "Arterial narrowing: hypertension risk")
	}
	if a.Venule == RangeHigh {
		a.Indications = append(a.Indications, "Venular dilation: stroke or ischemia risk")
	}
	if len(a.Indications) == 0 {
		if a.AtRisk {
			a.Indications = append(a.Indications, "Caliber outside the reference range without a specific indication rule.")
		} else {
			a.Indications = append(a.Indications, "No abnormal vascular indications detected.")
		}
	}
	return a
}

func classify(v, low, high float64) RangeStatus {
	switch {
	case v < low:
		return RangeLow
	case v > high:
		return RangeHigh
	default:
		return RangeNormal
	}
}

// MetricsMarkdown renders the measurement table shown next to the report.
func MetricsMarkdown(arteriole, venule float64) string {
	var b strings.Builder
	b.WriteString("### Vessel Measurements\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| :--- | :--- |\n")
	fmt.Fprintf(&b, "| **CRAE** | %s µm |\n", formatMicrons(arteriole))
	fmt.Fprintf(&b, "| **CRVE** | %s µm |", formatMicrons(venule))
	return b.String()
}

// AssessmentMarkdown renders an Assessment in the report's three-section shape.
func AssessmentMarkdown(a Assessment) string {
	var b strings.Builder
	b.WriteString("**Biometric Audit**\n\n")
	fmt.Fprintf(&b, "- CRAE is %s.\n", a.Arteriole)
	fmt.Fprintf(&b, "- CRVE is %s.\n\n", a.Venule)
	b.WriteString("**Risk Assessment**\n\n")
	fmt.Fprintf(&b, "%s\n\n", a.RiskLabel())
	b.WriteString("**Potential Indications**\n\n")
	for _, ind := range a.Indications {
		fmt.Fprintf(&b, "- %s\n", ind)
	}
	b.WriteString("\n")
	b.WriteString(MandatoryStatement)
	return b.String()
}
