package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Reference ranges in micrometers used by the prompt and by Assess.
const (
	NormalArterioleMean = 196.0
	NormalArterioleSD   = 13.0
	NormalArterioleLow  = 183.0
	NormalArterioleHigh = 209.0

	NormalVenuleMean = 220.0
	NormalVenuleSD   = 15.0
	NormalVenuleLow  = 205.0
	NormalVenuleHigh = 235.0
)

// MandatoryStatement closes every generated report.
const MandatoryStatement = "Clinical correlation and consultation with a qualified medical professional is required."

var promptTemplate = template.Must(template.New("clinical").Parse(`SYSTEM ROLE:
You are a Retinal Diagnostic AI.
You DO NOT ask questions.
You DO NOT request clarification.
You ONLY generate the report using the rules below.

ASSUMPTIONS:
- CRAE and CRVE values are already computed correctly.
- Reference ranges provided below are final and authoritative.

REFERENCE NORMAL VALUES:
- Normal CRAE: {{.ArterioleMean}} ± {{.ArterioleSD}} µm (Normal range: {{.ArterioleLow}}–{{.ArterioleHigh}} µm)
- Normal CRVE: {{.VenuleMean}} ± {{.VenuleSD}} µm (Normal range: {{.VenuleLow}}–{{.VenuleHigh}} µm)

PATIENT MEASUREMENTS:
- CRAE: {{.Arteriole}} µm
- CRVE: {{.Venule}} µm

DECISION RULES (STRICT):
1. If CRAE < {{.ArterioleLow}} µm → Arterial narrowing → Hypertension risk
2. If CRVE > {{.VenuleHigh}} µm → Venular dilation → Inflammation / Diabetes / Ischemia risk
3. If both CRAE and CRVE are within normal range → No significant retinal vascular risk
4. Any deviation outside normal range → Declare AT RISK

TASK:
Generate a **concise clinical report** with EXACTLY these three sections
and NO additional sections:

1. **Biometric Audit**
   - State whether CRAE and CRVE are within or outside normal limits.

2. **Risk Assessment**
   - Output ONLY one of the following phrases:
     - "AT RISK"
     - "NO SIGNIFICANT RISK"

3. **Potential Indications**
   - Mention Hypertension if CRAE is low
   - Mention Stroke or Ischemia if CRVE is high
   - If no abnormalities, state "No abnormal vascular indications detected."

MANDATORY STATEMENT:
End the report with:
"{{.Mandatory}}"

STYLE RULES:
- Formal clinical tone
- No conversational language
- No questions
- No explanations of methodology
- No disclaimers beyond the mandatory statement
`))

type promptData struct {
	Arteriole     string
	Venule        string
	ArterioleMean string
	ArterioleSD   string
	ArterioleLow  string
	ArterioleHigh string
	VenuleMean    string
	VenuleSD      string
	VenuleLow     string
	VenuleHigh    string
	Mandatory     string
}

// BuildPrompt renders the strict clinical-report prompt for both widths.
func BuildPrompt(arteriole, venule float64) (string, error) {
	data := promptData{
		Arteriole:     formatMicrons(arteriole),
		Venule:        formatMicrons(venule),
		ArterioleMean: formatMicrons(NormalArterioleMean),
		ArterioleSD:   formatMicrons(NormalArterioleSD),
		ArterioleLow:  formatMicrons(NormalArterioleLow),
		ArterioleHigh: formatMicrons(NormalArterioleHigh),
		VenuleMean:    formatMicrons(NormalVenuleMean),
		VenuleSD:      formatMicrons(NormalVenuleSD),
		VenuleLow:     formatMicrons(NormalVenuleLow),
		VenuleHigh:    formatMicrons(NormalVenuleHigh),
		Mandatory:     MandatoryStatement,
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// formatMicrons prints at most two decimals without trailing zeros.
func formatMicrons(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
