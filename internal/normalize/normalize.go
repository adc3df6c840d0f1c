// Package normalize maps raw backend result payloads into the canonical
// verdict. Two payload shapes are observed in the wild; both collapse
// into one internal representation selected by field sniffing.
package normalize

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/Sravan1011/Clamify/internal/model"
)

// Shape A threshold rules: truth_probability >= 60 is verified,
// <= 40 is debunked, anything between stays uncertain.
const (
	verifiedThreshold = 60
	debunkedThreshold = 40
)

// rawPayload covers the union of both result shapes. RawMessage fields
// defer decoding until the shape is known.
type rawPayload struct {
	Claim            string          `json:"claim"`
	Verdict          string          `json:"verdict"`
	ConfidenceScore  *float64        `json:"confidence_score"`
	TruthProbability *float64        `json:"truth_probability"`
	VerdictText      string          `json:"verdict_text"`
	ConfidenceLevel  string          `json:"confidence_level"`
	Summary          string          `json:"summary"`
	Sources          json.RawMessage `json:"sources"`
	Forensics        json.RawMessage `json:"forensic_analysis"`
	ProcessingTime   string          `json:"processing_time"`
	DownloadURL      string          `json:"download_url"`
}

type rawSourceGroup struct {
	Title       string          `json:"title"`
	URL         string          `json:"url"`
	Reliability float64         `json:"reliability"`
	Results     []rawSourceItem `json:"results"`
}

type rawSourceItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type rawForensics struct {
	Verdict        string       `json:"verdict"`
	IntegrityScore float64      `json:"integrity_score"`
	AIProbability  float64      `json:"ai_probability"`
	AIIndicators   []string     `json:"ai_indicators"`
	Penalties      []rawPenalty `json:"penalties"`
}

// rawPenalty accepts both wire forms: a ["flag", score] tuple and a
// {"name": ..., "score": ...} object.
type rawPenalty struct {
	Flag  string
	Score float64
}

func (p *rawPenalty) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err == nil {
		if len(tuple) != 2 {
			return fmt.Errorf("penalty tuple has %d elements, want 2", len(tuple))
		}
		if err := json.Unmarshal(tuple[0], &p.Flag); err != nil {
			return fmt.Errorf("penalty flag: %w", err)
		}
		if err := json.Unmarshal(tuple[1], &p.Score); err != nil {
			return fmt.Errorf("penalty score: %w", err)
		}
		return nil
	}

	var obj struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("penalty entry: %w", err)
	}
	p.Flag = obj.Name
	p.Score = obj.Score
	return nil
}

// Normalize maps a raw terminal payload into the canonical verdict.
// claimText is the original user submission, used when the payload
// omits its own claim field. The function is pure: the same payload
// always yields an identical verdict.
func Normalize(raw []byte, claimText string) (*model.Verdict, error) {
	var p rawPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &model.ShapeError{Msg: fmt.Sprintf("result payload is not valid JSON: %v", err)}
	}

	claim := strings.TrimSpace(p.Claim)
	if claim == "" {
		claim = strings.TrimSpace(claimText)
	}
	if claim == "" {
		return nil, &model.ShapeError{Msg: "result payload is missing a claim"}
	}

	switch {
	case p.TruthProbability != nil:
		return normalizeShapeA(&p, claim)
	case categoricalLabel(p.Verdict) != "":
		return normalizeShapeB(&p, claim)
	default:
		return nil, &model.ShapeError{Msg: "result payload matches no known shape: no truth_probability and no categorical verdict"}
	}
}

// normalizeShapeA handles the streaming backend's full result: a 0-100
// truth probability, threshold-derived label (verdict_text overrides),
// nested source groups, and a structured forensic block.
func normalizeShapeA(p *rawPayload, claim string) (*model.Verdict, error) {
	prob := clampPercent(*p.TruthProbability)

	var label model.Label
	switch {
	case strings.TrimSpace(p.VerdictText) != "":
		// Backend authority wins over the client threshold heuristic.
		label = model.Label(strings.TrimSpace(p.VerdictText))
	case prob >= verifiedThreshold:
		label = model.LabelVerified
	case prob <= debunkedThreshold:
		label = model.LabelDebunked
	default:
		label = model.LabelUncertain
	}

	v := &model.Verdict{
		Claim:            claim,
		Label:            label,
		TruthProbability: &prob,
		ConfidenceLevel:  p.ConfidenceLevel,
		Summary:          p.Summary,
		ProcessingTime:   p.ProcessingTime,
		ReportURL:        p.DownloadURL,
	}
	if p.ConfidenceScore != nil {
		v.ConfidenceScore = unitScore(*p.ConfidenceScore)
	}

	if len(p.Sources) > 0 {
		var groups []rawSourceGroup
		if err := json.Unmarshal(p.Sources, &groups); err != nil {
			return nil, &model.ShapeError{Msg: fmt.Sprintf("malformed sources: %v", err)}
		}
		v.Sources = flattenGroups(groups)
	}

	if len(p.Forensics) > 0 && !isJSONNull(p.Forensics) {
		f, err := parseForensics(p.Forensics)
		if err != nil {
			return nil, err
		}
		v.Forensics = f
	}

	return v, nil
}

// normalizeShapeB handles the compact result: a categorical verdict, a
// 0-100 confidence score, and an already-flat source list. No truth
// probability exists in this shape and none is fabricated.
func normalizeShapeB(p *rawPayload, claim string) (*model.Verdict, error) {
	v := &model.Verdict{
		Claim:           claim,
		Label:           categoricalLabel(p.Verdict),
		ConfidenceLevel: p.ConfidenceLevel,
		Summary:         p.Summary,
		ProcessingTime:  p.ProcessingTime,
		ReportURL:       p.DownloadURL,
	}
	if p.ConfidenceScore != nil {
		v.ConfidenceScore = unitScore(*p.ConfidenceScore)
	}

	if len(p.Sources) > 0 {
		var items []rawSourceGroup
		if err := json.Unmarshal(p.Sources, &items); err != nil {
			return nil, &model.ShapeError{Msg: fmt.Sprintf("malformed sources: %v", err)}
		}
		v.Sources = passthroughFlat(items)
	}

	// Shape B carries forensic_analysis as free text. It is surfaced
	// verbatim; a structured forensic block is never fabricated from it.
	if len(p.Forensics) > 0 && !isJSONNull(p.Forensics) {
		var note string
		if err := json.Unmarshal(p.Forensics, &note); err == nil {
			v.ForensicNote = strings.TrimSpace(note)
		}
	}

	return v, nil
}

// categoricalLabel maps Shape B's verdict vocabulary onto the canonical
// enumeration. An empty result means the value is not categorical.
func categoricalLabel(verdict string) model.Label {
	switch strings.ToLower(strings.TrimSpace(verdict)) {
	case "true":
		return model.LabelVerified
	case "false":
		return model.LabelDebunked
	case "misleading":
		return model.LabelMisleading
	case "unverified":
		return model.LabelUnverified
	default:
		return ""
	}
}

// flattenGroups flattens nested result groups into one ordered sequence,
// retaining the originating group index for grouped display.
func flattenGroups(groups []rawSourceGroup) []model.Source {
	var out []model.Source
	for i, g := range groups {
		if len(g.Results) == 0 {
			// A group without nested results is itself a source entry.
			if g.URL != "" || g.Title != "" {
				out = append(out, model.Source{
					Title:       g.Title,
					URL:         g.URL,
					Host:        displayHost(g.URL),
					GroupIndex:  i,
					Reliability: unitScore(g.Reliability),
				})
			}
			continue
		}
		for _, r := range g.Results {
			out = append(out, model.Source{
				Title:      r.Title,
				URL:        r.URL,
				Host:       displayHost(r.URL),
				GroupIndex: i,
			})
		}
	}
	return out
}

// passthroughFlat keeps an already-flat source list unchanged apart
// from hostname derivation and reliability coercion into [0,1].
func passthroughFlat(items []rawSourceGroup) []model.Source {
	out := make([]model.Source, 0, len(items))
	for i, s := range items {
		out = append(out, model.Source{
			Title:       s.Title,
			URL:         s.URL,
			Host:        displayHost(s.URL),
			GroupIndex:  i,
			Reliability: unitScore(s.Reliability),
		})
	}
	return out
}

func parseForensics(raw json.RawMessage) (*model.Forensics, error) {
	var f rawForensics
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, &model.ShapeError{Msg: fmt.Sprintf("malformed forensic_analysis: %v", err)}
	}

	out := &model.Forensics{
		Verdict:        f.Verdict,
		IntegrityScore: unitScore(f.IntegrityScore),
		AIProbability:  unitScore(f.AIProbability),
		Indicators:     f.AIIndicators,
	}
	// Backend ordering already ranks severity; preserve it verbatim.
	for _, p := range f.Penalties {
		out.Penalties = append(out.Penalties, model.Penalty{Flag: p.Flag, Score: p.Score})
	}
	return out, nil
}

// displayHost derives a display hostname from a URL. An unparsable URL
// yields the raw string instead of failing.
func displayHost(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}

// unitScore coerces a score into [0,1]. Values above 1 are treated as
// percentages.
func unitScore(v float64) float64 {
	if v > 1 {
		v = v / 100
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampPercent bounds a truth probability to [0,100].
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
