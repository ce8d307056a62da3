package imagery

// Report counts how a set of references resolves
type Report struct {
	Total  int          `json:"total"`
	ByRule map[Rule]int `json:"by_rule"`
	// Broken lists references replaced by a fallback because their source is unreliable or missing
	Broken []string `json:"broken"`
}

// Audit resolves every reference and tallies the rule that handled it
func Audit(refs []string) Report {
	report := Report{ByRule: make(map[Rule]int), Broken: []string{}}
	for _, ref := range refs {
		_, rule := ResolveWithRule(ref)
		report.Total++
		report.ByRule[rule]++
		if rule == RuleDomainHash || rule == RulePlaceholder || rule == RuleFolderHash {
			report.Broken = append(report.Broken, ref)
		}
	}
	return report
}

// FallbackShare is the fraction of references that did not resolve to their own image
func (r Report) FallbackShare() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(len(r.Broken)) / float64(r.Total)
}

// AuditGalleries audits every image of every gallery. An empty gallery counts as one empty
// reference since it renders the default asset.
func AuditGalleries(galleries [][]string) Report {
	var refs []string
	for _, gallery := range galleries {
		if len(gallery) == 0 {
			refs = append(refs, "")
			continue
		}
		refs = append(refs, gallery...)
	}
	return Audit(refs)
}
