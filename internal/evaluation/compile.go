package evaluation

const reasonNotCompleted = "evaluation did not complete"

// Compile builds the ordered part of a report from gathered outcomes.
//
// Sections follow the order of traits, never the order results arrived in.
// Traits without a result are left out of the sections and listed as
// skipped. Coverage counts and the overall score only look at sections that
// exist: the overall score is the mean normalized score of the required
// sections, or 0 when there are none.
func Compile(traits []Trait, results []Result, failures []Failure) *Report {
	byPosition := make(map[int]Result, len(results))
	for _, r := range results {
		if r.Position < 0 || r.Position >= len(traits) || traits[r.Position].Name != r.TraitName {
			continue
		}
		if _, seen := byPosition[r.Position]; !seen {
			byPosition[r.Position] = r
		}
	}

	reasons := make(map[int]string, len(failures))
	for _, f := range failures {
		if _, seen := reasons[f.Position]; !seen {
			reasons[f.Position] = f.Reason
		}
	}

	report := &Report{
		Sections:  make([]Section, 0, len(byPosition)),
		Citations: []Citation{},
	}

	var requiredSum float64
	requiredCount := 0

	for i, trait := range traits {
		r, ok := byPosition[i]
		if !ok {
			reason, failed := reasons[i]
			if !failed || reason == "" {
				reason = reasonNotCompleted
			}
			report.Skipped = append(report.Skipped, SkippedTrait{TraitName: trait.Name, Reason: reason})
			continue
		}

		report.Sections = append(report.Sections, Section{
			TraitName:       trait.Name,
			Kind:            trait.Kind,
			Content:         r.Rationale,
			Value:           r.Raw,
			NormalizedScore: r.Score,
			Required:        trait.Required,
			Degraded:        r.Degraded,
		})

		met := !r.Degraded && r.Raw.Truthy()
		if trait.Required {
			requiredSum += r.Score
			requiredCount++
			if met {
				report.RequiredMet++
			}
		} else if met {
			report.OptionalMet++
		}
	}

	if requiredCount > 0 {
		report.OverallScore = requiredSum / float64(requiredCount)
	}

	return report
}
