// Copyright 2026 Stratum Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package retrieval

import (
	"strings"

	"github.com/stratumhq/corpus/core"
)

// assembleContext turns ranked, thresholded candidates into the bounded
// context block handed to generation. Near-duplicates are suppressed
// first, then candidates pack greedily in rank order until the token
// budget is exhausted. Candidates are never split; one that does not fit
// is skipped in favor of later, smaller ones.
func assembleContext(candidates []core.Candidate, budgetTokens int) core.ContextBlock {
	kept := suppressNearDuplicates(candidates)

	block := core.ContextBlock{}
	for _, candidate := range kept {
		tokens := candidate.TokenCount
		if block.TotalTokens+tokens > budgetTokens {
			continue
		}
		block.Entries = append(block.Entries, core.ContextEntry{
			Document:   candidate.Document,
			Ordinal:    candidate.Ordinal,
			Section:    candidate.Section,
			Score:      governingScore(candidate),
			Text:       candidate.Text,
			TokenCount: tokens,
		})
		block.TotalTokens += tokens
	}
	return block
}

// suppressNearDuplicates drops a candidate when a higher-ranked one from
// the same document contains it, or is contained by it, under normalized
// text comparison. Overlapping chunk windows make this common: the tail
// of one chunk reappears as the head of the next.
func suppressNearDuplicates(candidates []core.Candidate) []core.Candidate {
	type keptEntry struct {
		document core.DocumentID
		norm     string
	}

	kept := make([]core.Candidate, 0, len(candidates))
	seen := make([]keptEntry, 0, len(candidates))

	for _, candidate := range candidates {
		norm := normalizeForContainment(candidate.Text)
		duplicate := false
		for _, entry := range seen {
			if entry.document != candidate.Document {
				continue
			}
			if strings.Contains(entry.norm, norm) || strings.Contains(norm, entry.norm) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, candidate)
		seen = append(seen, keptEntry{document: candidate.Document, norm: norm})
	}
	return kept
}

func normalizeForContainment(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
