package verify

// ClampThreshold bounds a caller-supplied similarity threshold to [0,100].
// Without the clamp a client could force every answer to "correct" by
// sending a negative threshold.
func ClampThreshold(threshold float64) float64 {
	if threshold < 0 {
		return 0
	}
	if threshold > 100 {
		return 100
	}
	return threshold
}

// Decide scores each candidate transcript against both forms of the target,
// picks the best (transcript, form) pair, and compares it to the clamped
// threshold. It is a pure function of its inputs.
//
// An empty target form is skipped — it contributes score 0, never an error —
// so a word with no romanization is judged on its native form alone.
//
// On exact score ties the LanguageForced transcript wins: it is the more
// semantically grounded decode. Candidates are otherwise compared by strict
// score order, so raising the threshold can only flip the verdict from
// correct to incorrect.
func Decide(candidates []Candidate, target Target, threshold float64) Verdict {
	threshold = ClampThreshold(threshold)

	v := Verdict{
		Expected: target.Native,
		Language: target.Language,
	}

	best := -1.0
	for _, c := range orderForTieBreak(candidates) {
		var sNative, sRoman float64
		if target.Native != "" {
			sNative = Score(target.Native, c.Text)
		}
		if target.Romanized != "" {
			sRoman = Score(target.Romanized, c.Text)
		}

		if sNative > v.ScriptSimilarity {
			v.ScriptSimilarity = sNative
		}
		if sRoman > v.RomanSimilarity {
			v.RomanSimilarity = sRoman
		}

		// Strict > keeps the earlier (LanguageForced) candidate on ties.
		if top := max(sNative, sRoman); top > best {
			best = top
			v.Transcribed = c.Text
		}
	}
	if best < 0 {
		best = 0
	}

	v.Similarity = best
	v.IsCorrect = best >= threshold
	return v
}

// orderForTieBreak returns candidates with LanguageForced entries first so
// the strict-greater comparison in Decide implements the documented
// tie-break.
func orderForTieBreak(candidates []Candidate) []Candidate {
	ordered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Mode == ModeLanguageForced {
			ordered = append(ordered, c)
		}
	}
	for _, c := range candidates {
		if c.Mode != ModeLanguageForced {
			ordered = append(ordered, c)
		}
	}
	return ordered
}
