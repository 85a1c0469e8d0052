package recognizer

import "strings"

// blankIndex is the CTC blank class, by convention index 0 of the output
// distribution. Dictionary entry i corresponds to class index i+1.
const blankIndex = 0

// decodeGreedy performs greedy CTC decoding over a (steps x classes)
// probability sequence: argmax per timestep, collapse consecutive repeats,
// drop blanks, map class indices through the dictionary. The returned
// confidence is the mean probability of the emitted characters, 0 when
// nothing is emitted.
func decodeGreedy(probs []float32, steps, classes int, dict []string) (string, float64) {
	if steps <= 0 || classes <= 0 || len(probs) < steps*classes {
		return "", 0
	}

	var sb strings.Builder
	var sum float64
	var emitted int
	prev := -1

	for t := 0; t < steps; t++ {
		row := probs[t*classes : (t+1)*classes]
		best := argmax(row)

		if best != blankIndex && best != prev {
			dictIdx := best - 1
			if dictIdx >= 0 && dictIdx < len(dict) {
				sb.WriteString(dict[dictIdx])
				sum += float64(row[best])
				emitted++
			}
		}
		prev = best
	}

	if emitted == 0 {
		return "", 0
	}
	return sb.String(), sum / float64(emitted)
}

func argmax(row []float32) int {
	best := 0
	for i := 1; i < len(row); i++ {
		if row[i] > row[best] {
			best = i
		}
	}
	return best
}
