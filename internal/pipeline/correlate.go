package pipeline

import (
	"fmt"
	"math"

	"github.com/Luc0-0/Samarth/internal/model"
)

// minCorrelationPairs is the smallest sample a coefficient is reported
// for; below it the request fails with InsufficientData.
const minCorrelationPairs = 3

// Pair is one joined (state, year) observation across the two metrics.
type Pair struct {
	State string
	Year  int
	X     float64
	Y     float64
}

// JoinOnStateYear inner-joins two grouped result sets on (state, year),
// reading the metric value from each set's aggregate alias. Rows with a
// null or non-numeric value on either side are dropped.
func JoinOnStateYear(a, b model.ResultSet, aliasA, aliasB string) []Pair {
	type key struct {
		state string
		year  int
	}
	right := make(map[key]float64, len(b))
	for _, row := range b {
		k, ok := stateYearKey(row)
		if !ok {
			continue
		}
		v, ok := numeric(row[aliasB])
		if !ok {
			continue
		}
		right[key{k.state, k.year}] = v
	}

	var pairs []Pair
	for _, row := range a {
		k, ok := stateYearKey(row)
		if !ok {
			continue
		}
		x, ok := numeric(row[aliasA])
		if !ok {
			continue
		}
		y, ok := right[key{k.state, k.year}]
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{State: k.state, Year: k.year, X: x, Y: y})
	}
	return pairs
}

// Pearson computes the correlation coefficient over the joined pairs.
// Fewer than minCorrelationPairs pairs, or a zero-variance side, fails
// with InsufficientData.
func Pearson(pairs []Pair) (float64, error) {
	n := float64(len(pairs))
	if len(pairs) < minCorrelationPairs {
		return 0, model.InsufficientData(
			fmt.Sprintf("correlation needs at least %d joined pairs, got %d", minCorrelationPairs, len(pairs)))
	}

	var sumX, sumY float64
	for _, p := range pairs {
		sumX += p.X
		sumY += p.Y
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for _, p := range pairs {
		dx, dy := p.X-meanX, p.Y-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, model.InsufficientData("correlation undefined: one metric has no variance across the joined pairs")
	}
	return cov / math.Sqrt(varX*varY), nil
}

// StrengthBand classifies |r| into the qualitative band named in the
// answer text.
func StrengthBand(r float64) string {
	abs := math.Abs(r)
	switch {
	case abs >= 0.7:
		return "strong"
	case abs >= 0.4:
		return "moderate"
	default:
		return "weak"
	}
}

// Direction names the sign of the coefficient.
func Direction(r float64) string {
	if r < 0 {
		return "negative"
	}
	return "positive"
}

func stateYearKey(row model.Row) (struct {
	state string
	year  int
}, bool) {
	var k struct {
		state string
		year  int
	}
	s, ok := row["state"].(string)
	if !ok {
		return k, false
	}
	y, ok := numeric(row["year"])
	if !ok {
		return k, false
	}
	k.state = s
	k.year = int(y)
	return k, true
}

// numeric coerces the scalar types the SQL drivers and the portal JSON
// decoder produce.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}
