package transform

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"etlcli/pkg/contracts/domain"
)

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// round1 rounds to one decimal.
func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

// numbers returns the numeric payloads of vals, skipping every non-number.
func numbers(vals []domain.Value) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// sampleStdDev is the ddof=1 standard deviation; ok is false for fewer than
// two values.
func sampleStdDev(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	m := mean(values)
	sumSquaredDiff := 0.0
	for _, v := range values {
		diff := v - m
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)-1)), true
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// percentile returns the value at p of sorted using linear interpolation
// between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	index := p * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func sortedCopy(values []float64) []float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	return s
}

// averageRanks assigns 1-based ascending ranks to the numeric cells of vals,
// ties sharing the mean of their positions. Non-numeric cells get ok=false.
func averageRanks(vals []domain.Value) (ranks []float64, ok []bool, n int) {
	type indexValue struct {
		index int
		value float64
	}
	valid := make([]indexValue, 0, len(vals))
	for i, v := range vals {
		if f, isNum := v.Float(); isNum {
			valid = append(valid, indexValue{i, f})
		}
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].value < valid[j].value })

	ranks = make([]float64, len(vals))
	ok = make([]bool, len(vals))
	for i := 0; i < len(valid); {
		j := i
		for j < len(valid) && valid[j].value == valid[i].value {
			j++
		}
		// positions i..j-1 are 1-based ranks i+1..j
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[valid[k].index] = avg
			ok[valid[k].index] = true
		}
		i = j
	}
	return ranks, ok, len(valid)
}

// denseRankDesc ranks the numeric cells of vals from the largest (1) down.
// Equal values share a rank and ranks have no gaps. Non-numeric cells get 0.
func denseRankDesc(vals []domain.Value) []int {
	distinct := make(map[float64]struct{})
	for _, v := range vals {
		if f, ok := v.Float(); ok {
			distinct[f] = struct{}{}
		}
	}
	order := make([]float64, 0, len(distinct))
	for f := range distinct {
		order = append(order, f)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(order)))

	rankOf := make(map[float64]int, len(order))
	for i, f := range order {
		rankOf[f] = i + 1
	}

	ranks := make([]int, len(vals))
	for i, v := range vals {
		if f, ok := v.Float(); ok {
			ranks[i] = rankOf[f]
		}
	}
	return ranks
}

// denseRankFloatsDesc is denseRankDesc over plain values.
func denseRankFloatsDesc(values []float64) []int {
	vals := make([]domain.Value, len(values))
	for i, v := range values {
		vals[i] = domain.Number(v)
	}
	return denseRankDesc(vals)
}
