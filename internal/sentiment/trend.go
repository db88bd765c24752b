package sentiment

// Trend is the direction of a contact's warmth over time.
type Trend string

const (
	TrendWarming Trend = "warming"
	TrendCooling Trend = "cooling"
	TrendFlat    Trend = "flat"
)

const (
	slopeThreshold = 0.1
	lastThreshold  = 0.3
)

// Classify maps a score sequence to a trend. Three or more scores get a
// least-squares slope over the sequence indexed by position; one or two
// scores fall back to the last score alone; none means flat.
func Classify(scores []float64) Trend {
	switch {
	case len(scores) >= 3:
		m := slope(scores)
		if m > slopeThreshold {
			return TrendWarming
		}
		if m < -slopeThreshold {
			return TrendCooling
		}
		return TrendFlat

	case len(scores) > 0:
		last := scores[len(scores)-1]
		if last > lastThreshold {
			return TrendWarming
		}
		if last < -lastThreshold {
			return TrendCooling
		}
		return TrendFlat

	default:
		return TrendFlat
	}
}

// slope fits y = mx + b by least squares over x = 0..n-1 and returns m.
func slope(y []float64) float64 {
	n := float64(len(y))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
