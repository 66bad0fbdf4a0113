package dashboard

// Quality is the qualitative air-quality label for an MQ-135 style reading.
type Quality string

const (
	Excellent Quality = "Excellent"
	Good      Quality = "Good"
	Fair      Quality = "Fair"
	Poor      Quality = "Poor"
	VeryPoor  Quality = "Very Poor"
)

// Classify maps a raw gas reading or a predicted AQI to its label.
func Classify(v float64) Quality {
	switch {
	case v < 150:
		return Excellent
	case v < 300:
		return Good
	case v < 450:
		return Fair
	case v < 600:
		return Poor
	default:
		return VeryPoor
	}
}
