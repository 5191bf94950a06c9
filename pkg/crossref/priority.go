package crossref

import "strings"

// priorityTypesForFocus maps a free-text focus area to the parameter types
// worth comparing, reducing false-positive value matches unrelated to the
// topic under review. Grounded on cross_reference_v2.py's
// _get_priority_types; an empty focus area means "no filtering".
func priorityTypesForFocus(focusArea string) map[string]bool {
	if focusArea == "" {
		return nil
	}
	f := strings.ToLower(focusArea)

	switch {
	case strings.Contains(f, "sizing") || strings.Contains(f, "cross") || strings.Contains(f, "section") || strings.Contains(f, "mm"):
		return setOf("cable_size", "current", "voltage")
	case strings.Contains(f, "cable") && (strings.Contains(f, "size") || strings.Contains(f, "area")):
		return setOf("cable_size", "current", "voltage")
	case strings.Contains(f, "wiring") || strings.Contains(f, "installation"):
		return setOf("cable_size", "current", "voltage", "power")
	case strings.Contains(f, "electrical") && !containsAny(f, "fire", "earth", "light"):
		return setOf("cable_size", "current", "voltage", "power")
	case strings.Contains(f, "current") || strings.Contains(f, "amp"):
		return setOf("current", "cable_size")
	case strings.Contains(f, "voltage") || strings.Contains(f, "volt"):
		return setOf("voltage")
	case strings.Contains(f, "fire") || strings.Contains(f, "smoke"):
		return setOf("temperature", "time")
	case strings.Contains(f, "earthing") || strings.Contains(f, "ground") || strings.Contains(f, "earth"):
		return setOf("resistance", "current")
	case strings.Contains(f, "lighting") || strings.Contains(f, "lux") || strings.Contains(f, "luminaire"):
		return setOf("power", "percentage")
	case strings.Contains(f, "conduit") || strings.Contains(f, "duct") || strings.Contains(f, "trunking"):
		return setOf("length", "cable_size")
	case strings.Contains(f, "distribution") || strings.Contains(f, "panel") || strings.Contains(f, "board"):
		return setOf("current", "voltage", "power")
	case strings.Contains(f, "motor") || strings.Contains(f, "drive"):
		return setOf("current", "voltage", "power", "speed", "torque")
	case strings.Contains(f, "ups") || strings.Contains(f, "battery"):
		return setOf("current", "voltage", "power", "time")
	case strings.Contains(f, "generator") || strings.Contains(f, "genset"):
		return setOf("current", "voltage", "power", "frequency")
	case strings.Contains(f, "protection") || strings.Contains(f, "breaker") || strings.Contains(f, "fuse"):
		return setOf("current", "time")
	case strings.Contains(f, "hvac") || strings.Contains(f, "cooling") || strings.Contains(f, "heating"):
		return setOf("temperature", "power", "pressure", "flow_rate")
	case strings.Contains(f, "ventilation") || strings.Contains(f, "fan"):
		return setOf("flow_rate", "pressure", "power")
	case strings.Contains(f, "pump"):
		return setOf("flow_rate", "pressure", "power", "speed")
	case strings.Contains(f, "mechanical"):
		return setOf("pressure", "flow_rate", "temperature", "power")
	}

	// Default: meaningful technical parameters, excluding length/time noise.
	return setOf(
		"cable_size", "current", "voltage", "power", "resistance", "frequency",
		"pressure", "flow_rate", "speed", "torque",
		"temperature", "percentage", "weight", "area",
	)
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func filterByPriority(values []valueMatch, priority map[string]bool) []valueMatch {
	if priority == nil {
		return values
	}
	var out []valueMatch
	for _, v := range values {
		if priority[v.Type] {
			out = append(out, v)
		}
	}
	return out
}
