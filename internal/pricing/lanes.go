package pricing

import "strings"

// Lane groups routes that share a rate and transit table.
type Lane string

const (
	LaneTranspacific  Lane = "transpacific"
	LaneTransatlantic Lane = "transatlantic"
	LaneAsiaEurope    Lane = "asia_europe"
	LaneRegional      Lane = "regional"
	LaneInternational Lane = "international"
)

type lanePair struct {
	a, b string
	lane Lane
}

// Matched in order, in either direction.
var knownLanes = []lanePair{
	{"shanghai", "los angeles", LaneTranspacific},
	{"shenzhen", "los angeles", LaneTranspacific},
	{"hong kong", "los angeles", LaneTranspacific},
	{"shanghai", "long beach", LaneTranspacific},
	{"shanghai", "rotterdam", LaneAsiaEurope},
	{"shanghai", "hamburg", LaneAsiaEurope},
	{"singapore", "rotterdam", LaneAsiaEurope},
	{"shenzhen", "felixstowe", LaneAsiaEurope},
	{"rotterdam", "new york", LaneTransatlantic},
	{"london", "new york", LaneTransatlantic},
	{"hamburg", "new york", LaneTransatlantic},
	{"london", "paris", LaneRegional},
	{"rotterdam", "hamburg", LaneRegional},
	{"los angeles", "chicago", LaneRegional},
	{"new york", "chicago", LaneRegional},
}

// ClassifyLane performs a case-insensitive substring match of origin and
// destination against the known lane table. Unknown routes are international.
func ClassifyLane(origin, destination string) Lane {
	o := strings.ToLower(origin)
	d := strings.ToLower(destination)
	if strings.TrimSpace(o) == "" || strings.TrimSpace(d) == "" {
		return LaneInternational
	}

	for _, p := range knownLanes {
		if (strings.Contains(o, p.a) && strings.Contains(d, p.b)) ||
			(strings.Contains(o, p.b) && strings.Contains(d, p.a)) {
			return p.lane
		}
	}
	return LaneInternational
}
