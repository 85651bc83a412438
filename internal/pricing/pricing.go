// Package pricing computes freight quotes. Everything here is pure: no clock,
// no randomness, no I/O.
package pricing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

type ServiceType string

const (
	ServiceSea  ServiceType = "sea"
	ServiceAir  ServiceType = "air"
	ServiceRoad ServiceType = "road"
)

const (
	// MinimumBillableWeight is charged when the weight cannot be parsed.
	MinimumBillableWeight = 10.0
	DocumentationFee      = 45.00
)

// Input is the subset of a quote request the engine prices on.
type Input struct {
	Origin      string
	Destination string
	Weight      string
	ServiceType string
	CargoType   string
}

// Breakdown is a currency breakdown in USD. Total is the sum of the four components.
type Breakdown struct {
	BaseRate      float64 `json:"baseRate"`
	FuelSurcharge float64 `json:"fuelSurcharge"`
	SecurityFee   float64 `json:"securityFee"`
	Documentation float64 `json:"documentation"`
	Total         float64 `json:"total"`
}

type serviceTable struct {
	perKg        map[Lane]float64
	floor        float64
	fuelPct      float64
	securityFee  float64
	elevatedFee  float64
	transitTimes map[Lane]string
}

var tables = map[ServiceType]serviceTable{
	ServiceSea: {
		perKg: map[Lane]float64{
			LaneTranspacific:  0.85,
			LaneTransatlantic: 0.95,
			LaneAsiaEurope:    0.90,
			LaneRegional:      0.60,
			LaneInternational: 1.10,
		},
		floor:       150,
		fuelPct:     0.12,
		securityFee: 35,
		elevatedFee: 150,
		transitTimes: map[Lane]string{
			LaneTranspacific:  "18-25 days",
			LaneTransatlantic: "12-18 days",
			LaneAsiaEurope:    "28-35 days",
			LaneRegional:      "5-8 days",
			LaneInternational: "25-35 days",
		},
	},
	ServiceAir: {
		perKg: map[Lane]float64{
			LaneTranspacific:  4.50,
			LaneTransatlantic: 4.00,
			LaneAsiaEurope:    4.80,
			LaneRegional:      2.50,
			LaneInternational: 5.50,
		},
		floor:       75,
		fuelPct:     0.25,
		securityFee: 75,
		elevatedFee: 250,
		transitTimes: map[Lane]string{
			LaneTranspacific:  "3-5 days",
			LaneTransatlantic: "2-4 days",
			LaneAsiaEurope:    "3-5 days",
			LaneRegional:      "1-2 days",
			LaneInternational: "4-7 days",
		},
	},
	ServiceRoad: {
		perKg: map[Lane]float64{
			LaneTranspacific:  1.80,
			LaneTransatlantic: 1.80,
			LaneAsiaEurope:    1.80,
			LaneRegional:      1.20,
			LaneInternational: 1.80,
		},
		floor:       100,
		fuelPct:     0.15,
		securityFee: 25,
		elevatedFee: 100,
		transitTimes: map[Lane]string{
			LaneTranspacific:  "7-10 days",
			LaneTransatlantic: "7-10 days",
			LaneAsiaEurope:    "7-10 days",
			LaneRegional:      "2-4 days",
			LaneInternational: "7-10 days",
		},
	},
}

var elevatedCargo = map[string]struct{}{
	"hazardous":  {},
	"dangerous":  {},
	"hazmat":     {},
	"high_value": {},
	"high-value": {},
	"valuable":   {},
}

var weightPattern = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// NormalizeServiceType lowercases s and maps unknown services to road.
func NormalizeServiceType(s string) ServiceType {
	st := ServiceType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tables[st]; ok {
		return st
	}
	return ServiceRoad
}

// ParseWeight extracts the first number in s ("1,250 kg" -> 1250).
// Unparseable or non-positive weights become MinimumBillableWeight.
func ParseWeight(s string) float64 {
	match := weightPattern.FindString(s)
	if match == "" {
		return MinimumBillableWeight
	}
	w, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil || w <= 0 || math.IsInf(w, 0) || math.IsNaN(w) {
		return MinimumBillableWeight
	}
	return w
}

func isElevatedCargo(cargoType string) bool {
	key := strings.ToLower(strings.TrimSpace(cargoType))
	key = strings.ReplaceAll(key, " ", "_")
	_, ok := elevatedCargo[key]
	return ok
}

func cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func dollars(c int64) float64 {
	return float64(c) / 100
}

// CalculateShippingPrice returns the price breakdown for in.
func CalculateShippingPrice(in Input) Breakdown {
	service := NormalizeServiceType(in.ServiceType)
	table := tables[service]
	lane := ClassifyLane(in.Origin, in.Destination)
	weight := ParseWeight(in.Weight)

	baseCents := cents(table.perKg[lane] * weight)
	if floor := cents(table.floor); baseCents < floor {
		baseCents = floor
	}
	fuelCents := int64(math.Round(float64(baseCents) * table.fuelPct))

	security := table.securityFee
	if isElevatedCargo(in.CargoType) {
		security = table.elevatedFee
	}
	securityCents := cents(security)
	docCents := cents(DocumentationFee)

	// Summed in cents so Total carries no float residue.
	return Breakdown{
		BaseRate:      dollars(baseCents),
		FuelSurcharge: dollars(fuelCents),
		SecurityFee:   dollars(securityCents),
		Documentation: dollars(docCents),
		Total:         dollars(baseCents + fuelCents + securityCents + docCents),
	}
}

// EstimateTransitTime returns a transit window such as "18-25 days".
func EstimateTransitTime(origin, destination, serviceType string) string {
	table := tables[NormalizeServiceType(serviceType)]
	if t, ok := table.transitTimes[ClassifyLane(origin, destination)]; ok {
		return t
	}
	return table.transitTimes[LaneInternational]
}
