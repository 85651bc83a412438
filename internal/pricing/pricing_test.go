package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeight(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"500 kg", 500},
		{"1,250kg", 1250},
		{"12.5 lbs", 12.5},
		{"kg", MinimumBillableWeight},
		{"", MinimumBillableWeight},
		{"0 kg", MinimumBillableWeight},
		{"-40 kg", MinimumBillableWeight},
		{"approx 300", 300},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseWeight(tt.in))
		})
	}
}

func TestClassifyLane(t *testing.T) {
	tests := []struct {
		origin, destination string
		want                Lane
	}{
		{"Shanghai", "Los Angeles", LaneTranspacific},
		{"Port of Los Angeles, CA", "Shanghai, China", LaneTranspacific},
		{"SINGAPORE", "rotterdam", LaneAsiaEurope},
		{"London", "New York", LaneTransatlantic},
		{"Paris", "London", LaneRegional},
		{"Lagos", "Lima", LaneInternational},
		{"", "Los Angeles", LaneInternational},
	}

	for _, tt := range tests {
		t.Run(tt.origin+"->"+tt.destination, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyLane(tt.origin, tt.destination))
		})
	}
}

func TestCalculateShippingPrice_SeaTranspacific(t *testing.T) {
	b := CalculateShippingPrice(Input{
		Origin:      "Shanghai",
		Destination: "Los Angeles",
		Weight:      "500 kg",
		ServiceType: "sea",
		CargoType:   "general",
	})

	assert.Equal(t, 425.00, b.BaseRate)
	assert.Equal(t, 51.00, b.FuelSurcharge)
	assert.Equal(t, 35.00, b.SecurityFee)
	assert.Equal(t, DocumentationFee, b.Documentation)
	assert.Equal(t, 556.00, b.Total)
	assert.Greater(t, b.Total, b.BaseRate)
}

func TestCalculateShippingPrice_TotalIsSumOfComponents(t *testing.T) {
	origins := []string{"Shanghai", "Rotterdam", "London", "Nowhere", ""}
	destinations := []string{"Los Angeles", "New York", "Paris", "Hamburg", "Elsewhere"}
	weights := []string{"1 kg", "333.33 kg", "1,000", "unknown", "7.77", "4321.1"}
	services := []string{"sea", "air", "road", "rail", ""}
	cargo := []string{"general", "hazardous", "High Value", ""}

	for _, o := range origins {
		for _, d := range destinations {
			for _, w := range weights {
				for _, s := range services {
					for _, c := range cargo {
						in := Input{Origin: o, Destination: d, Weight: w, ServiceType: s, CargoType: c}
						b := CalculateShippingPrice(in)
						sum := cents(b.BaseRate) + cents(b.FuelSurcharge) + cents(b.SecurityFee) + cents(b.Documentation)
						require.Equal(t, sum, cents(b.Total), "%+v", in)
						require.Equal(t, math.Round(b.Total*100)/100, b.Total, "total not in cents for %+v", in)
						require.Greater(t, b.Total, 0.0, "%+v", in)
						require.Equal(t, b, CalculateShippingPrice(in), "must be deterministic for %+v", in)
					}
				}
			}
		}
	}
}

func TestCalculateShippingPrice_TotalHasNoFloatResidue(t *testing.T) {
	sea := CalculateShippingPrice(Input{Origin: "Shanghai", Destination: "Los Angeles", Weight: "4321.1", ServiceType: "sea"})
	assert.Equal(t, 4193.69, sea.Total)

	air := CalculateShippingPrice(Input{Origin: "Shanghai", Destination: "Los Angeles", Weight: "4321.1", ServiceType: "air"})
	assert.Equal(t, math.Round(air.Total*100)/100, air.Total)
}

func TestCalculateShippingPrice_MinimumFloor(t *testing.T) {
	b := CalculateShippingPrice(Input{
		Origin:      "Shanghai",
		Destination: "Los Angeles",
		Weight:      "not a number",
		ServiceType: "sea",
	})

	assert.Equal(t, 150.00, b.BaseRate)
	assert.Equal(t, 18.00, b.FuelSurcharge)
}

func TestCalculateShippingPrice_ServiceOrdering(t *testing.T) {
	in := Input{Origin: "Shanghai", Destination: "Rotterdam", Weight: "2000 kg"}

	in.ServiceType = "sea"
	sea := CalculateShippingPrice(in)
	in.ServiceType = "road"
	road := CalculateShippingPrice(in)
	in.ServiceType = "air"
	air := CalculateShippingPrice(in)

	assert.Less(t, sea.BaseRate, road.BaseRate)
	assert.Less(t, road.BaseRate, air.BaseRate)
}

func TestCalculateShippingPrice_UnknownServiceUsesRoad(t *testing.T) {
	in := Input{Origin: "London", Destination: "Paris", Weight: "800 kg"}

	in.ServiceType = "road"
	road := CalculateShippingPrice(in)
	in.ServiceType = "hyperloop"
	unknown := CalculateShippingPrice(in)

	assert.Equal(t, road, unknown)
}

func TestCalculateShippingPrice_ElevatedSecurityFee(t *testing.T) {
	in := Input{Origin: "London", Destination: "New York", Weight: "100 kg", ServiceType: "air"}

	standard := CalculateShippingPrice(in)
	in.CargoType = "Hazardous"
	hazardous := CalculateShippingPrice(in)

	assert.Equal(t, 75.00, standard.SecurityFee)
	assert.Equal(t, 250.00, hazardous.SecurityFee)
	assert.Equal(t, standard.BaseRate, hazardous.BaseRate)
}

func TestEstimateTransitTime(t *testing.T) {
	sea := EstimateTransitTime("Shanghai", "Los Angeles", "sea")
	air := EstimateTransitTime("Shanghai", "Los Angeles", "air")

	assert.Equal(t, "18-25 days", sea)
	assert.Equal(t, "3-5 days", air)
	assert.NotEqual(t, sea, air)
	assert.Regexp(t, `^\d+-\d+ days$`, sea)

	for _, s := range []string{"sea", "air", "road", "", "teleport"} {
		assert.NotEmpty(t, EstimateTransitTime("Atlantis", "El Dorado", s))
	}
	assert.Equal(t, "25-35 days", EstimateTransitTime("Atlantis", "El Dorado", "sea"))
}
