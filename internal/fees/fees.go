// Package fees implements the tiered management-fee schedule applied to
// advertising spend. The schedule is a literal lookup table, not a formula;
// band boundaries are inclusive exactly as published.
package fees

// feeBand maps an inclusive spend range to a flat monthly management fee.
type feeBand struct {
	min float64
	max float64
	fee float64
}

// The published schedule steps the fee by 500 for every 5000 of spend.
// Spend below the first band or above the last carries no management fee.
var feeBands = []feeBand{
	{2500, 5000, 2000},
	{5001, 10000, 2500},
	{10001, 15000, 3000},
	{15001, 20000, 3500},
	{20001, 25000, 4000},
	{25001, 30000, 4500},
	{30001, 35000, 5000},
	{35001, 40000, 5500},
	{40001, 45000, 6000},
	{45001, 50000, 6500},
	{50001, 55000, 7000},
	{55001, 60000, 7500},
	{60001, 65000, 8000},
	{65001, 70000, 8500},
}

// ManagementCost returns the flat management fee for the given ad spend.
// Spend outside every band yields 0.
func ManagementCost(spend float64) float64 {
	for _, band := range feeBands {
		if spend >= band.min && spend <= band.max {
			return band.fee
		}
	}
	return 0
}
