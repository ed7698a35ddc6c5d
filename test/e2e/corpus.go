// Package e2e provides end-to-end tests over a generated startup corpus.
package e2e

import (
	"fmt"
	"strings"

	"github.com/hyperjump/foundermatch/internal/models"
)

// QueryTestCase is a query and the startup ids that must appear first in its results.
type QueryTestCase struct {
	Query       string
	ExpectedIDs []string
	Description string
}

// Corpus holds startups and query test cases for E2E tests.
type Corpus struct {
	Startups     []*models.Startup
	TestCases    []QueryTestCase
	TotalDocs    int
	TotalQueries int
}

type topic struct {
	title     string
	industry  string
	signature string
}

// Every signature token occurs in exactly one startup document, so a query made
// of one signature has a single startup with a non-zero score.
var topics = []topic{
	{"AgroPulse", "Agriculture", "hydroponic lettuce greenhouses"},
	{"SoilMind", "Agriculture", "nitrogen soil probes"},
	{"HiveWatch", "Agriculture", "beehive acoustic monitoring"},
	{"GrainLedger", "Agriculture", "grain silo moisture"},
	{"VinoSense", "Agriculture", "vineyard frost alerts"},
	{"AquaHarvest", "Agriculture", "aquaponic tilapia tanks"},
	{"CardioLink", "Healthcare", "cardiac arrhythmia wearables"},
	{"DermaScan", "Healthcare", "dermatology lesion imaging"},
	{"PillPal", "Healthcare", "medication adherence reminders"},
	{"SleepWell", "Healthcare", "insomnia cognitive therapy"},
	{"RehabQuest", "Healthcare", "stroke rehabilitation exergames"},
	{"DentaFlow", "Healthcare", "orthodontic aligner scheduling"},
	{"LedgerLite", "Fintech", "freelancer invoice factoring"},
	{"CoinGuard", "Fintech", "stablecoin treasury custody"},
	{"PayRoute", "Fintech", "crossborder remittance corridors"},
	{"TaxPilot", "Fintech", "quarterly estimated taxes"},
	{"MicroLend", "Fintech", "microloan credit scoring"},
	{"InsureBit", "Fintech", "parametric crop insurance"},
	{"TutorNest", "Education", "calculus homework tutoring"},
	{"LingoLeap", "Education", "mandarin pronunciation drills"},
	{"CodeCamp", "Education", "bootcamp coding interviews"},
	{"LabVerse", "Education", "virtual chemistry laboratories"},
	{"ReadRise", "Education", "dyslexia reading interventions"},
	{"CampusGo", "Education", "university housing marketplace"},
	{"SunStack", "Energy", "rooftop photovoltaic leasing"},
	{"WindWise", "Energy", "offshore turbine maintenance"},
	{"GridFlex", "Energy", "demand response aggregation"},
	{"CellCycle", "Energy", "lithium battery recycling"},
	{"HeatLoop", "Energy", "geothermal heat pumps"},
	{"HydroGenix", "Energy", "green hydrogen electrolysis"},
	{"FleetIQ", "Logistics", "refrigerated trailer telematics"},
	{"DockSync", "Logistics", "warehouse dock appointments"},
	{"LastMile", "Logistics", "cargo bike couriers"},
	{"PortView", "Logistics", "container vessel tracking"},
	{"PalletPro", "Logistics", "reusable pallet pooling"},
	{"RouteHawk", "Logistics", "school bus routing"},
	{"ShieldOps", "Security", "ransomware incident containment"},
	{"PhishNet", "Security", "phishing simulation training"},
	{"KeyVault", "Security", "hardware passkey provisioning"},
	{"ZeroGate", "Security", "microsegmentation firewall policies"},
	{"SecureCode", "Security", "static analysis pipelines"},
	{"IdentiQ", "Security", "biometric identity verification"},
	{"ThreadLoop", "Retail", "secondhand apparel resale"},
	{"ShelfEye", "Retail", "planogram compliance cameras"},
	{"GroceryGo", "Retail", "grocery shelf restocking"},
	{"BrewBox", "Retail", "craft beer subscriptions"},
	{"SizeRight", "Retail", "footwear fit prediction"},
	{"PetPantry", "Retail", "pet food autoship"},
}

var segments = map[string]string{
	"Agriculture": "small farms",
	"Healthcare":  "clinics",
	"Fintech":     "merchants",
	"Education":   "schools",
	"Energy":      "utilities",
	"Logistics":   "carriers",
	"Security":    "enterprises",
	"Retail":      "shoppers",
}

var stages = []string{"Pre-seed", "Seed", "Series A", "Series B"}

// BuildCorpus returns one startup per topic with a query test case per signature.
func BuildCorpus() *Corpus {
	startups := buildStartups()
	cases := buildQueryTestCases(startups)
	return &Corpus{
		Startups:     startups,
		TestCases:    cases,
		TotalDocs:    len(startups),
		TotalQueries: len(cases),
	}
}

func buildStartups() []*models.Startup {
	out := make([]*models.Startup, len(topics))
	for i, t := range topics {
		first := strings.Fields(t.signature)[0]
		out[i] = &models.Startup{
			ID:           fmt.Sprintf("e2e-%03d", i+1),
			Title:        t.title,
			Description:  fmt.Sprintf("%s provides %s for %s.", t.title, t.signature, segments[t.industry]),
			Industry:     t.industry,
			FundingStage: stages[i%len(stages)],
			Tags:         []string{first, strings.ToLower(t.industry)},
		}
	}
	return out
}

func buildQueryTestCases(startups []*models.Startup) []QueryTestCase {
	cases := make([]QueryTestCase, 0, len(startups))
	for i, s := range startups {
		q := topics[i].signature
		cases = append(cases, QueryTestCase{
			Query:       q,
			ExpectedIDs: []string{s.ID},
			Description: fmt.Sprintf("query %q should rank %s first", q, s.ID),
		})
	}
	return cases
}

// ByIndustry returns the corpus startups in industry, in corpus order.
func (c *Corpus) ByIndustry(industry string) []*models.Startup {
	var out []*models.Startup
	for _, s := range c.Startups {
		if s.Industry == industry {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns deep copies of the corpus startups so callers can hand them to
// code that mutates its input.
func (c *Corpus) Clone() []*models.Startup {
	out := make([]*models.Startup, len(c.Startups))
	for i, s := range c.Startups {
		cp := *s
		cp.Tags = append([]string(nil), s.Tags...)
		out[i] = &cp
	}
	return out
}
