package categorizer

import (
	"context"
	"testing"

	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/taxonomy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleStrategy_Name(t *testing.T) {
	assert.Equal(t, "Rules", NewRuleStrategy(nil, nil).Name())
}

func TestRuleStrategy_Debit(t *testing.T) {
	s := NewRuleStrategy(nil, nil)

	tests := []struct {
		description string
		want        taxonomy.Pair
	}{
		{"Albert Heijn boodschappen", pair(taxonomy.FoodAndGroceries, taxonomy.Groceries)},
		{"AH to go Utrecht", pair(taxonomy.FoodAndGroceries, taxonomy.Groceries)},
		{"Huurbetaling mei", pair(taxonomy.Housing, taxonomy.Rent)},
		{"Monthly rent", pair(taxonomy.Housing, taxonomy.Rent)},
		{"Gemeente Utrecht aanslag 2024", pair(taxonomy.Housing, taxonomy.PropertyTaxes)},
		{"Uber Eats order", pair(taxonomy.FoodAndGroceries, taxonomy.TakeawayDelivery)},
		{"Uber BV trip", pair(taxonomy.Transportation, taxonomy.RideSharingServices)},
		{"OV-chipkaart opladen", pair(taxonomy.Transportation, taxonomy.OVChipkaartRecharges)},
		{"NS.nl e-ticket", pair(taxonomy.Transportation, taxonomy.PublicTransportation)},
		{"BP Express A2", pair(taxonomy.Transportation, taxonomy.Fuel)},
		{"Shell station 1234", pair(taxonomy.Transportation, taxonomy.Fuel)},
		{"Car repair shop", pair(taxonomy.Transportation, taxonomy.CarMaintenanceAndRepairs)},
		{"Starbucks Centraal", pair(taxonomy.FoodAndGroceries, taxonomy.CoffeeSnacks)},
		{"Apotheek de Kroon", pair(taxonomy.PersonalCareAndHealth, taxonomy.PharmacyMedications)},
		{"Kruidvat 1234", pair(taxonomy.PersonalCareAndHealth, taxonomy.PersonalCareProducts)},
		{"Spotify P1234", pair(taxonomy.EntertainmentAndLeisure, taxonomy.HobbiesAndRecreation)},
		{"Pathe Tuschinski", pair(taxonomy.EntertainmentAndLeisure, taxonomy.MoviesCinema)},
		{"School books", pair(taxonomy.Education, taxonomy.BooksAndSupplies)},
		{"Duolingo subscription", pair(taxonomy.Education, taxonomy.LanguageClasses)},
		{"IKEA Delft", pair(taxonomy.Shopping, taxonomy.HomeGoodsAndFurniture)},
		{"Kosten OranjePakket", pair(taxonomy.FinancialExpenses, taxonomy.BankFees)},
		{"Booking.com hotel", pair(taxonomy.Travel, taxonomy.Accommodation)},
		{"KLM flight", pair(taxonomy.Travel, taxonomy.TravelTransportation)},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got, ok, err := s.Categorize(context.Background(), tt.description, models.Debit)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleStrategy_DebitNoMatch(t *testing.T) {
	s := NewRuleStrategy(nil, nil)

	for _, desc := range []string{"Parent association fee", "XYZ 12345", ""} {
		t.Run(desc, func(t *testing.T) {
			_, ok, err := s.Categorize(context.Background(), desc, models.Debit)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRuleStrategy_Credit(t *testing.T) {
	s := NewRuleStrategy(nil, nil)

	tests := []struct {
		description string
		want        taxonomy.Pair
	}{
		{"EBAY MARKETPLACES GMBH", pair(taxonomy.Income, taxonomy.Salary)},
		{"Salaris januari", pair(taxonomy.Income, taxonomy.Salary)},
		{"Rente spaarrekening", pair(taxonomy.Income, taxonomy.OtherIncome)},
		{"Refund order 123", pair(taxonomy.Income, taxonomy.Compensation)},
		{"Terugbetaling belastingdienst", pair(taxonomy.Income, taxonomy.Compensation)},
		{"Albert Heijn", pair(taxonomy.Income, taxonomy.OtherIncome)},
		{"", pair(taxonomy.Income, taxonomy.OtherIncome)},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got, ok, err := s.Categorize(context.Background(), tt.description, models.Credit)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultRulesAreValid(t *testing.T) {
	for _, r := range append(append([]Rule{}, DefaultCreditRules...), DefaultDebitRules...) {
		assert.True(t, r.Pair.Valid(), "rule %v has invalid pair %s", r.Any, r.Pair)
		assert.True(t, len(r.Any) > 0 || len(r.All) > 0)
	}
}

func TestContainsWordPrefix(t *testing.T) {
	tests := []struct {
		s, kw string
		want  bool
	}{
		{"huurbetaling", "huur", true},
		{"parent ", "rent ", false},
		{"the rent ", "rent ", true},
		{"ns.nl/ticket", "ns.nl", true},
		{"dinsdag", "ns", false},
		{"café aldi", "aldi", true},
		{"", "x", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsWordPrefix(tt.s, tt.kw), "%q in %q", tt.kw, tt.s)
	}
}
