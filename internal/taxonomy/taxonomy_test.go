package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryShape(t *testing.T) {
	mains := MainCategories()
	assert.Len(t, mains, 13)
	assert.Equal(t, Housing, mains[0])
	assert.Equal(t, Miscellaneous, mains[len(mains)-1])

	assert.Equal(t, []SubCategory{Groceries, RestaurantsAndDiningOut, TakeawayDelivery, CoffeeSnacks},
		SubcategoriesOf(FoodAndGroceries))
	assert.Equal(t, []SubCategory{Salary, OtherIncome, Compensation}, SubcategoriesOf(Income))
	assert.Nil(t, SubcategoriesOf(MainCategory("Pets")))
}

func TestRoundTripEveryPair(t *testing.T) {
	for _, p := range AllPairs() {
		t.Run(p.String(), func(t *testing.T) {
			dm, ds, err := ToDisplay(p.Main, p.Sub)
			require.NoError(t, err)

			back, corrected, err := ToStorage(dm, ds)
			require.NoError(t, err)
			assert.False(t, corrected)
			assert.Equal(t, p, back)

			dm2, ds2, err := ToDisplay(back.Main, back.Sub)
			require.NoError(t, err)
			assert.Equal(t, dm, dm2)
			assert.Equal(t, ds, ds2)
		})
	}
}

func TestToStorage(t *testing.T) {
	tests := []struct {
		name          string
		main, sub     string
		want          Pair
		wantCorrected bool
		wantErr       bool
	}{
		{"display spelling", "Food & Groceries", "Restaurants & Dining Out", Pair{FoodAndGroceries, RestaurantsAndDiningOut}, false, false},
		{"slashes", "Personal Care & Health", "Pharmacy/Medications", Pair{PersonalCareAndHealth, PharmacyMedications}, false, false},
		{"hyphen", "Transportation", "OV-chipkaart recharges", Pair{Transportation, OVChipkaartRecharges}, false, false},
		{"storage spelling", "FoodAndGroceries", "Groceries", Pair{FoodAndGroceries, Groceries}, false, false},
		{"lower case and", "food and groceries", "coffee / snacks", Pair{FoodAndGroceries, CoffeeSnacks}, false, false},
		{"travel transportation", "Travel", "Transportation", Pair{Travel, TravelTransportation}, false, false},
		{"mismatch falls back", "Housing", "Groceries", Fallback, true, false},
		{"income sub under travel", "Travel", "Salary", Fallback, true, false},
		{"unknown main", "Pets", "Other", Pair{}, false, true},
		{"unknown sub", "Housing", "Castle", Pair{}, false, true},
		{"empty", "", "", Pair{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, corrected, err := ToStorage(tt.main, tt.sub)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCorrected, corrected)
		})
	}
}

func TestToStorageNeverYieldsInvalidPair(t *testing.T) {
	names := []string{}
	for _, g := range Tree() {
		names = append(names, g.Subs...)
	}
	for _, m := range Tree() {
		for _, s := range names {
			p, _, err := ToStorage(m.Name, s)
			require.NoError(t, err)
			assert.True(t, p.Valid(), "%s/%s", m.Name, s)
		}
	}
}

func TestToDisplayStrict(t *testing.T) {
	main, sub, err := ToDisplay(FoodAndGroceries, TakeawayDelivery)
	require.NoError(t, err)
	assert.Equal(t, "Food & Groceries", main)
	assert.Equal(t, "Takeaway/Delivery", sub)

	_, _, err = ToDisplay(MainCategory("Food & Groceries"), Groceries)
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, _, err = ToDisplay(Housing, SubCategory("Nope"))
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, _, err = ToDisplay(Housing, Groceries)
	assert.ErrorIs(t, err, ErrInvalidPair)
}

func TestIsValidPair(t *testing.T) {
	assert.True(t, IsValidPair(Miscellaneous, Other))
	assert.True(t, IsValidPair(Travel, TravelFood))
	assert.False(t, IsValidPair(FoodAndGroceries, TravelFood))
	assert.False(t, IsValidPair(MainCategory(""), SubCategory("")))
	assert.True(t, Fallback.Valid())
	assert.True(t, CreditFallback.Valid())
}

func TestParsePair(t *testing.T) {
	p, err := ParsePair("shopping", "clothing")
	require.NoError(t, err)
	assert.Equal(t, Pair{Shopping, Clothing}, p)

	_, err = ParsePair("Shopping", "Rent")
	assert.ErrorIs(t, err, ErrInvalidPair)

	_, err = ParsePair("Food & Groceries", "Groceries")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestBuildIndexIsInjective(t *testing.T) {
	seenMain := map[string]bool{}
	for _, g := range Tree() {
		assert.False(t, seenMain[g.Name], "duplicate display %s", g.Name)
		seenMain[g.Name] = true
	}
	assert.Len(t, subOwner, len(AllPairs()))
	assert.Len(t, subDisplay, len(AllPairs()))
}

func TestMainFromDisplay(t *testing.T) {
	for _, in := range []string{"Food & Groceries", "FoodAndGroceries", "food and groceries"} {
		m, err := MainFromDisplay(in)
		require.NoError(t, err, in)
		assert.Equal(t, FoodAndGroceries, m)
	}

	_, err := MainFromDisplay("Groceries")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}
