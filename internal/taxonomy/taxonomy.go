// Package taxonomy holds the fixed two-level category vocabulary and the
// conversions between its display spelling ("Food & Groceries") and its
// storage spelling ("FoodAndGroceries").
//
// MainCategory and SubCategory are closed types: the only ways to obtain one
// from free text are ToStorage, ParseMain and ParseSub.
package taxonomy

import (
	"errors"
	"fmt"
	"strings"
)

// MainCategory is a top-level category in storage spelling.
type MainCategory string

// SubCategory is a second-level category in storage spelling. Values are
// unique across all main categories.
type SubCategory string

const (
	Housing                 MainCategory = "Housing"
	Transportation          MainCategory = "Transportation"
	FoodAndGroceries        MainCategory = "FoodAndGroceries"
	PersonalCareAndHealth   MainCategory = "PersonalCareAndHealth"
	KidsAndFamily           MainCategory = "KidsAndFamily"
	EntertainmentAndLeisure MainCategory = "EntertainmentAndLeisure"
	Shopping                MainCategory = "Shopping"
	Education               MainCategory = "Education"
	FinancialExpenses       MainCategory = "FinancialExpenses"
	Income                  MainCategory = "Income"
	GiftsAndDonations       MainCategory = "GiftsAndDonations"
	Travel                  MainCategory = "Travel"
	Miscellaneous           MainCategory = "Miscellaneous"
)

const (
	// Housing
	Mortgage                  SubCategory = "Mortgage"
	Rent                      SubCategory = "Rent"
	Utilities                 SubCategory = "Utilities"
	HomeInsurance             SubCategory = "HomeInsurance"
	PropertyTaxes             SubCategory = "PropertyTaxes"
	HomeMaintenanceAndRepairs SubCategory = "HomeMaintenanceAndRepairs"

	// Transportation
	PublicTransportation     SubCategory = "PublicTransportation"
	Fuel                     SubCategory = "Fuel"
	CarInsurance             SubCategory = "CarInsurance"
	CarMaintenanceAndRepairs SubCategory = "CarMaintenanceAndRepairs"
	Parking                  SubCategory = "Parking"
	RoadTax                  SubCategory = "RoadTax"
	Tolls                    SubCategory = "Tolls"
	RideSharingServices      SubCategory = "RideSharingServices"
	OVChipkaartRecharges     SubCategory = "OVChipkaartRecharges"

	// FoodAndGroceries
	Groceries               SubCategory = "Groceries"
	RestaurantsAndDiningOut SubCategory = "RestaurantsAndDiningOut"
	TakeawayDelivery        SubCategory = "TakeawayDelivery"
	CoffeeSnacks            SubCategory = "CoffeeSnacks"

	// PersonalCareAndHealth
	HealthInsurance        SubCategory = "HealthInsurance"
	PharmacyMedications    SubCategory = "PharmacyMedications"
	GymAndFitness          SubCategory = "GymAndFitness"
	PersonalCareProducts   SubCategory = "PersonalCareProducts"
	DoctorSpecialistVisits SubCategory = "DoctorSpecialistVisits"

	// KidsAndFamily
	Childcare                      SubCategory = "Childcare"
	KidsActivitiesAndEntertainment SubCategory = "KidsActivitiesAndEntertainment"

	// EntertainmentAndLeisure
	MoviesCinema              SubCategory = "MoviesCinema"
	EventsConcertsAttractions SubCategory = "EventsConcertsAttractions"
	HobbiesAndRecreation      SubCategory = "HobbiesAndRecreation"
	LotteryGambling           SubCategory = "LotteryGambling"

	// Shopping
	Clothing                 SubCategory = "Clothing"
	ElectronicsAndAppliances SubCategory = "ElectronicsAndAppliances"
	HomeGoodsAndFurniture    SubCategory = "HomeGoodsAndFurniture"
	BooksAndStationery       SubCategory = "BooksAndStationery"

	// Education
	TuitionSchoolFees SubCategory = "TuitionSchoolFees"
	BooksAndSupplies  SubCategory = "BooksAndSupplies"
	LanguageClasses   SubCategory = "LanguageClasses"

	// FinancialExpenses
	BankFees           SubCategory = "BankFees"
	CreditCardPayments SubCategory = "CreditCardPayments"
	LoanPayments       SubCategory = "LoanPayments"
	TransferFees       SubCategory = "TransferFees"

	// Income
	Salary       SubCategory = "Salary"
	OtherIncome  SubCategory = "OtherIncome"
	Compensation SubCategory = "Compensation"

	// GiftsAndDonations
	Gifts               SubCategory = "Gifts"
	CharitableDonations SubCategory = "CharitableDonations"

	// Travel
	Accommodation        SubCategory = "Accommodation"
	TravelActivities     SubCategory = "Activities"
	TravelFood           SubCategory = "Food"
	TravelTransportation SubCategory = "Transportation"

	// Miscellaneous
	Other SubCategory = "Other"
)

var (
	// ErrUnknownCategory is returned when a name does not resolve to any
	// main category or subcategory.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrInvalidPair is returned by strict conversions when a subcategory does
	// not belong to the given main category.
	ErrInvalidPair = errors.New("subcategory does not belong to main category")
)

// Pair is a (main, sub) category assignment.
type Pair struct {
	Main MainCategory `json:"mainCategory" yaml:"main_category"`
	Sub  SubCategory  `json:"subCategory" yaml:"sub_category"`
}

// Fallback is the pair used whenever nothing better is known.
var Fallback = Pair{Main: Miscellaneous, Sub: Other}

// CreditFallback is the default pair for unmatched incoming money.
var CreditFallback = Pair{Main: Income, Sub: OtherIncome}

// Valid reports whether the pair is a permitted combination.
func (p Pair) Valid() bool {
	return IsValidPair(p.Main, p.Sub)
}

func (p Pair) String() string {
	return string(p.Main) + "/" + string(p.Sub)
}

type mainEntry struct {
	main    MainCategory
	display string
	subs    []subEntry
}

type subEntry struct {
	sub     SubCategory
	display string
}

// registry is ordered: prompts and listings follow this order.
var registry = []mainEntry{
	{Housing, "Housing", []subEntry{
		{Mortgage, "Mortgage"},
		{Rent, "Rent"},
		{Utilities, "Utilities"},
		{HomeInsurance, "Home Insurance"},
		{PropertyTaxes, "Property Taxes"},
		{HomeMaintenanceAndRepairs, "Home Maintenance & Repairs"},
	}},
	{Transportation, "Transportation", []subEntry{
		{PublicTransportation, "Public Transportation"},
		{Fuel, "Fuel"},
		{CarInsurance, "Car Insurance"},
		{CarMaintenanceAndRepairs, "Car Maintenance & Repairs"},
		{Parking, "Parking"},
		{RoadTax, "Road Tax"},
		{Tolls, "Tolls"},
		{RideSharingServices, "Ride-Sharing Services"},
		{OVChipkaartRecharges, "OV-Chipkaart Recharges"},
	}},
	{FoodAndGroceries, "Food & Groceries", []subEntry{
		{Groceries, "Groceries"},
		{RestaurantsAndDiningOut, "Restaurants & Dining Out"},
		{TakeawayDelivery, "Takeaway/Delivery"},
		{CoffeeSnacks, "Coffee/Snacks"},
	}},
	{PersonalCareAndHealth, "Personal Care & Health", []subEntry{
		{HealthInsurance, "Health Insurance"},
		{PharmacyMedications, "Pharmacy/Medications"},
		{GymAndFitness, "Gym & Fitness"},
		{PersonalCareProducts, "Personal Care Products"},
		{DoctorSpecialistVisits, "Doctor/Specialist Visits"},
	}},
	{KidsAndFamily, "Kids & Family", []subEntry{
		{Childcare, "Childcare"},
		{KidsActivitiesAndEntertainment, "Kids Activities & Entertainment"},
	}},
	{EntertainmentAndLeisure, "Entertainment & Leisure", []subEntry{
		{MoviesCinema, "Movies/Cinema"},
		{EventsConcertsAttractions, "Events/Concerts/Attractions"},
		{HobbiesAndRecreation, "Hobbies & Recreation"},
		{LotteryGambling, "Lottery/Gambling"},
	}},
	{Shopping, "Shopping", []subEntry{
		{Clothing, "Clothing"},
		{ElectronicsAndAppliances, "Electronics & Appliances"},
		{HomeGoodsAndFurniture, "Home Goods & Furniture"},
		{BooksAndStationery, "Books & Stationery"},
	}},
	{Education, "Education", []subEntry{
		{TuitionSchoolFees, "Tuition/School Fees"},
		{BooksAndSupplies, "Books & Supplies"},
		{LanguageClasses, "Language Classes"},
	}},
	{FinancialExpenses, "Financial Expenses", []subEntry{
		{BankFees, "Bank Fees"},
		{CreditCardPayments, "Credit Card Payments"},
		{LoanPayments, "Loan Payments"},
		{TransferFees, "Transfer Fees"},
	}},
	{Income, "Income", []subEntry{
		{Salary, "Salary"},
		{OtherIncome, "Other Income"},
		{Compensation, "Compensation"},
	}},
	{GiftsAndDonations, "Gifts & Donations", []subEntry{
		{Gifts, "Gifts"},
		{CharitableDonations, "Charitable Donations"},
	}},
	{Travel, "Travel", []subEntry{
		{Accommodation, "Accommodation"},
		{TravelActivities, "Activities"},
		{TravelFood, "Food"},
		{TravelTransportation, "Transportation"},
	}},
	{Miscellaneous, "Miscellaneous", []subEntry{
		{Other, "Other"},
	}},
}

// lookup tables derived from registry
var (
	mainDisplay = map[MainCategory]string{}
	subDisplay  = map[SubCategory]string{}
	subOwner    = map[SubCategory]MainCategory{}
	mainByKey   = map[string]MainCategory{}
	subByKey    = map[string]SubCategory{}
)

func init() {
	if err := buildIndex(); err != nil {
		panic("taxonomy: " + err.Error())
	}
}

func buildIndex() error {
	displays := map[string]bool{}
	for _, m := range registry {
		if _, dup := mainDisplay[m.main]; dup {
			return fmt.Errorf("duplicate main category %s", m.main)
		}
		if key := normalizeKey(m.display); key != strings.ToLower(string(m.main)) {
			return fmt.Errorf("display %q does not normalize to %s", m.display, m.main)
		}
		mainDisplay[m.main] = m.display
		mainByKey[strings.ToLower(string(m.main))] = m.main

		for _, s := range m.subs {
			if owner, dup := subOwner[s.sub]; dup {
				return fmt.Errorf("subcategory %s listed under %s and %s", s.sub, owner, m.main)
			}
			if key := normalizeKey(s.display); key != strings.ToLower(string(s.sub)) {
				return fmt.Errorf("display %q does not normalize to %s", s.display, s.sub)
			}
			if displays[m.main.String()+"\x00"+s.display] {
				return fmt.Errorf("duplicate display %q under %s", s.display, m.main)
			}
			displays[m.main.String()+"\x00"+s.display] = true
			subDisplay[s.sub] = s.display
			subOwner[s.sub] = m.main
			subByKey[strings.ToLower(string(s.sub))] = s.sub
		}
	}
	return nil
}

// normalizeKey maps a display spelling onto the lowercase storage spelling.
func normalizeKey(s string) string {
	var b strings.Builder
	s = strings.ReplaceAll(s, "&", "And")
	for _, r := range s {
		switch r {
		case '/', '-', ' ', '\t', '\n', '\r':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

func (m MainCategory) String() string { return string(m) }
func (s SubCategory) String() string  { return string(s) }

// MainCategories returns every main category in registry order.
func MainCategories() []MainCategory {
	out := make([]MainCategory, len(registry))
	for i, m := range registry {
		out[i] = m.main
	}
	return out
}

// SubcategoriesOf returns the ordered subcategories permitted under main,
// or nil for an unknown main category.
func SubcategoriesOf(main MainCategory) []SubCategory {
	for _, m := range registry {
		if m.main != main {
			continue
		}
		out := make([]SubCategory, len(m.subs))
		for i, s := range m.subs {
			out[i] = s.sub
		}
		return out
	}
	return nil
}

// IsValidPair reports whether sub is permitted under main.
func IsValidPair(main MainCategory, sub SubCategory) bool {
	owner, ok := subOwner[sub]
	return ok && owner == main
}

// ParseMain resolves a storage-spelled main category, case-insensitively.
func ParseMain(s string) (MainCategory, error) {
	m, ok := mainByKey[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: main category %q", ErrUnknownCategory, s)
	}
	return m, nil
}

// MainFromDisplay resolves a main category given in display or storage
// spelling.
func MainFromDisplay(s string) (MainCategory, error) {
	m, ok := mainByKey[normalizeKey(s)]
	if !ok {
		return "", fmt.Errorf("%w: main category %q", ErrUnknownCategory, s)
	}
	return m, nil
}

// ParseSub resolves a storage-spelled subcategory, case-insensitively.
func ParseSub(s string) (SubCategory, error) {
	sub, ok := subByKey[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: subcategory %q", ErrUnknownCategory, s)
	}
	return sub, nil
}

// ParsePair resolves storage spellings and requires a valid combination.
func ParsePair(main, sub string) (Pair, error) {
	m, err := ParseMain(main)
	if err != nil {
		return Pair{}, err
	}
	s, err := ParseSub(sub)
	if err != nil {
		return Pair{}, err
	}
	if !IsValidPair(m, s) {
		return Pair{}, fmt.Errorf("%w: %s/%s", ErrInvalidPair, m, s)
	}
	return Pair{Main: m, Sub: s}, nil
}

// ToStorage converts display names to storage categories. Separators
// ("&", "/", "-", spaces) are normalized away and matching is
// case-insensitive, so storage spellings are accepted as well.
//
// A name that resolves to nothing is an error. Two known names that do not
// form a valid pair yield Fallback with corrected set; callers log that.
func ToStorage(displayMain, displaySub string) (pair Pair, corrected bool, err error) {
	m, ok := mainByKey[normalizeKey(displayMain)]
	if !ok {
		return Pair{}, false, fmt.Errorf("%w: main category %q", ErrUnknownCategory, displayMain)
	}
	s, ok := subByKey[normalizeKey(displaySub)]
	if !ok {
		return Pair{}, false, fmt.Errorf("%w: subcategory %q", ErrUnknownCategory, displaySub)
	}
	if !IsValidPair(m, s) {
		return Fallback, true, nil
	}
	return Pair{Main: m, Sub: s}, false, nil
}

// ToDisplay converts a storage pair to its display spelling. Unknown values
// and invalid combinations are errors.
func ToDisplay(main MainCategory, sub SubCategory) (string, string, error) {
	md, ok := mainDisplay[main]
	if !ok {
		return "", "", fmt.Errorf("%w: main category %q", ErrUnknownCategory, string(main))
	}
	sd, ok := subDisplay[sub]
	if !ok {
		return "", "", fmt.Errorf("%w: subcategory %q", ErrUnknownCategory, string(sub))
	}
	if subOwner[sub] != main {
		return "", "", fmt.Errorf("%w: %s/%s", ErrInvalidPair, main, sub)
	}
	return md, sd, nil
}

// DisplayGroup is one main category with its subcategories in display
// spelling.
type DisplayGroup struct {
	Main MainCategory `json:"main"`
	Name string       `json:"name"`
	Subs []string     `json:"subcategories"`
}

// Tree returns the whole taxonomy in display spelling, in registry order.
func Tree() []DisplayGroup {
	out := make([]DisplayGroup, len(registry))
	for i, m := range registry {
		subs := make([]string, len(m.subs))
		for j, s := range m.subs {
			subs[j] = s.display
		}
		out[i] = DisplayGroup{Main: m.main, Name: m.display, Subs: subs}
	}
	return out
}

// AllPairs returns every valid pair in registry order.
func AllPairs() []Pair {
	var out []Pair
	for _, m := range registry {
		for _, s := range m.subs {
			out = append(out, Pair{Main: m.main, Sub: s.sub})
		}
	}
	return out
}
