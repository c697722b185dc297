package categorizer

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/taxonomy"
)

// Rule maps keywords to a pair. It matches when any keyword in Any occurs
// in the description and every keyword in All does too. Keywords are
// lowercase and must start at a word boundary, so "rent " does not fire on
// "parent" while "huur" still fires on "huurbetaling". A trailing space in a
// keyword also matches the end of the description.
type Rule struct {
	Any  []string
	All  []string
	Pair taxonomy.Pair
}

func (r Rule) matches(desc string) bool {
	if len(r.Any) > 0 {
		found := false
		for _, kw := range r.Any {
			if containsWordPrefix(desc, kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, kw := range r.All {
		if !containsWordPrefix(desc, kw) {
			return false
		}
	}
	return len(r.Any) > 0 || len(r.All) > 0
}

// containsWordPrefix reports whether kw occurs in s starting at a word
// boundary.
func containsWordPrefix(s, kw string) bool {
	if kw == "" {
		return false
	}
	for offset := 0; offset <= len(s)-len(kw); {
		i := strings.Index(s[offset:], kw)
		if i < 0 {
			return false
		}
		pos := offset + i
		if pos == 0 || !isWordRune(lastRuneBefore(s, pos)) {
			return true
		}
		offset = pos + 1
	}
	return false
}

func lastRuneBefore(s string, pos int) rune {
	r, _ := utf8.DecodeLastRuneInString(s[:pos])
	return r
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func pair(m taxonomy.MainCategory, s taxonomy.SubCategory) taxonomy.Pair {
	return taxonomy.Pair{Main: m, Sub: s}
}

// DefaultCreditRules are tried in order for incoming money.
var DefaultCreditRules = []Rule{
	{Any: []string{
		"salary", "payroll", "salaris", "loon", "wages", "bonus", "payout",
		"abn amro", "payment from", "ing bank", "deposit",
		"ebay marketplaces", "connexie",
	}, Pair: pair(taxonomy.Income, taxonomy.Salary)},
	{Any: []string{
		"interest", "dividend", "investment", "earnings", "rente", "spaarrekening",
	}, Pair: pair(taxonomy.Income, taxonomy.OtherIncome)},
	{Any: []string{
		"refund", "rebate", "compensation", "cashback", "teruggave",
		"terugbetaling", "return", "correction",
	}, Pair: pair(taxonomy.Income, taxonomy.Compensation)},
}

// DefaultDebitRules are tried in order for outgoing money; the first match
// wins. More specific rules precede broader ones.
var DefaultDebitRules = []Rule{
	// Housing
	{Any: []string{"hypotheek", "mortgage"}, Pair: pair(taxonomy.Housing, taxonomy.Mortgage)},
	{Any: []string{"huur", "rent "}, Pair: pair(taxonomy.Housing, taxonomy.Rent)},
	{Any: []string{"woonverzekering", "inboedel", "opstal", "home insurance"}, Pair: pair(taxonomy.Housing, taxonomy.HomeInsurance)},
	{All: []string{"gemeente", "aanslag"}, Pair: pair(taxonomy.Housing, taxonomy.PropertyTaxes)},
	{Any: []string{"waterschap", "ozb", "property tax"}, Pair: pair(taxonomy.Housing, taxonomy.PropertyTaxes)},
	{Any: []string{
		"vitens", "oxxio", "eneco", "vattenfall", "essent", "greenchoice",
		"water", "electricity", "energie", "ziggo", "kpn",
	}, Pair: pair(taxonomy.Housing, taxonomy.Utilities)},
	{Any: []string{"vve", "home maintenance", "home repair", "loodgieter", "klusjesman"}, Pair: pair(taxonomy.Housing, taxonomy.HomeMaintenanceAndRepairs)},

	// Food delivery before ride sharing so "uber eats" is not a taxi
	{Any: []string{
		"thuisbezorgd", "deliveroo", "uber eats", "dominos", "domino's",
		"new york pizza", "takeaway", "pizza", "bezorg",
	}, Pair: pair(taxonomy.FoodAndGroceries, taxonomy.TakeawayDelivery)},

	// Transportation
	{All: []string{"ov-chipkaart", "opladen"}, Pair: pair(taxonomy.Transportation, taxonomy.OVChipkaartRecharges)},
	{All: []string{"ov-chipkaart", "recharge"}, Pair: pair(taxonomy.Transportation, taxonomy.OVChipkaartRecharges)},
	{Any: []string{"ns.nl", "ns groep", "ns reizigers", "ov-chipkaart", "ovpay", "gvb", "htm ", "connexxion", "arriva", "qbuzz"}, Pair: pair(taxonomy.Transportation, taxonomy.PublicTransportation)},
	{Any: []string{"shell", "bp ", "esso", "fuel", "tango", "tinq", "texaco", "gas station", "tankstation"}, Pair: pair(taxonomy.Transportation, taxonomy.Fuel)},
	{Any: []string{"car insurance", "autoverzekering"}, Pair: pair(taxonomy.Transportation, taxonomy.CarInsurance)},
	{Any: []string{"car maintenance", "car repair", "garage", "apk "}, Pair: pair(taxonomy.Transportation, taxonomy.CarMaintenanceAndRepairs)},
	{Any: []string{"parking", "parkeren", "q-park", "p+r", "yellowbrick", "parkmobile"}, Pair: pair(taxonomy.Transportation, taxonomy.Parking)},
	{Any: []string{"wegenbelasting", "motorrijtuigenbelasting", "road tax"}, Pair: pair(taxonomy.Transportation, taxonomy.RoadTax)},
	{Any: []string{"toll", "tol ", "peage"}, Pair: pair(taxonomy.Transportation, taxonomy.Tolls)},
	{Any: []string{"uber", "bolt.eu"}, Pair: pair(taxonomy.Transportation, taxonomy.RideSharingServices)},

	// Food & Groceries
	{Any: []string{
		"albert heijn", "ah to go", "ah bezorgservice", "jumbo", "lidl", "aldi",
		"plus supermarkt", "dirk", "dekamarkt", "vomar", "hoogvliet", "spar ",
		"picnic", "ekoplaza", "boodschappen", "supermarkt", "supermarket",
	}, Pair: pair(taxonomy.FoodAndGroceries, taxonomy.Groceries)},
	{Any: []string{"coffee", "koffie", "starbucks", "snack"}, Pair: pair(taxonomy.FoodAndGroceries, taxonomy.CoffeeSnacks)},
	{Any: []string{
		"restaurant", "dining", "cafe", "eetcafe", "iens", "dinner", "lunch",
		"bistro", "brasserie", "mcdonalds", "mcdonald's", "burger king", "kfc",
	}, Pair: pair(taxonomy.FoodAndGroceries, taxonomy.RestaurantsAndDiningOut)},

	// Personal Care & Health
	{Any: []string{"zilveren kruis", "health insurance", "zorgverzekering", "menzis", "vgz"}, Pair: pair(taxonomy.PersonalCareAndHealth, taxonomy.HealthInsurance)},
	{Any: []string{"apotheek", "pharmacy", "medicine", "medicijn", "prescription", "recept"}, Pair: pair(taxonomy.PersonalCareAndHealth, taxonomy.PharmacyMedications)},
	{Any: []string{"gym", "fitness", "basic-fit", "sportschool"}, Pair: pair(taxonomy.PersonalCareAndHealth, taxonomy.GymAndFitness)},
	{Any: []string{"personal care", "toiletries", "cosmetics", "etos", "kruidvat", "kapper"}, Pair: pair(taxonomy.PersonalCareAndHealth, taxonomy.PersonalCareProducts)},
	{Any: []string{"doctor", "hospital", "medical", "huisarts", "tandarts", "fysio", "ziekenhuis"}, Pair: pair(taxonomy.PersonalCareAndHealth, taxonomy.DoctorSpecialistVisits)},

	// Kids & Family
	{Any: []string{"childcare", "kinderopvang", "gastouder"}, Pair: pair(taxonomy.KidsAndFamily, taxonomy.Childcare)},
	{Any: []string{"kids", "children", "toys", "intertoys", "funky jungle", "zwemles"}, Pair: pair(taxonomy.KidsAndFamily, taxonomy.KidsActivitiesAndEntertainment)},

	// Entertainment & Leisure
	{Any: []string{"cinema", "movie", "vue ", "pathe", "kinepolis", "bioscoop"}, Pair: pair(taxonomy.EntertainmentAndLeisure, taxonomy.MoviesCinema)},
	{Any: []string{"event", "concert", "attraction", "theater", "theatre", "ticketmaster", "museum"}, Pair: pair(taxonomy.EntertainmentAndLeisure, taxonomy.EventsConcertsAttractions)},
	{Any: []string{
		"hobby", "recreation", "netflix", "spotify", "disney+", "videoland",
		"prime video", "hbo",
	}, Pair: pair(taxonomy.EntertainmentAndLeisure, taxonomy.HobbiesAndRecreation)},
	{Any: []string{"lottery", "gambling", "loterij", "lotto", "holland casino"}, Pair: pair(taxonomy.EntertainmentAndLeisure, taxonomy.LotteryGambling)},

	// Education, before shopping so "school books" is not a bookstore
	{Any: []string{"tuition", "school fees", "collegegeld"}, Pair: pair(taxonomy.Education, taxonomy.TuitionSchoolFees)},
	{All: []string{"books", "school"}, Pair: pair(taxonomy.Education, taxonomy.BooksAndSupplies)},
	{Any: []string{"language", "taalcursus", "duolingo", "dutch course"}, Pair: pair(taxonomy.Education, taxonomy.LanguageClasses)},

	// Shopping
	{Any: []string{
		"h&m", "zara", "uniqlo", "primark", "c&a", "we fashion", "vero moda",
		"jack & jones", "nike", "adidas", "puma", "clothing", "kleding",
		"fashion", "zalando",
	}, Pair: pair(taxonomy.Shopping, taxonomy.Clothing)},
	{Any: []string{"electronics", "appliances", "mediamarkt", "media markt", "coolblue"}, Pair: pair(taxonomy.Shopping, taxonomy.ElectronicsAndAppliances)},
	{Any: []string{
		"ikea", "furniture", "home goods", "praxis", "gamma", "karwei",
		"hornbach", "lamp", "decoration", "home improvement", "hema",
	}, Pair: pair(taxonomy.Shopping, taxonomy.HomeGoodsAndFurniture)},
	{Any: []string{"books", "stationery", "bruna", "boekhandel"}, Pair: pair(taxonomy.Shopping, taxonomy.BooksAndStationery)},

	// Financial Expenses
	{Any: []string{"bank fees", "kosten oranjepakket", "kosten tweede rekeninghouder", "kosten betaalpakket"}, Pair: pair(taxonomy.FinancialExpenses, taxonomy.BankFees)},
	{Any: []string{"credit card", "creditcard", "icscards"}, Pair: pair(taxonomy.FinancialExpenses, taxonomy.CreditCardPayments)},
	{Any: []string{"loan", "lening", "aflossing"}, Pair: pair(taxonomy.FinancialExpenses, taxonomy.LoanPayments)},
	{Any: []string{"transfer fee", "transfer provisie"}, Pair: pair(taxonomy.FinancialExpenses, taxonomy.TransferFees)},

	// Gifts & Donations
	{Any: []string{"gift", "cadeau"}, Pair: pair(taxonomy.GiftsAndDonations, taxonomy.Gifts)},
	{Any: []string{"donation", "donatie", "stg care nederland", "charity", "unicef", "rode kruis"}, Pair: pair(taxonomy.GiftsAndDonations, taxonomy.CharitableDonations)},

	// Travel
	{Any: []string{"hotel", "airbnb", "accommodation", "booking.com", "hostel"}, Pair: pair(taxonomy.Travel, taxonomy.Accommodation)},
	{All: []string{"activities", "vacation"}, Pair: pair(taxonomy.Travel, taxonomy.TravelActivities)},
	{All: []string{"food", "vacation"}, Pair: pair(taxonomy.Travel, taxonomy.TravelFood)},
	{All: []string{"transportation", "vacation"}, Pair: pair(taxonomy.Travel, taxonomy.TravelTransportation)},
	{Any: []string{"klm", "transavia", "easyjet", "ryanair", "flixbus", "eurostar"}, Pair: pair(taxonomy.Travel, taxonomy.TravelTransportation)},
}

// RuleStrategy is the deterministic keyword tier.
type RuleStrategy struct {
	credit []Rule
	debit  []Rule
}

// NewRuleStrategy builds a rule tier. Nil tables select the defaults.
func NewRuleStrategy(credit, debit []Rule) *RuleStrategy {
	if credit == nil {
		credit = DefaultCreditRules
	}
	if debit == nil {
		debit = DefaultDebitRules
	}
	return &RuleStrategy{credit: credit, debit: debit}
}

func (s *RuleStrategy) Name() string {
	return "Rules"
}

// Categorize matches description against the table for dir. Credits always
// resolve: unmatched ones get the credit fallback.
func (s *RuleStrategy) Categorize(_ context.Context, description string, dir models.Direction) (taxonomy.Pair, bool, error) {
	desc := strings.ToLower(description)

	if dir == models.Credit {
		if p, ok := firstMatch(s.credit, desc); ok {
			return p, true, nil
		}
		return taxonomy.CreditFallback, true, nil
	}

	p, ok := firstMatch(s.debit, desc)
	return p, ok, nil
}

func firstMatch(rules []Rule, desc string) (taxonomy.Pair, bool) {
	desc += " "
	for _, r := range rules {
		if r.matches(desc) {
			return r.Pair, true
		}
	}
	return taxonomy.Pair{}, false
}
