package domain

// Province groups counties. Selecting a province is equivalent to selecting the
// union of its counties.
type Province struct {
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	Counties []string `json:"counties"`
}

// Provinces is the static province table. County slugs are normalised
// (lowercase, hyphenated).
var Provinces = []Province{
	{
		Slug:     "connacht",
		Name:     "Connacht",
		Counties: []string{"galway", "leitrim", "mayo", "roscommon", "sligo"},
	},
	{
		Slug: "leinster",
		Name: "Leinster",
		Counties: []string{
			"carlow", "dublin", "kildare", "kilkenny", "laois", "longford",
			"louth", "meath", "offaly", "westmeath", "wexford", "wicklow",
		},
	},
	{
		Slug:     "munster",
		Name:     "Munster",
		Counties: []string{"clare", "cork", "kerry", "limerick", "tipperary", "waterford"},
	},
	{
		Slug: "ulster",
		Name: "Ulster",
		Counties: []string{
			"antrim", "armagh", "cavan", "derry", "donegal", "down",
			"fermanagh", "monaghan", "tyrone",
		},
	},
}

var (
	provinceBySlug = map[string]*Province{}
	countyProvince = map[string]string{}
)

func init() {
	for i := range Provinces {
		p := &Provinces[i]
		provinceBySlug[p.Slug] = p
		for _, c := range p.Counties {
			countyProvince[c] = p.Slug
		}
	}
}

// ProvinceCounties returns the county slugs of a province, or nil when unknown.
func ProvinceCounties(slug string) []string {
	if p, ok := provinceBySlug[slug]; ok {
		return p.Counties
	}
	return nil
}

// ProvinceOf returns the province slug for a normalised county slug.
func ProvinceOf(county string) (string, bool) {
	p, ok := countyProvince[county]
	return p, ok
}

// LookupProvince returns the province with the given slug.
func LookupProvince(slug string) (Province, bool) {
	p, ok := provinceBySlug[slug]
	if !ok {
		return Province{}, false
	}
	return *p, true
}
