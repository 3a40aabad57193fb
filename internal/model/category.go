package model

// Category is one of the fixed subject categories assigned to a group.
type Category string

const (
	CategoryHealth         Category = "Health, Medicine & Public Health"
	CategorySocialCare     Category = "Social Care, Welfare & Family Support"
	CategoryEducation      Category = "Education, Skills & Youth"
	CategoryScience        Category = "Science, Technology & Innovation"
	CategoryEnvironment    Category = "Environment, Climate & Sustainability"
	CategoryEnergy         Category = "Energy & Utilities"
	CategoryInfrastructure Category = "Infrastructure, Transport & Mobility"
	CategoryEconomy        Category = "Economy, Business & Industry"
	CategoryFinance        Category = "Finance, Markets & Consumer Affairs"
	CategoryFood           Category = "Food, Agriculture & Rural Affairs"
	CategoryAnimals        Category = "Animals & Animal Welfare"
	CategoryArts           Category = "Arts, Culture, Heritage & Media"
	CategorySport          Category = "Sport, Recreation & Physical Activity"
	CategoryJustice        Category = "Justice, Law & Security"
	CategoryHumanRights    Category = "Human Rights, Equality & Social Justice"
	CategoryInternational  Category = "International Affairs, Development & Trade"
	CategoryRegions        Category = "Regions, Nations & Devolution"
	CategoryHousing        Category = "Housing, Planning & Built Environment"
	CategoryGovernance     Category = "Governance, Democracy & Political Reform"
	CategoryReligion       Category = "Religion, Faith & Belief Communities"
	CategoryOther          Category = "Other"
	CategoryCountryGroup   Category = "Country Group"
)

// Categories lists every valid category value.
var Categories = []Category{
	CategoryHealth, CategorySocialCare, CategoryEducation, CategoryScience,
	CategoryEnvironment, CategoryEnergy, CategoryInfrastructure, CategoryEconomy,
	CategoryFinance, CategoryFood, CategoryAnimals, CategoryArts, CategorySport,
	CategoryJustice, CategoryHumanRights, CategoryInternational, CategoryRegions,
	CategoryHousing, CategoryGovernance, CategoryReligion, CategoryOther,
	CategoryCountryGroup,
}

// Valid reports whether c is one of the known category values.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
