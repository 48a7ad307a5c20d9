package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Usage category majors recognised by the ARV formulas.
const (
	UsageResidential    = "RESIDENTIAL"
	UsageNonResidential = "NONRESIDENTIAL"
	UsageMixed          = "MIX"
)

// Property types.
const (
	PropertyTypeVacant = "VACANT"
)

// Occupancy types. Anything that is not rented is treated as owner-occupied.
const (
	OccupancyRented = "RENTED"
)

// ChannelMigration marks properties whose baseline was imported from a legacy system.
const ChannelMigration = "MIGRATION"

// Property is the assessable property sent to the calculator.
type Property struct {
	ID                    string           `json:"id,omitempty"`
	PropertyID            string           `json:"propertyId" binding:"required"`
	TenantID              string           `json:"tenantId" binding:"required"`
	AcknowledgementNumber string           `json:"acknowldgementNumber,omitempty"`
	Address               Address          `json:"address"`
	PropertyDetails       []PropertyDetail `json:"propertyDetails" binding:"required,min=1,dive"`
	Owners                []Owner          `json:"owners,omitempty"`
}

// Current returns the property detail driving a calculation, or nil when none is attached.
func (p *Property) Current() *PropertyDetail {
	if p == nil || len(p.PropertyDetails) == 0 {
		return nil
	}
	return &p.PropertyDetails[0]
}

// ActiveOwner returns the first active owner, falling back to the first owner listed.
func (p *Property) ActiveOwner() *Owner {
	if p == nil || len(p.Owners) == 0 {
		return nil
	}
	for i := range p.Owners {
		if p.Owners[i].Active {
			return &p.Owners[i]
		}
	}
	return &p.Owners[0]
}

// Address carries the location fields used for rate lookup.
type Address struct {
	City     string   `json:"city,omitempty"`
	Locality Locality `json:"locality"`
}

// Locality identifies the boundary the base rates are published for.
type Locality struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// Owner is a property owner; the active owner becomes the demand payer.
type Owner struct {
	UUID         string `json:"uuid,omitempty"`
	Name         string `json:"name"`
	MobileNumber string `json:"mobileNumber,omitempty"`
	Active       bool   `json:"active"`
}

// PropertyDetail is the assessment-specific snapshot of a property.
type PropertyDetail struct {
	FinancialYear      string                 `json:"financialYear" binding:"required"`
	AssessmentNumber   string                 `json:"assessmentNumber,omitempty"`
	PropertyType       string                 `json:"propertyType,omitempty"`
	UsageCategoryMajor string                 `json:"usageCategoryMajor,omitempty"`
	LandArea           *decimal.Decimal       `json:"landArea,omitempty"`
	BuildUpArea        *decimal.Decimal       `json:"buildUpArea,omitempty"`
	ConstructionYear   int                    `json:"constructionYear,omitempty"`
	RoadWidth          decimal.Decimal        `json:"roadWidth"`
	Units              []Unit                 `json:"units,omitempty"`
	Channel            string                 `json:"channel,omitempty"`
	AdditionalDetails  map[string]interface{} `json:"additionalDetails,omitempty"`
}

// IsVacant reports whether the detail describes vacant land.
func (d *PropertyDetail) IsVacant() bool {
	return strings.EqualFold(d.PropertyType, PropertyTypeVacant)
}

// IsMigrated reports whether the baseline must be read from the payment store.
func (d *PropertyDetail) IsMigrated() bool {
	return strings.EqualFold(d.Channel, ChannelMigration)
}

// Unit is a single occupied portion of a property.
type Unit struct {
	UsageCategoryMajor    string          `json:"usageCategoryMajor"`
	UsageCategoryMinor    string          `json:"usageCategoryMinor,omitempty"`
	UsageCategorySubMinor string          `json:"usageCategorySubMinor,omitempty"`
	UsageCategoryDetail   string          `json:"usageCategoryDetail,omitempty"`
	OccupancyType         string          `json:"occupancyType,omitempty"`
	ConstructionType      string          `json:"constructionType,omitempty"`
	Category              string          `json:"category,omitempty"`
	UnitArea              decimal.Decimal `json:"unitArea"`
}

// IsRented reports whether the unit is let out.
func (u Unit) IsRented() bool {
	return strings.EqualFold(u.OccupancyType, OccupancyRented)
}

// Facilities are the amenity flags that drive the non-residential facilities rebate.
type Facilities struct {
	HasParking                    bool
	HasOpenSpace                  bool
	HasPlantation                 bool
	HasPowerBackUp                bool
	HasSolarPanels                bool
	HasFireFighting               bool
	HasLiftFacility               bool
	IsRainwaterHarvesting         bool
	HasAntiPollutionMeasures      bool
	HasSolidWasteManagementSystem bool
}

// Any reports whether at least one facility is present.
func (f Facilities) Any() bool {
	return f.HasParking || f.HasOpenSpace || f.HasPlantation || f.HasPowerBackUp ||
		f.HasSolarPanels || f.HasFireFighting || f.HasLiftFacility || f.IsRainwaterHarvesting ||
		f.HasAntiPollutionMeasures || f.HasSolidWasteManagementSystem
}

// ParseFacilities reads facility flags from free-form additional details.
// Missing or malformed values are treated as absent.
func ParseFacilities(details map[string]interface{}) Facilities {
	if len(details) == 0 {
		return Facilities{}
	}
	return Facilities{
		HasParking:                    flag(details, "hasParking"),
		HasOpenSpace:                  flag(details, "hasOpenSpace"),
		HasPlantation:                 flag(details, "hasPlantation"),
		HasPowerBackUp:                flag(details, "hasPowerBackUp"),
		HasSolarPanels:                flag(details, "hasSolarPanels"),
		HasFireFighting:               flag(details, "hasFireFighting"),
		HasLiftFacility:               flag(details, "hasLiftFacility"),
		IsRainwaterHarvesting:         flag(details, "isRainwaterHarvesting"),
		HasAntiPollutionMeasures:      flag(details, "hasAntiPollutionMeasures"),
		HasSolidWasteManagementSystem: flag(details, "hasSolidWasteManagementSystem"),
	}
}

func flag(details map[string]interface{}, key string) bool {
	switch v := details[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}
