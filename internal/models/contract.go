// Package models defines core data structures for contracts, filters, and enrichment results.
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// CSV header names as produced by the SAM.gov contract listing export.
const (
	HeaderNoticeID       = "Notice ID"
	HeaderTitle          = "Title"
	HeaderAgency         = "Department/Ind. Agency"
	HeaderSubTier        = "Sub-Tier"
	HeaderNAICSCode      = "NAICS Code"
	HeaderPSCCode        = "PSC Code"
	HeaderDatePosted     = "Date Posted"
	HeaderType           = "Type"
	HeaderBasePeriod     = "Base Period"
	HeaderOptionPeriods  = "Option Periods"
	HeaderDeliveryOrder  = "Delivery Order/Task Order/BOA Order"
	HeaderSynopsis       = "Synopsis"
	HeaderSetAside       = "SETASIDE"
	HeaderResponseDate   = "Response Date"
	HeaderAwardDate      = "Award Date"
	HeaderAwardNumber    = "Award Number"
	HeaderAwardValue     = "Contract Award Value"
	HeaderContractorName = "Contractor Name"
	HeaderDescription    = "Contract Description"
	HeaderPrimaryPOC     = "Primary Point of Contact"
	HeaderSecondaryPOC   = "Secondary Point of Contact"
)

// CSVHeaders is the canonical column order for imports and exports.
var CSVHeaders = []string{
	HeaderNoticeID, HeaderTitle, HeaderAgency, HeaderSubTier,
	HeaderNAICSCode, HeaderPSCCode, HeaderDatePosted, HeaderType,
	HeaderBasePeriod, HeaderOptionPeriods, HeaderDeliveryOrder,
	HeaderSynopsis, HeaderSetAside, HeaderResponseDate, HeaderAwardDate,
	HeaderAwardNumber, HeaderAwardValue, HeaderContractorName,
	HeaderDescription, HeaderPrimaryPOC, HeaderSecondaryPOC,
}

// Contract is a single contract notice. Raw holds the full original row as
// imported, including any columns that are not individually mapped, so no
// field from the source file is ever lost.
type Contract struct {
	NoticeID       string            `json:"notice_id"`
	Title          string            `json:"title"`
	Agency         string            `json:"agency"`
	SubTier        string            `json:"sub_tier,omitempty"`
	NAICSCode      string            `json:"naics_code,omitempty"`
	PSCCode        string            `json:"psc_code,omitempty"`
	DatePosted     string            `json:"date_posted"`
	Type           string            `json:"type,omitempty"`
	BasePeriod     string            `json:"base_period,omitempty"`
	OptionPeriods  string            `json:"option_periods,omitempty"`
	DeliveryOrder  string            `json:"delivery_order,omitempty"`
	Synopsis       string            `json:"synopsis,omitempty"`
	SetAside       string            `json:"setaside,omitempty"`
	ResponseDate   string            `json:"response_date,omitempty"`
	AwardDate      string            `json:"award_date,omitempty"`
	AwardNumber    string            `json:"award_number,omitempty"`
	AwardValue     float64           `json:"award_value,omitempty"`
	ContractorName string            `json:"contractor_name,omitempty"`
	Description    string            `json:"description,omitempty"`
	PrimaryPOC     string            `json:"primary_poc,omitempty"`
	SecondaryPOC   string            `json:"secondary_poc,omitempty"`
	Raw            map[string]string `json:"raw,omitempty"`
}

// FromRow builds a Contract from an imported CSV row keyed by header name.
// The row itself is retained as the Raw payload.
func FromRow(row map[string]string) *Contract {
	return &Contract{
		NoticeID:       row[HeaderNoticeID],
		Title:          row[HeaderTitle],
		Agency:         row[HeaderAgency],
		SubTier:        row[HeaderSubTier],
		NAICSCode:      row[HeaderNAICSCode],
		PSCCode:        row[HeaderPSCCode],
		DatePosted:     row[HeaderDatePosted],
		Type:           row[HeaderType],
		BasePeriod:     row[HeaderBasePeriod],
		OptionPeriods:  row[HeaderOptionPeriods],
		DeliveryOrder:  row[HeaderDeliveryOrder],
		Synopsis:       row[HeaderSynopsis],
		SetAside:       row[HeaderSetAside],
		ResponseDate:   row[HeaderResponseDate],
		AwardDate:      row[HeaderAwardDate],
		AwardNumber:    row[HeaderAwardNumber],
		AwardValue:     ParseAwardValue(row[HeaderAwardValue]),
		ContractorName: row[HeaderContractorName],
		Description:    row[HeaderDescription],
		PrimaryPOC:     row[HeaderPrimaryPOC],
		SecondaryPOC:   row[HeaderSecondaryPOC],
		Raw:            row,
	}
}

// ToRaw returns the contract as a row keyed by canonical header names.
// When the contract was imported, the original row is returned unchanged;
// otherwise a row is synthesized from the typed fields.
func (c *Contract) ToRaw() map[string]string {
	if len(c.Raw) > 0 {
		return c.Raw
	}
	row := map[string]string{
		HeaderNoticeID:       c.NoticeID,
		HeaderTitle:          c.Title,
		HeaderAgency:         c.Agency,
		HeaderSubTier:        c.SubTier,
		HeaderNAICSCode:      c.NAICSCode,
		HeaderPSCCode:        c.PSCCode,
		HeaderDatePosted:     c.DatePosted,
		HeaderType:           c.Type,
		HeaderBasePeriod:     c.BasePeriod,
		HeaderOptionPeriods:  c.OptionPeriods,
		HeaderDeliveryOrder:  c.DeliveryOrder,
		HeaderSynopsis:       c.Synopsis,
		HeaderSetAside:       c.SetAside,
		HeaderResponseDate:   c.ResponseDate,
		HeaderAwardDate:      c.AwardDate,
		HeaderAwardNumber:    c.AwardNumber,
		HeaderContractorName: c.ContractorName,
		HeaderDescription:    c.Description,
		HeaderPrimaryPOC:     c.PrimaryPOC,
		HeaderSecondaryPOC:   c.SecondaryPOC,
	}
	if c.AwardValue != 0 {
		row[HeaderAwardValue] = strconv.FormatFloat(c.AwardValue, 'f', -1, 64)
	} else {
		row[HeaderAwardValue] = ""
	}
	return row
}

// Validate checks that the required fields are present. A contract missing
// any of notice id, title, agency, or date posted is rejected before storage.
func (c *Contract) Validate() error {
	if c.NoticeID == "" {
		return fmt.Errorf("contract missing notice id")
	}
	if c.Title == "" {
		return fmt.Errorf("contract %s missing title", c.NoticeID)
	}
	if c.Agency == "" {
		return fmt.Errorf("contract %s missing agency", c.NoticeID)
	}
	if c.DatePosted == "" {
		return fmt.Errorf("contract %s missing date posted", c.NoticeID)
	}
	return nil
}

// ParseAwardValue parses a contract award value, tolerating currency
// formatting such as "$1,234,567.89". Returns 0 when unparsable.
func ParseAwardValue(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
