// Package rest holds the wire types of the package source protocol and renders
// repository data into them.
package rest

import (
	"github.com/glorpus-work/wingetmirror/pkg/match"
	"github.com/glorpus-work/wingetmirror/pkg/search"
)

// RequestMatch is a keyword with a match type.
type RequestMatch struct {
	KeyWord   *string `json:"KeyWord"`
	MatchType string  `json:"MatchType,omitempty"`
}

// PackageMatchFilter targets one package field.
type PackageMatchFilter struct {
	PackageMatchField string        `json:"PackageMatchField"`
	RequestMatch      *RequestMatch `json:"RequestMatch"`
}

// ManifestSearchRequest is the body of a manifestSearch call.
type ManifestSearchRequest struct {
	MaximumResults    *int                 `json:"MaximumResults,omitempty"`
	FetchAllManifests *bool                `json:"FetchAllManifests,omitempty"`
	Query             *RequestMatch        `json:"Query,omitempty"`
	Inclusions        []PackageMatchFilter `json:"Inclusions,omitempty"`
	Filters           []PackageMatchFilter `json:"Filters,omitempty"`
}

// ToSearch converts the wire request. Entries without a RequestMatch are dropped.
func (r ManifestSearchRequest) ToSearch() search.Request {
	req := search.Request{
		Inclusions: criteria(r.Inclusions),
		Filters:    criteria(r.Filters),
	}
	if r.MaximumResults != nil {
		req.MaximumResults = *r.MaximumResults
	}
	if r.FetchAllManifests != nil {
		req.FetchAll = *r.FetchAllManifests
	}
	if r.Query != nil {
		req.Query = &search.Criterion{Keyword: r.Query.KeyWord, MatchType: match.Type(r.Query.MatchType)}
	}
	return req
}

func criteria(filters []PackageMatchFilter) []search.Criterion {
	var out []search.Criterion
	for _, f := range filters {
		if f.RequestMatch == nil {
			continue
		}
		out = append(out, search.Criterion{
			Field:     search.ParseField(f.PackageMatchField),
			Keyword:   f.RequestMatch.KeyWord,
			MatchType: match.Type(f.RequestMatch.MatchType),
		})
	}
	return out
}

// ManifestSearchVersion is one version of a search result.
type ManifestSearchVersion struct {
	PackageVersion               string   `json:"PackageVersion"`
	PackageFamilyNames           []string `json:"PackageFamilyNames"`
	ProductCodes                 []string `json:"ProductCodes"`
	AppsAndFeaturesEntryVersions []string `json:"AppsAndFeaturesEntryVersions"`
	UpgradeCodes                 []string `json:"UpgradeCodes"`
}

// ManifestSearchResult is one package of a search result.
type ManifestSearchResult struct {
	PackageIdentifier string                  `json:"PackageIdentifier"`
	PackageName       string                  `json:"PackageName"`
	Publisher         string                  `json:"Publisher"`
	Versions          []ManifestSearchVersion `json:"Versions"`
}

// ManifestSearchResponse is the 200 body of a manifestSearch call.
type ManifestSearchResponse struct {
	Data                          []ManifestSearchResult `json:"Data"`
	ContinuationToken             *string                `json:"ContinuationToken"`
	RequiredPackageMatchFields    []string               `json:"RequiredPackageMatchFields"`
	UnsupportedPackageMatchFields []string               `json:"UnsupportedPackageMatchFields"`
}

// SearchResults converts search summaries to wire results.
func SearchResults(summaries []search.Summary) []ManifestSearchResult {
	out := make([]ManifestSearchResult, 0, len(summaries))
	for _, s := range summaries {
		r := ManifestSearchResult{
			PackageIdentifier: s.PackageIdentifier,
			PackageName:       s.PackageName,
			Publisher:         s.Publisher,
			Versions:          make([]ManifestSearchVersion, 0, len(s.Versions)),
		}
		for _, v := range s.Versions {
			codes := v.ProductCodes
			if codes == nil {
				codes = []string{}
			}
			r.Versions = append(r.Versions, ManifestSearchVersion{
				PackageVersion:               v.PackageVersion,
				PackageFamilyNames:           []string{},
				ProductCodes:                 codes,
				AppsAndFeaturesEntryVersions: []string{},
				UpgradeCodes:                 []string{},
			})
		}
		out = append(out, r)
	}
	return out
}

// PackageManifestResponse is the body of a packageManifests call.
type PackageManifestResponse struct {
	Data                       map[string]any `json:"Data"`
	ContinuationToken          *string        `json:"ContinuationToken"`
	UnsupportedQueryParameters []string       `json:"UnsupportedQueryParameters"`
	RequiredQueryParameters    []string       `json:"RequiredQueryParameters"`
}

// Agreement is one source agreement.
type Agreement struct {
	AgreementLabel string `json:"AgreementLabel"`
	Agreement      string `json:"Agreement"`
	AgreementURL   string `json:"AgreementUrl,omitempty"`
}

// SourceAgreements are shown to users adding the source.
type SourceAgreements struct {
	AgreementsIdentifier string      `json:"AgreementsIdentifier"`
	Agreements           []Agreement `json:"Agreements"`
}

// Authentication describes how clients authenticate.
type Authentication struct {
	AuthenticationType string `json:"AuthenticationType"`
}

// Information is the Data of the information endpoint.
type Information struct {
	SourceIdentifier              string            `json:"SourceIdentifier"`
	SourceAgreements              *SourceAgreements `json:"SourceAgreements,omitempty"`
	ServerSupportedVersions       []string          `json:"ServerSupportedVersions"`
	UnsupportedPackageMatchFields []string          `json:"UnsupportedPackageMatchFields"`
	RequiredPackageMatchFields    []string          `json:"RequiredPackageMatchFields"`
	UnsupportedQueryParameters    []string          `json:"UnsupportedQueryParameters"`
	RequiredQueryParameters       []string          `json:"RequiredQueryParameters"`
	Authentication                Authentication    `json:"Authentication"`
}

// InformationResponse wraps Information.
type InformationResponse struct {
	Data              Information `json:"Data"`
	ContinuationToken *string     `json:"ContinuationToken"`
}
