package config

import "github.com/glorpus-work/wingetmirror/pkg/rest"

// Information builds the payload of the information endpoint.
func (s SourceConfig) Information() rest.Information {
	info := rest.Information{
		SourceIdentifier:              s.Identifier,
		ServerSupportedVersions:       nonNil(s.ServerSupportedVersions),
		UnsupportedPackageMatchFields: nonNil(s.UnsupportedPackageMatchFields),
		RequiredPackageMatchFields:    nonNil(s.RequiredPackageMatchFields),
		UnsupportedQueryParameters:    nonNil(s.UnsupportedQueryParameters),
		RequiredQueryParameters:       nonNil(s.RequiredQueryParameters),
		Authentication:                rest.Authentication{AuthenticationType: s.AuthenticationType},
	}
	if s.Agreements != nil {
		agreements := &rest.SourceAgreements{
			AgreementsIdentifier: s.Agreements.Identifier,
			Agreements:           make([]rest.Agreement, 0, len(s.Agreements.Agreements)),
		}
		for _, a := range s.Agreements.Agreements {
			agreements.Agreements = append(agreements.Agreements, rest.Agreement{
				AgreementLabel: a.Label,
				Agreement:      a.Text,
				AgreementURL:   a.URL,
			})
		}
		info.SourceAgreements = agreements
	}
	return info
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
