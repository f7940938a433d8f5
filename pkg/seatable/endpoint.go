package seatable

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var endpointVariable = regexp.MustCompile(`{{ *(access_token|dtable_uuid|server) *}}`)

// BaseURI returns the server the credentials point at, without trailing
// slashes.
func BaseURI(c Context) string {
	if c.credentials.Environment == EnvironmentCloudHosted {
		return CloudHostedURL
	}

	return strings.TrimRight(norm.NFC.String(strings.TrimSpace(c.credentials.ServerURL)), "/")
}

// ExpandEndpoint substitutes the {{access_token}}, {{dtable_uuid}} and
// {{server}} variables in endpoint. Variables without a value in c are left
// as they are. Endpoints starting with a slash are made absolute against
// BaseURI.
func ExpandEndpoint(c Context, endpoint string) string {
	server := BaseURI(c)

	variables := map[string]string{
		"server": server,
	}

	if c.base != nil {
		variables["access_token"] = norm.NFC.String(c.base.AccessToken)
		variables["dtable_uuid"] = norm.NFC.String(c.base.DTableUUID)
	}

	expanded := endpointVariable.ReplaceAllStringFunc(norm.NFC.String(endpoint), func(match string) string {
		name := endpointVariable.FindStringSubmatch(match)[1]
		if value := variables[name]; value != "" {
			return value
		}

		return match
	})

	if strings.HasPrefix(expanded, "/") {
		return server + expanded
	}

	return expanded
}
