package seatable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/nada-seatable/pkg/seatable"
)

func TestExpandEndpoint(t *testing.T) {
	creds := seatable.Credentials{
		Environment: seatable.EnvironmentSelfHosted,
		ServerURL:   "https://seatable.example.com//",
		APIToken:    "api-token",
	}

	staged, err := seatable.StageCredentials(creds)
	require.NoError(t, err)

	withBase := staged.WithBase(seatable.AppAccessToken{
		AccessToken: "access",
		DTableUUID:  "0b0e8e2b-6c0c-4b8d-9a55-3c3d5b7d6c1e",
	})

	testCases := []struct {
		name     string
		c        seatable.Context
		endpoint string
		expect   string
	}{
		{
			name:     "relative endpoint with uuid",
			c:        withBase,
			endpoint: "/dtable-server/api/v1/dtables/{{dtable_uuid}}/rows/",
			expect:   "https://seatable.example.com/dtable-server/api/v1/dtables/0b0e8e2b-6c0c-4b8d-9a55-3c3d5b7d6c1e/rows/",
		},
		{
			name:     "whitespace inside braces",
			c:        withBase,
			endpoint: "/x/{{ access_token }}/{{  dtable_uuid}}",
			expect:   "https://seatable.example.com/x/access/0b0e8e2b-6c0c-4b8d-9a55-3c3d5b7d6c1e",
		},
		{
			name:     "server variable in absolute uri",
			c:        withBase,
			endpoint: "{{server}}/api/v2.1/dtable/app-access-token/",
			expect:   "https://seatable.example.com/api/v2.1/dtable/app-access-token/",
		},
		{
			name:     "unresolved variables are left verbatim",
			c:        staged,
			endpoint: "/dtable-server/api/v1/dtables/{{dtable_uuid}}/metadata/",
			expect:   "https://seatable.example.com/dtable-server/api/v1/dtables/{{dtable_uuid}}/metadata/",
		},
		{
			name:     "unknown variables are left verbatim",
			c:        withBase,
			endpoint: "https://other.example.com/{{workspace_id}}",
			expect:   "https://other.example.com/{{workspace_id}}",
		},
		{
			name:     "endpoint is normalized",
			c:        withBase,
			endpoint: "/tables/Cafe\u0301/",
			expect:   "https://seatable.example.com/tables/Caf\u00e9/",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, seatable.ExpandEndpoint(tc.c, tc.endpoint))
		})
	}
}

func TestBaseURI(t *testing.T) {
	cloud, err := seatable.StageCredentials(seatable.Credentials{
		Environment: seatable.EnvironmentCloudHosted,
		ServerURL:   "https://ignored.example.com",
		APIToken:    "token",
	})
	require.NoError(t, err)

	assert.Equal(t, seatable.CloudHostedURL, seatable.BaseURI(cloud))

	self, err := seatable.StageCredentials(seatable.Credentials{
		ServerURL: " https://seatable.example.com/ ",
		APIToken:  "token",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://seatable.example.com", seatable.BaseURI(self))
}
