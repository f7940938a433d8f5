package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/nada-seatable/pkg/service"
	"github.com/navikt/nada-seatable/pkg/service/core"
)

func TestNodeCatalogService_Nodes(t *testing.T) {
	nodes, err := core.NewNodeCatalogService().Nodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	assert.Equal(t, core.NodeSeaTable, nodes[0].ID)
	assert.Equal(t, core.KindAction, nodes[0].Kind)
	assert.Equal(t, service.Operations, nodes[0].Operations)

	assert.Equal(t, core.NodeSeaTableTrigger, nodes[1].ID)
	assert.Equal(t, []string{service.EventRowCreated, service.EventRowUpdated}, nodes[1].Events)
}
