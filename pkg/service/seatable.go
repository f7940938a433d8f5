package service

import (
	"context"

	"github.com/navikt/nada-seatable/pkg/seatable"
)

// Operations of the action node.
const (
	OperationCreate   = "create"
	OperationAppend   = "append"
	OperationGet      = "get"
	OperationGetAll   = "getAll"
	OperationList     = "list"
	OperationUpdate   = "update"
	OperationDelete   = "delete"
	OperationMetadata = "metadata"
	OperationSearch   = "search"
	OperationLock     = "lock"
	OperationUnlock   = "unlock"
)

// Operations lists the action node operations in the order they are
// presented to users.
var Operations = []string{
	OperationCreate,
	OperationAppend,
	OperationGet,
	OperationGetAll,
	OperationList,
	OperationUpdate,
	OperationDelete,
	OperationMetadata,
	OperationSearch,
	OperationLock,
	OperationUnlock,
}

// Events of the trigger node.
const (
	EventRowCreated = "rowCreated"
	EventRowUpdated = "rowUpdated"
)

// Parameter names understood by the nodes.
const (
	ParamOperation      = "operation"
	ParamTableName      = "tableName"
	ParamRowID          = "rowId"
	ParamColumns        = "columns"
	ParamReturnAll      = "returnAll"
	ParamLimit          = "limit"
	ParamViewName       = "viewName"
	ParamConvert        = "convert"
	ParamSimple         = "simple"
	ParamInputsToIgnore = "inputsToIgnore"
	ParamSearchColumn   = "searchColumn"
	ParamSearchTerm     = "searchTerm"
	ParamWildcard       = "wildcard"
	ParamEvent          = "event"
)

// Item is one input item handed to the action node by the host.
type Item = map[string]any

// RowService implements the action node.
type RowService interface {
	Execute(ctx context.Context, creds seatable.Credentials, params ParameterSource, items []Item) (seatable.OrderedRows, error)
}

// PollOptions describes a single trigger poll.
type PollOptions struct {
	// CursorKey identifies the trigger whose last checked time is stored.
	CursorKey string
	// Manual is set when a user runs the trigger by hand rather than on
	// the host's schedule.
	Manual bool
}

// TriggerService implements the polling trigger node.
type TriggerService interface {
	Poll(ctx context.Context, creds seatable.Credentials, params ParameterSource, opts PollOptions) (seatable.OrderedRows, error)
}

// CursorStorage keeps the last checked timestamp of each trigger between
// polls.
type CursorStorage interface {
	GetCursor(ctx context.Context, key string) (string, bool, error)
	SetCursor(ctx context.Context, key, cursor string) error
}

// NodeDefinition describes a node to the host.
type NodeDefinition struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	Operations  []string `json:"operations,omitempty"`
	Events      []string `json:"events,omitempty"`
}

type NodeCatalogService interface {
	Nodes(ctx context.Context) ([]NodeDefinition, error)
}
