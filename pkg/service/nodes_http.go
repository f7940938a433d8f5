package service

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/navikt/nada-seatable/pkg/seatable"
)

// ExecuteRequest is an action node invocation sent by the host.
type ExecuteRequest struct {
	Parameters Parameters `json:"parameters"`
	Items      []Item     `json:"items"`
}

func (r ExecuteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Parameters, validation.Required),
	)
}

// PollRequest is a trigger node invocation sent by the host. Scheduled
// polls name the workflow and node so the cursor can be found again.
type PollRequest struct {
	Parameters Parameters `json:"parameters"`
	Manual     bool       `json:"manual"`
	WorkflowID string     `json:"workflow_id"`
	NodeID     string     `json:"node_id"`
}

func (r PollRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Parameters, validation.Required),
		validation.Field(&r.WorkflowID, validation.When(!r.Manual, validation.Required)),
		validation.Field(&r.NodeID, validation.When(!r.Manual, validation.Required)),
	)
}

// NodeResult holds the items a node hands back to the host.
type NodeResult struct {
	Items seatable.OrderedRows `json:"items"`
}

type NodeCatalog struct {
	Nodes []NodeDefinition `json:"nodes"`
}
