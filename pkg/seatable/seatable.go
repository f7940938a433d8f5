// Package seatable provides a client for the SeaTable API as used by the
// workflow nodes: app access token exchange, base metadata and the row
// endpoints of the dtable server.
//   - https://api.seatable.io
package seatable

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	EnvironmentCloudHosted = "cloudHosted"
	EnvironmentSelfHosted  = "selfHosted"

	CloudHostedURL = "https://cloud.seatable.io"
)

// Reserved row fields maintained by SeaTable itself.
const (
	ColumnID           = "_id"
	ColumnCreator      = "_creator"
	ColumnCreatedTime  = "_ctime"
	ColumnLastModifier = "_last_modifier"
	ColumnModifiedTime = "_mtime"
	ColumnSequence     = "_seq"
)

// InternalNames lists the reserved row fields in a fixed order.
var InternalNames = []string{
	ColumnID,
	ColumnCreator,
	ColumnCreatedTime,
	ColumnLastModifier,
	ColumnModifiedTime,
	ColumnSequence,
}

// IsInternal reports whether name is one of the reserved row fields.
func IsInternal(name string) bool {
	for _, n := range InternalNames {
		if n == name {
			return true
		}
	}

	return false
}

// Credentials are the stored credentials of a SeaTable base.
type Credentials struct {
	Environment string `json:"environment"`
	ServerURL   string `json:"server_url"`
	APIToken    string `json:"api_token"`
	Timezone    string `json:"timezone"`
}

// AppAccessToken is the result of exchanging a base API token.
type AppAccessToken struct {
	AccessToken  string `json:"access_token"`
	DTableUUID   string `json:"dtable_uuid"`
	DTableServer string `json:"dtable_server"`
	DTableSocket string `json:"dtable_socket"`
	WorkspaceID  int    `json:"workspace_id"`
	DTableName   string `json:"dtable_name"`
	AppName      string `json:"app_name"`
}

// ExpiresAt reads the expiry claim of the access token without verifying
// its signature.
func (a AppAccessToken) ExpiresAt() (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}

	_, _, err := jwt.NewParser().ParseUnverified(a.AccessToken, claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return claims.ExpiresAt.Time, true
}

type Column struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Table struct {
	ID      string   `json:"_id"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Primary returns the first declared column of the table, which SeaTable
// uses as the display column of a row.
func (t Table) Primary() (Column, bool) {
	if len(t.Columns) == 0 {
		return Column{}, false
	}

	return t.Columns[0], true
}

// ColumnByName returns the column with the given display name.
func (t Table) ColumnByName(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}

	return Column{}, false
}

// ColumnByKey returns the column with the given internal key.
func (t Table) ColumnByKey(key string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}

	return Column{}, false
}

type Metadata struct {
	Tables []Table `json:"tables"`
}

// Table returns the table with the given name.
func (m Metadata) Table(name string) (Table, bool) {
	for _, t := range m.Tables {
		if t.Name == name {
			return t, true
		}
	}

	return Table{}, false
}

// TableNames returns the names of all tables in declaration order.
func (m Metadata) TableNames() []string {
	names := make([]string, 0, len(m.Tables))
	for _, t := range m.Tables {
		names = append(names, t.Name)
	}

	return names
}

// Row maps column keys or names to values, plus the reserved fields.
type Row map[string]any

type Rows []Row
