// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// UserSessionTable represents the 'users.session' table
type UserSessionTable struct {
	Table          string
	TokenID        string
	UserID         string
	IPAddress      string
	UserAgent      string
	CreatedAt      string
	LastActivityAt string
	ExpiresAt      string
	IsActive       string
}

// UserSession is the schema definition for users.session
var UserSession = UserSessionTable{
	Table:          "users.session",
	TokenID:        "tokenid",
	UserID:         "userid",
	IPAddress:      "ipaddress",
	UserAgent:      "useragent",
	CreatedAt:      "createdat",
	LastActivityAt: "lastactivityat",
	ExpiresAt:      "expiresat",
	IsActive:       "isactive",
}

// Columns returns all standard column names
func (t UserSessionTable) Columns() []string {
	return []string{
		t.TokenID, t.UserID, t.IPAddress, t.UserAgent,
		t.CreatedAt, t.LastActivityAt, t.ExpiresAt, t.IsActive,
	}
}
