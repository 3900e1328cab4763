// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package schema names the tables and columns of the relational store.

Repositories build their statements from these definitions so that a column
rename is a single edit here plus a migration.
*/
package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table             string
	ID                string
	Name              string
	Email             string
	Password          string
	PreferredLanguage string
	Phone             string
	Bio               string
	Tier              string
	IsActive          string
	IsVerified        string
	EmailVerifiedAt   string
	LastLoginAt       string
	NotificationPrefs string
	PrivacySettings   string
	CreatedAt         string
	UpdatedAt         string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:             "users.account",
	ID:                "id",
	Name:              "name",
	Email:             "email",
	Password:          "passwordhash",
	PreferredLanguage: "preferredlanguage",
	Phone:             "phone",
	Bio:               "bio",
	Tier:              "tier",
	IsActive:          "isactive",
	IsVerified:        "isverified",
	EmailVerifiedAt:   "emailverifiedat",
	LastLoginAt:       "lastloginat",
	NotificationPrefs: "notificationprefs",
	PrivacySettings:   "privacysettings",
	CreatedAt:         "createdat",
	UpdatedAt:         "updatedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Email, t.Password, t.PreferredLanguage, t.Phone, t.Bio,
		t.Tier, t.IsActive, t.IsVerified, t.EmailVerifiedAt, t.LastLoginAt,
		t.NotificationPrefs, t.PrivacySettings, t.CreatedAt, t.UpdatedAt,
	}
}
