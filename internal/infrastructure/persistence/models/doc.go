// Package models holds the GORM row types backing the returns tables.
// Domain entities stay free of ORM tags; these models own the table
// mappings and the conversions in both directions, and the repositories
// in the parent package work exclusively through them.
package models
