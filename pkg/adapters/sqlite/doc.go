// Package sqlite provides a SQLite lead store and campaign service.
//
// It implements ports.LeadStore and ports.CampaignService over a single database file
// using the pure-Go modernc.org/sqlite driver, so the binary needs no cgo.
package sqlite
