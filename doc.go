// Package main provides the entry point for the promo-warden service.
// It runs a command gateway on top of the Fiber framework through which a
// chat transport distributes single-use promotional codes to guild members:
// administrators register code groups and codes, and the allocation engine
// hands each recipient at most one code per group. The service uses gorm
// for data persistence with guild-scoped uniqueness enforced at the
// storage layer.
package main
