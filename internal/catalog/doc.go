// Package catalog defines the domain types shared by the ingest pipeline: the
// records decoded from the remote API, the rows persisted to the catalog
// tables, and the interfaces the pipeline stages depend on.
package catalog
